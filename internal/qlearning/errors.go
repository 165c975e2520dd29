package qlearning

import "errors"

var (
	ErrActionOutOfRange = errors.New("action index out of range")
	ErrCorruptTable     = errors.New("corrupt value table")
	ErrInvalidStoreType = errors.New("invalid persistence type")
	ErrInvalidCodec     = errors.New("invalid table codec")
	ErrAgentMismatch    = errors.New("agent count mismatch")
)
