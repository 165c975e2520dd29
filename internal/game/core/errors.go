package core

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors, rejected before a game starts.
	ErrEmptyBoard        = errors.New("board has no cells")
	ErrRaggedBoard       = errors.New("board rows differ in length")
	ErrUnknownTile       = errors.New("unknown tile")
	ErrNoOpenCells       = errors.New("board has no open cells")
	ErrOpenBoundary      = errors.New("open cell on board boundary")
	ErrUnitCountMismatch = errors.New("teams have different unit counts")
	ErrNoUnits           = errors.New("each team needs at least one unit")
	ErrTooManyUnits      = errors.New("too many units for baseline")
	ErrSpawnBlocked      = errors.New("spawn position is not an open cell")
	ErrFlagCount         = errors.New("exactly one flag per team is required")
	ErrInvalidJailTimer  = errors.New("jail timer must be non-negative")

	// Contract violations, raised as panics.
	ErrOutOfBounds   = errors.New("position outside board")
	ErrUnknownAction = errors.New("unknown action")
	ErrNotAUnit      = errors.New("agent is not a unit of this game")
	ErrActionCount   = errors.New("exactly one action per unit is required")
)

// ConfigError describes a rejected game configuration.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// WrapConfigError attaches the offending configuration field to err.
func WrapConfigError(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Field: field, Err: err}
}

// ContractError is a logic defect. It is always delivered through panic.
type ContractError struct {
	Op  string
	Err error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract violation in %s: %v", e.Op, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }

// WrapContractError attaches the failing operation to err.
func WrapContractError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ContractError{Op: op, Err: err}
}
