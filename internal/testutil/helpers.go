package testutil

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// NewTestRNG creates a deterministic random number generator for tests
func NewTestRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NopLogger returns a no-op logger for tests
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// AssertPanicsWith asserts that f panics with an error matching target
func AssertPanicsWith(t *testing.T, target error, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Errorf("Expected panic wrapping %v but none occurred", target)
			return
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Errorf("Expected panic wrapping %v, got %v", target, r)
		}
	}()
	f()
}
