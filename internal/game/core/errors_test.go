package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapConfigError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		err      error
		expected string
		isNil    bool
	}{
		{
			name:  "nil error returns nil",
			field: "units",
			isNil: true,
		},
		{
			name:     "unit count mismatch",
			field:    "units",
			err:      ErrUnitCountMismatch,
			expected: "invalid units: teams have different unit counts",
		},
		{
			name:     "blocked spawn",
			field:    "flags",
			err:      ErrSpawnBlocked,
			expected: "invalid flags: spawn position is not an open cell",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapConfigError(tt.field, tt.err)
			if tt.isNil {
				assert.Nil(t, wrapped)
				return
			}
			require.NotNil(t, wrapped)
			assert.Equal(t, tt.expected, wrapped.Error())
			assert.True(t, errors.Is(wrapped, tt.err))
		})
	}
}

func TestWrapContractError(t *testing.T) {
	assert.Nil(t, WrapContractError("move", nil))

	wrapped := WrapContractError("move", ErrOutOfBounds)
	assert.Equal(t, "contract violation in move: position outside board", wrapped.Error())
	assert.ErrorIs(t, wrapped, ErrOutOfBounds)

	var contract *ContractError
	require.ErrorAs(t, wrapped, &contract)
	assert.Equal(t, "move", contract.Op)
}
