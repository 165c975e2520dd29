package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition_DistanceTo(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Position
		expected int
	}{
		{"same", Position{3, 3}, Position{3, 3}, 0},
		{"adjacent row", Position{3, 3}, Position{4, 3}, 1},
		{"adjacent col", Position{3, 3}, Position{3, 2}, 1},
		{"diagonal", Position{0, 0}, Position{2, 3}, 5},
		{"symmetric", Position{2, 3}, Position{0, 0}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.DistanceTo(tt.b))
		})
	}
}

func TestPosition_Less(t *testing.T) {
	assert.True(t, Position{1, 5}.Less(Position{2, 0}))
	assert.True(t, Position{2, 0}.Less(Position{2, 1}))
	assert.False(t, Position{2, 1}.Less(Position{2, 1}))
	assert.False(t, Position{3, 0}.Less(Position{2, 9}))
}

func TestPosition_AddAndString(t *testing.T) {
	p := Position{Row: 4, Col: 2}
	assert.Equal(t, Position{3, 2}, p.Add(Delta{Row: -1}))
	assert.Equal(t, "(4,2)", p.String())
}

func TestDelta_Rotate180(t *testing.T) {
	assert.Equal(t, Delta{Row: 1, Col: -1}, Delta{Row: -1, Col: 1}.Rotate180())
	assert.Equal(t, Delta{}, Delta{}.Rotate180())
}

func TestTeam_Opponent(t *testing.T) {
	assert.Equal(t, Team1, Team0.Opponent())
	assert.Equal(t, Team0, Team1.Opponent())
	assert.Equal(t, "team1", Team1.String())
}
