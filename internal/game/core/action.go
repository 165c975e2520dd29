package core

import (
	"fmt"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
)

// Action is one of the five unit choices. The numbering is shared with the
// value tables and must not change.
type Action = qlearning.Action

const (
	ActionUp Action = iota
	ActionDown
	ActionRight
	ActionLeft
	ActionStay
)

// NumActions is the size of the action set.
const NumActions = qlearning.NumActions

// Actions lists the action set in index order.
var Actions = [NumActions]Action{ActionUp, ActionDown, ActionRight, ActionLeft, ActionStay}

// actionDeltas are the displacements as seen by team 0, for whom "up" leads
// toward the enemy half.
var actionDeltas = [NumActions]Delta{
	ActionUp:    {Row: -1, Col: 0},
	ActionDown:  {Row: 1, Col: 0},
	ActionRight: {Row: 0, Col: 1},
	ActionLeft:  {Row: 0, Col: -1},
	ActionStay:  {Row: 0, Col: 0},
}

var actionNames = [NumActions]string{"up", "down", "right", "left", "stay"}

// ActionDelta returns the grid displacement of action for team. Team 1
// plays on the rotated board, so its deltas are rotated by 180 degrees.
func ActionDelta(action Action, team Team) Delta {
	if action < 0 || int(action) >= NumActions {
		panic(WrapContractError("action delta", fmt.Errorf("%w: %d", ErrUnknownAction, action)))
	}
	d := actionDeltas[action]
	if team == Team1 {
		d = d.Rotate180()
	}
	return d
}

// ActionName returns a short label for logs and renderers.
func ActionName(action Action) string {
	if action < 0 || int(action) >= NumActions {
		return fmt.Sprintf("action(%d)", action)
	}
	return actionNames[action]
}

// ResolveMove returns where a piece of team at from ends up after action:
// the neighbouring cell if it is open, otherwise from.
func ResolveMove(b *Board, from Position, team Team, action Action) Position {
	to := from.Add(ActionDelta(action, team))
	if to == from || !b.IsOpen(to) {
		return from
	}
	return to
}
