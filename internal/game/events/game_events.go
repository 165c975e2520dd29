package events

import (
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
)

// Event type constants
const (
	TypeGameStarted  = "game.started"
	TypeUnitCaptured = "unit.captured"
	TypeFlagPickedUp = "flag.picked_up"
	TypeGoalScored   = "goal.scored"
	TypeEpisodeReset = "episode.reset"
	TypeTurnEnded    = "turn.ended"
)

// GameStartedEvent is published when a game is constructed
type GameStartedEvent struct {
	Header
	Width        int
	Height       int
	UnitsPerTeam int
	JailTimer    int
}

// NewGameStartedEvent creates a new GameStartedEvent
func NewGameStartedEvent(gameID string, width, height, unitsPerTeam, jailTimer int) *GameStartedEvent {
	return &GameStartedEvent{
		Header:       header(TypeGameStarted, gameID, 0),
		Width:        width,
		Height:       height,
		UnitsPerTeam: unitsPerTeam,
		JailTimer:    jailTimer,
	}
}

// UnitCapturedEvent is published when a collision sends a unit to jail
type UnitCapturedEvent struct {
	Header
	Unit       string
	Team       core.Team
	At         core.Position
	CapturedBy core.Team
	JailTimer  int
}

// NewUnitCapturedEvent creates a new UnitCapturedEvent
func NewUnitCapturedEvent(gameID string, turn int, unit string, team core.Team, at core.Position, jailTimer int) *UnitCapturedEvent {
	return &UnitCapturedEvent{
		Header:     header(TypeUnitCaptured, gameID, turn),
		Unit:       unit,
		Team:       team,
		At:         at,
		CapturedBy: team.Opponent(),
		JailTimer:  jailTimer,
	}
}

// FlagPickedUpEvent is published when a unit lifts the enemy flag
type FlagPickedUpEvent struct {
	Header
	Unit      string
	Team      core.Team
	FlagOwner core.Team
	At        core.Position
}

// NewFlagPickedUpEvent creates a new FlagPickedUpEvent
func NewFlagPickedUpEvent(gameID string, turn int, unit string, team core.Team, at core.Position) *FlagPickedUpEvent {
	return &FlagPickedUpEvent{
		Header:    header(TypeFlagPickedUp, gameID, turn),
		Unit:      unit,
		Team:      team,
		FlagOwner: team.Opponent(),
		At:        at,
	}
}

// GoalScoredEvent is published for every score increment
type GoalScoredEvent struct {
	Header
	Team  core.Team
	Score [2]int
}

// NewGoalScoredEvent creates a new GoalScoredEvent
func NewGoalScoredEvent(gameID string, turn int, team core.Team, score [2]int) *GoalScoredEvent {
	return &GoalScoredEvent{
		Header: header(TypeGoalScored, gameID, turn),
		Team:   team,
		Score:  score,
	}
}

// EpisodeResetEvent is published when the pieces return to their spawns
type EpisodeResetEvent struct {
	Header
	Episode  int
	Score    [2]int
	Captures [2]int
}

// NewEpisodeResetEvent creates a new EpisodeResetEvent
func NewEpisodeResetEvent(gameID string, turn, episode int, score, captures [2]int) *EpisodeResetEvent {
	return &EpisodeResetEvent{
		Header:   header(TypeEpisodeReset, gameID, turn),
		Episode:  episode,
		Score:    score,
		Captures: captures,
	}
}

// TurnEndedEvent is published after scoring when the turn counter advances
type TurnEndedEvent struct {
	Header
	Score    [2]int
	Captures [2]int
}

// NewTurnEndedEvent creates a new TurnEndedEvent
func NewTurnEndedEvent(gameID string, turn int, score, captures [2]int) *TurnEndedEvent {
	return &TurnEndedEvent{
		Header:   header(TypeTurnEnded, gameID, turn),
		Score:    score,
		Captures: captures,
	}
}
