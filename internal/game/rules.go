package game

import (
	"fmt"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/events"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
)

const (
	baseCost    = 0.5
	flagCost    = 0.0
	blockedCost = 1.0
)

// NewPosition resolves where u would end up after action. Jail is not taken
// into account.
func (gs *GameState) NewPosition(u *core.Unit, action core.Action) core.Position {
	return core.ResolveMove(gs.Board, u.Position, u.Team, action)
}

// Cost is the instantaneous cost of agent taking action from the current
// state, judged by the position it would move to.
func (gs *GameState) Cost(agent qlearning.Agent, action qlearning.Action) float64 {
	u := gs.unitOf(agent)
	to := gs.NewPosition(u, action)

	cost := baseCost
	switch {
	case to == gs.Flags[u.Team.Opponent()].Position:
		cost = flagCost
	case action != core.ActionStay && to == u.Position:
		cost = blockedCost
	}
	if gs.GuardPenalty != 0 && gs.flagThreatened(u.Team) {
		cost += gs.GuardPenalty
	}
	return cost
}

// flagThreatened reports whether an enemy unit stands next to team's flag.
func (gs *GameState) flagThreatened(team core.Team) bool {
	flag := gs.Flags[team].Position
	for _, enemy := range gs.Units[team.Opponent()] {
		if enemy.Position.DistanceTo(flag) == 1 {
			return true
		}
	}
	return false
}

// ApplyActions moves every active unit and decrements every jail timer.
// actions[i] belongs to Agents()[i]. Moves depend only on the board, so the
// result is independent of processing order.
func (gs *GameState) ApplyActions(actions []qlearning.Action) {
	units := gs.AllUnits()
	if len(actions) != len(units) {
		panic(core.WrapContractError("apply actions", fmt.Errorf("%w: %d actions for %d units", core.ErrActionCount, len(actions), len(units))))
	}

	for i, u := range units {
		if u.InJail() {
			u.JailTimer--
			continue
		}
		u.Position = gs.NewPosition(u, actions[i])
		if u.HasFlag {
			gs.Flags[u.Team.Opponent()].Position = u.Position
		}
	}
}

// UpdateBefore resolves captures and then flag pickups.
func (gs *GameState) UpdateBefore() {
	for _, u0 := range gs.Units[core.Team0] {
		for _, u1 := range gs.Units[core.Team1] {
			if u0.InJail() || u1.InJail() || u0.Position != u1.Position {
				continue
			}
			// The intruder is the one caught.
			if gs.Board.HalfOf(u0.Position) == core.Team1 {
				gs.capture(u0)
			} else {
				gs.capture(u1)
			}
		}
	}

	for _, team := range core.Teams {
		flag := gs.Flags[team.Opponent()]
		if !flag.Grounded {
			continue
		}
		for _, u := range gs.Units[team] {
			if u.InJail() || u.Position != flag.Position {
				continue
			}
			u.HasFlag = true
			flag.Grounded = false
			gs.logger.Debug().Int("turn", gs.Turn).Str("unit", u.Name).Msg("Flag picked up")
			gs.publish(events.NewFlagPickedUpEvent(gs.gameID, gs.Turn, u.Name, team, u.Position))
			break
		}
	}
}

func (gs *GameState) capture(u *core.Unit) {
	at := u.Position
	if u.HasFlag {
		gs.Flags[u.Team.Opponent()].Reset()
	}
	u.Position = u.InitialPosition
	u.HasFlag = false
	u.JailTimer = gs.JailTimer
	gs.Captures[u.Team.Opponent()]++

	gs.logger.Debug().
		Int("turn", gs.Turn).
		Str("unit", u.Name).
		Str("at", at.String()).
		Msg("Unit captured")
	gs.publish(events.NewUnitCapturedEvent(gs.gameID, gs.Turn, u.Name, u.Team, at, gs.JailTimer))
}

// UpdateAfter credits a goal for every lifted flag, resets the episode if
// anyone scored and advances the turn.
func (gs *GameState) UpdateAfter() {
	scored := false
	for _, team := range core.Teams {
		if gs.Flags[team].Grounded {
			continue
		}
		scorer := team.Opponent()
		gs.Score[scorer]++
		scored = true
		gs.publish(events.NewGoalScoredEvent(gs.gameID, gs.Turn, scorer, gs.Score))
	}

	if scored {
		gs.Episode++
		gs.Reset()
		gs.logger.Info().
			Int("turn", gs.Turn).
			Int("episode", gs.Episode).
			Ints("score", gs.Score[:]).
			Ints("captures", gs.Captures[:]).
			Msg("Goal scored, episode reset")
		gs.publish(events.NewEpisodeResetEvent(gs.gameID, gs.Turn, gs.Episode, gs.Score, gs.Captures))
	}

	gs.Turn++
	gs.publish(events.NewTurnEndedEvent(gs.gameID, gs.Turn, gs.Score, gs.Captures))
}

// Reset returns every piece to its spawn and clears transient state. Turn,
// score and captures are kept.
func (gs *GameState) Reset() {
	for _, team := range core.Teams {
		for _, u := range gs.Units[team] {
			u.Reset()
		}
		gs.Flags[team].Reset()
	}
}
