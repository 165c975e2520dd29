package game

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
)

// ErrBadObservationKey is returned by ParseObservation.
var ErrBadObservationKey = errors.New("malformed observation key")

// Observation is what a unit sees, in its own orientation: team 1 looks at
// the board rotated by 180 degrees. Ally and enemy positions are sorted so
// the key does not depend on unit order.
type Observation struct {
	Self    core.Position
	Allies  []core.Position
	Enemies []core.Position
}

// Key encodes the observation as "(r,c)|(r,c);(r,c)|(r,c)".
func (o Observation) Key() qlearning.Key {
	var sb strings.Builder
	sb.WriteString(o.Self.String())
	sb.WriteByte('|')
	writePositions(&sb, o.Allies)
	sb.WriteByte('|')
	writePositions(&sb, o.Enemies)
	return qlearning.Key(sb.String())
}

func writePositions(sb *strings.Builder, ps []core.Position) {
	for i, p := range ps {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(p.String())
	}
}

// ParseObservation is the inverse of Observation.Key.
func ParseObservation(key qlearning.Key) (Observation, error) {
	parts := strings.Split(string(key), "|")
	if len(parts) != 3 {
		return Observation{}, fmt.Errorf("%w: %q", ErrBadObservationKey, key)
	}
	var (
		o   Observation
		err error
	)
	if o.Self, err = parsePosition(parts[0]); err != nil {
		return Observation{}, fmt.Errorf("%w: %q", err, key)
	}
	if o.Allies, err = parsePositions(parts[1]); err != nil {
		return Observation{}, fmt.Errorf("%w: %q", err, key)
	}
	if o.Enemies, err = parsePositions(parts[2]); err != nil {
		return Observation{}, fmt.Errorf("%w: %q", err, key)
	}
	return o, nil
}

func parsePositions(s string) ([]core.Position, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ";")
	ps := make([]core.Position, len(fields))
	for i, f := range fields {
		p, err := parsePosition(f)
		if err != nil {
			return nil, err
		}
		ps[i] = p
	}
	return ps, nil
}

func parsePosition(s string) (core.Position, error) {
	inner, ok := strings.CutPrefix(s, "(")
	if ok {
		inner, ok = strings.CutSuffix(inner, ")")
	}
	row, col, found := strings.Cut(inner, ",")
	if !ok || !found {
		return core.Position{}, ErrBadObservationKey
	}
	r, err := strconv.Atoi(row)
	if err != nil {
		return core.Position{}, ErrBadObservationKey
	}
	c, err := strconv.Atoi(col)
	if err != nil {
		return core.Position{}, ErrBadObservationKey
	}
	return core.Position{Row: r, Col: c}, nil
}

// Observation builds the orientation-normalized view of u.
func (gs *GameState) Observation(u *core.Unit) Observation {
	view := func(p core.Position) core.Position {
		if u.Team == core.Team1 {
			return gs.Board.Rotate(p)
		}
		return p
	}

	o := Observation{Self: view(u.Position)}
	for _, ally := range gs.Units[u.Team] {
		if ally != u {
			o.Allies = append(o.Allies, view(ally.Position))
		}
	}
	for _, enemy := range gs.Units[u.Team.Opponent()] {
		o.Enemies = append(o.Enemies, view(enemy.Position))
	}
	sortPositions(o.Allies)
	sortPositions(o.Enemies)
	return o
}

// Observe implements qlearning.Environment.
func (gs *GameState) Observe(agent qlearning.Agent) qlearning.Key {
	return gs.Observation(gs.unitOf(agent)).Key()
}

func sortPositions(ps []core.Position) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Less(ps[j]) })
}
