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

// ErrBadSeedTransform is returned for an unrecognized seed transform.
var ErrBadSeedTransform = errors.New("invalid seed transform")

const (
	// SeedTransformNone looks live keys up in the seed table unchanged.
	SeedTransformNone = "none"
	// SeedTransformProject is written "project:<allies>,<enemies>".
	SeedTransformProject = "project"
)

// ParseSeedTransform builds the key transform named by spec. An empty spec
// or "none" returns nil, meaning seed keys are used as-is.
//
// "project:A,E" keeps the A allies and E enemies nearest to the unit, so a
// game with more units per team can start from a table trained with fewer.
func ParseSeedTransform(spec string) (qlearning.KeyTransform, error) {
	name, args, _ := strings.Cut(spec, ":")
	switch name {
	case "", SeedTransformNone:
		if args != "" {
			return nil, fmt.Errorf("%w: %q takes no arguments", ErrBadSeedTransform, spec)
		}
		return nil, nil
	case SeedTransformProject:
		a, e, ok := strings.Cut(args, ",")
		if !ok {
			return nil, fmt.Errorf("%w: %q, want project:<allies>,<enemies>", ErrBadSeedTransform, spec)
		}
		allies, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil || allies < 0 {
			return nil, fmt.Errorf("%w: bad ally count in %q", ErrBadSeedTransform, spec)
		}
		enemies, err := strconv.Atoi(strings.TrimSpace(e))
		if err != nil || enemies < 0 {
			return nil, fmt.Errorf("%w: bad enemy count in %q", ErrBadSeedTransform, spec)
		}
		return ProjectObservation(allies, enemies), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrBadSeedTransform, spec)
}

// ProjectObservation returns a transform that keeps at most allies allies and
// enemies enemies from a key, nearest to the unit first. Keys that do not
// parse are returned unchanged.
func ProjectObservation(allies, enemies int) qlearning.KeyTransform {
	return func(key qlearning.Key) qlearning.Key {
		o, err := ParseObservation(key)
		if err != nil {
			return key
		}
		o.Allies = nearest(o.Self, o.Allies, allies)
		o.Enemies = nearest(o.Self, o.Enemies, enemies)
		return o.Key()
	}
}

// nearest returns the n positions closest to from, in key order. Distance
// ties go to the smaller position.
func nearest(from core.Position, ps []core.Position, n int) []core.Position {
	if len(ps) <= n {
		return ps
	}
	kept := append([]core.Position(nil), ps...)
	sort.SliceStable(kept, func(i, j int) bool {
		di, dj := from.DistanceTo(kept[i]), from.DistanceTo(kept[j])
		if di != dj {
			return di < dj
		}
		return kept[i].Less(kept[j])
	})
	kept = kept[:n]
	sortPositions(kept)
	return kept
}
