package snapshotserver

import (
	"sync"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game"
	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/qlearning"
)

// StepInfo summarizes the training step that produced a snapshot.
type StepInfo struct {
	Step     int
	MeanCost float64
}

// SnapshotStore holds the most recently published game snapshot. It is
// written by the training loop and read by RPC handlers.
type SnapshotStore struct {
	mu    sync.RWMutex
	snap  game.Snapshot
	info  StepInfo
	ready bool
}

// NewSnapshotStore returns an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Publish replaces the stored snapshot.
func (s *SnapshotStore) Publish(snap game.Snapshot, info StepInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.info = info
	s.ready = true
}

// Latest returns the stored snapshot, or false if nothing has been published.
func (s *SnapshotStore) Latest() (game.Snapshot, StepInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.info, s.ready
}

// Hook returns a step hook that publishes every committed game state.
// Environments that are not games are ignored.
func (s *SnapshotStore) Hook() qlearning.StepHook {
	return func(state qlearning.Environment, result qlearning.StepResult) {
		gs, ok := state.(*game.GameState)
		if !ok {
			return
		}
		s.Publish(gs.Snapshot(), StepInfo{Step: result.Step, MeanCost: result.MeanCost})
	}
}
