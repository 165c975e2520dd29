package qlearning

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
)

// Params are the learning hyperparameters.
type Params struct {
	Alpha   float64 // learning rate
	Gamma   float64 // discount
	Epsilon float64 // exploration rate
}

// DefaultParams returns alpha 0.3, gamma 0.9, epsilon 0.15.
func DefaultParams() Params {
	return Params{Alpha: 0.3, Gamma: 0.9, Epsilon: 0.15}
}

// Validate checks that every parameter lies in [0,1].
func (p Params) Validate() error {
	if p.Alpha < 0 || p.Alpha > 1 {
		return fmt.Errorf("alpha must be between 0 and 1, got %v", p.Alpha)
	}
	if p.Gamma < 0 || p.Gamma > 1 {
		return fmt.Errorf("gamma must be between 0 and 1, got %v", p.Gamma)
	}
	if p.Epsilon < 0 || p.Epsilon > 1 {
		return fmt.Errorf("epsilon must be between 0 and 1, got %v", p.Epsilon)
	}
	return nil
}

// StepResult describes one completed training step.
type StepResult struct {
	Step     int
	Actions  []Action
	Costs    []float64
	MeanCost float64
	Duration time.Duration
}

// StepHook is invoked after every committed step.
type StepHook func(state Environment, result StepResult)

// Model drives cost-minimizing tabular Q-learning over an Environment.
type Model struct {
	state  Environment
	rng    *rand.Rand
	logger zerolog.Logger

	paramsMu sync.RWMutex
	params   Params

	steps int
}

// NewModel creates a model whose working state is initial.
func NewModel(initial Environment, params Params, rng *rand.Rand, logger zerolog.Logger) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return &Model{
		state:  initial,
		rng:    rng,
		params: params,
		logger: logger.With().Str("component", "q_model").Logger(),
	}, nil
}

// State returns the current working state.
func (m *Model) State() Environment { return m.state }

// Steps returns the number of completed steps.
func (m *Model) Steps() int { return m.steps }

// Params returns the current hyperparameters.
func (m *Model) Params() Params {
	m.paramsMu.RLock()
	defer m.paramsMu.RUnlock()
	return m.params
}

// SetParams replaces the hyperparameters. It is safe to call while Run is
// in progress; the change applies from the next step.
func (m *Model) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.paramsMu.Lock()
	m.params = p
	m.paramsMu.Unlock()
	m.logger.Info().
		Float64("alpha", p.Alpha).
		Float64("gamma", p.Gamma).
		Float64("epsilon", p.Epsilon).
		Msg("Updated learning parameters")
	return nil
}

// EGreedy picks a uniformly random action with probability epsilon and
// otherwise a uniformly random action among those tied for minimum value.
func (m *Model) EGreedy(q []float64, epsilon float64) Action {
	if m.rng.Float64() < epsilon {
		return Action(m.rng.Intn(len(q)))
	}
	best := MinActions(q)
	return best[m.rng.Intn(len(best))]
}

// QLearning returns the temporal-difference update of q[action] toward
// cost plus the discounted minimum of next.
func QLearning(q []float64, action Action, cost float64, next []float64, p Params) float64 {
	checkAction(action)
	return tdUpdate(q[action], cost, next, p)
}

func tdUpdate(old, cost float64, next []float64, p Params) float64 {
	return old + p.Alpha*(cost+p.Gamma*minValue(next)-old)
}

// Step performs one synchronized decide/transition/learn/commit cycle.
func (m *Model) Step() StepResult {
	start := time.Now()
	p := m.Params()

	agents := m.state.Agents()
	keys := make([]Key, len(agents))
	values := make([][]float64, len(agents))
	actions := make([]Action, len(agents))

	// Decide: every agent reads the same pre-transition state.
	for i, agent := range agents {
		keys[i] = m.state.Observe(agent)
		values[i] = agent.Policy().QValues(keys[i])
		actions[i] = m.EGreedy(values[i], p.Epsilon)
	}

	// Transition on a clone so costs are evaluated against the old state.
	next := m.state.Clone()
	next.ApplyActions(actions)
	next.UpdateBefore()

	nextAgents := next.Agents()
	if len(nextAgents) != len(agents) {
		panic(fmt.Errorf("%w: %d agents before transition, %d after", ErrAgentMismatch, len(agents), len(nextAgents)))
	}

	// Learn: the transition is complete before any value is written. The
	// old value is read at write time so agents sharing a table build on
	// each other's updates.
	costs := make([]float64, len(agents))
	var total float64
	for i, agent := range agents {
		cost := m.state.Cost(agent, actions[i])
		costs[i] = cost
		total += cost
		nextValues := agent.Policy().QValues(next.Observe(nextAgents[i]))
		agent.Policy().Update(keys[i], actions[i], func(old float64) float64 {
			return tdUpdate(old, cost, nextValues, p)
		})
	}

	// Commit.
	m.state = next
	m.state.UpdateAfter()
	m.steps++

	result := StepResult{
		Step:     m.steps,
		Actions:  actions,
		Costs:    costs,
		Duration: time.Since(start),
	}
	if len(costs) > 0 {
		result.MeanCost = total / float64(len(costs))
	}
	return result
}

// Run steps the model until steps have completed (0 means no limit) or ctx
// is cancelled. Cancellation is observed between steps only. Every distinct
// exporter is flushed before returning.
func (m *Model) Run(ctx context.Context, steps int, hook StepHook) error {
	m.logger.Info().Int("steps", steps).Msg("Starting training loop")
	defer m.Flush()

	for i := 0; steps <= 0 || i < steps; i++ {
		select {
		case <-ctx.Done():
			m.logger.Info().Err(ctx.Err()).Int("completed_steps", m.steps).Msg("Training loop stopped")
			return ctx.Err()
		default:
		}

		result := m.Step()
		if hook != nil {
			hook(m.state, result)
		}
	}

	m.logger.Info().Int("completed_steps", m.steps).Msg("Training loop finished")
	return nil
}

// Flush exports every distinct table through its exporter.
func (m *Model) Flush() {
	seen := make(map[*Table]bool)
	for _, agent := range m.state.Agents() {
		actor := agent.Policy()
		if seen[actor.Table()] {
			continue
		}
		seen[actor.Table()] = true
		actor.Exporter().Flush(actor.Table())
	}
}

// MinActions returns every action whose value is close to the minimum.
func MinActions(q []float64) []Action {
	lowest := minValue(q)
	best := make([]Action, 0, len(q))
	for i, v := range q {
		if isClose(v, lowest) {
			best = append(best, Action(i))
		}
	}
	return best
}

func minValue(q []float64) float64 {
	lowest := math.Inf(1)
	for _, v := range q {
		if v < lowest {
			lowest = v
		}
	}
	return lowest
}

// isClose mirrors the usual relative/absolute tolerance test.
func isClose(a, b float64) bool {
	const (
		rtol = 1e-5
		atol = 1e-8
	)
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}
