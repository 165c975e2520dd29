package qlearning

// Agent is a participant controlled by a learned policy.
type Agent interface {
	Policy() *Actor
}

// Environment is the contract between a game and the training loop.
// Agents must be returned in a stable order; a clone returns its agents in
// the same order as the original.
type Environment interface {
	Agents() []Agent
	// Observe returns the value-table key for agent in the current state.
	Observe(agent Agent) Key
	// Cost is the instantaneous cost of agent taking action from the
	// current state.
	Cost(agent Agent, action Action) float64
	// ApplyActions advances every agent simultaneously; actions[i] belongs
	// to Agents()[i].
	ApplyActions(actions []Action)
	// UpdateBefore resolves turn rules after movement and before scoring.
	UpdateBefore()
	// UpdateAfter resolves scoring and advances the turn.
	UpdateAfter()
	Clone() Environment
}
