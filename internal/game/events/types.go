package events

import (
	"time"
)

// Event is something that happened in a game during a turn.
type Event interface {
	// Type is one of the Type* constants.
	Type() string
	GameID() string
	// Turn is the game's turn counter when the event was published.
	Turn() int
	Timestamp() time.Time
}

// Header carries what every event has in common. Events embed it.
type Header struct {
	Kind    string    `json:"type"`
	Game    string    `json:"game_id"`
	TurnNum int       `json:"turn"`
	Time    time.Time `json:"timestamp"`
}

func (h Header) Type() string { return h.Kind }

func (h Header) GameID() string { return h.Game }

func (h Header) Turn() int { return h.TurnNum }

func (h Header) Timestamp() time.Time { return h.Time }

func header(kind, gameID string, turn int) Header {
	return Header{Kind: kind, Game: gameID, TurnNum: turn, Time: time.Now()}
}

// EventHandler handles events of one type registered with SubscribeFunc.
type EventHandler func(Event)

// Subscriber receives every event type it is interested in.
type Subscriber interface {
	ID() string
	HandleEvent(Event)
	InterestedIn(eventType string) bool
}

// Publisher is what a game publishes its events to. A nil Publisher
// disables events.
type Publisher interface {
	Publish(Event)
}
