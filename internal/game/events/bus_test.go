package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/mitchelldurbincs/CaptureTheFlagRL/internal/game/core"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())

	received := false
	var receivedEvent Event

	id := bus.SubscribeFunc(TypeGameStarted, func(e Event) {
		received = true
		receivedEvent = e
	})
	assert.Equal(t, "game.started_func_1", id)

	bus.Publish(NewGameStartedEvent("test-game", 9, 16, 1, 5))

	assert.True(t, received, "Event handler should have been called")
	assert.NotNil(t, receivedEvent, "Event should have been received")
	assert.Equal(t, TypeGameStarted, receivedEvent.Type())
	assert.Equal(t, "test-game", receivedEvent.GameID())
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())

	handler1Called := false
	handler2Called := false

	bus.SubscribeFunc(TypeTurnEnded, func(e Event) {
		handler1Called = true
	})
	bus.SubscribeFunc(TypeTurnEnded, func(e Event) {
		handler2Called = true
	})
	assert.Equal(t, 2, bus.FuncHandlerCount(TypeTurnEnded))

	bus.Publish(NewTurnEndedEvent("test-game", 1, [2]int{}, [2]int{}))

	assert.True(t, handler1Called, "Handler 1 should have been called")
	assert.True(t, handler2Called, "Handler 2 should have been called")
}

// TestSubscriber is a test implementation of Subscriber
type TestSubscriber struct {
	id              string
	interestedTypes map[string]bool
	receivedEvents  []Event
}

func (ts *TestSubscriber) ID() string {
	return ts.id
}

func (ts *TestSubscriber) HandleEvent(e Event) {
	ts.receivedEvents = append(ts.receivedEvents, e)
}

func (ts *TestSubscriber) InterestedIn(eventType string) bool {
	if ts.interestedTypes == nil {
		return true
	}
	return ts.interestedTypes[eventType]
}

func TestEventBusSubscriber(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())

	subscriber := &TestSubscriber{
		id: "test-subscriber",
		interestedTypes: map[string]bool{
			TypeUnitCaptured: true,
			TypeGoalScored:   true,
		},
	}

	bus.Subscribe(subscriber)
	assert.Equal(t, 1, bus.SubscriberCount())

	bus.Publish(NewUnitCapturedEvent("test-game", 3, "t1u0", core.Team1, core.Position{Row: 8, Col: 4}, 5))
	bus.Publish(NewTurnEndedEvent("test-game", 3, [2]int{}, [2]int{1, 0}))
	bus.Publish(NewGoalScoredEvent("test-game", 9, core.Team0, [2]int{1, 0}))

	// Should only receive the capture and the goal
	assert.Len(t, subscriber.receivedEvents, 2)
	captured, ok := subscriber.receivedEvents[0].(*UnitCapturedEvent)
	if assert.True(t, ok) {
		assert.Equal(t, core.Team0, captured.CapturedBy)
		assert.Equal(t, 3, captured.Turn())
	}
	assert.Equal(t, TypeGoalScored, subscriber.receivedEvents[1].Type())

	bus.Unsubscribe(subscriber.ID())
	bus.Publish(NewGoalScoredEvent("test-game", 10, core.Team1, [2]int{1, 1}))

	assert.Len(t, subscriber.receivedEvents, 2)
}

type panickingSubscriber struct{}

func (panickingSubscriber) ID() string               { return "panics" }
func (panickingSubscriber) HandleEvent(Event)        { panic("boom") }
func (panickingSubscriber) InterestedIn(string) bool { return true }

func TestEventBusRecoversFromPanics(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())
	bus.Subscribe(panickingSubscriber{})

	called := false
	bus.SubscribeFunc(TypeEpisodeReset, func(Event) { panic("handler boom") })
	bus.SubscribeFunc(TypeEpisodeReset, func(Event) { called = true })

	assert.NotPanics(t, func() {
		bus.Publish(NewEpisodeResetEvent("test-game", 4, 1, [2]int{1, 0}, [2]int{}))
	})
	assert.True(t, called, "later handlers still run")
}
