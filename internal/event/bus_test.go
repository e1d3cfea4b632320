package event

import (
	"testing"

	"github.com/benresonance-star/Task-Checker-sub001/internal/model"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus()

	var received []Event
	bus.Subscribe("focus.changed", func(e Event) {
		received = append(received, e)
	})

	bus.Publish(NewFocusChangedEvent("u1", model.FocusRef{TaskID: "t1"}, false))
	bus.Publish(NewTimerTickEvent(3)) // different type, should not be delivered

	if len(received) != 1 {
		t.Fatalf("received %d events, want 1", len(received))
	}
	fc, ok := received[0].(FocusChangedEvent)
	if !ok {
		t.Fatalf("received %T, want FocusChangedEvent", received[0])
	}
	if fc.UserID != "u1" || fc.Ref.TaskID != "t1" {
		t.Errorf("event = %+v, want user u1 task t1", fc)
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewBus()

	count := 0
	bus.SubscribeAll(func(Event) { count++ })

	bus.Publish(NewTimerTickEvent(1))
	bus.Publish(NewPresenceUpdatedEvent("i1", "u1", "t1"))
	bus.Publish(NewActionSetChangedEvent("u1", 2))

	if count != 3 {
		t.Errorf("wildcard handler called %d times, want 3", count)
	}
}

func TestSpecificHandlersRunBeforeWildcard(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(Event) { order = append(order, "wildcard") })
	bus.Subscribe("timer.expired", func(Event) { order = append(order, "specific") })

	bus.Publish(NewTimerExpiredEvent("i1", "t1"))

	if len(order) != 2 || order[0] != "specific" || order[1] != "wildcard" {
		t.Errorf("dispatch order = %v, want [specific wildcard]", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	count := 0
	id := bus.Subscribe("timer.tick", func(Event) { count++ })

	bus.Publish(NewTimerTickEvent(1))
	if !bus.Unsubscribe(id) {
		t.Error("Unsubscribe() = false, want true")
	}
	bus.Publish(NewTimerTickEvent(1))

	if count != 1 {
		t.Errorf("handler called %d times, want 1", count)
	}

	if bus.Unsubscribe("sub-does-not-exist") {
		t.Error("Unsubscribe(unknown) = true, want false")
	}
}

func TestPanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()

	delivered := false
	bus.Subscribe("timer.tick", func(Event) { panic("boom") })
	bus.Subscribe("timer.tick", func(Event) { delivered = true })

	bus.Publish(NewTimerTickEvent(1))

	if !delivered {
		t.Error("second handler not called after first panicked")
	}
}

func TestClearAndSubscriptionCount(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("a", func(Event) {})
	bus.Subscribe("b", func(Event) {})
	bus.SubscribeAll(func(Event) {})

	if got := bus.SubscriptionCount(); got != 3 {
		t.Errorf("SubscriptionCount() = %d, want 3", got)
	}

	bus.Clear()
	if got := bus.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() after Clear = %d, want 0", got)
	}
}
