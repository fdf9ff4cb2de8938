package bus

import (
	"testing"
	"time"
)

func TestBus_FanOut(t *testing.T) {
	b := New()

	var a, c int
	b.Subscribe("a", func(Event) { a++ })
	b.Subscribe("c", func(Event) { c++ })

	b.Publish(Event{RunID: "r", Agent: "finch", Task: "post", Outcome: OutcomeSuccess, Time: time.Now()})

	if a != 1 || c != 1 {
		t.Errorf("deliveries = (%d, %d), want (1, 1)", a, c)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New()

	var n int
	b.Subscribe("x", func(Event) { n++ })
	b.Publish(Event{})
	b.Unsubscribe("x")
	b.Publish(Event{})

	if n != 1 {
		t.Errorf("deliveries = %d, want 1", n)
	}
}

func TestBus_NilPublishIsSafe(t *testing.T) {
	var b *Bus
	b.Publish(Event{}) // must not panic
}

func TestBus_ResubscribeReplaces(t *testing.T) {
	b := New()

	var first, second int
	b.Subscribe("x", func(Event) { first++ })
	b.Subscribe("x", func(Event) { second++ })
	b.Publish(Event{})

	if first != 0 || second != 1 {
		t.Errorf("deliveries = (%d, %d), want (0, 1)", first, second)
	}
}
