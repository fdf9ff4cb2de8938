package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nextlevelbuilder/finch/internal/bus"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func event(task string, outcome bus.Outcome) bus.Event {
	return bus.Event{
		RunID:   "run-1",
		Agent:   "finch",
		Task:    task,
		Outcome: outcome,
		Detail:  "detail for " + task,
		PostID:  "p-" + task,
		Time:    time.Unix(1700000000, 0),
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openTestStore(t)

	for _, e := range []bus.Event{
		event("post", bus.OutcomeSuccess),
		event("reply", bus.OutcomeFailed),
		event("like", bus.OutcomeSkipped),
	} {
		if err := s.Record(e); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Newest first.
	if entries[0].Task != "like" || entries[2].Task != "post" {
		t.Errorf("unexpected order: %q ... %q", entries[0].Task, entries[2].Task)
	}

	e := entries[2]
	if e.RunID != "run-1" || e.Agent != "finch" || e.Outcome != bus.OutcomeSuccess ||
		e.Detail != "detail for post" || e.PostID != "p-post" || e.Time.Unix() != 1700000000 {
		t.Errorf("entry round trip mismatch: %+v", e)
	}
}

func TestStore_RecentLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		if err := s.Record(event("post", bus.OutcomeSuccess)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestStore_HandlerFeedsFromBus(t *testing.T) {
	s := openTestStore(t)

	b := bus.New()
	b.Subscribe("journal", s.Handler())
	b.Publish(event("reply", bus.OutcomeSuccess))

	entries, err := s.Recent(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Task != "reply" {
		t.Fatalf("entries = %+v, want the published event", entries)
	}
}

func TestStore_RecentEmpty(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries from an empty journal", len(entries))
	}
}
