package store

import (
	"context"
	"testing"
	"time"

	"github.com/juju/errors"

	"github.com/pearcec/herald/internal/event"
)

func TestMemoryEvents(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Event(ctx, "missing"); !errors.IsNotFound(err) {
		t.Errorf("Event on absent id: got %v, want not-found", err)
	}

	m.SetEvent(event.Event{ID: "a", Title: "A", IsActive: true})
	m.SetEvent(event.Event{ID: "b", Title: "B", IsActive: false})

	ev, err := m.Event(ctx, "a")
	if err != nil {
		t.Fatalf("Event: %v", err)
	}
	if ev.Title != "A" {
		t.Errorf("Title = %q, want %q", ev.Title, "A")
	}

	active, err := m.ActiveEvents(ctx)
	if err != nil {
		t.Fatalf("ActiveEvents: %v", err)
	}
	if len(active) != 1 || active[0].ID != "a" {
		t.Errorf("ActiveEvents = %v, want just a", active)
	}
}

func TestMemoryNotifiedState(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.NotifiedState(ctx, "e1"); !errors.IsNotFound(err) {
		t.Errorf("NotifiedState on absent id: got %v, want not-found", err)
	}

	first := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	rec := NotificationRecord{
		EventID:          "e1",
		EventTitle:       "Launch",
		Kind:             KindNewEvent,
		LastNotifiedDate: first,
		NotifiedAt:       time.Now(),
	}
	if err := m.SaveNotifiedState(ctx, rec, false); err != nil {
		t.Fatalf("SaveNotifiedState: %v", err)
	}

	// Merge-update only the date fields; the title must survive.
	second := first.Add(3 * time.Hour)
	update := NotificationRecord{
		EventID:          "e1",
		Kind:             KindDateModified,
		LastNotifiedDate: second,
		NotifiedAt:       time.Now(),
	}
	if err := m.SaveNotifiedState(ctx, update, true); err != nil {
		t.Fatalf("SaveNotifiedState merge: %v", err)
	}

	got, err := m.NotifiedState(ctx, "e1")
	if err != nil {
		t.Fatalf("NotifiedState: %v", err)
	}
	if got.EventTitle != "Launch" {
		t.Errorf("merge dropped EventTitle, got %q", got.EventTitle)
	}
	if got.Kind != KindDateModified {
		t.Errorf("Kind = %q, want %q", got.Kind, KindDateModified)
	}
	if !got.LastNotifiedDate.Equal(second) {
		t.Errorf("LastNotifiedDate = %v, want %v", got.LastNotifiedDate, second)
	}
}

func TestMemoryWatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	s, err := m.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer s.Stop()

	batch := []event.Change{{Kind: event.Added, Event: event.Event{ID: "e1"}}}
	m.Push(batch)

	got, err := s.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(got) != 1 || got[0].Event.ID != "e1" {
		t.Errorf("Next = %v, want pushed batch", got)
	}

	m.Fail(errors.New("stream broke"))
	if _, err := s.Next(ctx); err == nil {
		t.Error("Next after Fail should return the stream error")
	}
}

func TestMemoryWatchContextCancel(t *testing.T) {
	m := NewMemory()
	s, err := m.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer s.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Next(ctx); err == nil {
		t.Error("Next with cancelled context should error")
	}
}

func TestMemoryLogs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := SendLogEntry{ID: string(rune('a' + i)), SentAt: base.Add(time.Duration(i) * time.Minute)}
		if err := m.AppendSendLog(ctx, entry); err != nil {
			t.Fatalf("AppendSendLog: %v", err)
		}
	}

	recent, err := m.RecentSendLogs(ctx, 2)
	if err != nil {
		t.Fatalf("RecentSendLogs: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("RecentSendLogs returned %d entries, want 2", len(recent))
	}
	if recent[0].ID != "c" || recent[1].ID != "b" {
		t.Errorf("RecentSendLogs order = %s,%s, want c,b", recent[0].ID, recent[1].ID)
	}

	if err := m.AppendErrorLog(ctx, ErrorLogEntry{ID: "x", FailedAt: base}); err != nil {
		t.Fatalf("AppendErrorLog: %v", err)
	}
	fails, err := m.RecentErrorLogs(ctx, 0)
	if err != nil {
		t.Fatalf("RecentErrorLogs: %v", err)
	}
	if len(fails) != 1 || fails[0].ID != "x" {
		t.Errorf("RecentErrorLogs = %v, want the one entry", fails)
	}
}
