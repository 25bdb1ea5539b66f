package engine

import (
	"testing"
	"time"

	"github.com/pearcec/herald/internal/event"
)

func TestScreen(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	cases := []struct {
		name string
		ev   event.Event
		want Action
	}{
		{"valid", event.Event{Title: "T", ScheduledAt: future, IsActive: true}, ""},
		{"missing title", event.Event{ScheduledAt: future, IsActive: true}, ActionIgnoreInvalid},
		{"missing date", event.Event{Title: "T", IsActive: true}, ActionIgnoreInvalid},
		{"garbage date", event.Event{Title: "T", ScheduledAt: "soon", IsActive: true}, ActionIgnoreInvalid},
		{"inactive", event.Event{Title: "T", ScheduledAt: future}, ActionIgnoreInactive},
		{"past", event.Event{Title: "T", ScheduledAt: past, IsActive: true}, ActionIgnorePast},
		{"exactly now", event.Event{Title: "T", ScheduledAt: now, IsActive: true}, ActionIgnorePast},
	}

	for _, tc := range cases {
		scheduled, got := screen(tc.ev, now)
		if got != tc.want {
			t.Errorf("%s: screen() = %q, want %q", tc.name, got, tc.want)
		}
		if tc.want == "" && !scheduled.Equal(future) {
			t.Errorf("%s: scheduled = %v, want %v", tc.name, scheduled, future)
		}
	}
}

func TestScreenValidationPrecedesActivity(t *testing.T) {
	// An inactive event with no title is invalid, not inactive: validation
	// runs before any other gate.
	now := time.Now()
	if _, got := screen(event.Event{ScheduledAt: now.Add(time.Hour)}, now); got != ActionIgnoreInvalid {
		t.Errorf("screen() = %q, want %q", got, ActionIgnoreInvalid)
	}
}

func TestCompareInstants(t *testing.T) {
	a := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if got := compareInstants(a, a.Add(time.Minute)); got != ActionRescheduled {
		t.Errorf("different instants: got %q, want %q", got, ActionRescheduled)
	}
	// Same instant in another zone is still unchanged.
	if got := compareInstants(a, a.In(time.FixedZone("X", 3600))); got != ActionUnchanged {
		t.Errorf("same instant, different zone: got %q, want %q", got, ActionUnchanged)
	}
}
