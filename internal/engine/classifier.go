package engine

import (
	"time"

	"github.com/pearcec/herald/internal/event"
)

// Action is the classification outcome for one stream change.
type Action string

const (
	ActionSuppressInitial Action = "suppress-initial-load"
	ActionIgnoreInvalid   Action = "ignore-invalid"
	ActionIgnoreInactive  Action = "ignore-inactive"
	ActionIgnorePast      Action = "ignore-past"
	ActionNew             Action = "new"
	ActionRescheduled     Action = "rescheduled"
	ActionUnchanged       Action = "unchanged"
	ActionAlreadyNotified Action = "already-notified"
	ActionRemoved         Action = "removed"
)

// screen runs the validation gates that precede any classification: an
// event missing its title or date is invalid, inactive events are never
// notified, and events already in the past are ignored. A non-empty action
// means the change is skipped; otherwise the normalized instant is returned
// for classification.
func screen(ev event.Event, now time.Time) (time.Time, Action) {
	if ev.Title == "" {
		return time.Time{}, ActionIgnoreInvalid
	}
	scheduled, err := ev.Scheduled()
	if err != nil {
		return time.Time{}, ActionIgnoreInvalid
	}
	if !ev.IsActive {
		return time.Time{}, ActionIgnoreInactive
	}
	if !scheduled.After(now) {
		return time.Time{}, ActionIgnorePast
	}
	return scheduled, ""
}

// compareInstants decides a modify between two known instants. Equality is
// on the normalized instant value, never the raw representation.
func compareInstants(old, new time.Time) Action {
	if old.Equal(new) {
		return ActionUnchanged
	}
	return ActionRescheduled
}
