package event

import (
	"testing"
	"time"
)

func TestFromDocument(t *testing.T) {
	when := time.Date(2026, 5, 2, 19, 0, 0, 0, time.UTC)
	ev := FromDocument("ev-1", map[string]any{
		"title":       "Launch Party",
		"scheduledAt": when,
		"isActive":    true,
		"location":    "Main Hall",
		"imageUrl":    "https://example.com/a.png",
	})

	if ev.ID != "ev-1" {
		t.Errorf("ID = %q, want %q", ev.ID, "ev-1")
	}
	if ev.Title != "Launch Party" {
		t.Errorf("Title = %q, want %q", ev.Title, "Launch Party")
	}
	if !ev.IsActive {
		t.Error("IsActive = false, want true")
	}
	if ev.Location != "Main Hall" {
		t.Errorf("Location = %q, want %q", ev.Location, "Main Hall")
	}
	got, err := ev.Scheduled()
	if err != nil {
		t.Fatalf("Scheduled() error: %v", err)
	}
	if !got.Equal(when) {
		t.Errorf("Scheduled() = %v, want %v", got, when)
	}
}

func TestFromDocumentMissingFields(t *testing.T) {
	ev := FromDocument("ev-2", map[string]any{"isActive": true})
	if ev.Title != "" {
		t.Errorf("Title = %q, want empty", ev.Title)
	}
	if _, err := ev.Scheduled(); err == nil {
		t.Error("Scheduled() on missing date should error")
	}
}

func TestFromDocumentIgnoresWrongTypes(t *testing.T) {
	ev := FromDocument("ev-3", map[string]any{
		"title":    42,
		"isActive": "yes",
		"location": 7,
	})
	if ev.Title != "" || ev.IsActive || ev.Location != "" {
		t.Errorf("wrongly-typed fields should be zero, got %+v", ev)
	}
}
