// Package event defines the calendar event model Herald watches, the change
// records the document store delivers, and the timestamp coercion that puts
// every scheduling comparison on a single comparable instant.
package event

import "time"

// Event is one document in the events collection. Herald never writes
// events; it only reads them off the change stream and the active-events
// query.
type Event struct {
	ID    string
	Title string
	// ScheduledAt holds the raw store representation of the event date.
	// It may be a native timestamp, an epoch-seconds wrapper, or a string;
	// use Scheduled to compare. See Instant.
	ScheduledAt any
	IsActive    bool
	Location    string
	ImageURL    string
}

// Scheduled returns the event date as a normalized instant.
func (e Event) Scheduled() (time.Time, error) {
	return Instant(e.ScheduledAt)
}

// FromDocument builds an Event from a raw document snapshot.
func FromDocument(id string, data map[string]any) Event {
	ev := Event{ID: id}
	if v, ok := data["title"].(string); ok {
		ev.Title = v
	}
	ev.ScheduledAt = data["scheduledAt"]
	if v, ok := data["isActive"].(bool); ok {
		ev.IsActive = v
	}
	if v, ok := data["location"].(string); ok {
		ev.Location = v
	}
	if v, ok := data["imageUrl"].(string); ok {
		ev.ImageURL = v
	}
	return ev
}

// ChangeKind identifies the kind of document mutation.
type ChangeKind string

const (
	// Added means the document appeared in the watched collection.
	// The store replays every existing document as Added on the first
	// snapshot after a subscribe.
	Added ChangeKind = "added"
	// Modified means an existing document's fields changed.
	Modified ChangeKind = "modified"
	// Removed means the document left the watched collection.
	Removed ChangeKind = "removed"
)

// Change is one document mutation from the change stream. For Removed
// changes the snapshot carries whatever fields the store still had.
type Change struct {
	Kind  ChangeKind
	Event Event
}
