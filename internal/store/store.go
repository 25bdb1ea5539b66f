// Package store defines Herald's document-store boundary: the events
// collection, the durable notified-state records that make notifications
// at-most-once, and the send/error audit logs. The Firestore adapter lives
// in the firestore subpackage; Memory backs tests and local runs.
package store

import (
	"context"
	"time"

	"github.com/pearcec/herald/internal/event"
)

// RecordKind says which notification a notified-state record covers.
type RecordKind string

const (
	KindNewEvent     RecordKind = "new_event"
	KindDateModified RecordKind = "date_modified"
)

// NotificationRecord is the durable per-event record of the last sent
// notification, keyed by event id. Its presence means a notification has
// already gone out for the event's current or a prior scheduled instant.
type NotificationRecord struct {
	EventID          string     `firestore:"eventId"`
	EventTitle       string     `firestore:"eventTitle"`
	Kind             RecordKind `firestore:"kind"`
	LastNotifiedDate time.Time  `firestore:"lastNotifiedDate"`
	NotifiedAt       time.Time  `firestore:"notifiedAt"`
}

// SendLogEntry is one audit record of a successful dispatch.
type SendLogEntry struct {
	ID        string    `firestore:"id"`
	EventID   string    `firestore:"eventId"`
	Kind      string    `firestore:"kind"`
	Title     string    `firestore:"title"`
	Body      string    `firestore:"body"`
	MessageID string    `firestore:"messageId"`
	SentAt    time.Time `firestore:"sentAt"`
}

// ErrorLogEntry is one audit record of a failed dispatch. The original
// title and body are kept so a failure is auditable even when the caller
// ignored the returned error.
type ErrorLogEntry struct {
	ID       string    `firestore:"id"`
	EventID  string    `firestore:"eventId"`
	Title    string    `firestore:"title"`
	Body     string    `firestore:"body"`
	Error    string    `firestore:"error"`
	FailedAt time.Time `firestore:"failedAt"`
}

// Stream is a live change subscription. Next blocks until the store
// delivers the next batch of changes, the stream fails, or ctx is done.
// The first batch after a subscribe replays every matching document as
// Added; the engine treats it as a baseline snapshot.
type Stream interface {
	Next(ctx context.Context) ([]event.Change, error)
	Stop()
}

// Store is the document-store capability Herald consumes. Lookups for
// absent documents return an error satisfying errors.IsNotFound.
type Store interface {
	// ActiveEvents lists events with isActive set.
	ActiveEvents(ctx context.Context) ([]event.Event, error)
	// Event fetches a single event by id.
	Event(ctx context.Context, id string) (event.Event, error)
	// Watch opens a change subscription over the events collection.
	Watch(ctx context.Context) (Stream, error)

	// NotifiedState fetches the notified-state record for an event id.
	NotifiedState(ctx context.Context, id string) (NotificationRecord, error)
	// SaveNotifiedState writes a notified-state record. With merge set,
	// zero-valued fields leave the stored ones untouched.
	SaveNotifiedState(ctx context.Context, rec NotificationRecord, merge bool) error

	AppendSendLog(ctx context.Context, entry SendLogEntry) error
	AppendErrorLog(ctx context.Context, entry ErrorLogEntry) error
	// RecentSendLogs returns up to n entries, newest first.
	RecentSendLogs(ctx context.Context, n int) ([]SendLogEntry, error)
	// RecentErrorLogs returns up to n entries, newest first.
	RecentErrorLogs(ctx context.Context, n int) ([]ErrorLogEntry, error)
}
