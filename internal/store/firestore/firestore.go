// Package firestore backs Herald's store boundary with Cloud Firestore.
// The change stream maps straight onto query snapshots: each snapshot's
// DocumentChange list is one batch, and the first snapshot replays every
// matching document as an add.
package firestore

import (
	"context"

	fs "cloud.google.com/go/firestore"
	"github.com/juju/errors"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pearcec/herald/internal/event"
	"github.com/pearcec/herald/internal/store"
)

// Collections names the collections the adapter reads and writes.
type Collections struct {
	Events   string
	Notified string
	SendLog  string
	ErrorLog string
}

// Store implements store.Store on a Firestore database.
type Store struct {
	client *fs.Client
	cols   Collections
}

// Open connects to the project's Firestore database. An empty credentials
// path falls back to application default credentials.
func Open(ctx context.Context, projectID, credentialsFile string, cols Collections) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := fs.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Annotate(err, "connecting to Firestore")
	}
	return &Store{client: client, cols: cols}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) ActiveEvents(ctx context.Context) ([]event.Event, error) {
	docs, err := s.client.Collection(s.cols.Events).
		Where("isActive", "==", true).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Annotate(err, "querying active events")
	}
	events := make([]event.Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, event.FromDocument(doc.Ref.ID, doc.Data()))
	}
	return events, nil
}

func (s *Store) Event(ctx context.Context, id string) (event.Event, error) {
	doc, err := s.client.Collection(s.cols.Events).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return event.Event{}, errors.NotFoundf("event %q", id)
	}
	if err != nil {
		return event.Event{}, errors.Annotatef(err, "fetching event %q", id)
	}
	return event.FromDocument(doc.Ref.ID, doc.Data()), nil
}

func (s *Store) Watch(ctx context.Context) (store.Stream, error) {
	it := s.client.Collection(s.cols.Events).Query.Snapshots(ctx)
	return &snapshotStream{it: it}, nil
}

func (s *Store) NotifiedState(ctx context.Context, id string) (store.NotificationRecord, error) {
	doc, err := s.client.Collection(s.cols.Notified).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return store.NotificationRecord{}, errors.NotFoundf("notified state for %q", id)
	}
	if err != nil {
		return store.NotificationRecord{}, errors.Annotatef(err, "fetching notified state for %q", id)
	}
	var rec store.NotificationRecord
	if err := doc.DataTo(&rec); err != nil {
		return store.NotificationRecord{}, errors.Annotatef(err, "decoding notified state for %q", id)
	}
	rec.EventID = id
	return rec, nil
}

func (s *Store) SaveNotifiedState(ctx context.Context, rec store.NotificationRecord, merge bool) error {
	doc := s.client.Collection(s.cols.Notified).Doc(rec.EventID)
	var err error
	if merge {
		err = setMerged(ctx, doc, rec)
	} else {
		_, err = doc.Set(ctx, rec)
	}
	return errors.Annotatef(err, "saving notified state for %q", rec.EventID)
}

// setMerged writes only the fields a reschedule owns, leaving the rest of
// the stored record untouched.
func setMerged(ctx context.Context, doc *fs.DocumentRef, rec store.NotificationRecord) error {
	_, err := doc.Set(ctx, map[string]any{
		"eventId":          rec.EventID,
		"eventTitle":       rec.EventTitle,
		"kind":             string(rec.Kind),
		"lastNotifiedDate": rec.LastNotifiedDate,
		"notifiedAt":       rec.NotifiedAt,
	}, fs.MergeAll)
	return err
}

func (s *Store) AppendSendLog(ctx context.Context, entry store.SendLogEntry) error {
	_, err := s.client.Collection(s.cols.SendLog).Doc(entry.ID).Set(ctx, entry)
	return errors.Annotate(err, "appending send log")
}

func (s *Store) AppendErrorLog(ctx context.Context, entry store.ErrorLogEntry) error {
	_, err := s.client.Collection(s.cols.ErrorLog).Doc(entry.ID).Set(ctx, entry)
	return errors.Annotate(err, "appending error log")
}

func (s *Store) RecentSendLogs(ctx context.Context, n int) ([]store.SendLogEntry, error) {
	docs, err := s.client.Collection(s.cols.SendLog).
		OrderBy("sentAt", fs.Desc).Limit(n).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Annotate(err, "querying send log")
	}
	entries := make([]store.SendLogEntry, 0, len(docs))
	for _, doc := range docs {
		var entry store.SendLogEntry
		if err := doc.DataTo(&entry); err != nil {
			return nil, errors.Annotate(err, "decoding send log entry")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) RecentErrorLogs(ctx context.Context, n int) ([]store.ErrorLogEntry, error) {
	docs, err := s.client.Collection(s.cols.ErrorLog).
		OrderBy("failedAt", fs.Desc).Limit(n).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Annotate(err, "querying error log")
	}
	entries := make([]store.ErrorLogEntry, 0, len(docs))
	for _, doc := range docs {
		var entry store.ErrorLogEntry
		if err := doc.DataTo(&entry); err != nil {
			return nil, errors.Annotate(err, "decoding error log entry")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// snapshotStream adapts the snapshot iterator to store.Stream.
type snapshotStream struct {
	it *fs.QuerySnapshotIterator
}

func (s *snapshotStream) Next(ctx context.Context) ([]event.Change, error) {
	snap, err := s.it.Next()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Annotate(err, "reading snapshot")
	}
	changes := make([]event.Change, 0, len(snap.Changes))
	for _, ch := range snap.Changes {
		changes = append(changes, event.Change{
			Kind:  changeKind(ch.Kind),
			Event: event.FromDocument(ch.Doc.Ref.ID, ch.Doc.Data()),
		})
	}
	return changes, nil
}

func (s *snapshotStream) Stop() {
	s.it.Stop()
}

func changeKind(k fs.DocumentChangeKind) event.ChangeKind {
	switch k {
	case fs.DocumentModified:
		return event.Modified
	case fs.DocumentRemoved:
		return event.Removed
	default:
		return event.Added
	}
}
