package store

import (
	"context"
	"sort"
	"sync"

	"github.com/juju/errors"

	"github.com/pearcec/herald/internal/event"
)

// Memory is an in-process Store. Engine and reminder tests drive it
// directly, feeding change batches and stream failures through Push and
// Fail.
type Memory struct {
	mu      sync.Mutex
	events  map[string]event.Event
	records map[string]NotificationRecord
	sends   []SendLogEntry
	fails   []ErrorLogEntry
	streams []*memoryStream
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		events:  make(map[string]event.Event),
		records: make(map[string]NotificationRecord),
	}
}

// SetEvent upserts an event document.
func (m *Memory) SetEvent(ev event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.ID] = ev
}

// Push delivers a change batch to every open stream.
func (m *Memory) Push(batch []event.Change) {
	m.mu.Lock()
	streams := append([]*memoryStream(nil), m.streams...)
	m.mu.Unlock()
	for _, s := range streams {
		s.push(batch, nil)
	}
}

// Fail delivers a stream-level error to every open stream and closes them.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	streams := m.streams
	m.streams = nil
	m.mu.Unlock()
	for _, s := range streams {
		s.push(nil, err)
	}
}

// OpenStreams reports how many watchers are registered. Tests use it to
// wait for a resubscribe before pushing the next batch.
func (m *Memory) OpenStreams() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.streams)
}

func (m *Memory) ActiveEvents(ctx context.Context) ([]event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []event.Event
	for _, ev := range m.events {
		if ev.IsActive {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Event(ctx context.Context, id string) (event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return event.Event{}, errors.NotFoundf("event %q", id)
	}
	return ev, nil
}

func (m *Memory) Watch(ctx context.Context) (Stream, error) {
	s := &memoryStream{ch: make(chan streamMsg, 16), stop: make(chan struct{})}
	m.mu.Lock()
	m.streams = append(m.streams, s)
	m.mu.Unlock()
	return s, nil
}

func (m *Memory) NotifiedState(ctx context.Context, id string) (NotificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return NotificationRecord{}, errors.NotFoundf("notified state for %q", id)
	}
	return rec, nil
}

func (m *Memory) SaveNotifiedState(ctx context.Context, rec NotificationRecord, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if merge {
		if old, ok := m.records[rec.EventID]; ok {
			if rec.EventTitle == "" {
				rec.EventTitle = old.EventTitle
			}
			if rec.Kind == "" {
				rec.Kind = old.Kind
			}
			if rec.LastNotifiedDate.IsZero() {
				rec.LastNotifiedDate = old.LastNotifiedDate
			}
			if rec.NotifiedAt.IsZero() {
				rec.NotifiedAt = old.NotifiedAt
			}
		}
	}
	m.records[rec.EventID] = rec
	return nil
}

func (m *Memory) AppendSendLog(ctx context.Context, entry SendLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, entry)
	return nil
}

func (m *Memory) AppendErrorLog(ctx context.Context, entry ErrorLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fails = append(m.fails, entry)
	return nil
}

func (m *Memory) RecentSendLogs(ctx context.Context, n int) ([]SendLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]SendLogEntry(nil), m.sends...)
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *Memory) RecentErrorLogs(ctx context.Context, n int) ([]ErrorLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]ErrorLogEntry(nil), m.fails...)
	sort.Slice(out, func(i, j int) bool { return out[i].FailedAt.After(out[j].FailedAt) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

type streamMsg struct {
	batch []event.Change
	err   error
}

type memoryStream struct {
	ch       chan streamMsg
	stop     chan struct{}
	stopOnce sync.Once
}

func (s *memoryStream) push(batch []event.Change, err error) {
	select {
	case s.ch <- streamMsg{batch: batch, err: err}:
	case <-s.stop:
	}
}

func (s *memoryStream) Next(ctx context.Context) ([]event.Change, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stop:
		return nil, errors.New("stream stopped")
	case msg := <-s.ch:
		return msg.batch, msg.err
	}
}

func (s *memoryStream) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}
