// Package engine is Herald's change-feed reconciler. It consumes the live
// change stream from the events collection, classifies each change, decides
// whether it warrants a push notification, and keeps the durable
// notified-state records and the process-local cache in agreement so no
// notifiable change is ever delivered twice.
package engine

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/pearcec/herald/internal/cache"
	"github.com/pearcec/herald/internal/compose"
	"github.com/pearcec/herald/internal/event"
	"github.com/pearcec/herald/internal/metrics"
	"github.com/pearcec/herald/internal/notify"
	"github.com/pearcec/herald/internal/store"
)

// resubscribeDelay is the fixed wait before reopening a failed stream.
// Retries are unbounded and non-exponential.
const resubscribeDelay = 5 * time.Second

type phase int

const (
	// phaseAwaitingFirstBatch suppresses the baseline replay the store
	// delivers right after a (re)subscribe.
	phaseAwaitingFirstBatch phase = iota
	phaseLive
)

// Engine drives the subscription loop. It is the single writer of the
// cache; the notified-state collection stays authoritative across restarts
// and wins any disagreement with the cache.
type Engine struct {
	store    store.Store
	notifier notify.Notifier
	composer *compose.Composer
	cache    *cache.Cache
	clock    clock.Clock
	topic    string
	phase    phase
}

// New builds an engine. Pass clock.WallClock outside tests.
func New(st store.Store, n notify.Notifier, c *compose.Composer, topic string, clk clock.Clock) *Engine {
	return &Engine{
		store:    st,
		notifier: n,
		composer: c,
		cache:    cache.New(),
		clock:    clk,
		topic:    topic,
	}
}

// Run opens the change subscription and processes batches until ctx is
// cancelled. A stream-level failure is never fatal: the engine logs it,
// waits the fixed delay, and resubscribes, suppressing the fresh baseline
// replay each time.
func (e *Engine) Run(ctx context.Context) error {
	for {
		err := e.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[engine] stream error: %v; resubscribing in %s", err, resubscribeDelay)
		metrics.Resubscribes.Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.clock.After(resubscribeDelay):
		}
	}
}

// consume runs one subscription until the stream fails or ctx is done.
func (e *Engine) consume(ctx context.Context) error {
	e.phase = phaseAwaitingFirstBatch
	stream, err := e.store.Watch(ctx)
	if err != nil {
		return errors.Annotate(err, "opening change stream")
	}
	defer stream.Stop()
	log.Printf("[engine] subscribed to change stream")

	for {
		batch, err := stream.Next(ctx)
		if err != nil {
			return errors.Trace(err)
		}
		e.processBatch(ctx, batch)
	}
}

// processBatch handles one delivered batch. The first non-empty batch after
// a subscribe is the store replaying pre-existing documents as "added"; it
// seeds the cache and sends nothing. Later batches are processed
// change-by-change in arrival order; a failure on one change is logged and
// skipped without aborting the batch.
func (e *Engine) processBatch(ctx context.Context, batch []event.Change) {
	if e.phase == phaseAwaitingFirstBatch {
		if len(batch) == 0 {
			return
		}
		seeded := 0
		for _, ch := range batch {
			metrics.ChangesTotal.WithLabelValues(string(ActionSuppressInitial)).Inc()
			if ch.Kind == event.Removed {
				continue
			}
			if scheduled, err := ch.Event.Scheduled(); err == nil {
				e.cache.Put(ch.Event.ID, scheduled)
				seeded++
			}
		}
		e.phase = phaseLive
		log.Printf("[engine] baseline snapshot: %d changes suppressed, %d cached", len(batch), seeded)
		return
	}

	for _, ch := range batch {
		if err := e.processChange(ctx, ch); err != nil {
			log.Printf("[engine] %s change for %q failed: %v", ch.Kind, ch.Event.ID, err)
		}
	}
}

func (e *Engine) processChange(ctx context.Context, ch event.Change) error {
	if ch.Kind == event.Removed {
		e.cache.Delete(ch.Event.ID)
		e.count(ActionRemoved)
		return nil
	}

	scheduled, skip := screen(ch.Event, e.clock.Now())
	if skip != "" {
		log.Printf("[engine] skipping %s change for %q: %s", ch.Kind, ch.Event.ID, skip)
		e.count(skip)
		return nil
	}

	switch ch.Kind {
	case event.Added:
		return e.handleAdded(ctx, ch.Event, scheduled)
	case event.Modified:
		return e.handleModified(ctx, ch.Event, scheduled)
	}
	return errors.Errorf("unknown change kind %q", ch.Kind)
}

// handleAdded dispatches at most one new-event notification per event id,
// determined solely by notified-state presence. A pre-existing record still
// refreshes the cache so it never diverges from the store.
func (e *Engine) handleAdded(ctx context.Context, ev event.Event, scheduled time.Time) error {
	rec, err := e.store.NotifiedState(ctx, ev.ID)
	if err == nil {
		e.cache.Put(ev.ID, rec.LastNotifiedDate)
		log.Printf("[engine] %q already notified, skipping", ev.ID)
		e.count(ActionAlreadyNotified)
		return nil
	}
	if !errors.IsNotFound(err) {
		return errors.Annotate(err, "looking up notified state")
	}
	e.count(ActionNew)
	return e.sendNew(ctx, ev, scheduled)
}

// handleModified resolves the old instant through the three-tier lookup:
// cache, then stored record, then the conservative treat-as-new fallback.
// Absence of any prior state must never result in silence.
func (e *Engine) handleModified(ctx context.Context, ev event.Event, scheduled time.Time) error {
	old, known := e.cache.Get(ev.ID)
	if !known {
		rec, err := e.store.NotifiedState(ctx, ev.ID)
		switch {
		case err == nil:
			old, known = rec.LastNotifiedDate, true
		case errors.IsNotFound(err):
		default:
			return errors.Annotate(err, "looking up notified state")
		}
	}
	if !known {
		log.Printf("[engine] no prior date for modified %q, treating as new", ev.ID)
		e.count(ActionNew)
		return e.sendNew(ctx, ev, scheduled)
	}

	switch compareInstants(old, scheduled) {
	case ActionUnchanged:
		// Refresh anyway: a stale cached value here would corrupt the
		// next comparison.
		e.cache.Put(ev.ID, scheduled)
		e.count(ActionUnchanged)
		return nil
	default:
		e.count(ActionRescheduled)
		return e.sendRescheduled(ctx, ev, scheduled, old)
	}
}

func (e *Engine) sendNew(ctx context.Context, ev event.Event, scheduled time.Time) error {
	msg := e.composer.NewEvent(ev, scheduled)
	if err := e.dispatch(ctx, ev.ID, string(store.KindNewEvent), msg); err != nil {
		return errors.Trace(err)
	}
	rec := store.NotificationRecord{
		EventID:          ev.ID,
		EventTitle:       ev.Title,
		Kind:             store.KindNewEvent,
		LastNotifiedDate: scheduled,
		NotifiedAt:       e.clock.Now(),
	}
	if err := e.store.SaveNotifiedState(ctx, rec, false); err != nil {
		return errors.Annotate(err, "saving notified state")
	}
	e.cache.Put(ev.ID, scheduled)
	return nil
}

func (e *Engine) sendRescheduled(ctx context.Context, ev event.Event, scheduled, old time.Time) error {
	msg := e.composer.Rescheduled(ev, scheduled, old)
	if err := e.dispatch(ctx, ev.ID, string(store.KindDateModified), msg); err != nil {
		return errors.Trace(err)
	}
	// Merge so fields the reschedule does not own survive on the record.
	rec := store.NotificationRecord{
		EventID:          ev.ID,
		EventTitle:       ev.Title,
		Kind:             store.KindDateModified,
		LastNotifiedDate: scheduled,
		NotifiedAt:       e.clock.Now(),
	}
	if err := e.store.SaveNotifiedState(ctx, rec, true); err != nil {
		return errors.Annotate(err, "saving notified state")
	}
	e.cache.Put(ev.ID, scheduled)
	return nil
}

// dispatch sends one message and writes the audit record. Failures are
// persisted to the error log before being returned, so they stay auditable
// even when the caller swallows the error.
func (e *Engine) dispatch(ctx context.Context, eventID, kind string, msg notify.Message) error {
	msgID, err := e.notifier.SendToTopic(ctx, e.topic, msg)
	if err != nil {
		metrics.DispatchErrors.Inc()
		entry := store.ErrorLogEntry{
			ID:       uuid.NewString(),
			EventID:  eventID,
			Title:    msg.Title,
			Body:     msg.Body,
			Error:    err.Error(),
			FailedAt: e.clock.Now(),
		}
		if logErr := e.store.AppendErrorLog(ctx, entry); logErr != nil {
			log.Printf("[engine] recording dispatch failure: %v", logErr)
		}
		return errors.Annotate(err, "dispatching notification")
	}

	metrics.SentTotal.WithLabelValues(kind).Inc()
	entry := store.SendLogEntry{
		ID:        uuid.NewString(),
		EventID:   eventID,
		Kind:      kind,
		Title:     msg.Title,
		Body:      msg.Body,
		MessageID: msgID,
		SentAt:    e.clock.Now(),
	}
	if err := e.store.AppendSendLog(ctx, entry); err != nil {
		log.Printf("[engine] recording send: %v", err)
	}
	log.Printf("[engine] sent %s for %q (%s)", kind, eventID, msgID)
	return nil
}

func (e *Engine) count(a Action) {
	metrics.ChangesTotal.WithLabelValues(string(a)).Inc()
}

// NotifyEvent is the manual trigger: it loads the event and forces a
// new-event send regardless of prior notified state. Unlike the passive
// listener it surfaces every failure to its caller. Returns a not-found
// error when the id does not resolve.
func (e *Engine) NotifyEvent(ctx context.Context, id string) error {
	ev, err := e.store.Event(ctx, id)
	if err != nil {
		return errors.Trace(err)
	}
	scheduled, err := ev.Scheduled()
	if err != nil {
		return errors.Annotatef(err, "event %q has no usable date", id)
	}
	return errors.Trace(e.sendNew(ctx, ev, scheduled))
}

// Stats summarizes recent sends and dispatch failures from the audit logs.
type Stats struct {
	Sends  []store.SendLogEntry
	Errors []store.ErrorLogEntry
}

// RecentStats reads the most recent audit entries, newest first. Read-only;
// no reconciliation state is touched.
func (e *Engine) RecentStats(ctx context.Context, limit int) (Stats, error) {
	sends, err := e.store.RecentSendLogs(ctx, limit)
	if err != nil {
		return Stats{}, errors.Annotate(err, "reading send log")
	}
	fails, err := e.store.RecentErrorLogs(ctx, limit)
	if err != nil {
		return Stats{}, errors.Annotate(err, "reading error log")
	}
	return Stats{Sends: sends, Errors: fails}, nil
}
