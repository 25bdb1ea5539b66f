// Package remind sends the daily "today" and "tomorrow" event digests. The
// pass is recomputed fresh on every trigger and compares nothing against
// prior state, so it needs no dedup records: re-running it is harmless by
// construction.
package remind

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/robfig/cron/v3"

	"github.com/pearcec/herald/internal/compose"
	"github.com/pearcec/herald/internal/event"
	"github.com/pearcec/herald/internal/notify"
	"github.com/pearcec/herald/internal/store"
)

// Scheduler runs the digest pass on a cron schedule. It reads the store
// only; the reconciler's cache belongs to the reconciler alone.
type Scheduler struct {
	store    store.Store
	notifier notify.Notifier
	composer *compose.Composer
	topic    string
	spec     string
	clock    clock.Clock
	cron     *cron.Cron
}

// New builds a reminder scheduler. spec is a standard 5-field cron
// expression for the daily trigger.
func New(st store.Store, n notify.Notifier, c *compose.Composer, topic, spec string, clk clock.Clock) *Scheduler {
	return &Scheduler{
		store:    st,
		notifier: n,
		composer: c,
		topic:    topic,
		spec:     spec,
		clock:    clk,
	}
}

// Start registers the daily trigger. Idempotent: a running scheduler is
// left alone.
func (s *Scheduler) Start() error {
	if s.cron != nil {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			log.Printf("[remind] digest pass failed: %v", err)
		}
	}); err != nil {
		return errors.Annotatef(err, "invalid reminder schedule %q", s.spec)
	}
	c.Start()
	s.cron = c
	log.Printf("[remind] daily digests scheduled (%s)", s.spec)
	return nil
}

// Stop halts the trigger. In-flight passes run to completion.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}

// RunOnce executes a single digest pass: partition the active events into
// today's and tomorrow's in the target timezone and broadcast one digest
// per non-empty partition.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	events, err := s.store.ActiveEvents(ctx)
	if err != nil {
		return errors.Annotate(err, "listing active events")
	}

	loc := s.composer.Location()
	now := s.clock.Now().In(loc)
	today := midnight(now)
	tomorrow := today.AddDate(0, 0, 1)

	todayEvents, tomorrowEvents := partition(events, today, tomorrow, loc)
	log.Printf("[remind] digest pass: %d today, %d tomorrow", len(todayEvents), len(tomorrowEvents))

	if len(todayEvents) > 0 {
		msg := s.composer.Digest("Today's Events", "today", todayEvents)
		if err := s.broadcast(ctx, msg); err != nil {
			return errors.Trace(err)
		}
	}
	if len(tomorrowEvents) > 0 {
		msg := s.composer.Digest("Tomorrow's Events", "tomorrow", tomorrowEvents)
		if err := s.broadcast(ctx, msg); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// partition buckets events by their date-truncated instant in loc. Events
// with no usable date are skipped.
func partition(events []event.Event, today, tomorrow time.Time, loc *time.Location) (td, tm []event.Event) {
	for _, ev := range events {
		scheduled, err := ev.Scheduled()
		if err != nil || ev.Title == "" {
			continue
		}
		day := midnight(scheduled.In(loc))
		switch {
		case day.Equal(today):
			td = append(td, ev)
		case day.Equal(tomorrow):
			tm = append(tm, ev)
		}
	}
	return td, tm
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (s *Scheduler) broadcast(ctx context.Context, msg notify.Message) error {
	msgID, err := s.notifier.SendToTopic(ctx, s.topic, msg)
	if err != nil {
		entry := store.ErrorLogEntry{
			ID:       uuid.NewString(),
			Title:    msg.Title,
			Body:     msg.Body,
			Error:    err.Error(),
			FailedAt: s.clock.Now(),
		}
		if logErr := s.store.AppendErrorLog(ctx, entry); logErr != nil {
			log.Printf("[remind] recording dispatch failure: %v", logErr)
		}
		return errors.Annotate(err, "broadcasting digest")
	}
	entry := store.SendLogEntry{
		ID:        uuid.NewString(),
		Kind:      compose.TypeDailyReminder,
		Title:     msg.Title,
		Body:      msg.Body,
		MessageID: msgID,
		SentAt:    s.clock.Now(),
	}
	if err := s.store.AppendSendLog(ctx, entry); err != nil {
		log.Printf("[remind] recording send: %v", err)
	}
	log.Printf("[remind] sent %q (%s)", msg.Title, msgID)
	return nil
}
