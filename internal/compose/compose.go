// Package compose builds the outbound payloads for Herald's notification
// shapes: new event, rescheduled event, and the daily digests. Dates are
// rendered in the deployment's timezone; recipients are assumed co-located.
package compose

import (
	"strings"
	"time"

	"github.com/juju/errors"

	"github.com/pearcec/herald/internal/event"
	"github.com/pearcec/herald/internal/notify"
)

const (
	// TypeNewEvent marks a first-time notification for an event.
	TypeNewEvent = "new_event"
	// TypeDateModified marks a reschedule notification.
	TypeDateModified = "date_modified"
	// TypeDailyReminder marks a today/tomorrow digest.
	TypeDailyReminder = "daily_reminder"

	dateLayout       = "Mon, Jan 2 at 3:04 PM"
	noLocation       = "Location TBA"
	eventScreen      = "EventDetails"
	listScreen       = "EventList"
	digestCharBudget = 1000
)

// Composer renders notification payloads for one target timezone.
type Composer struct {
	loc *time.Location
}

// New builds a Composer for the named IANA timezone.
func New(timezone string) (*Composer, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, errors.Annotatef(err, "loading timezone %q", timezone)
	}
	return &Composer{loc: loc}, nil
}

// Location returns the composer's target timezone.
func (c *Composer) Location() *time.Location {
	return c.loc
}

// FormatDate renders an instant in the target timezone.
func (c *Composer) FormatDate(t time.Time) string {
	return t.In(c.loc).Format(dateLayout)
}

// NewEvent builds the first-time notification for an event.
func (c *Composer) NewEvent(ev event.Event, at time.Time) notify.Message {
	location := ev.Location
	if location == "" {
		location = noLocation
	}
	return notify.Message{
		Title: "New Event: " + ev.Title,
		Body:  c.FormatDate(at) + " • " + location,
		Data:  c.eventData(TypeNewEvent, ev),
	}
}

// Rescheduled builds the date-change notification. The body carries the new
// date first and the previous one after it, so the reader always has the
// prior date for context.
func (c *Composer) Rescheduled(ev event.Event, newAt, oldAt time.Time) notify.Message {
	return notify.Message{
		Title: "Event Rescheduled: " + ev.Title,
		Body:  "New date: " + c.FormatDate(newAt) + " (was " + c.FormatDate(oldAt) + ")",
		Data:  c.eventData(TypeDateModified, ev),
	}
}

// eventData assembles the string-valued metadata map. The image field is
// omitted entirely when the event has none; the transport rejects an
// empty-string image.
func (c *Composer) eventData(kind string, ev event.Event) map[string]string {
	data := map[string]string{
		"type":    kind,
		"eventId": ev.ID,
		"screen":  eventScreen,
	}
	if ev.ImageURL != "" {
		data["imageUrl"] = ev.ImageURL
	}
	return data
}

// Digest builds one aggregate reminder for a day's events. day is the data
// discriminator value ("today" or "tomorrow"). The bullet list is truncated
// to a fixed character budget.
func (c *Composer) Digest(title, day string, events []event.Event) notify.Message {
	var b strings.Builder
	for _, ev := range events {
		line := "• " + ev.Title + "\n"
		if b.Len()+len(line) > digestCharBudget {
			b.WriteString("…")
			break
		}
		b.WriteString(line)
	}
	return notify.Message{
		Title: title,
		Body:  strings.TrimRight(b.String(), "\n"),
		Data: map[string]string{
			"type":   TypeDailyReminder,
			"day":    day,
			"screen": listScreen,
		},
	}
}
