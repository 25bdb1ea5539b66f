package event

import (
	"time"

	"github.com/juju/errors"
)

// Instant normalizes the timestamp representations seen in event documents
// into a single UTC instant. The store hands back native time.Time values,
// but imported and client-written documents also carry epoch seconds,
// {seconds, nanos} wrappers, and ISO strings. Every scheduling comparison
// goes through here so that two representations of the same moment always
// compare equal.
func Instant(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t != nil {
			return t.UTC(), nil
		}
	case int:
		return time.Unix(int64(t), 0).UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case float64:
		sec := int64(t)
		nsec := int64((t - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), nil
	case map[string]any:
		if ts, ok := wrapperInstant(t); ok {
			return ts, nil
		}
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, errors.Errorf("unparseable timestamp string %q", t)
	}
	return time.Time{}, errors.Errorf("no timestamp in %T value", v)
}

// wrapperInstant handles {seconds, nanos} maps, including the underscored
// field names Firestore exports use.
func wrapperInstant(m map[string]any) (time.Time, bool) {
	sec, ok := wrapperField(m, "seconds")
	if !ok {
		return time.Time{}, false
	}
	nsec, _ := wrapperField(m, "nanos")
	return time.Unix(sec, nsec).UTC(), true
}

func wrapperField(m map[string]any, name string) (int64, bool) {
	for _, key := range []string{name, "_" + name} {
		switch n := m[key].(type) {
		case int:
			return int64(n), true
		case int64:
			return n, true
		case float64:
			return int64(n), true
		}
	}
	return 0, false
}
