package prebook

import (
	"log/slog"
	"time"
)

// All civil-date reasoning happens in the brokerage's operating zone,
// regardless of where a load originates.
var central = mustLoadLocation("America/Chicago")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("prebook: load timezone " + name + ": " + err.Error())
	}
	return loc
}

// Zone-less forms are treated as UTC instants.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, raw)
		} else {
			t, err = time.ParseInLocation(layout, raw, time.UTC)
		}
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Eligible reports whether a load with the given pickup window close should
// still be offered for pre-booking at now. A load is not eligible when the
// pickup close is missing, malformed, already past, on today's Central date,
// or on tomorrow's Central date once it is afternoon and the window closes
// before 09:00.
//
// originState is accepted so the rule can become origin-aware later; it
// currently has no effect.
func Eligible(pickupClose *string, originState string, now time.Time) bool {
	if pickupClose == nil || *pickupClose == "" {
		return false
	}

	pickup, err := parseTimestamp(*pickupClose)
	if err != nil {
		slog.Warn("unparseable pickup_date_close, load treated as not eligible",
			"pickup_date_close", *pickupClose, "error", err)
		return false
	}

	pickupLocal := pickup.In(central)
	nowLocal := now.In(central)

	pickupDay := civilDate(pickupLocal)
	today := civilDate(nowLocal)
	tomorrow := today.AddDate(0, 0, 1)

	switch {
	case pickupDay.Before(today):
		return false
	case pickupDay.Equal(today):
		return false
	case pickupDay.Equal(tomorrow) && nowLocal.Hour() >= 12 && pickupLocal.Hour() < 9:
		return false
	}
	return true
}

// civilDate collapses a localized instant to its calendar date. Dates compare
// as plain UTC midnights so DST transitions never skew day arithmetic.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
