// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feature

import (
	"fmt"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// ParseLoggedAt parses an event timestamp. It fails fast, naming the
// offending raw value.
func ParseLoggedAt(s string) (time.Time, error) {
	if ts, err := time.Parse(timestampLayout, s); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unsupported format", s)
}

// FormatLoggedAt renders an event timestamp in the canonical layout.
func FormatLoggedAt(t time.Time) string {
	return t.Format(timestampLayout)
}

// weekdayMonday0 maps time.Weekday (Sunday=0) to the 0=Monday..6=Sunday
// convention used by the feature schema.
func weekdayMonday0(t time.Time) int64 {
	return int64((int(t.Weekday()) + 6) % 7)
}

// TimeFeature decomposes each impression timestamp into hour-of-day,
// day-of-month and weekday columns, keyed by impression id.
func TimeFeature(impressions []Impression) *Table {
	t := NewTable(ColImpressionID, ColImpressionHour, ColImpressionDay, ColImpressionWeekday)
	for _, imp := range impressions {
		_ = t.AppendRow(
			String(imp.ImpressionID),
			Int(int64(imp.LoggedAt.Hour())),
			Int(int64(imp.LoggedAt.Day())),
			Int(weekdayMonday0(imp.LoggedAt)),
		)
	}
	return t
}

// AddTimeFeature decomposes a timestamp column in place, appending the
// hour, day and weekday columns. The column may hold timestamps or raw
// strings; an unparseable string is a fatal parsing error. Used on the
// serving path where the request carries logged_at as text.
func AddTimeFeature(t *Table, timeColumn string) error {
	src := t.Column(timeColumn)
	if src == nil {
		return fmt.Errorf("%w: %s", ErrColumnMissing, timeColumn)
	}

	parsed := make([]Value, t.Len())
	hours := make([]Value, t.Len())
	days := make([]Value, t.Len())
	weekdays := make([]Value, t.Len())
	for i, v := range src {
		var ts time.Time
		switch v.Kind() {
		case KindTime:
			ts = v.Time()
		case KindString:
			var err error
			ts, err = ParseLoggedAt(v.String())
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("parse timestamp %q: unsupported format", v.String())
		}
		parsed[i] = Time(ts)
		hours[i] = Int(int64(ts.Hour()))
		days[i] = Int(int64(ts.Day()))
		weekdays[i] = Int(weekdayMonday0(ts))
	}

	if err := t.ReplaceColumn(timeColumn, parsed); err != nil {
		return err
	}
	if err := t.AddColumn(ColImpressionHour, hours); err != nil {
		return err
	}
	if err := t.AddColumn(ColImpressionDay, days); err != nil {
		return err
	}
	return t.AddColumn(ColImpressionWeekday, weekdays)
}
