// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feature

import (
	"time"
)

// wholeDays returns the day component of a delta, truncated toward zero.
// Truncation (not rounding) keeps the lookback boundary exact: an event
// 7 days and 23 hours old still falls inside lookback_days=7.
func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}

// ImpressionHistory counts, per impression, the same user's other
// impressions strictly before it and at most lookbackDays whole days old.
// Impressions with no qualifying prior event produce no row; the left
// join in Assemble turns that into a null count.
func ImpressionHistory(impressions []Impression, lookbackDays int) *Table {
	byUser := make(map[int64][]Impression)
	for _, imp := range impressions {
		byUser[imp.UserID] = append(byUser[imp.UserID], imp)
	}

	out := NewTable(ColImpressionID, ColPreviousImpressionCount)
	for _, cur := range impressions {
		count := int64(0)
		for _, prev := range byUser[cur.UserID] {
			if !prev.LoggedAt.Before(cur.LoggedAt) {
				// Ties in timestamp are excluded: an event at the same
				// instant must never leak into the window.
				continue
			}
			if wholeDays(cur.LoggedAt.Sub(prev.LoggedAt)) > lookbackDays {
				continue
			}
			count++
		}
		if count > 0 {
			_ = out.AppendRow(String(cur.ImpressionID), Int(count))
		}
	}
	return out
}

// dedupeViews collapses view events sharing (user_id, logged_at) into one
// row, keeping the later occurrence. One session, one row.
func dedupeViews(views []View) []View {
	type dedupeKey struct {
		userID   int64
		loggedAt int64
	}
	last := make(map[dedupeKey]int, len(views))
	for i, v := range views {
		last[dedupeKey{v.UserID, v.LoggedAt.UnixNano()}] = i
	}
	out := make([]View, 0, len(last))
	for i, v := range views {
		if last[dedupeKey{v.UserID, v.LoggedAt.UnixNano()}] == i {
			out = append(out, v)
		}
	}
	return out
}

// ViewHistory counts, per impression, the same user's deduplicated view
// events strictly before it and within lookbackDays, and carries the item
// id and device type of the last qualifying view (view-log order).
func ViewHistory(impressions []Impression, views []View, lookbackDays int) *Table {
	deduped := dedupeViews(views)
	byUser := make(map[int64][]View)
	for _, v := range deduped {
		byUser[v.UserID] = append(byUser[v.UserID], v)
	}

	out := NewTable(ColImpressionID, ColPreviousViewCount, ColItemID, ColDeviceType)
	for _, imp := range impressions {
		count := int64(0)
		var lastMatch *View
		for i := range byUser[imp.UserID] {
			v := &byUser[imp.UserID][i]
			if !v.LoggedAt.Before(imp.LoggedAt) {
				continue
			}
			if wholeDays(imp.LoggedAt.Sub(v.LoggedAt)) > lookbackDays {
				continue
			}
			count++
			lastMatch = v
		}
		if count > 0 {
			_ = out.AppendRow(
				String(imp.ImpressionID),
				Int(count),
				Int(lastMatch.ItemID),
				String(lastMatch.DeviceType),
			)
		}
	}
	return out
}
