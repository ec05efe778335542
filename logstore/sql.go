// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package logstore extracts impression, view and item logs from the
// analytical log database.
package logstore

import (
	"strings"
	"time"
)

// Log table names.
const (
	TableImpressionLog = "impression_log"
	TableViewLog       = "view_log"
	TableItem          = "mst_item"
)

const datetimeFormat = "2006-01-02 15:04:05"

// ComposeSQL builds the extraction query for a log table. Bounds are
// inclusive on both ends; nil bounds are omitted, and with no clauses
// at all the query selects the whole table.
func ComposeSQL(table string, fromTime, toTime *time.Time, additionalWhere string) string {
	sql := "SELECT * FROM " + table

	var where []string
	if fromTime != nil {
		where = append(where, "logged_at >= '"+fromTime.Format(datetimeFormat)+"'")
	}
	if toTime != nil {
		where = append(where, "logged_at <= '"+toTime.Format(datetimeFormat)+"'")
	}
	if additionalWhere != "" {
		where = append(where, additionalWhere)
	}
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	return sql
}
