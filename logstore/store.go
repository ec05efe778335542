// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/shopspring/decimal"

	"github.com/adxyz/ctr/feature"
	"github.com/adxyz/ctr/pkg/log"
)

// ErrNoRows is returned when a bounded training extraction comes back
// empty. Training on zero rows is always a configuration mistake.
var ErrNoRows = errors.New("log extraction returned no rows")

// Store reads training logs out of a DuckDB database.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// Open opens the log database at path. An empty path opens an
// in-memory database.
func Open(path string, logger log.Logger) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open log database %s: %w", path, err)
	}
	if logger == nil {
		logger = log.NoOp()
	}
	return &Store{db: db, logger: logger}, nil
}

// DB exposes the underlying handle. Used by tests to seed fixtures.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Impressions extracts impression logs in [fromTime, toTime].
func (s *Store) Impressions(ctx context.Context, fromTime, toTime *time.Time) ([]feature.Impression, error) {
	query := ComposeSQL(TableImpressionLog, fromTime, toTime, "")
	s.logger.Info("extracting impressions", "sql", query)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("extract impressions: %w", err)
	}
	defer rows.Close()

	var out []feature.Impression
	for rows.Next() {
		var (
			imp      feature.Impression
			loggedAt time.Time
			isClick  sql.NullInt64
		)
		if err := rows.Scan(&imp.ImpressionID, &loggedAt, &imp.UserID, &imp.AppCode, &imp.OSVersion, &imp.Is4G, &isClick); err != nil {
			return nil, fmt.Errorf("scan impression row: %w", err)
		}
		imp.LoggedAt = loggedAt
		if isClick.Valid {
			v := isClick.Int64
			imp.IsClick = &v
		}
		out = append(out, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("extract impressions: %w", err)
	}
	if len(out) == 0 && (fromTime != nil || toTime != nil) {
		return nil, fmt.Errorf("extract impressions: %w", ErrNoRows)
	}
	s.logger.Info("extracted impressions", "rows", len(out))
	return out, nil
}

// Views extracts view logs in [fromTime, toTime].
func (s *Store) Views(ctx context.Context, fromTime, toTime *time.Time) ([]feature.View, error) {
	query := ComposeSQL(TableViewLog, fromTime, toTime, "")
	s.logger.Info("extracting views", "sql", query)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("extract views: %w", err)
	}
	defer rows.Close()

	var out []feature.View
	for rows.Next() {
		var v feature.View
		if err := rows.Scan(&v.LoggedAt, &v.DeviceType, &v.SessionID, &v.UserID, &v.ItemID); err != nil {
			return nil, fmt.Errorf("scan view row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("extract views: %w", err)
	}
	s.logger.Info("extracted views", "rows", len(out))
	return out, nil
}

// Items extracts the item master. No time bounds: items are a slowly
// changing dimension, not a log.
func (s *Store) Items(ctx context.Context) ([]feature.Item, error) {
	query := ComposeSQL(TableItem, nil, nil, "")
	s.logger.Info("extracting items", "sql", query)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("extract items: %w", err)
	}
	defer rows.Close()

	var out []feature.Item
	for rows.Next() {
		var (
			it    feature.Item
			price float64
		)
		if err := rows.Scan(&it.ItemID, &price, &it.Category1, &it.Category2, &it.Category3, &it.ProductType); err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		it.Price = decimal.NewFromFloat(price)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("extract items: %w", err)
	}
	s.logger.Info("extracted items", "rows", len(out))
	return out, nil
}
