// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fstore is the online feature store: precomputed per-user
// impression features keyed by user and feature-set version, read on
// the serving path.
package fstore

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/adxyz/ctr/pkg/storage"
)

// VersionLatest selects the newest stored feature version for a user.
const VersionLatest = "latest"

// Row is one user's precomputed feature record. Values are kept as
// strings and coerced by the serving schema, the same way they come
// back from a wide-column store.
type Row map[string]string

// Store reads and writes per-user feature rows in KV storage.
type Store struct {
	store *storage.Storage
}

// New creates a feature store over the given storage.
func New(store *storage.Storage) *Store {
	return &Store{store: store}
}

// userPrefix pads the user id so key order matches numeric order.
func userPrefix(userID int64) []byte {
	return []byte(fmt.Sprintf("fstore/%020d/", userID))
}

func rowKey(userID int64, version string) []byte {
	return append(userPrefix(userID), version...)
}

// Put stores one user's feature row under a version.
func (s *Store) Put(userID int64, version string, row Row) error {
	if version == "" || version == VersionLatest {
		return fmt.Errorf("put user %d: invalid version %q", userID, version)
	}
	blob, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("put user %d: %w", userID, err)
	}
	if err := s.store.Put(rowKey(userID, version), blob); err != nil {
		return fmt.Errorf("put user %d: %w", userID, err)
	}
	return nil
}

// Get returns a user's feature row. Version VersionLatest picks the
// newest stored version. An absent user yields an empty row, not an
// error: the serving schema fills the gaps.
func (s *Store) Get(userID int64, version string) (Row, error) {
	if version == VersionLatest {
		return s.getLatest(userID)
	}

	blob, err := s.store.Get(rowKey(userID, version))
	if err != nil {
		if storage.IsNotFound(err) {
			return Row{}, nil
		}
		return nil, fmt.Errorf("get user %d version %s: %w", userID, version, err)
	}
	return decodeRow(blob, userID)
}

func (s *Store) getLatest(userID int64) (Row, error) {
	it := s.store.NewIteratorWithPrefix(userPrefix(userID))
	defer it.Release()

	var blob []byte
	latest := ""
	for it.Next() {
		version := strings.TrimPrefix(string(it.Key()), string(userPrefix(userID)))
		if version > latest {
			latest = version
			blob = append(blob[:0], it.Value()...)
		}
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("get user %d latest: %w", userID, err)
	}
	if blob == nil {
		return Row{}, nil
	}
	return decodeRow(blob, userID)
}

func decodeRow(blob []byte, userID int64) (Row, error) {
	var row Row
	if err := json.Unmarshal(blob, &row); err != nil {
		return nil, fmt.Errorf("decode feature row for user %d: %w", userID, err)
	}
	return row, nil
}
