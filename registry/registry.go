// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry tracks trained model versions and where their
// artifacts live. Entries are append-only: a version is written once at
// promotion time and never rewritten.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/adxyz/ctr/pkg/storage"
)

// ErrVersionExists is returned when registering a (model, version) pair
// that is already recorded.
var ErrVersionExists = errors.New("model version already registered")

// ErrVersionNotFound is returned when looking up an unregistered
// (model, version) pair.
var ErrVersionNotFound = errors.New("model version not found")

// Entry is the registry record for one trained model version.
type Entry struct {
	Model      string            `json:"model"`
	Version    string            `json:"version"`
	StorageKey string            `json:"storage_key"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Registry is a KV-backed model registry. Versions are RFC-ordered
// timestamp strings, so the lexicographically greatest key under a
// model's prefix is the newest one.
type Registry struct {
	store *storage.Storage
}

// New creates a registry over the given storage.
func New(store *storage.Storage) *Registry {
	return &Registry{store: store}
}

func entryKey(model, version string) []byte {
	return []byte(fmt.Sprintf("registry/%s/%s", model, version))
}

func modelPrefix(model string) []byte {
	return []byte("registry/" + model + "/")
}

// Register records a new model version. Re-registering an existing
// (model, version) pair fails with ErrVersionExists.
func (r *Registry) Register(entry Entry) error {
	if entry.Model == "" || entry.Version == "" {
		return fmt.Errorf("register: model and version are required")
	}
	if strings.Contains(entry.Model, "/") || strings.Contains(entry.Version, "/") {
		return fmt.Errorf("register: model and version must not contain '/'")
	}

	key := entryKey(entry.Model, entry.Version)
	exists, err := r.store.Has(key)
	if err != nil {
		return fmt.Errorf("register %s/%s: %w", entry.Model, entry.Version, err)
	}
	if exists {
		return fmt.Errorf("register %s/%s: %w", entry.Model, entry.Version, ErrVersionExists)
	}

	blob, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("register %s/%s: %w", entry.Model, entry.Version, err)
	}
	if err := r.store.Put(key, blob); err != nil {
		return fmt.Errorf("register %s/%s: %w", entry.Model, entry.Version, err)
	}
	return nil
}

// Get returns the registry entry for one version.
func (r *Registry) Get(model, version string) (*Entry, error) {
	blob, err := r.store.Get(entryKey(model, version))
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("get %s/%s: %w", model, version, ErrVersionNotFound)
		}
		return nil, fmt.Errorf("get %s/%s: %w", model, version, err)
	}
	var entry Entry
	if err := json.Unmarshal(blob, &entry); err != nil {
		return nil, fmt.Errorf("get %s/%s: decode entry: %w", model, version, err)
	}
	return &entry, nil
}

// LatestVersion returns the newest registered version for a model, or
// the empty string when the model has no versions yet. Absence is not
// an error: a first training run has no baseline to compare against.
func (r *Registry) LatestVersion(model string) (string, error) {
	it := r.store.NewIteratorWithPrefix(modelPrefix(model))
	defer it.Release()

	latest := ""
	for it.Next() {
		version := strings.TrimPrefix(string(it.Key()), string(modelPrefix(model)))
		if version > latest {
			latest = version
		}
	}
	if err := it.Error(); err != nil {
		return "", fmt.Errorf("latest version of %s: %w", model, err)
	}
	return latest, nil
}

// StorageKey returns where the version's model blob is stored. A
// registered version with no storage key is a broken record and is
// reported as an error.
func (r *Registry) StorageKey(model, version string) (string, error) {
	entry, err := r.Get(model, version)
	if err != nil {
		return "", err
	}
	if entry.StorageKey == "" {
		return "", fmt.Errorf("storage key of %s/%s: entry has no storage key", model, version)
	}
	return entry.StorageKey, nil
}

// Versions lists the registered versions of a model in ascending order.
func (r *Registry) Versions(model string) ([]string, error) {
	it := r.store.NewIteratorWithPrefix(modelPrefix(model))
	defer it.Release()

	var versions []string
	for it.Next() {
		versions = append(versions, strings.TrimPrefix(string(it.Key()), string(modelPrefix(model))))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("versions of %s: %w", model, err)
	}
	return versions, nil
}
