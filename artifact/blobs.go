// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package artifact

import (
	"fmt"

	"github.com/adxyz/ctr/pkg/storage"
)

// Blobs is a flat byte store for model files and run outputs, keyed by
// slash-separated paths.
type Blobs struct {
	store *storage.Storage
}

// NewBlobs creates a blob store over the given storage.
func NewBlobs(store *storage.Storage) *Blobs {
	return &Blobs{store: store}
}

func blobKey(key string) []byte {
	return []byte("blobs/" + key)
}

// Put stores one blob.
func (b *Blobs) Put(key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("put blob: key is empty")
	}
	if err := b.store.Put(blobKey(key), data); err != nil {
		return fmt.Errorf("put blob %s: %w", key, err)
	}
	return nil
}

// Get retrieves one blob.
func (b *Blobs) Get(key string) ([]byte, error) {
	data, err := b.store.Get(blobKey(key))
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("get blob %s: not found", key)
		}
		return nil, fmt.Errorf("get blob %s: %w", key, err)
	}
	return data, nil
}

// Has reports whether a blob exists.
func (b *Blobs) Has(key string) (bool, error) {
	return b.store.Has(blobKey(key))
}
