// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/ctr/pkg/storage"
)

func TestRegisterAndGet(t *testing.T) {
	require := require.New(t)

	r := New(storage.NewMemory())
	entry := Entry{
		Model:      "linear_ctr",
		Version:    "20230101060000",
		StorageKey: "models/linear_ctr/20230101060000/model.json",
		Metadata:   map[string]string{"logloss": "0.41"},
	}
	require.NoError(r.Register(entry))

	got, err := r.Get("linear_ctr", "20230101060000")
	require.NoError(err)
	require.Equal(&entry, got)
}

func TestRegisterDuplicateVersionFails(t *testing.T) {
	require := require.New(t)

	r := New(storage.NewMemory())
	entry := Entry{Model: "linear_ctr", Version: "20230101060000", StorageKey: "k"}
	require.NoError(r.Register(entry))
	require.ErrorIs(r.Register(entry), ErrVersionExists)
}

func TestRegisterValidation(t *testing.T) {
	require := require.New(t)

	r := New(storage.NewMemory())
	require.Error(r.Register(Entry{Model: "", Version: "v"}))
	require.Error(r.Register(Entry{Model: "m", Version: ""}))
	require.Error(r.Register(Entry{Model: "m/x", Version: "v"}))
}

func TestLatestVersion(t *testing.T) {
	require := require.New(t)

	r := New(storage.NewMemory())

	latest, err := r.LatestVersion("linear_ctr")
	require.NoError(err)
	require.Empty(latest, "fresh model has no baseline version")

	for _, v := range []string{"20230101060000", "20230301060000", "20230201060000"} {
		require.NoError(r.Register(Entry{Model: "linear_ctr", Version: v, StorageKey: "models/" + v}))
	}
	require.NoError(r.Register(Entry{Model: "gbdt_ctr", Version: "20231231235959", StorageKey: "k"}))

	latest, err = r.LatestVersion("linear_ctr")
	require.NoError(err)
	require.Equal("20230301060000", latest)
}

func TestStorageKey(t *testing.T) {
	require := require.New(t)

	r := New(storage.NewMemory())
	require.NoError(r.Register(Entry{
		Model:      "linear_ctr",
		Version:    "20230101060000",
		StorageKey: "models/linear_ctr/20230101060000/model.json",
	}))

	key, err := r.StorageKey("linear_ctr", "20230101060000")
	require.NoError(err)
	require.Equal("models/linear_ctr/20230101060000/model.json", key)

	_, err = r.StorageKey("linear_ctr", "19990101000000")
	require.ErrorIs(err, ErrVersionNotFound)
}

func TestVersionsOrdered(t *testing.T) {
	require := require.New(t)

	r := New(storage.NewMemory())
	for _, v := range []string{"20230201060000", "20230101060000"} {
		require.NoError(r.Register(Entry{Model: "linear_ctr", Version: v, StorageKey: "k"}))
	}

	versions, err := r.Versions("linear_ctr")
	require.NoError(err)
	require.Equal([]string{"20230101060000", "20230201060000"}, versions)
}
