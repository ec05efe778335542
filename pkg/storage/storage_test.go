// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoragePutGet(t *testing.T) {
	require := require.New(t)

	s := NewMemory()
	defer s.Close()

	require.NoError(s.Put([]byte("model/v1"), []byte("payload")))

	got, err := s.Get([]byte("model/v1"))
	require.NoError(err)
	require.Equal([]byte("payload"), got)

	has, err := s.Has([]byte("model/v1"))
	require.NoError(err)
	require.True(has)

	_, err = s.Get([]byte("missing"))
	require.Error(err)
	require.True(IsNotFound(err))
}

func TestStoragePrefixIterator(t *testing.T) {
	require := require.New(t)

	s := NewMemory()
	defer s.Close()

	require.NoError(s.Put([]byte("registry/ctr/20240101000000"), []byte("a")))
	require.NoError(s.Put([]byte("registry/ctr/20240201000000"), []byte("b")))
	require.NoError(s.Put([]byte("registry/other/20240301000000"), []byte("c")))

	it := s.NewIteratorWithPrefix([]byte("registry/ctr/"))
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(it.Error())
	require.Len(keys, 2)
}
