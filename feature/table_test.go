// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feature

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLeftJoinOne(t *testing.T) {
	require := require.New(t)

	left := NewTable("id", "user_id")
	require.NoError(left.AppendRow(String("a"), Int(1)))
	require.NoError(left.AppendRow(String("b"), Int(2)))
	require.NoError(left.AppendRow(String("c"), Int(3)))

	right := NewTable("id", "count")
	require.NoError(right.AppendRow(String("a"), Int(10)))
	require.NoError(right.AppendRow(String("c"), Int(30)))

	joined, err := left.LeftJoinOne(right, "id", "_r")
	require.NoError(err)
	require.Equal(3, joined.Len())
	require.Equal(int64(10), joined.Value("count", 0).Int())
	require.True(joined.Value("count", 1).IsNull())
	require.Equal(int64(30), joined.Value("count", 2).Int())
}

func TestLeftJoinOneSuffixesCollidingColumns(t *testing.T) {
	require := require.New(t)

	left := NewTable("id", "logged_at")
	require.NoError(left.AppendRow(String("a"), Time(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC))))

	right := NewTable("id", "logged_at")
	require.NoError(right.AppendRow(String("a"), Time(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))))

	joined, err := left.LeftJoinOne(right, "id", "_view")
	require.NoError(err)
	require.Equal([]string{"id", "logged_at", "logged_at_view"}, joined.Columns())
	require.Equal(2, joined.Value("logged_at", 0).Time().Day())
	require.Equal(1, joined.Value("logged_at_view", 0).Time().Day())
}

func TestLeftJoinOneRejectsFanOut(t *testing.T) {
	require := require.New(t)

	left := NewTable("id")
	require.NoError(left.AppendRow(String("a")))

	right := NewTable("id", "v")
	require.NoError(right.AppendRow(String("a"), Int(1)))
	require.NoError(right.AppendRow(String("a"), Int(2)))

	_, err := left.LeftJoinOne(right, "id", "")
	require.ErrorIs(err, ErrJoinFanOut)
}

func TestSortByIsStableAndChronological(t *testing.T) {
	require := require.New(t)

	tbl := NewTable("seq", "logged_at")
	base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(tbl.AppendRow(Int(0), Time(base.Add(2*time.Hour))))
	require.NoError(tbl.AppendRow(Int(1), Time(base)))
	require.NoError(tbl.AppendRow(Int(2), Time(base.Add(2*time.Hour))))

	sorted, err := tbl.SortBy("logged_at")
	require.NoError(err)
	require.Equal([]any{int64(1), int64(0), int64(2)}, intsOrNull(t, sorted.Column("seq")))
}

func TestSliceAndSelect(t *testing.T) {
	require := require.New(t)

	tbl := NewTable("a", "b")
	for i := 0; i < 4; i++ {
		require.NoError(tbl.AppendRow(Int(int64(i)), Int(int64(i*10))))
	}

	part := tbl.Slice(1, 3)
	require.Equal(2, part.Len())
	require.Equal(int64(1), part.Value("a", 0).Int())

	sel, err := tbl.Select("b")
	require.NoError(err)
	require.Equal([]string{"b"}, sel.Columns())

	_, err = tbl.Select("missing")
	require.ErrorIs(err, ErrColumnMissing)
}
