// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/ctr/feature"
)

func coercedTable(t *testing.T) *feature.Table {
	t.Helper()
	require := require.New(t)

	tbl := feature.NewTable(
		feature.ColImpressionID, feature.ColLoggedAt,
		feature.ColImpressionHour, feature.ColImpressionDay, feature.ColImpressionWeekday,
		feature.ColUserID, feature.ColAppCode, feature.ColOSVersion, feature.ColIs4G,
		feature.ColPreviousImpressionCount, feature.ColPreviousViewCount,
		feature.ColItemID, feature.ColDeviceType, feature.ColItemPrice,
		feature.ColCategory1, feature.ColCategory2, feature.ColCategory3,
		feature.ColProductType, feature.ColIsClick,
	)
	require.NoError(tbl.AppendRow(
		feature.String("imp-1"), feature.Time(time.Date(2023, 1, 1, 6, 0, 0, 0, time.UTC)),
		feature.Int(6), feature.Int(1), feature.Int(6),
		feature.Int(101), feature.Int(10), feature.String("latest"), feature.Int(1),
		feature.Int(-1), feature.Int(1),
		feature.Int(201), feature.String("iphone"), feature.Int(100),
		feature.Int(1), feature.Int(2), feature.Int(3),
		feature.Int(1), feature.Int(0),
	))
	return tbl
}

func TestDatasetRows(t *testing.T) {
	require := require.New(t)

	rows, err := DatasetRows(coercedTable(t))
	require.NoError(err)
	require.Len(rows, 1)
	require.Equal("imp-1", rows[0].ImpressionID)
	require.Equal(int64(6), rows[0].ImpressionHour)
	require.Equal("iphone", rows[0].DeviceType)
	require.Equal(int64(0), rows[0].IsClick)
}

func TestDatasetRowsRejectsNullFeature(t *testing.T) {
	require := require.New(t)

	tbl := coercedTable(t)
	require.NoError(tbl.ReplaceColumn(feature.ColItemID, []feature.Value{feature.Null()}))

	_, err := DatasetRows(tbl)
	require.ErrorContains(err, "item_id")
	require.ErrorContains(err, "null after coercion")
}

func TestWriteDataset(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "train.parquet")
	require.NoError(WriteDataset(coercedTable(t), path))

	info, err := os.Stat(path)
	require.NoError(err)
	require.Positive(info.Size())
}
