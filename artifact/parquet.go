// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package artifact

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/adxyz/ctr/feature"
)

// DatasetRow is the parquet layout of one coerced training row. The
// split files written per run use this schema so they load straight
// into DuckDB or pandas for offline analysis.
type DatasetRow struct {
	ImpressionID            string    `parquet:"impression_id,snappy"`
	LoggedAt                time.Time `parquet:"logged_at,snappy"`
	ImpressionHour          int64     `parquet:"impression_hour,snappy"`
	ImpressionDay           int64     `parquet:"impression_day,snappy"`
	ImpressionWeekday       int64     `parquet:"impression_weekday,snappy"`
	UserID                  int64     `parquet:"user_id,snappy"`
	AppCode                 int64     `parquet:"app_code,snappy"`
	OSVersion               string    `parquet:"os_version,snappy"`
	Is4G                    int64     `parquet:"is_4g,snappy"`
	PreviousImpressionCount int64     `parquet:"previous_impression_count,snappy"`
	PreviousViewCount       int64     `parquet:"previous_view_count,snappy"`
	ItemID                  int64     `parquet:"item_id,snappy"`
	DeviceType              string    `parquet:"device_type,snappy"`
	ItemPrice               int64     `parquet:"item_price,snappy"`
	Category1               int64     `parquet:"category_1,snappy"`
	Category2               int64     `parquet:"category_2,snappy"`
	Category3               int64     `parquet:"category_3,snappy"`
	ProductType             int64     `parquet:"product_type,snappy"`
	IsClick                 int64     `parquet:"is_click,snappy"`
}

// DatasetRows converts a coerced training table into parquet rows.
// Columns are read post-coercion, so every feature cell is a filled
// int or string.
func DatasetRows(t *feature.Table) ([]DatasetRow, error) {
	intCol := func(name string, row int) (int64, error) {
		v := t.Value(name, row)
		if v.IsNull() {
			return 0, fmt.Errorf("dataset row %d: column %s is null after coercion", row, name)
		}
		return v.Int(), nil
	}

	rows := make([]DatasetRow, t.Len())
	for i := range rows {
		r := DatasetRow{
			ImpressionID: t.Value(feature.ColImpressionID, i).String(),
			LoggedAt:     t.Value(feature.ColLoggedAt, i).Time(),
			OSVersion:    t.Value(feature.ColOSVersion, i).String(),
			DeviceType:   t.Value(feature.ColDeviceType, i).String(),
		}
		var err error
		for _, f := range []struct {
			col string
			dst *int64
		}{
			{feature.ColImpressionHour, &r.ImpressionHour},
			{feature.ColImpressionDay, &r.ImpressionDay},
			{feature.ColImpressionWeekday, &r.ImpressionWeekday},
			{feature.ColUserID, &r.UserID},
			{feature.ColAppCode, &r.AppCode},
			{feature.ColIs4G, &r.Is4G},
			{feature.ColPreviousImpressionCount, &r.PreviousImpressionCount},
			{feature.ColPreviousViewCount, &r.PreviousViewCount},
			{feature.ColItemID, &r.ItemID},
			{feature.ColItemPrice, &r.ItemPrice},
			{feature.ColCategory1, &r.Category1},
			{feature.ColCategory2, &r.Category2},
			{feature.ColCategory3, &r.Category3},
			{feature.ColProductType, &r.ProductType},
			{feature.ColIsClick, &r.IsClick},
		} {
			if *f.dst, err = intCol(f.col, i); err != nil {
				return nil, err
			}
		}
		rows[i] = r
	}
	return rows, nil
}

// WriteDataset writes a coerced training table as a parquet file.
func WriteDataset(t *feature.Table, path string) error {
	rows, err := DatasetRows(t)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset file %s: %w", path, err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[DatasetRow](file)
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return fmt.Errorf("write dataset %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close dataset %s: %w", path, err)
	}
	return nil
}
