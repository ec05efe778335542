// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pipeline

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/adxyz/ctr/artifact"
	"github.com/adxyz/ctr/feature"
	"github.com/adxyz/ctr/fstore"
	"github.com/adxyz/ctr/logstore"
	"github.com/adxyz/ctr/model"
	"github.com/adxyz/ctr/pkg/log"
	"github.com/adxyz/ctr/pkg/metric"
)

// onlineFeatureTTL bounds how long a stored user row may serve
// predictions before a fresh extraction replaces it.
const onlineFeatureTTL = 7 * 24 * time.Hour

// onlineColumns are the per-user features published to the online
// store. Time features are computed at request time, not stored.
var onlineColumns = []string{
	feature.ColPreviousImpressionCount,
	feature.ColPreviousViewCount,
	feature.ColDeviceType,
	feature.ColItemID,
	feature.ColItemPrice,
	feature.ColCategory1,
	feature.ColCategory2,
	feature.ColCategory3,
	feature.ColProductType,
}

// OfflineFeatureRow is the parquet layout of one extracted feature row.
// History and item fields are optional: a user without qualifying
// views has no item attribution.
type OfflineFeatureRow struct {
	ImpressionID            string    `parquet:"impression_id,snappy"`
	LoggedAt                time.Time `parquet:"logged_at,snappy"`
	UserID                  int64     `parquet:"user_id,snappy"`
	AppCode                 int64     `parquet:"app_code,snappy"`
	OSVersion               string    `parquet:"os_version,snappy"`
	Is4G                    int64     `parquet:"is_4g,snappy"`
	IsClick                 *int64    `parquet:"is_click,optional,snappy"`
	PreviousImpressionCount *int64    `parquet:"previous_impression_count,optional,snappy"`
	PreviousViewCount       *int64    `parquet:"previous_view_count,optional,snappy"`
	ItemID                  *int64    `parquet:"item_id,optional,snappy"`
	DeviceType              *string   `parquet:"device_type,optional,snappy"`
	ItemPrice               *float64  `parquet:"item_price,optional,snappy"`
	Category1               *int64    `parquet:"category_1,optional,snappy"`
	Category2               *int64    `parquet:"category_2,optional,snappy"`
	Category3               *int64    `parquet:"category_3,optional,snappy"`
	ProductType             *int64    `parquet:"product_type,optional,snappy"`
}

// Extractor wires the collaborators of one feature-extraction run.
type Extractor struct {
	Logs         *logstore.Store
	Features     *fstore.Store
	Blobs        *artifact.Blobs
	Metrics      *metric.Metrics
	Logger       log.Logger
	ArtifactRoot string

	Now func() time.Time
}

// ExtractResult summarizes one feature-extraction run.
type ExtractResult struct {
	Version     string `json:"version"`
	RowsBuilt   int    `json:"rows_built"`
	UsersStored int    `json:"users_stored"`
}

func (e *Extractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Extractor) logger() log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.NoOp()
}

// Run extracts one feature window, publishes the offline dataset to the
// blob store and refreshes the online store with each user's newest
// row. The model config supplies the window sizes so offline training
// and online serving see the same features.
func (e *Extractor) Run(ctx context.Context, modelName string, toTime time.Time) (*ExtractResult, error) {
	logger := e.logger()
	startTime := e.now()
	version := startTime.UTC().Format(versionFormat)

	result, err := e.run(ctx, modelName, toTime, version, startTime, logger)
	if e.Metrics != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		e.Metrics.PipelineRuns.WithLabelValues("feature_extraction", status).Inc()
	}
	return result, err
}

func (e *Extractor) run(ctx context.Context, modelName string, toTime time.Time, version string, startTime time.Time, logger log.Logger) (*ExtractResult, error) {
	cfg, err := model.GetConfig(modelName)
	if err != nil {
		return nil, err
	}
	if toTime.IsZero() {
		toTime = startTime
	}

	run, err := artifact.New(version, "feature_extraction", e.ArtifactRoot)
	if err != nil {
		return nil, err
	}
	logger.Info("starting feature extraction",
		"version", version, "to_datetime", feature.FormatLoggedAt(toTime))

	meta := newMetadata(version, cfg.Name, "feature_extraction", startTime)
	meta.ArtifactKeyPrefix = run.KeyPrefix()
	meta.Dataset = DatasetParameter{
		LookbackDays:      cfg.LookbackDays,
		TrainIntervalDays: cfg.TrainIntervalDays,
		ToTime:            toTime,
	}

	trainer := &Trainer{Logs: e.Logs, Metrics: e.Metrics}
	imps, views, items, err := trainer.extract(ctx, cfg, toTime, meta)
	if err != nil {
		return nil, err
	}

	table, err := feature.ImpressionFeature(imps, views, items, cfg.LookbackDays, logger)
	if err != nil {
		return nil, err
	}
	if e.Metrics != nil {
		e.Metrics.FeatureRowsBuilt.Add(float64(table.Len()))
	}

	if err := writeOfflineFeatures(table, run.FilePath("features.parquet")); err != nil {
		return nil, err
	}

	users, err := e.publishOnline(table, version, startTime)
	if err != nil {
		return nil, err
	}
	logger.Info("published online features", "version", version, "users", users)

	meta.EndTime = e.now()
	if err := meta.Save(run.FilePath("metadata.json")); err != nil {
		return nil, err
	}
	if e.Blobs != nil {
		run.Upload(e.Blobs, logger)
	}
	return &ExtractResult{Version: version, RowsBuilt: table.Len(), UsersStored: users}, nil
}

// publishOnline keeps one row per user, the one with the newest
// logged_at, and stores it under the run version.
func (e *Extractor) publishOnline(t *feature.Table, version string, startTime time.Time) (int, error) {
	latest := make(map[int64]int)
	for i := 0; i < t.Len(); i++ {
		userID := t.Value(feature.ColUserID, i).Int()
		prev, ok := latest[userID]
		if !ok || t.Value(feature.ColLoggedAt, i).Time().After(t.Value(feature.ColLoggedAt, prev).Time()) {
			latest[userID] = i
		}
	}

	expiredAt := startTime.Add(onlineFeatureTTL).Unix()
	for userID, rowIdx := range latest {
		row := fstore.Row{
			feature.ColUserID: strconv.FormatInt(userID, 10),
			"expired_at":      strconv.FormatInt(expiredAt, 10),
		}
		for _, col := range onlineColumns {
			v := t.Value(col, rowIdx)
			if v.IsNull() {
				continue
			}
			row[col] = v.String()
		}
		if err := e.Features.Put(userID, version, row); err != nil {
			return 0, err
		}
	}
	return len(latest), nil
}

func writeOfflineFeatures(t *feature.Table, path string) error {
	rows := make([]OfflineFeatureRow, t.Len())
	for i := range rows {
		r := OfflineFeatureRow{
			ImpressionID: t.Value(feature.ColImpressionID, i).String(),
			LoggedAt:     t.Value(feature.ColLoggedAt, i).Time(),
			UserID:       t.Value(feature.ColUserID, i).Int(),
			AppCode:      t.Value(feature.ColAppCode, i).Int(),
			OSVersion:    t.Value(feature.ColOSVersion, i).String(),
			Is4G:         t.Value(feature.ColIs4G, i).Int(),
		}
		r.IsClick = optInt(t.Value(feature.ColIsClick, i))
		r.PreviousImpressionCount = optInt(t.Value(feature.ColPreviousImpressionCount, i))
		r.PreviousViewCount = optInt(t.Value(feature.ColPreviousViewCount, i))
		r.ItemID = optInt(t.Value(feature.ColItemID, i))
		r.DeviceType = optString(t.Value(feature.ColDeviceType, i))
		r.ItemPrice = optFloat(t.Value(feature.ColItemPrice, i))
		r.Category1 = optInt(t.Value(feature.ColCategory1, i))
		r.Category2 = optInt(t.Value(feature.ColCategory2, i))
		r.Category3 = optInt(t.Value(feature.ColCategory3, i))
		r.ProductType = optInt(t.Value(feature.ColProductType, i))
		rows[i] = r
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create feature file %s: %w", path, err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[OfflineFeatureRow](file)
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		return fmt.Errorf("write features %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close features %s: %w", path, err)
	}
	return nil
}

func optInt(v feature.Value) *int64 {
	if v.IsNull() {
		return nil
	}
	i := v.Int()
	return &i
}

func optFloat(v feature.Value) *float64 {
	if v.IsNull() {
		return nil
	}
	f := v.Float()
	return &f
}

func optString(v feature.Value) *string {
	if v.IsNull() {
		return nil
	}
	s := v.String()
	return &s
}
