// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/adxyz/ctr/artifact"
	"github.com/adxyz/ctr/logstore"
	"github.com/adxyz/ctr/pkg/log"
	"github.com/adxyz/ctr/pkg/storage"
	"github.com/adxyz/ctr/registry"
)

// seedLogs fills an in-memory log database with a month of impressions
// where afternoon traffic clicks and morning traffic does not.
func seedLogs(t *testing.T) *logstore.Store {
	t.Helper()
	require := require.New(t)

	s, err := logstore.Open("", log.NoOp())
	require.NoError(err)
	t.Cleanup(func() { _ = s.Close() })

	ddl := []string{
		`CREATE TABLE impression_log (
			impression_id VARCHAR, logged_at TIMESTAMP, user_id BIGINT,
			app_code BIGINT, os_version VARCHAR, is_4g BIGINT, is_click BIGINT
		)`,
		`CREATE TABLE view_log (
			logged_at TIMESTAMP, device_type VARCHAR, session_id BIGINT,
			user_id BIGINT, item_id BIGINT
		)`,
		`CREATE TABLE mst_item (
			item_id BIGINT, item_price BIGINT, category_1 BIGINT,
			category_2 BIGINT, category_3 BIGINT, product_type BIGINT
		)`,
	}
	for _, stmt := range ddl {
		_, err := s.DB().Exec(stmt)
		require.NoError(err)
	}

	base := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		loggedAt := base.AddDate(0, 0, i/3).Add(time.Duration(6+8*(i%3)) * time.Hour)
		isClick := 0
		if loggedAt.Hour() >= 14 {
			isClick = 1
		}
		osVersion := "latest"
		if i%4 == 0 {
			osVersion = "old"
		}
		_, err := s.DB().Exec(fmt.Sprintf(
			`INSERT INTO impression_log VALUES ('imp-%03d', '%s', %d, %d, '%s', %d, %d)`,
			i, loggedAt.Format("2006-01-02 15:04:05"), 100+i%7, 10+i%3, osVersion, i%2, isClick,
		))
		require.NoError(err)
	}
	for i := 0; i < 20; i++ {
		loggedAt := base.AddDate(0, 0, i).Add(5 * time.Hour)
		_, err := s.DB().Exec(fmt.Sprintf(
			`INSERT INTO view_log VALUES ('%s', 'iphone', %d, %d, %d)`,
			loggedAt.Format("2006-01-02 15:04:05"), i, 100+i%7, 201+i%3,
		))
		require.NoError(err)
	}
	for i := 0; i < 3; i++ {
		_, err := s.DB().Exec(fmt.Sprintf(
			`INSERT INTO mst_item VALUES (%d, %d, 1, 2, %d, 1)`, 201+i, 100+20*i, 3+i,
		))
		require.NoError(err)
	}
	return s
}

func newTrainer(t *testing.T, logs *logstore.Store, now time.Time) (*Trainer, *storage.Storage) {
	t.Helper()
	store := storage.NewMemory()
	return &Trainer{
		Logs:         logs,
		Registry:     registry.New(store),
		Blobs:        artifact.NewBlobs(store),
		Logger:       log.NoOp(),
		ArtifactRoot: t.TempDir(),
		Now:          func() time.Time { return now },
	}, store
}

func TestTrainRunPromotesWithoutBaseline(t *testing.T) {
	require := require.New(t)

	logs := seedLogs(t)
	toTime := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	trainer, _ := newTrainer(t, logs, toTime)

	result, err := trainer.Run(context.Background(), "linear_ctr", toTime)
	require.NoError(err)
	require.True(result.Promoted, "first run has no baseline and must promote")
	require.Empty(result.BaselineVersion)
	require.Equal("20230201000000", result.Version)
	require.Greater(result.TestMetrics.AUC, 0.5, "afternoon clicks are learnable from the hour feature")

	latest, err := trainer.Registry.LatestVersion("linear_ctr")
	require.NoError(err)
	require.Equal(result.Version, latest)

	storageKey, err := trainer.Registry.StorageKey("linear_ctr", latest)
	require.NoError(err)
	blob, err := trainer.Blobs.Get(storageKey)
	require.NoError(err)
	require.NotEmpty(blob)
}

func TestTrainRunGateAgainstBaseline(t *testing.T) {
	require := require.New(t)

	logs := seedLogs(t)
	toTime := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	trainer, store := newTrainer(t, logs, toTime)

	first, err := trainer.Run(context.Background(), "linear_ctr", toTime)
	require.NoError(err)
	require.True(first.Promoted)

	// Same window, so the candidate ties the baseline on every metric
	// and ties pass the gate.
	second := &Trainer{
		Logs:         logs,
		Registry:     registry.New(store),
		Blobs:        artifact.NewBlobs(store),
		Logger:       log.NoOp(),
		ArtifactRoot: t.TempDir(),
		Now:          func() time.Time { return toTime.Add(time.Hour) },
	}
	result, err := second.Run(context.Background(), "linear_ctr", toTime)
	require.NoError(err)
	require.True(result.Promoted)
	require.Equal(first.Version, result.BaselineVersion)
	require.NotEqual(first.Version, result.Version)

	versions, err := second.Registry.Versions("linear_ctr")
	require.NoError(err)
	require.Len(versions, 2)
}

// perfectBaselineBlob encodes a hashed-linear model that reproduces the
// seed click rule exactly: saturating weight on every afternoon hour
// bucket, saturating negative weight on the rest.
func perfectBaselineBlob(t *testing.T) []byte {
	t.Helper()

	weights := make(map[string]float64, 24)
	for hour := 0; hour < 24; hour++ {
		h := fnv.New32a()
		_, _ = h.Write([]byte(fmt.Sprintf("impression_hour=%d", hour)))
		bucket := h.Sum32() % (1 << 18)
		w := -50.0
		if hour >= 14 {
			w = 50.0
		}
		weights[strconv.FormatUint(uint64(bucket), 10)] = w
	}
	blob, err := json.Marshal(map[string]any{
		"bias":    0.0,
		"alpha":   0.0,
		"weights": weights,
	})
	require.NoError(t, err)
	return blob
}

func TestTrainRunGateRejectsWorseCandidate(t *testing.T) {
	require := require.New(t)

	logs := seedLogs(t)
	toTime := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	trainer, _ := newTrainer(t, logs, toTime)

	// The registered baseline predicts the held-out labels exactly, so
	// no trained candidate can match its log-loss.
	baselineVersion := "20230101000000"
	storageKey := "train/linear_ctr/" + baselineVersion + "/model.json"
	require.NoError(trainer.Blobs.Put(storageKey, perfectBaselineBlob(t)))
	require.NoError(trainer.Registry.Register(registry.Entry{
		Model:      "linear_ctr",
		Version:    baselineVersion,
		StorageKey: storageKey,
	}))

	result, err := trainer.Run(context.Background(), "linear_ctr", toTime)
	require.NoError(err)
	require.False(result.Promoted)
	require.Equal(baselineVersion, result.BaselineVersion)

	// A rejected candidate leaves the registry untouched.
	versions, err := trainer.Registry.Versions("linear_ctr")
	require.NoError(err)
	require.Equal([]string{baselineVersion}, versions)

	latest, err := trainer.Registry.LatestVersion("linear_ctr")
	require.NoError(err)
	require.Equal(baselineVersion, latest)
}

func TestTrainRunGBDTVariant(t *testing.T) {
	require := require.New(t)

	logs := seedLogs(t)
	toTime := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	trainer, _ := newTrainer(t, logs, toTime)

	result, err := trainer.Run(context.Background(), "gbdt_ctr", toTime)
	require.NoError(err)
	require.True(result.Promoted)
	require.Greater(result.TestMetrics.AUC, 0.5)
}

func TestTrainRunUnknownModel(t *testing.T) {
	require := require.New(t)

	trainer, _ := newTrainer(t, seedLogs(t), time.Now())
	_, err := trainer.Run(context.Background(), "nope", time.Time{})
	require.ErrorContains(err, "invalid model name")
}

func TestTrainRunEmptyWindowFails(t *testing.T) {
	require := require.New(t)

	logs := seedLogs(t)
	toTime := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	trainer, _ := newTrainer(t, logs, toTime)

	_, err := trainer.Run(context.Background(), "linear_ctr", toTime)
	require.ErrorIs(err, logstore.ErrNoRows)
}
