// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pipeline runs the offline jobs: model training with the
// promotion gate, and feature extraction for the online store.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/adxyz/ctr/artifact"
	"github.com/adxyz/ctr/eval"
	"github.com/adxyz/ctr/feature"
	"github.com/adxyz/ctr/logstore"
	"github.com/adxyz/ctr/model"
	"github.com/adxyz/ctr/pkg/log"
	"github.com/adxyz/ctr/pkg/metric"
	"github.com/adxyz/ctr/registry"
	"github.com/adxyz/ctr/validate"
)

const versionFormat = "20060102150405"

// Trainer wires the collaborators of one training run.
type Trainer struct {
	Logs         *logstore.Store
	Registry     *registry.Registry
	Blobs        *artifact.Blobs
	Metrics      *metric.Metrics
	Logger       log.Logger
	ArtifactRoot string

	// Now is the run clock. Overridable in tests.
	Now func() time.Time
}

// TrainResult summarizes one training run.
type TrainResult struct {
	Version         string       `json:"version"`
	Model           string       `json:"model"`
	Promoted        bool         `json:"promoted"`
	BaselineVersion string       `json:"baseline_version,omitempty"`
	TrainMetrics    eval.Metrics `json:"train_metrics"`
	TestMetrics     eval.Metrics `json:"test_metrics"`
}

func (t *Trainer) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Trainer) logger() log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.NoOp()
}

// Run trains one candidate model and registers it if it beats the
// current baseline on the same held-out window. toTime bounds the
// extraction window; a zero toTime uses the run clock.
func (t *Trainer) Run(ctx context.Context, modelName string, toTime time.Time) (*TrainResult, error) {
	logger := t.logger()
	startTime := t.now()
	version := startTime.UTC().Format(versionFormat)

	result, err := t.run(ctx, modelName, toTime, version, startTime, logger)
	if t.Metrics != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		t.Metrics.PipelineRuns.WithLabelValues("train", status).Inc()
	}
	return result, err
}

func (t *Trainer) run(ctx context.Context, modelName string, toTime time.Time, version string, startTime time.Time, logger log.Logger) (*TrainResult, error) {
	cfg, err := model.GetConfig(modelName)
	if err != nil {
		return nil, err
	}
	if toTime.IsZero() {
		toTime = startTime
	}

	run, err := artifact.New(version, "train/"+cfg.Name, t.ArtifactRoot)
	if err != nil {
		return nil, err
	}
	logger.Info("starting training run",
		"model", cfg.Name, "version", version, "to_datetime", feature.FormatLoggedAt(toTime))

	meta := newMetadata(version, cfg.Name, "train", startTime)
	meta.ArtifactKeyPrefix = run.KeyPrefix()
	meta.Features = cfg.Schemas
	meta.Dataset = DatasetParameter{
		LookbackDays:      cfg.LookbackDays,
		TrainIntervalDays: cfg.TrainIntervalDays,
		TestSize:          cfg.TestSize,
		ValidSize:         cfg.ValidSize,
		ToTime:            toTime,
	}

	imps, views, items, err := t.extract(ctx, cfg, toTime, meta)
	if err != nil {
		return nil, err
	}

	preprocessStart := t.now()
	table, err := feature.Assemble(imps, views, items, cfg.LookbackDays, logger)
	if err != nil {
		return nil, err
	}
	if err := feature.ApplySchema(table, cfg.Schemas); err != nil {
		return nil, err
	}
	trainTable, validTable, testTable, err := feature.TemporalSplit(table, cfg.TestSize, cfg.ValidSize)
	if err != nil {
		return nil, err
	}
	if t.Metrics != nil {
		t.Metrics.FeatureRowsBuilt.Add(float64(table.Len()))
		t.Metrics.PreprocessDuration.Observe(t.now().Sub(preprocessStart).Seconds())
	}
	logger.Info("split dataset",
		"train", trainTable.Len(), "valid", validTable.Len(), "test", testTable.Len())

	xTrain, yTrain, err := datasetOf(trainTable, cfg)
	if err != nil {
		return nil, err
	}
	xValid, yValid, err := datasetOf(validTable, cfg)
	if err != nil {
		return nil, err
	}
	xTest, yTest, err := datasetOf(testTable, cfg)
	if err != nil {
		return nil, err
	}

	predictor, err := cfg.NewPredictor()
	if err != nil {
		return nil, err
	}
	trainStart := t.now()
	if err := predictor.Train(xTrain, yTrain, xValid, yValid); err != nil {
		return nil, fmt.Errorf("train %s: %w", cfg.Name, err)
	}
	if t.Metrics != nil {
		t.Metrics.TrainDuration.Observe(t.now().Sub(trainStart).Seconds())
	}

	result := &TrainResult{Version: version, Model: cfg.Name}
	yPredTrain, err := predictor.PredictProba(xTrain)
	if err != nil {
		return nil, err
	}
	if result.TrainMetrics, err = eval.Calculate(yTrain, yPredTrain); err != nil {
		return nil, err
	}
	yPred, err := predictor.PredictProba(xTest)
	if err != nil {
		return nil, err
	}
	if result.TestMetrics, err = eval.Calculate(yTest, yPred); err != nil {
		return nil, err
	}
	meta.Metrics = map[string]eval.Metrics{"train": result.TrainMetrics, "test": result.TestMetrics}
	logger.Info("evaluated candidate",
		"model", cfg.Name, "version", version,
		"test_logloss", result.TestMetrics.LogLoss,
		"test_auc", result.TestMetrics.AUC,
		"test_calibration", result.TestMetrics.Calibration)

	result.Promoted, result.BaselineVersion, err = t.gate(cfg, xTest, yTest, yPred, logger)
	if err != nil {
		return nil, err
	}
	meta.Promoted = result.Promoted
	meta.BaselineVersion = result.BaselineVersion

	if err := t.storeArtifacts(run, meta, predictor, trainTable, validTable, testTable, logger); err != nil {
		return nil, err
	}

	if result.Promoted {
		if err := t.register(cfg, version, run, meta); err != nil {
			return nil, err
		}
		if t.Metrics != nil {
			t.Metrics.ModelsPromoted.Inc()
		}
		logger.Info("promoted model version", "model", cfg.Name, "version", version)
	} else {
		if t.Metrics != nil {
			t.Metrics.ModelsRejected.Inc()
		}
		logger.Info("candidate rejected by gate",
			"model", cfg.Name, "version", version, "baseline", result.BaselineVersion)
	}
	return result, nil
}

// extract pulls the three source tables and validates them. Views reach
// back an extra lookback window so the first impressions in the
// training interval still see their history.
func (t *Trainer) extract(ctx context.Context, cfg *model.Config, toTime time.Time, meta *Metadata) ([]feature.Impression, []feature.View, []feature.Item, error) {
	impFrom := toTime.AddDate(0, 0, -cfg.TrainIntervalDays)
	viewFrom := toTime.AddDate(0, 0, -(cfg.TrainIntervalDays + cfg.LookbackDays))
	meta.Queries = []string{
		logstore.ComposeSQL(logstore.TableImpressionLog, &impFrom, &toTime, ""),
		logstore.ComposeSQL(logstore.TableViewLog, &viewFrom, &toTime, ""),
		logstore.ComposeSQL(logstore.TableItem, nil, nil, ""),
	}

	imps, err := t.Logs.Impressions(ctx, &impFrom, &toTime)
	if err != nil {
		return nil, nil, nil, err
	}
	views, err := t.Logs.Views(ctx, &viewFrom, &toTime)
	if err != nil {
		return nil, nil, nil, err
	}
	items, err := t.Logs.Items(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if t.Metrics != nil {
		t.Metrics.RowsExtracted.WithLabelValues(logstore.TableImpressionLog).Add(float64(len(imps)))
		t.Metrics.RowsExtracted.WithLabelValues(logstore.TableViewLog).Add(float64(len(views)))
		t.Metrics.RowsExtracted.WithLabelValues(logstore.TableItem).Add(float64(len(items)))
	}

	if err := validate.Impressions(imps); err != nil {
		return nil, nil, nil, err
	}
	if err := validate.Views(views); err != nil {
		return nil, nil, nil, err
	}
	if err := validate.Items(items); err != nil {
		return nil, nil, nil, err
	}
	return imps, views, items, nil
}

// gate decides promotion. A model with no registered baseline is always
// promoted; otherwise the baseline is reloaded and scored on the same
// test rows as the candidate.
func (t *Trainer) gate(cfg *model.Config, xTest *feature.Matrix, yTest, yPred []float64, logger log.Logger) (bool, string, error) {
	baseline, err := t.Registry.LatestVersion(cfg.Name)
	if err != nil {
		return false, "", err
	}
	if baseline == "" {
		logger.Info("no baseline version registered, promoting candidate", "model", cfg.Name)
		return true, "", nil
	}

	storageKey, err := t.Registry.StorageKey(cfg.Name, baseline)
	if err != nil {
		return false, "", fmt.Errorf("baseline %s/%s: %w", cfg.Name, baseline, err)
	}
	blob, err := t.Blobs.Get(storageKey)
	if err != nil {
		return false, "", fmt.Errorf("load baseline %s/%s: %w", cfg.Name, baseline, err)
	}
	baselineModel, err := cfg.NewPredictor()
	if err != nil {
		return false, "", err
	}
	if err := baselineModel.Decode(blob); err != nil {
		return false, "", fmt.Errorf("decode baseline %s/%s: %w", cfg.Name, baseline, err)
	}
	yBaseline, err := baselineModel.PredictProba(xTest)
	if err != nil {
		return false, "", err
	}

	better, err := eval.IsBetterThanBaseline(yPred, yBaseline, yTest, logger)
	if err != nil {
		return false, "", err
	}
	return better, baseline, nil
}

func (t *Trainer) storeArtifacts(run *artifact.Artifact, meta *Metadata, predictor model.Predictor, trainTable, validTable, testTable *feature.Table, logger log.Logger) error {
	meta.EndTime = t.now()
	if err := meta.Save(run.FilePath("metadata.json")); err != nil {
		return err
	}

	modelBlob, err := predictor.Encode()
	if err != nil {
		return err
	}
	if err := run.WriteFile("model.json", modelBlob); err != nil {
		return err
	}

	for name, tbl := range map[string]*feature.Table{
		"train": trainTable,
		"valid": validTable,
		"test":  testTable,
	} {
		if err := artifact.WriteDataset(tbl, run.FilePath(name+".parquet")); err != nil {
			return err
		}
	}

	run.Upload(t.Blobs, logger)
	return nil
}

func (t *Trainer) register(cfg *model.Config, version string, run *artifact.Artifact, meta *Metadata) error {
	return t.Registry.Register(registry.Entry{
		Model:      cfg.Name,
		Version:    version,
		StorageKey: run.KeyPrefix() + "/model.json",
		Metadata: map[string]string{
			"artifact_key_prefix": run.KeyPrefix(),
			"baseline_version":    meta.BaselineVersion,
			"test_logloss":        fmt.Sprintf("%.6f", meta.Metrics["test"].LogLoss),
			"test_auc":            fmt.Sprintf("%.6f", meta.Metrics["test"].AUC),
			"test_calibration":    fmt.Sprintf("%.6f", meta.Metrics["test"].Calibration),
		},
	})
}

func datasetOf(t *feature.Table, cfg *model.Config) (*feature.Matrix, []float64, error) {
	x, err := feature.ToMatrix(t, cfg.Schemas)
	if err != nil {
		return nil, nil, err
	}
	y, err := feature.TargetColumn(t, cfg.Target)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}
