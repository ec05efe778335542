// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/adxyz/ctr/artifact"
	"github.com/adxyz/ctr/feature"
	"github.com/adxyz/ctr/logstore"
	"github.com/adxyz/ctr/pipeline"
	"github.com/adxyz/ctr/pkg/config"
	"github.com/adxyz/ctr/pkg/log"
	"github.com/adxyz/ctr/pkg/metric"
	"github.com/adxyz/ctr/pkg/storage"
	"github.com/adxyz/ctr/registry"
)

var (
	configFile = flag.String("config", "", "Config file path")
	modelName  = flag.String("model", "", "Model config name (overrides config file)")
	toDatetime = flag.String("to-datetime", "", "Extraction window upper bound, '2006-01-02 15:04:05' (default: now)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *modelName != "" {
		cfg.ModelName = *modelName
	}

	logger := log.NewWithLevel(cfg.LogLevel)
	defer logger.Sync()

	var toTime time.Time
	if *toDatetime != "" {
		if toTime, err = feature.ParseLoggedAt(*toDatetime); err != nil {
			logger.Fatal("invalid to-datetime", "value", *toDatetime, "error", err)
		}
	}

	logs, err := logstore.Open(cfg.LogDB, logger)
	if err != nil {
		logger.Fatal("failed to open log database", "path", cfg.LogDB, "error", err)
	}
	defer logs.Close()

	store, err := storage.NewStorage(cfg.StorageType, cfg.StoragePath)
	if err != nil {
		logger.Fatal("failed to open storage", "path", cfg.StoragePath, "error", err)
	}
	defer store.Close()

	m, err := metric.NewMetrics()
	if err != nil {
		logger.Fatal("failed to init metrics", "error", err)
	}

	trainer := &pipeline.Trainer{
		Logs:         logs,
		Registry:     registry.New(store),
		Blobs:        artifact.NewBlobs(store),
		Metrics:      m,
		Logger:       logger,
		ArtifactRoot: cfg.ArtifactRoot,
	}

	result, err := trainer.Run(context.Background(), cfg.ModelName, toTime)
	if err != nil {
		logger.Fatal("training run failed", "model", cfg.ModelName, "error", err)
	}
	logger.Info("training run finished",
		"model", result.Model,
		"version", result.Version,
		"promoted", result.Promoted,
		"baseline", result.BaselineVersion,
		"test_logloss", result.TestMetrics.LogLoss,
		"test_auc", result.TestMetrics.AUC,
		"test_calibration", result.TestMetrics.Calibration)
}
