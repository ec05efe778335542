// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adxyz/ctr/artifact"
	"github.com/adxyz/ctr/fstore"
	"github.com/adxyz/ctr/pkg/config"
	"github.com/adxyz/ctr/pkg/log"
	"github.com/adxyz/ctr/pkg/metric"
	"github.com/adxyz/ctr/pkg/storage"
	"github.com/adxyz/ctr/registry"
	"github.com/adxyz/ctr/server"
)

var (
	configFile = flag.String("config", "", "Config file path")
	port       = flag.String("port", "", "Server port (overrides config file)")
	env        = flag.String("env", "development", "Environment (development/production)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}

	logger := log.NewWithLevel(cfg.LogLevel)
	defer logger.Sync()

	if *env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.NewStorage(cfg.StorageType, cfg.StoragePath)
	if err != nil {
		logger.Fatal("failed to open storage", "path", cfg.StoragePath, "error", err)
	}
	defer store.Close()

	m, err := metric.NewMetrics()
	if err != nil {
		logger.Fatal("failed to init metrics", "error", err)
	}

	srv, err := server.Load(server.Options{
		ModelName:      cfg.ModelName,
		ModelVersion:   cfg.ModelVersion,
		FeatureVersion: cfg.FeatureVersion,
		Registry:       registry.New(store),
		Blobs:          artifact.NewBlobs(store),
		Features:       fstore.New(store),
		Metrics:        m,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("failed to load model", "model", cfg.ModelName, "error", err)
	}

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Router(),
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", "error", err)
		}
	}()
	logger.Info("prediction server started", "port", cfg.Port, "env", *env)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", "error", err)
	}
	logger.Info("server exited")
}
