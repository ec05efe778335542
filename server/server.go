// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package server serves click probability predictions over HTTP. The
// model is resolved from the registry at startup; a registry entry that
// cannot be loaded is a startup failure, not a degraded mode.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adxyz/ctr/artifact"
	"github.com/adxyz/ctr/fstore"
	"github.com/adxyz/ctr/model"
	"github.com/adxyz/ctr/pkg/log"
	"github.com/adxyz/ctr/pkg/metric"
	"github.com/adxyz/ctr/registry"
)

// Options configures Load.
type Options struct {
	ModelName      string
	ModelVersion   string
	FeatureVersion string

	Registry *registry.Registry
	Blobs    *artifact.Blobs
	Features *fstore.Store
	Metrics  *metric.Metrics
	Logger   log.Logger
}

// Server holds one loaded model version and its serving collaborators.
type Server struct {
	cfg            *model.Config
	predictor      model.Predictor
	modelVersion   string
	featureVersion string

	features *fstore.Store
	metrics  *metric.Metrics
	logger   log.Logger
}

// Load resolves the requested model version from the registry and
// restores the trained predictor from the blob store.
func Load(opts Options) (*Server, error) {
	cfg, err := model.GetConfig(opts.ModelName)
	if err != nil {
		return nil, err
	}

	version := opts.ModelVersion
	if version == "" || version == "latest" {
		version, err = opts.Registry.LatestVersion(cfg.Name)
		if err != nil {
			return nil, err
		}
		if version == "" {
			return nil, fmt.Errorf("no version of model %s is registered", cfg.Name)
		}
	}

	storageKey, err := opts.Registry.StorageKey(cfg.Name, version)
	if err != nil {
		return nil, err
	}
	blob, err := opts.Blobs.Get(storageKey)
	if err != nil {
		return nil, fmt.Errorf("load model %s/%s: %w", cfg.Name, version, err)
	}
	predictor, err := cfg.NewPredictor()
	if err != nil {
		return nil, err
	}
	if err := predictor.Decode(blob); err != nil {
		return nil, fmt.Errorf("decode model %s/%s: %w", cfg.Name, version, err)
	}

	featureVersion := opts.FeatureVersion
	if featureVersion == "" {
		featureVersion = fstore.VersionLatest
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NoOp()
	}
	logger.Info("loaded model",
		"model", cfg.Name, "model_version", version, "feature_version", featureVersion)

	return &Server{
		cfg:            cfg,
		predictor:      predictor,
		modelVersion:   version,
		featureVersion: featureVersion,
		features:       opts.Features,
		metrics:        opts.Metrics,
		logger:         logger,
	}, nil
}

// Router builds the HTTP surface.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(config))

	router.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"health": "ok"})
	})
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.GetGatherer(), promhttp.HandlerOpts{})))
	}

	router.POST("/predict", s.handlePredict)
	router.POST("/openrtb2/predict", s.handleOpenRTB)
	return router
}
