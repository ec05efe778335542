// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	metrics "github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all metrics for the CTR pipeline using luxfi/metric
type Metrics struct {
	metricsInstance metrics.Metrics

	// Pipeline metrics
	PipelineRuns     metrics.CounterVec
	ModelsPromoted   metrics.Counter
	ModelsRejected   metrics.Counter
	RowsExtracted    metrics.CounterVec
	FeatureRowsBuilt metrics.Counter

	// Serving metrics
	PredictionsServed  metrics.CounterVec
	FeatureStoreMisses metrics.Counter

	// Performance metrics
	PreprocessDuration metrics.Histogram
	TrainDuration      metrics.Histogram
	PredictLatency     metrics.Histogram
}

// NewMetrics creates a new metrics instance using luxfi/metric
func NewMetrics() (*Metrics, error) {
	factory := metrics.NewPrometheusFactory()
	metricsInstance := factory.New("ctr")

	m := &Metrics{
		metricsInstance: metricsInstance,
	}

	m.PipelineRuns = metricsInstance.NewCounterVec(
		"pipeline_runs_total",
		"Total number of pipeline runs by outcome",
		[]string{"job", "status"},
	)
	m.ModelsPromoted = metricsInstance.NewCounter("registry_models_promoted_total", "Total number of model versions promoted")
	m.ModelsRejected = metricsInstance.NewCounter("registry_models_rejected_total", "Total number of candidate models rejected by the gate")
	m.RowsExtracted = metricsInstance.NewCounterVec(
		"logstore_rows_extracted_total",
		"Total number of rows extracted by table",
		[]string{"table"},
	)
	m.FeatureRowsBuilt = metricsInstance.NewCounter("feature_rows_built_total", "Total number of assembled feature rows")

	m.PredictionsServed = metricsInstance.NewCounterVec(
		"serving_predictions_total",
		"Total number of predictions served by status",
		[]string{"status"},
	)
	m.FeatureStoreMisses = metricsInstance.NewCounter("serving_feature_store_misses_total", "Online feature store lookups that returned no row")

	m.PreprocessDuration = metricsInstance.NewHistogram(
		"preprocess_duration_seconds",
		"Time to run feature engineering over one extraction window",
		prometheus.DefBuckets,
	)
	m.TrainDuration = metricsInstance.NewHistogram(
		"train_duration_seconds",
		"Time to train one candidate model",
		prometheus.DefBuckets,
	)
	m.PredictLatency = metricsInstance.NewHistogram(
		"serving_predict_latency_seconds",
		"Time to serve one prediction request",
		prometheus.DefBuckets,
	)

	return m, nil
}

// GetGatherer returns the prometheus gatherer for metrics export
func (m *Metrics) GetGatherer() prometheus.Gatherer {
	if registry := m.metricsInstance.Registry(); registry != nil {
		return registry
	}
	return prometheus.DefaultGatherer
}

// GetRegisterer returns the prometheus registerer
func (m *Metrics) GetRegisterer() prometheus.Registerer {
	if registry := m.metricsInstance.Registry(); registry != nil {
		return registry
	}
	return prometheus.DefaultRegisterer
}
