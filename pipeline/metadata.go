// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pipeline

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/adxyz/ctr/eval"
	"github.com/adxyz/ctr/feature"
)

// DatasetParameter records the extraction and split settings a run was
// trained with.
type DatasetParameter struct {
	LookbackDays      int       `json:"lookback_days"`
	TrainIntervalDays int       `json:"train_interval_days"`
	TestSize          float64   `json:"test_size"`
	ValidSize         float64   `json:"valid_size"`
	ToTime            time.Time `json:"to_datetime"`
}

// Metadata is the provenance record of one pipeline run, written into
// the run's artifact directory and carried into the registry entry on
// promotion.
type Metadata struct {
	// RunID distinguishes runs that share a version string, which can
	// happen when two jobs start within the same second.
	RunID             string                  `json:"run_id"`
	Version           string                  `json:"version"`
	Model             string                  `json:"model"`
	JobType           string                  `json:"job_type"`
	StartTime         time.Time               `json:"start_time"`
	EndTime           time.Time               `json:"end_time"`
	GoVersion         string                  `json:"go_version"`
	Hostname          string                  `json:"hostname"`
	ArtifactKeyPrefix string                  `json:"artifact_key_prefix"`
	Dataset           DatasetParameter        `json:"dataset_parameter"`
	Features          []feature.Descriptor    `json:"features"`
	Queries           []string                `json:"queries"`
	Metrics           map[string]eval.Metrics `json:"metrics,omitempty"`
	BaselineVersion   string                  `json:"baseline_version,omitempty"`
	Promoted          bool                    `json:"promoted"`
}

func newMetadata(version, model, jobType string, startTime time.Time) *Metadata {
	hostname, _ := os.Hostname()
	return &Metadata{
		RunID:     uuid.NewString(),
		Version:   version,
		Model:     model,
		JobType:   jobType,
		StartTime: startTime,
		GoVersion: runtime.Version(),
		Hostname:  hostname,
	}
}

// Save writes the metadata as indented JSON.
func (m *Metadata) Save(path string) error {
	blob, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("save metadata %s: %w", path, err)
	}
	return nil
}
