// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package model holds the trainable predictor variants behind one
// capability set. The pipeline never depends on a concrete variant.
package model

import (
	"errors"
	"hash/fnv"
	"math"

	"github.com/adxyz/ctr/feature"
)

// ErrNotTrained is returned when predict or encode is called before
// train. Programmer error, fatal.
var ErrNotTrained = errors.New("model is not trained")

// Predictor is the capability set every model variant exposes: train,
// predict probabilities, persist to bytes, restore from bytes.
type Predictor interface {
	Train(xTrain *feature.Matrix, yTrain []float64, xValid *feature.Matrix, yValid []float64) error
	PredictProba(x *feature.Matrix) ([]float64, error)
	Encode() ([]byte, error)
	Decode(data []byte) error
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// numericValue projects a coerced cell onto the real line for tree
// splits. Strings land in a small stable hash range.
func numericValue(v feature.Value) float64 {
	switch v.Kind() {
	case feature.KindString:
		return float64(hashString(v.String()) % 1021)
	default:
		return v.Float()
	}
}

func sigmoid(z float64) float64 {
	if z < -35 {
		return 0
	}
	if z > 35 {
		return 1
	}
	return 1.0 / (1.0 + math.Exp(-z))
}
