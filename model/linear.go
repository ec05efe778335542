// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package model

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/adxyz/ctr/eval"
	"github.com/adxyz/ctr/feature"
)

const hashBuckets = 1 << 18

// alphaCandidates is the deterministic L2 search grid scanned against
// the validation set during training.
var alphaCandidates = []float64{0, 1e-6, 1e-5, 5e-5, 1e-4}

// HashedLinear is the hashed-linear predictor variant: every
// column=value pair is hashed into a fixed bucket space and a logistic
// model is fit by SGD. The hashing step is internal to the variant and
// invisible to the pipeline.
type HashedLinear struct {
	weights map[uint32]float64
	bias    float64
	alpha   float64

	epochs       int
	learningRate float64
	trained      bool
}

// NewHashedLinear creates an untrained hashed-linear predictor.
func NewHashedLinear() *HashedLinear {
	return &HashedLinear{
		epochs:       5,
		learningRate: 0.1,
	}
}

// hashRow maps one matrix row onto its hashed feature indices.
func hashRow(m *feature.Matrix, row int) []uint32 {
	indices := make([]uint32, len(m.Columns))
	for j, col := range m.Columns {
		indices[j] = hashString(col+"="+m.Rows[row][j].String()) % hashBuckets
	}
	return indices
}

// Train scans the alpha grid, fitting one SGD model per candidate and
// keeping the weights that minimize validation log-loss.
func (h *HashedLinear) Train(xTrain *feature.Matrix, yTrain []float64, xValid *feature.Matrix, yValid []float64) error {
	if len(xTrain.Rows) == 0 || len(xTrain.Rows) != len(yTrain) {
		return fmt.Errorf("train: %d feature rows for %d labels", len(xTrain.Rows), len(yTrain))
	}

	hashedTrain := make([][]uint32, len(xTrain.Rows))
	for i := range xTrain.Rows {
		hashedTrain[i] = hashRow(xTrain, i)
	}

	bestLoss := 0.0
	var bestWeights map[uint32]float64
	var bestBias, bestAlpha float64
	for trial, alpha := range alphaCandidates {
		weights, bias := h.fit(hashedTrain, yTrain, alpha)

		loss := 0.0
		if len(yValid) > 0 {
			preds := make([]float64, len(xValid.Rows))
			for i := range xValid.Rows {
				preds[i] = scoreIndices(weights, bias, hashRow(xValid, i))
			}
			var err error
			loss, err = eval.LogLoss(yValid, preds)
			if err != nil {
				return fmt.Errorf("alpha search: %w", err)
			}
		}
		if trial == 0 || loss < bestLoss {
			bestLoss = loss
			bestWeights = weights
			bestBias = bias
			bestAlpha = alpha
		}
	}

	h.weights = bestWeights
	h.bias = bestBias
	h.alpha = bestAlpha
	h.trained = true
	return nil
}

func (h *HashedLinear) fit(rows [][]uint32, y []float64, alpha float64) (map[uint32]float64, float64) {
	weights := make(map[uint32]float64)
	bias := 0.0
	for epoch := 0; epoch < h.epochs; epoch++ {
		for i, indices := range rows {
			p := scoreIndices(weights, bias, indices)
			g := p - y[i]
			bias -= h.learningRate * g
			for _, idx := range indices {
				weights[idx] -= h.learningRate * (g + alpha*weights[idx])
			}
		}
	}
	return weights, bias
}

func scoreIndices(weights map[uint32]float64, bias float64, indices []uint32) float64 {
	z := bias
	for _, idx := range indices {
		z += weights[idx]
	}
	return sigmoid(z)
}

// PredictProba scores each row as a click probability.
func (h *HashedLinear) PredictProba(x *feature.Matrix) ([]float64, error) {
	if !h.trained {
		return nil, ErrNotTrained
	}
	out := make([]float64, len(x.Rows))
	for i := range x.Rows {
		out[i] = scoreIndices(h.weights, h.bias, hashRow(x, i))
	}
	return out, nil
}

type hashedLinearState struct {
	Bias    float64            `json:"bias"`
	Alpha   float64            `json:"alpha"`
	Weights map[string]float64 `json:"weights"`
}

// Encode serializes the trained model.
func (h *HashedLinear) Encode() ([]byte, error) {
	if !h.trained {
		return nil, ErrNotTrained
	}
	state := hashedLinearState{
		Bias:    h.bias,
		Alpha:   h.alpha,
		Weights: make(map[string]float64, len(h.weights)),
	}
	for idx, w := range h.weights {
		state.Weights[strconv.FormatUint(uint64(idx), 10)] = w
	}
	return json.Marshal(state)
}

// Decode restores a trained model from Encode output.
func (h *HashedLinear) Decode(data []byte) error {
	var state hashedLinearState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("decode hashed-linear model: %w", err)
	}
	h.weights = make(map[uint32]float64, len(state.Weights))
	for key, w := range state.Weights {
		idx, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return fmt.Errorf("decode hashed-linear model: bad weight index %q", key)
		}
		h.weights[uint32(idx)] = w
	}
	h.bias = state.Bias
	h.alpha = state.Alpha
	h.trained = true
	return nil
}
