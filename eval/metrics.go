// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package eval

import (
	"errors"
	"math"
)

var ErrEmptyInput = errors.New("metrics need at least one prediction")

// Metrics summarizes one model evaluation on one dataset. Serialized into
// run metadata and registry entries.
type Metrics struct {
	LogLoss     float64 `json:"logloss"`
	AUC         float64 `json:"auc"`
	Calibration float64 `json:"calibration"`
}

// Calculate computes log-loss, ROC AUC and the calibration score for one
// prediction vector against its binary labels.
func Calculate(yTrue, yPred []float64) (Metrics, error) {
	logloss, err := LogLoss(yTrue, yPred)
	if err != nil {
		return Metrics{}, err
	}
	auc, err := ROCAUC(yTrue, yPred)
	if err != nil {
		return Metrics{}, err
	}
	calibration, err := CalibrationScore(yTrue, yPred)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{LogLoss: logloss, AUC: auc, Calibration: calibration}, nil
}

// LogLoss computes the mean binary cross entropy. Probabilities are
// clipped away from 0 and 1 so a confident miss stays finite.
func LogLoss(yTrue, yPred []float64) (float64, error) {
	if err := checkPair(yTrue, yPred); err != nil {
		return 0, err
	}
	const eps = 1e-15
	sum := 0.0
	for i, p := range yPred {
		p = math.Min(math.Max(p, eps), 1-eps)
		if yTrue[i] > 0.5 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(yPred)), nil
}

// ROCAUC computes the area under the ROC curve by pairwise ranking.
// Tied scores earn half credit.
func ROCAUC(yTrue, yPred []float64) (float64, error) {
	if err := checkPair(yTrue, yPred); err != nil {
		return 0, err
	}
	var pos, neg []float64
	for i, y := range yTrue {
		if y > 0.5 {
			pos = append(pos, yPred[i])
		} else {
			neg = append(neg, yPred[i])
		}
	}
	if len(pos) == 0 || len(neg) == 0 {
		return 0, errors.New("roc auc needs both classes present")
	}
	score := 0.0
	for _, p := range pos {
		for _, n := range neg {
			switch {
			case p > n:
				score += 1
			case p == n:
				score += 0.5
			}
		}
	}
	return score / float64(len(pos)*len(neg)), nil
}

// CalibrationScore is the ratio of predicted to observed positives,
// Σp/Σy. 1 is perfectly calibrated globally.
func CalibrationScore(yTrue, yPred []float64) (float64, error) {
	if err := checkPair(yTrue, yPred); err != nil {
		return 0, err
	}
	sumTrue, sumPred := 0.0, 0.0
	for i := range yTrue {
		sumTrue += yTrue[i]
		sumPred += yPred[i]
	}
	if sumTrue == 0 {
		return 0, errors.New("calibration score needs at least one positive label")
	}
	return sumPred / sumTrue, nil
}

func checkPair(yTrue, yPred []float64) error {
	if len(yTrue) == 0 || len(yPred) == 0 {
		return ErrEmptyInput
	}
	if len(yTrue) != len(yPred) {
		return errors.New("labels and predictions differ in length")
	}
	return nil
}
