// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package eval

import (
	"math"

	"github.com/adxyz/ctr/pkg/log"
)

// IsBetterThanBaseline decides the promotion comparison: the candidate
// must match or beat the baseline on BOTH log-loss and global calibration
// deviation, scored on the same held-out labels. Ties pass, so a
// candidate identical to the baseline is promotable.
func IsBetterThanBaseline(yPred, yBaseline, yTrue []float64, logger log.Logger) (bool, error) {
	betterLogLoss, err := isBetterLogLoss(yPred, yBaseline, yTrue, logger)
	if err != nil {
		return false, err
	}
	betterCalibration, err := isBetterCalibration(yPred, yBaseline, yTrue, logger)
	if err != nil {
		return false, err
	}
	return betterLogLoss && betterCalibration, nil
}

func isBetterLogLoss(yPred, yBaseline, yTrue []float64, logger log.Logger) (bool, error) {
	logloss, err := LogLoss(yTrue, yPred)
	if err != nil {
		return false, err
	}
	baseline, err := LogLoss(yTrue, yBaseline)
	if err != nil {
		return false, err
	}
	logger.Info("logloss comparison", "candidate", logloss, "baseline", baseline)
	return logloss <= baseline, nil
}

func isBetterCalibration(yPred, yBaseline, yTrue []float64, logger log.Logger) (bool, error) {
	calibration, err := CalibrationScore(yTrue, yPred)
	if err != nil {
		return false, err
	}
	baseline, err := CalibrationScore(yTrue, yBaseline)
	if err != nil {
		return false, err
	}
	logger.Info("calibration comparison", "candidate", calibration, "baseline", baseline)
	return math.Abs(calibration-1) <= math.Abs(baseline-1), nil
}
