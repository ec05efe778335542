// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/ctr/pkg/log"
)

func TestIsBetterThanBaselineWhenTrue(t *testing.T) {
	require := require.New(t)

	yTrue := []float64{0, 1, 1, 0, 1}
	yPred := []float64{0.1, 0.9, 0.8, 0.2, 0.7}
	yBaseline := []float64{0.3, 0.6, 0.6, 0.4, 0.6}

	better, err := IsBetterThanBaseline(yPred, yBaseline, yTrue, log.NoOp())
	require.NoError(err)
	require.True(better)
}

func TestIsBetterThanBaselineTiesPass(t *testing.T) {
	require := require.New(t)

	yTrue := []float64{0, 1, 1, 0, 1}
	yBaseline := []float64{0.3, 0.6, 0.6, 0.4, 0.6}

	// Identical prediction vectors tie on both criteria and pass.
	better, err := IsBetterThanBaseline(yBaseline, yBaseline, yTrue, log.NoOp())
	require.NoError(err)
	require.True(better)
}

func TestIsBetterThanBaselineWhenFalse(t *testing.T) {
	require := require.New(t)

	yTrue := []float64{0, 1, 1, 0, 1}
	yBaseline := []float64{0.3, 0.6, 0.6, 0.4, 0.6}
	yPred := []float64{0.5, 0.5, 0.5, 0.5, 0.5}

	better, err := IsBetterThanBaseline(yPred, yBaseline, yTrue, log.NoOp())
	require.NoError(err)
	require.False(better)
}

func TestIsBetterThanBaselineNeedsBothCriteria(t *testing.T) {
	require := require.New(t)

	yTrue := []float64{0, 1, 1, 0, 1}
	yBaseline := []float64{0.2, 0.7, 0.7, 0.2, 0.7}
	// Lower log-loss but overpredicting overall: fails the calibration arm.
	yPred := []float64{0.5, 0.99, 0.99, 0.5, 0.99}

	betterLoss, err := isBetterLogLoss(yPred, yBaseline, yTrue, log.NoOp())
	require.NoError(err)
	require.True(betterLoss)

	betterCal, err := isBetterCalibration(yPred, yBaseline, yTrue, log.NoOp())
	require.NoError(err)
	require.False(betterCal)

	better, err := IsBetterThanBaseline(yPred, yBaseline, yTrue, log.NoOp())
	require.NoError(err)
	require.False(better)
}
