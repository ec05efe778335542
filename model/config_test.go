// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/ctr/feature"
)

func TestGetConfig(t *testing.T) {
	require := require.New(t)

	cfg, err := GetConfig("linear_ctr")
	require.NoError(err)
	require.Equal(VariantHashedLinear, cfg.Variant)
	require.Equal(feature.ColIsClick, cfg.Target)
	require.Equal(28, cfg.TrainIntervalDays)
	require.Equal(7, cfg.LookbackDays)
	require.Len(cfg.Schemas, 16)

	_, err = GetConfig("nope")
	require.ErrorContains(err, "invalid model name")
}

func TestConfigFeatureColumns(t *testing.T) {
	require := require.New(t)

	cfg, err := GetConfig("gbdt_ctr")
	require.NoError(err)

	cols := cfg.FeatureColumns()
	require.Equal(feature.ColImpressionHour, cols[0])
	require.Contains(cols, feature.ColPreviousViewCount)
	require.NotContains(cols, feature.ColIsClick)
	require.NotContains(cols, feature.ColLoggedAt)
}

func TestConfigNewPredictor(t *testing.T) {
	require := require.New(t)

	for _, name := range ConfigNames() {
		cfg, err := GetConfig(name)
		require.NoError(err)
		p, err := cfg.NewPredictor()
		require.NoError(err)
		require.NotNil(p)
	}

	bad := &Config{Variant: Variant("mystery")}
	_, err := bad.NewPredictor()
	require.ErrorContains(err, "unknown model variant")
}
