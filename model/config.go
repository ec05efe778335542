// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package model

import (
	"fmt"

	"github.com/adxyz/ctr/feature"
)

// Variant identifies a predictor implementation.
type Variant string

const (
	VariantHashedLinear Variant = "hashed_linear"
	VariantGBDT         Variant = "gbdt"
)

// Config binds a model name to its predictor variant, feature schema and
// training windows. Configs are code, not runtime input, so changing one
// is reviewed like any other change.
type Config struct {
	Name              string
	Variant           Variant
	Schemas           []feature.Descriptor
	Target            string
	TrainIntervalDays int
	LookbackDays      int
	TestSize          float64
	ValidSize         float64
}

// FeatureColumns returns the schema column names in order.
func (c *Config) FeatureColumns() []string {
	return feature.FeatureColumns(c.Schemas)
}

// NewPredictor creates an untrained predictor for the config's variant.
func (c *Config) NewPredictor() (Predictor, error) {
	switch c.Variant {
	case VariantHashedLinear:
		return NewHashedLinear(), nil
	case VariantGBDT:
		return NewGBDT(), nil
	default:
		return nil, fmt.Errorf("unknown model variant: %s", c.Variant)
	}
}

var configs = []Config{
	{
		Name:    "linear_ctr",
		Variant: VariantHashedLinear,
		Schemas: []feature.Descriptor{
			{Name: feature.ColImpressionHour, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColImpressionDay, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColImpressionWeekday, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColUserID, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColAppCode, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColOSVersion, Type: feature.TypeString, Fill: "null"},
			{Name: feature.ColIs4G, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColPreviousImpressionCount, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColPreviousViewCount, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColItemID, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColDeviceType, Type: feature.TypeString, Fill: "null"},
			{Name: feature.ColItemPrice, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColCategory1, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColCategory2, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColCategory3, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColProductType, Type: feature.TypeInt, Fill: -1},
		},
		Target:            feature.ColIsClick,
		TrainIntervalDays: 28,
		LookbackDays:      7,
		TestSize:          0.2,
		ValidSize:         0.1,
	},
	{
		Name:    "gbdt_ctr",
		Variant: VariantGBDT,
		Schemas: []feature.Descriptor{
			{Name: feature.ColImpressionHour, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColImpressionDay, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColImpressionWeekday, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColUserID, Type: feature.TypeCategory, Fill: -1},
			{Name: feature.ColAppCode, Type: feature.TypeCategory, Fill: -1},
			{Name: feature.ColOSVersion, Type: feature.TypeCategory, Fill: "null"},
			{Name: feature.ColIs4G, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColPreviousImpressionCount, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColPreviousViewCount, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColItemID, Type: feature.TypeCategory, Fill: -1},
			{Name: feature.ColDeviceType, Type: feature.TypeCategory, Fill: "null"},
			{Name: feature.ColItemPrice, Type: feature.TypeInt, Fill: -1},
			{Name: feature.ColCategory1, Type: feature.TypeCategory, Fill: -1},
			{Name: feature.ColCategory2, Type: feature.TypeCategory, Fill: -1},
			{Name: feature.ColCategory3, Type: feature.TypeCategory, Fill: -1},
			{Name: feature.ColProductType, Type: feature.TypeCategory, Fill: -1},
		},
		Target:            feature.ColIsClick,
		TrainIntervalDays: 28,
		LookbackDays:      7,
		TestSize:          0.2,
		ValidSize:         0.1,
	},
}

// GetConfig looks up a model config by name.
func GetConfig(name string) (*Config, error) {
	for i := range configs {
		if configs[i].Name == name {
			return &configs[i], nil
		}
	}
	return nil, fmt.Errorf("invalid model name: %s", name)
}

// ConfigNames returns the registered model names.
func ConfigNames() []string {
	names := make([]string, len(configs))
	for i := range configs {
		names[i] = configs[i].Name
	}
	return names
}
