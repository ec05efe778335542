// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feature

import (
	"fmt"

	"github.com/adxyz/ctr/pkg/log"
)

// impressionTable lays the raw impression log out as a table. The click
// label column is null at serving time.
func impressionTable(impressions []Impression) *Table {
	t := NewTable(ColImpressionID, ColUserID, ColLoggedAt, ColAppCode, ColOSVersion, ColIs4G, ColIsClick)
	for _, imp := range impressions {
		click := Null()
		if imp.IsClick != nil {
			click = Int(*imp.IsClick)
		}
		_ = t.AppendRow(
			String(imp.ImpressionID),
			Int(imp.UserID),
			Time(imp.LoggedAt),
			Int(imp.AppCode),
			String(imp.OSVersion),
			Int(imp.Is4G),
			click,
		)
	}
	return t
}

// itemTable lays the item dimension out as a table, keeping the latest
// row per item id.
func itemTable(items []Item) *Table {
	last := make(map[int64]int, len(items))
	for i, it := range items {
		last[it.ItemID] = i
	}
	t := NewTable(ColItemID, ColItemPrice, ColCategory1, ColCategory2, ColCategory3, ColProductType)
	for i, it := range items {
		if last[it.ItemID] != i {
			continue
		}
		_ = t.AppendRow(
			Int(it.ItemID),
			Float(it.Price.InexactFloat64()),
			Int(it.Category1),
			Int(it.Category2),
			Int(it.Category3),
			Int(it.ProductType),
		)
	}
	return t
}

// Assemble joins time decomposition, windowed history features and the
// item dimension onto the impression log, one output row per impression.
func Assemble(impressions []Impression, views []View, items []Item, lookbackDays int, logger log.Logger) (*Table, error) {
	logger.Info("start assemble",
		"impressions", len(impressions),
		"views", len(views),
		"items", len(items),
		"lookback_days", lookbackDays)

	df := impressionTable(impressions)

	joined, err := df.LeftJoinOne(TimeFeature(impressions), ColImpressionID, "_time")
	if err != nil {
		return nil, fmt.Errorf("join time features: %w", err)
	}
	joined, err = joined.LeftJoinOne(ImpressionHistory(impressions, lookbackDays), ColImpressionID, "_previous")
	if err != nil {
		return nil, fmt.Errorf("join impression history: %w", err)
	}
	joined, err = joined.LeftJoinOne(ViewHistory(impressions, views, lookbackDays), ColImpressionID, "_view")
	if err != nil {
		return nil, fmt.Errorf("join view history: %w", err)
	}
	joined, err = joined.LeftJoinOne(itemTable(items), ColItemID, "_item")
	if err != nil {
		return nil, fmt.Errorf("join items: %w", err)
	}

	if joined.Len() != len(impressions) {
		return nil, fmt.Errorf("%w: %d impressions became %d rows", ErrJoinFanOut, len(impressions), joined.Len())
	}

	logger.Info("finished assemble", "rows", joined.Len(), "columns", len(joined.Columns()))
	return joined, nil
}

// ImpressionFeature assembles the windowed history features and the item
// dimension without the time decomposition. The feature extraction job
// publishes this shape to the offline and online feature stores.
func ImpressionFeature(impressions []Impression, views []View, items []Item, lookbackDays int, logger log.Logger) (*Table, error) {
	logger.Info("start impression feature",
		"impressions", len(impressions),
		"views", len(views),
		"items", len(items),
		"lookback_days", lookbackDays)

	df := impressionTable(impressions)

	joined, err := df.LeftJoinOne(ImpressionHistory(impressions, lookbackDays), ColImpressionID, "_previous")
	if err != nil {
		return nil, fmt.Errorf("join impression history: %w", err)
	}
	joined, err = joined.LeftJoinOne(ViewHistory(impressions, views, lookbackDays), ColImpressionID, "_view")
	if err != nil {
		return nil, fmt.Errorf("join view history: %w", err)
	}
	joined, err = joined.LeftJoinOne(itemTable(items), ColItemID, "_item")
	if err != nil {
		return nil, fmt.Errorf("join items: %w", err)
	}

	if joined.Len() != len(impressions) {
		return nil, fmt.Errorf("%w: %d impressions became %d rows", ErrJoinFanOut, len(impressions), joined.Len())
	}

	logger.Info("finished impression feature", "rows", joined.Len())
	return joined, nil
}
