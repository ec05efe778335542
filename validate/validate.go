// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validate checks extracted log records against their declared
// schemas before any feature work happens. A bad record fails the run
// with an error naming the table, column and offending value.
package validate

import (
	"fmt"

	"github.com/adxyz/ctr/feature"
	"github.com/adxyz/ctr/logstore"
)

var (
	osVersions  = map[string]bool{"old": true, "intermediate": true, "latest": true}
	deviceTypes = map[string]bool{"android": true, "iphone": true, "web": true}
)

func fieldErr(table, column string, value any, reason string) error {
	return fmt.Errorf("validate %s: column %s: value %v %s", table, column, value, reason)
}

// Impressions validates impression logs: unique impression ids,
// non-negative ids and codes, enumerated os versions and binary flags.
// Every extracted row must carry a binary label.
func Impressions(impressions []feature.Impression) error {
	table := logstore.TableImpressionLog
	seen := make(map[string]bool, len(impressions))
	for _, imp := range impressions {
		if imp.ImpressionID == "" {
			return fieldErr(table, feature.ColImpressionID, imp.ImpressionID, "is empty")
		}
		if seen[imp.ImpressionID] {
			return fieldErr(table, feature.ColImpressionID, imp.ImpressionID, "is duplicated")
		}
		seen[imp.ImpressionID] = true
		if imp.LoggedAt.IsZero() {
			return fieldErr(table, feature.ColLoggedAt, imp.LoggedAt, "is zero")
		}
		if imp.UserID < 0 {
			return fieldErr(table, feature.ColUserID, imp.UserID, "is negative")
		}
		if imp.AppCode < 0 {
			return fieldErr(table, feature.ColAppCode, imp.AppCode, "is negative")
		}
		if !osVersions[imp.OSVersion] {
			return fieldErr(table, feature.ColOSVersion, imp.OSVersion, "is not a known os version")
		}
		if imp.Is4G != 0 && imp.Is4G != 1 {
			return fieldErr(table, feature.ColIs4G, imp.Is4G, "is not 0 or 1")
		}
		if imp.IsClick == nil {
			return fieldErr(table, feature.ColIsClick, nil, "is null")
		}
		if *imp.IsClick != 0 && *imp.IsClick != 1 {
			return fieldErr(table, feature.ColIsClick, *imp.IsClick, "is not 0 or 1")
		}
	}
	return nil
}

// Views validates view logs.
func Views(views []feature.View) error {
	table := logstore.TableViewLog
	for _, v := range views {
		if v.LoggedAt.IsZero() {
			return fieldErr(table, feature.ColLoggedAt, v.LoggedAt, "is zero")
		}
		if !deviceTypes[v.DeviceType] {
			return fieldErr(table, feature.ColDeviceType, v.DeviceType, "is not a known device type")
		}
		if v.SessionID < 0 {
			return fieldErr(table, "session_id", v.SessionID, "is negative")
		}
		if v.UserID < 0 {
			return fieldErr(table, feature.ColUserID, v.UserID, "is negative")
		}
		if v.ItemID < 0 {
			return fieldErr(table, feature.ColItemID, v.ItemID, "is negative")
		}
	}
	return nil
}

// Items validates the item master. Prices are strictly positive.
func Items(items []feature.Item) error {
	table := logstore.TableItem
	for _, it := range items {
		if it.ItemID < 0 {
			return fieldErr(table, feature.ColItemID, it.ItemID, "is negative")
		}
		if !it.Price.IsPositive() {
			return fieldErr(table, feature.ColItemPrice, it.Price, "is not positive")
		}
		if it.Category1 < 0 {
			return fieldErr(table, feature.ColCategory1, it.Category1, "is negative")
		}
		if it.Category2 < 0 {
			return fieldErr(table, feature.ColCategory2, it.Category2, "is negative")
		}
		if it.Category3 < 0 {
			return fieldErr(table, feature.ColCategory3, it.Category3, "is negative")
		}
		if it.ProductType < 0 {
			return fieldErr(table, feature.ColProductType, it.ProductType, "is negative")
		}
	}
	return nil
}
