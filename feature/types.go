// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package feature

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shared column names of the assembled feature set.
const (
	ColImpressionID            = "impression_id"
	ColUserID                  = "user_id"
	ColLoggedAt                = "logged_at"
	ColAppCode                 = "app_code"
	ColOSVersion               = "os_version"
	ColIs4G                    = "is_4g"
	ColIsClick                 = "is_click"
	ColImpressionHour          = "impression_hour"
	ColImpressionDay           = "impression_day"
	ColImpressionWeekday       = "impression_weekday"
	ColPreviousImpressionCount = "previous_impression_count"
	ColPreviousViewCount       = "previous_view_count"
	ColItemID                  = "item_id"
	ColDeviceType              = "device_type"
	ColItemPrice               = "item_price"
	ColCategory1               = "category_1"
	ColCategory2               = "category_2"
	ColCategory3               = "category_3"
	ColProductType             = "product_type"
)

// Impression is one ad-serving decision shown to a user. IsClick is the
// label; it is nil at serving time.
type Impression struct {
	ImpressionID string
	UserID       int64
	LoggedAt     time.Time
	AppCode      int64
	OSVersion    string
	Is4G         int64
	IsClick      *int64
}

// View is a content-view action by a user. Feature source only, never a
// prediction target.
type View struct {
	SessionID  int64
	UserID     int64
	ItemID     int64
	DeviceType string
	LoggedAt   time.Time
}

// Item carries the static catalog attributes of one item. Slowly-changing
// dimension; the latest known row wins on join.
type Item struct {
	ItemID      int64
	Price       decimal.Decimal
	Category1   int64
	Category2   int64
	Category3   int64
	ProductType int64
}
