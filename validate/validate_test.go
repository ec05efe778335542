// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package validate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/adxyz/ctr/feature"
)

func click(v int64) *int64 { return &v }

func goodImpression(id string) feature.Impression {
	return feature.Impression{
		ImpressionID: id,
		UserID:       101,
		LoggedAt:     time.Date(2023, 1, 1, 6, 0, 0, 0, time.UTC),
		AppCode:      10,
		OSVersion:    "latest",
		Is4G:         1,
		IsClick:      click(0),
	}
}

func TestImpressions(t *testing.T) {
	require := require.New(t)

	require.NoError(Impressions([]feature.Impression{goodImpression("a"), goodImpression("b")}))

	dup := []feature.Impression{goodImpression("a"), goodImpression("a")}
	err := Impressions(dup)
	require.ErrorContains(err, "impression_log")
	require.ErrorContains(err, "impression_id")
	require.ErrorContains(err, "duplicated")

	badOS := goodImpression("a")
	badOS.OSVersion = "windows"
	err = Impressions([]feature.Impression{badOS})
	require.ErrorContains(err, "os_version")
	require.ErrorContains(err, "windows")

	badClick := goodImpression("a")
	badClick.IsClick = click(2)
	require.ErrorContains(Impressions([]feature.Impression{badClick}), "is_click")

	unlabeled := goodImpression("a")
	unlabeled.IsClick = nil
	err = Impressions([]feature.Impression{unlabeled})
	require.ErrorContains(err, "is_click")
	require.ErrorContains(err, "is null")

	negUser := goodImpression("a")
	negUser.UserID = -1
	require.ErrorContains(Impressions([]feature.Impression{negUser}), "user_id")
}

func TestViews(t *testing.T) {
	require := require.New(t)

	good := feature.View{
		SessionID:  1,
		UserID:     101,
		ItemID:     201,
		DeviceType: "iphone",
		LoggedAt:   time.Date(2023, 1, 1, 6, 0, 0, 0, time.UTC),
	}
	require.NoError(Views([]feature.View{good}))

	bad := good
	bad.DeviceType = "tablet"
	err := Views([]feature.View{bad})
	require.ErrorContains(err, "view_log")
	require.ErrorContains(err, "device_type")
	require.ErrorContains(err, "tablet")
}

func TestItems(t *testing.T) {
	require := require.New(t)

	good := feature.Item{ItemID: 201, Price: decimal.NewFromInt(100), Category1: 1, Category2: 2, Category3: 3, ProductType: 1}
	require.NoError(Items([]feature.Item{good}))

	free := good
	free.Price = decimal.Zero
	err := Items([]feature.Item{free})
	require.ErrorContains(err, "mst_item")
	require.ErrorContains(err, "item_price")
}
