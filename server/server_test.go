// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/adxyz/ctr/artifact"
	"github.com/adxyz/ctr/feature"
	"github.com/adxyz/ctr/fstore"
	"github.com/adxyz/ctr/model"
	"github.com/adxyz/ctr/pkg/log"
	"github.com/adxyz/ctr/pkg/storage"
	"github.com/adxyz/ctr/registry"
)

func trainedModelBlob(t *testing.T) []byte {
	t.Helper()
	require := require.New(t)

	x := &feature.Matrix{Columns: []string{feature.ColOSVersion, feature.ColIs4G}}
	var y []float64
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			x.Rows = append(x.Rows, []feature.Value{feature.String("latest"), feature.Int(1)})
			y = append(y, 1)
		} else {
			x.Rows = append(x.Rows, []feature.Value{feature.String("old"), feature.Int(0)})
			y = append(y, 0)
		}
	}
	m := model.NewHashedLinear()
	require.NoError(m.Train(x, y, x, y))
	blob, err := m.Encode()
	require.NoError(err)
	return blob
}

func loadTestServer(t *testing.T) (*Server, *storage.Storage) {
	t.Helper()
	require := require.New(t)

	store := storage.NewMemory()
	reg := registry.New(store)
	blobs := artifact.NewBlobs(store)

	const version = "20230201000000"
	storageKey := "train/linear_ctr/" + version + "/model.json"
	require.NoError(blobs.Put(storageKey, trainedModelBlob(t)))
	require.NoError(reg.Register(registry.Entry{
		Model:      "linear_ctr",
		Version:    version,
		StorageKey: storageKey,
	}))

	srv, err := Load(Options{
		ModelName: "linear_ctr",
		Registry:  reg,
		Blobs:     blobs,
		Features:  fstore.New(store),
		Logger:    log.NoOp(),
	})
	require.NoError(err)
	require.Equal(version, srv.modelVersion)
	return srv, store
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPredictEndpoint(t *testing.T) {
	require := require.New(t)

	srv, _ := loadTestServer(t)
	router := srv.Router()

	w := postJSON(router, "/predict", `{
		"impression_id": "imp-1",
		"logged_at": "2023-02-01 12:00:00",
		"user_id": 101,
		"app_code": 10,
		"os_version": "latest",
		"is_4g": 1
	}`)
	require.Equal(http.StatusOK, w.Code)

	var resp PredictResponse
	require.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal("linear_ctr", resp.Model)
	require.GreaterOrEqual(resp.Prediction, 0.0)
	require.LessOrEqual(resp.Prediction, 1.0)
}

func TestPredictUsesStoredFeatures(t *testing.T) {
	require := require.New(t)

	srv, store := loadTestServer(t)
	features := fstore.New(store)
	require.NoError(features.Put(101, "20230201000000", fstore.Row{
		"previous_impression_count": "3",
		"previous_view_count":       "2",
		"item_id":                   "201",
		"device_type":               "iphone",
		"item_price":                "100",
	}))

	w := postJSON(srv.Router(), "/predict", `{
		"impression_id": "imp-2",
		"logged_at": "2023-02-01 12:00:00",
		"user_id": 101,
		"app_code": 10,
		"os_version": "latest",
		"is_4g": 1
	}`)
	require.Equal(http.StatusOK, w.Code)
}

func TestPredictValidation(t *testing.T) {
	require := require.New(t)

	srv, _ := loadTestServer(t)
	router := srv.Router()

	w := postJSON(router, "/predict", `{"logged_at": "2023-02-01 12:00:00"}`)
	require.Equal(http.StatusBadRequest, w.Code)

	w = postJSON(router, "/predict", `{"impression_id": "imp-1", "logged_at": "not a time"}`)
	require.Equal(http.StatusInternalServerError, w.Code)
}

func TestOpenRTBEndpoint(t *testing.T) {
	require := require.New(t)

	srv, _ := loadTestServer(t)
	router := srv.Router()

	w := postJSON(router, "/openrtb2/predict", `{
		"id": "bid-1",
		"imp": [{"id": "imp-9"}],
		"user": {"id": "101"},
		"app": {"id": "10"},
		"device": {"osv": "latest", "connectiontype": 6}
	}`)
	require.Equal(http.StatusOK, w.Code)

	var resp PredictResponse
	require.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal("linear_ctr", resp.Model)

	w = postJSON(router, "/openrtb2/predict", `{"user": {"id": "101"}}`)
	require.Equal(http.StatusBadRequest, w.Code)
}

func TestHealthcheck(t *testing.T) {
	require := require.New(t)

	srv, _ := loadTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(http.StatusOK, w.Code)
	require.Contains(w.Body.String(), "ok")
}

func TestLoadFailsWithoutRegisteredVersion(t *testing.T) {
	require := require.New(t)

	store := storage.NewMemory()
	_, err := Load(Options{
		ModelName: "linear_ctr",
		Registry:  registry.New(store),
		Blobs:     artifact.NewBlobs(store),
		Logger:    log.NoOp(),
	})
	require.ErrorContains(err, "no version of model")
}
