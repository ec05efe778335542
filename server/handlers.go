// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/prebid/openrtb/v20/openrtb2"

	"github.com/adxyz/ctr/feature"
)

var errMissingBidID = errors.New("bid request has no request or impression id")

// AdRequest is one prediction request.
type AdRequest struct {
	ImpressionID string `json:"impression_id" binding:"required"`
	LoggedAt     string `json:"logged_at" binding:"required"`
	UserID       int64  `json:"user_id"`
	AppCode      int64  `json:"app_code"`
	OSVersion    string `json:"os_version"`
	Is4G         int64  `json:"is_4g"`
}

// PredictResponse is the prediction payload.
type PredictResponse struct {
	Model      string  `json:"model"`
	Prediction float64 `json:"prediction"`
}

func (s *Server) handlePredict(c *gin.Context) {
	var req AdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.served("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.respond(c, req)
}

// handleOpenRTB adapts an OpenRTB 2.x bid request onto the prediction
// path so exchange-side callers do not need a second payload shape.
func (s *Server) handleOpenRTB(c *gin.Context) {
	var bid openrtb2.BidRequest
	if err := c.ShouldBindJSON(&bid); err != nil {
		s.served("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := adRequestFromBid(&bid)
	if err != nil {
		s.served("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.respond(c, req)
}

func (s *Server) respond(c *gin.Context, req AdRequest) {
	start := time.Now()
	prediction, record, err := s.predictOne(req)
	if s.metrics != nil {
		s.metrics.PredictLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.served("error")
		s.logger.Error("prediction failed", "impression_id", req.ImpressionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.served("ok")
	s.logPrediction(req, record, prediction)
	c.JSON(http.StatusOK, PredictResponse{Model: s.cfg.Name, Prediction: prediction})
}

// predictOne assembles one serving row: request fields, the user's
// stored features, request-time decomposition, then the same schema
// coercion training used.
func (s *Server) predictOne(req AdRequest) (float64, map[string]any, error) {
	t := feature.NewTable(
		feature.ColImpressionID, feature.ColLoggedAt, feature.ColUserID,
		feature.ColAppCode, feature.ColOSVersion, feature.ColIs4G,
	)
	if err := t.AppendRow(
		feature.String(req.ImpressionID),
		feature.String(req.LoggedAt),
		feature.Int(req.UserID),
		feature.Int(req.AppCode),
		feature.String(req.OSVersion),
		feature.Int(req.Is4G),
	); err != nil {
		return 0, nil, err
	}

	// Feature store lookups are best effort. A missing or failing
	// lookup serves on request fields and schema fills alone.
	if s.features != nil {
		row, err := s.features.Get(req.UserID, s.featureVersion)
		if err != nil {
			s.logger.Warn("feature store lookup failed", "user_id", req.UserID, "error", err)
		} else if len(row) == 0 {
			if s.metrics != nil {
				s.metrics.FeatureStoreMisses.Inc()
			}
		} else {
			for col, val := range row {
				vals := []feature.Value{feature.String(val)}
				if t.HasColumn(col) {
					continue
				}
				if err := t.AddColumn(col, vals); err != nil {
					return 0, nil, err
				}
			}
		}
	}

	if err := feature.AddTimeFeature(t, feature.ColLoggedAt); err != nil {
		return 0, nil, err
	}
	if err := feature.ApplySchema(t, s.cfg.Schemas); err != nil {
		return 0, nil, err
	}
	x, err := feature.ToMatrix(t, s.cfg.Schemas)
	if err != nil {
		return 0, nil, err
	}
	preds, err := s.predictor.PredictProba(x)
	if err != nil {
		return 0, nil, err
	}

	record := make(map[string]any, len(x.Columns))
	for i, col := range x.Columns {
		record[col] = x.Rows[0][i]
	}
	return preds[0], record, nil
}

// logPrediction emits one JSON line per served prediction. These lines
// are the raw material for monitoring calibration drift in production.
func (s *Server) logPrediction(req AdRequest, record map[string]any, prediction float64) {
	record["impression_id"] = req.ImpressionID
	record["prediction"] = prediction
	record["model_name"] = s.cfg.Name
	record["model_version"] = s.modelVersion
	record["feature_version"] = s.featureVersion
	record["logged_at"] = feature.FormatLoggedAt(time.Now())

	line, err := json.Marshal(record)
	if err != nil {
		s.logger.Warn("failed to encode prediction log", "error", err)
		return
	}
	s.logger.Info("prediction", "record", string(line))
}

func (s *Server) served(status string) {
	if s.metrics != nil {
		s.metrics.PredictionsServed.WithLabelValues(status).Inc()
	}
}

func adRequestFromBid(bid *openrtb2.BidRequest) (AdRequest, error) {
	if bid.ID == "" && (len(bid.Imp) == 0 || bid.Imp[0].ID == "") {
		return AdRequest{}, errMissingBidID
	}
	req := AdRequest{
		ImpressionID: bid.ID,
		LoggedAt:     feature.FormatLoggedAt(time.Now()),
	}
	if len(bid.Imp) > 0 && bid.Imp[0].ID != "" {
		req.ImpressionID = bid.Imp[0].ID
	}
	if bid.User != nil {
		if id, err := strconv.ParseInt(bid.User.ID, 10, 64); err == nil {
			req.UserID = id
		}
	}
	if bid.App != nil {
		if code, err := strconv.ParseInt(bid.App.ID, 10, 64); err == nil {
			req.AppCode = code
		}
	}
	if bid.Device != nil {
		req.OSVersion = bid.Device.OSV
		// AdCOM connection type 6 is cellular 4G.
		if bid.Device.ConnectionType != nil && int64(*bid.Device.ConnectionType) == 6 {
			req.Is4G = 1
		}
	}
	return req, nil
}
