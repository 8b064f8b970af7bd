package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/stellar-data/lightcurve.report/internal/classify"
	"github.com/stellar-data/lightcurve.report/internal/httputil"
	"github.com/stellar-data/lightcurve.report/internal/monitoring"
)

type classifyResponse struct {
	ID            string             `json:"id"`
	Prediction    string             `json:"prediction"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
}

func (s *Server) classifyCandidate(w http.ResponseWriter, r *http.Request) {
	var req classify.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Features) == 0 {
		httputil.BadRequest(w, "request has no features")
		return
	}

	result := classify.Classify(req)

	// The verdict log is best-effort; a storage hiccup should not fail
	// the classification itself.
	id := uuid.NewString()
	featuresJSON, _ := json.Marshal(req.Features)
	if err := s.db.SaveClassification(r.Context(), id, result.Prediction, result.Confidence, string(featuresJSON)); err != nil {
		monitoring.Logf("failed to record classification %s: %v", id, err)
	}

	httputil.WriteJSONOK(w, classifyResponse{
		ID:            id,
		Prediction:    result.Prediction,
		Confidence:    result.Confidence,
		Probabilities: result.Probabilities,
	})
}

func (s *Server) classifyBatch(w http.ResponseWriter, r *http.Request) {
	var candidates []classify.Candidate
	if err := json.NewDecoder(r.Body).Decode(&candidates); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(candidates) == 0 {
		httputil.BadRequest(w, "request has no candidates")
		return
	}

	result := classify.ClassifyBatch(candidates)
	for _, entry := range result.Results {
		featuresJSON, _ := json.Marshal(candidates[entry.Index].Features)
		if err := s.db.SaveClassification(r.Context(), uuid.NewString(), entry.Prediction, entry.Confidence, string(featuresJSON)); err != nil {
			monitoring.Logf("failed to record batch classification %s/%d: %v", result.JobID, entry.Index, err)
		}
	}

	httputil.WriteJSONOK(w, result)
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{"models": classify.Models()})
}

func (s *Server) showFeatureImportance(w http.ResponseWriter, r *http.Request) {
	modelType := r.URL.Query().Get("model_type")
	if modelType == "" {
		modelType = classify.DefaultModel
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"model_type":         modelType,
		"feature_importance": classify.FeatureImportance(modelType),
	})
}
