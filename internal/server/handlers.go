package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/citypulse/citypulse-ai/internal/models"
	"github.com/citypulse/citypulse-ai/internal/pattern/anomaly"
)

// RecordIncidentRequest is the ingest payload. Timestamp defaults to now.
type RecordIncidentRequest struct {
	Location     string     `json:"location"`
	IncidentType string     `json:"incident_type"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
}

// AnalyzeClusterRequest carries a pre-filtered batch of incident records.
type AnalyzeClusterRequest struct {
	Records       []models.IncidentRecord `json:"records"`
	WindowMinutes int                     `json:"window_minutes,omitempty"`
}

// AnalyzeClusterResponse returns the detected cluster or null.
type AnalyzeClusterResponse struct {
	Cluster   *models.EventCluster `json:"cluster"`
	Timestamp time.Time            `json:"timestamp"`
}

// AnalyzeAnomalyRequest carries the current sample and its historical window.
type AnalyzeAnomalyRequest struct {
	Current    models.Sample   `json:"current"`
	Historical []models.Sample `json:"historical"`
}

// AnalyzeAnomalyResponse wraps the anomaly verdict.
type AnalyzeAnomalyResponse struct {
	Verdict   models.AnomalyVerdict `json:"verdict"`
	Timestamp time.Time             `json:"timestamp"`
}

// RiskResponse wraps the risk verdict for a location/type pair.
type RiskResponse struct {
	Location     string             `json:"location"`
	IncidentType string             `json:"incident_type"`
	Verdict      models.RiskVerdict `json:"verdict"`
	Timestamp    time.Time          `json:"timestamp"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

// handleReady handles readiness check requests
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	ready := s.running && s.engine != nil
	s.mu.RUnlock()

	if !ready {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not_ready"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"name":            "CityPulse AI",
		"version":         "0.1.0",
		"cluster_policy":  s.config.Pattern.ClusterPolicy,
		"history_backend": s.config.History.Backend,
		"cache_enabled":   s.config.Cache.EnableCaching,
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}

// handleRecordIncident appends an incident to the history store.
func (s *Server) handleRecordIncident(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RecordIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	if req.Location == "" || req.IncidentType == "" {
		http.Error(w, "location and incident_type are required", http.StatusBadRequest)
		return
	}

	ts := time.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	if err := s.engine.RecordIncident(r.Context(), req.Location, req.IncidentType, ts); err != nil {
		s.log.Error("record incident failed", zap.Error(err))
		http.Error(w, "failed to record incident", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "recorded",
		"timestamp": ts,
	})
}

// handleAnalyzeCluster runs cluster detection over the posted batch.
func (s *Server) handleAnalyzeCluster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalyzeClusterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	window := req.WindowMinutes
	if window <= 0 {
		window = s.config.Pattern.DefaultWindowMinutes
	}

	found, err := s.engine.AnalyzeIncidents(r.Context(), req.Records, window)
	if err != nil {
		s.log.Error("cluster analysis failed", zap.Error(err))
		http.Error(w, "cluster analysis failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(AnalyzeClusterResponse{
		Cluster:   found,
		Timestamp: time.Now(),
	})
}

// handleAnalyzeAnomaly checks the current sample against its history. A
// current sample without a numeric field is a 422: the caller broke the data
// contract, the series itself is fine.
func (s *Server) handleAnalyzeAnomaly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalyzeAnomalyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	verdict, err := s.engine.DetectAnomaly(r.Context(), req.Current, req.Historical)
	if err != nil {
		if errors.Is(err, anomaly.ErrNoNumericField) {
			http.Error(w, "current sample has no numeric field", http.StatusUnprocessableEntity)
			return
		}
		s.log.Error("anomaly analysis failed", zap.Error(err))
		http.Error(w, "anomaly analysis failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(AnalyzeAnomalyResponse{
		Verdict:   verdict,
		Timestamp: time.Now(),
	})
}

// handleRisk serves the risk verdict for ?location=&incident_type=.
func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	location := r.URL.Query().Get("location")
	incidentType := r.URL.Query().Get("incident_type")
	if location == "" || incidentType == "" {
		http.Error(w, "location and incident_type query parameters are required", http.StatusBadRequest)
		return
	}

	verdict, err := s.engine.PredictRisk(r.Context(), location, incidentType)
	if err != nil {
		s.log.Error("risk prediction failed", zap.Error(err))
		http.Error(w, "risk prediction failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(RiskResponse{
		Location:     location,
		IncidentType: incidentType,
		Verdict:      verdict,
		Timestamp:    time.Now(),
	})
}
