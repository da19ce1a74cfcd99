// Package api is the HTTP surface of the forecast service: report
// ingestion, forecast queries, and a websocket event stream.
package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"raidcast/internal/config"
	"raidcast/internal/events"
	"raidcast/internal/history"
	"raidcast/internal/notify"
	"raidcast/internal/reliability"
	"raidcast/internal/smart"
)

// Server holds the service's shared state.
type Server struct {
	cfg config.Config
	db  *sql.DB
	bus *events.Bus

	mu     sync.RWMutex
	latest *reliability.Forecast
}

// NewServer wires the HTTP surface to its collaborators.
func NewServer(cfg config.Config, db *sql.DB, bus *events.Bus) *Server {
	return &Server{cfg: cfg, db: db, bus: bus}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/report", s.handleReport)
	mux.HandleFunc("GET /api/forecast", s.handleForecast)
	mux.HandleFunc("GET /api/devices", s.handleDevices)
	mux.HandleFunc("GET /api/devices/{serial}/trend", s.handleTrend)
	mux.HandleFunc("GET /ws/events", NewEventStream(s.bus).HandleConnection)

	return Logging(BearerAuth(s.cfg.AuthEnabled, s.cfg.TokenHash, mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, map[string]string{"status": "ok"})
}

// handleReport ingests a smartctl report payload, runs a forecast pass,
// persists it, and publishes threshold events.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	devices, rejected := smart.ParseReport(payload, s.cfg.SpareSet())
	if len(devices) == 0 {
		JSONError(w, "no parseable drives in report", http.StatusBadRequest)
		return
	}

	forecast, err := reliability.Compute(devices, reliability.Config{MaxParity: s.cfg.MaxParity})
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	passID := ""
	if s.db != nil {
		passID, err = history.StorePass(s.db, forecast)
		if err != nil {
			log.Printf("api: storing pass failed: %v", err)
		}
	}

	s.mu.Lock()
	s.latest = forecast
	s.mu.Unlock()

	notify.Evaluate(s.bus, forecast, notify.Thresholds{
		AFPWarn:     s.cfg.AFPWarn,
		AFPCritical: s.cfg.AFPCritical,
		LossRisk:    s.cfg.LossRiskThreshold,
		ParityLevel: s.cfg.ParityLevel,
		ScrubRate:   s.cfg.ScrubRate,
	})
	s.bus.Publish(events.Event{
		Type:     events.ReportProcessed,
		Severity: events.SeverityInfo,
		Message:  fmt.Sprintf("forecast pass over %d drives", len(devices)),
		Metadata: map[string]string{"pass_id": passID},
	})

	JSONResponse(w, map[string]interface{}{
		"status":   "ok",
		"pass_id":  passID,
		"devices":  len(devices),
		"rejected": rejected,
	})
}

// handleForecast returns the latest in-memory forecast.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	forecast := s.latest
	s.mu.RUnlock()

	if forecast == nil {
		JSONError(w, "no forecast yet", http.StatusNotFound)
		return
	}
	JSONResponse(w, forecast)
}

// handleDevices returns the most recent stored forecast per drive.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		JSONError(w, "history disabled", http.StatusNotFound)
		return
	}
	records, err := history.LatestDeviceRecords(s.db)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	JSONResponse(w, records)
}

// handleTrend projects a drive's AFR trajectory from its history.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		JSONError(w, "history disabled", http.StatusNotFound)
		return
	}

	serial := r.PathValue("serial")
	records, err := history.DeviceHistory(s.db, serial, 365)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pred := history.PredictTrend(records, s.cfg.AFPWarn)
	if pred == nil {
		JSONError(w, "not enough history for a trend", http.StatusNotFound)
		return
	}
	JSONResponse(w, pred)
}

// JSONResponse writes a JSON body with status 200.
func JSONResponse(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encoding response: %v", err)
	}
}

// JSONError writes a JSON error body.
func JSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
