package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/muurk/blescan/internal/logging"
	"github.com/muurk/blescan/internal/snapshot"
	"github.com/muurk/blescan/internal/version"
	"go.uber.org/zap"
)

// handleDevices answers GET /devices with the current snapshot
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	body, err := snapshot.Encode(s.store.Read())
	if err != nil {
		logging.Error("Failed to encode devices", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status     string      `json:"status"`
	Version    string      `json:"version"`
	Generation uint64      `json:"generation"`
	Devices    int         `json:"devices"`
	UpdatedAt  *time.Time  `json:"updated_at"`
	Scan       *ScanHealth `json:"scan,omitempty"`
}

// ScanHealth summarizes the scan loop counters
type ScanHealth struct {
	Ticks               uint64     `json:"ticks"`
	FailedTicks         uint64     `json:"failed_ticks"`
	ConsecutiveFailures uint64     `json:"consecutive_failures"`
	SkippedPeripherals  uint64     `json:"skipped_peripherals"`
	LastSuccess         *time.Time `json:"last_success"`
}

// Health status values
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// handleHealth always answers 200; a failing radio shows as "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()

	resp := HealthResponse{
		Status:     StatusOK,
		Version:    version.Version,
		Generation: snap.Generation,
		Devices:    len(snap.Devices),
	}
	if !snap.UpdatedAt.IsZero() {
		updated := snap.UpdatedAt
		resp.UpdatedAt = &updated
	}

	if s.status != nil {
		stats := s.status.Stats()
		resp.Scan = &ScanHealth{
			Ticks:               stats.Ticks,
			FailedTicks:         stats.FailedTicks,
			ConsecutiveFailures: stats.ConsecutiveFailures,
			SkippedPeripherals:  stats.SkippedPeripherals,
		}
		if !stats.LastSuccess.IsZero() {
			last := stats.LastSuccess
			resp.Scan.LastSuccess = &last
		}
		if stats.ConsecutiveFailures > 0 {
			resp.Status = StatusDegraded
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Warn("Failed to write health response", zap.Error(err))
	}
}
