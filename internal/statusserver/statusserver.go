// Package statusserver exposes the scheduler's operability surface over
// plain HTTP: a gRPC-compatible health check (for orchestrators that
// probe via the standard grpc.health.v1 protocol) and a JSON snapshot of
// path and scheduler state (for schedulerctl and ad-hoc inspection).
//
// Deliberately free of generated protobuf/ConnectRPC service code: the
// teacher's equivalent (internal/server) is generated from a .proto file
// that was never part of this retrieval, so this package uses only
// connectrpc.com/grpchealth (a hand-writable, self-contained health
// check) plus encoding/json — see DESIGN.md.
package statusserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/grpchealth"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpsched/mpsched/internal/pathtable"
)

// ServiceName is advertised to grpchealth probes for this daemon.
const ServiceName = "mpsched.v1.SchedulerService"

// PathSnapshot is the JSON representation of one path's state, served by
// GET /v1/paths.
type PathSnapshot struct {
	ID            int    `json:"id"`
	Validation    string `json:"validation"`
	Active        bool   `json:"active"`
	Primary       bool   `json:"primary"`
	DCIDAvailable bool   `json:"dcid_available"`
	SRTTMillis    int64  `json:"srtt_millis"`
	CWnd          uint64 `json:"cwnd"`
	InFlight      uint64 `json:"in_flight"`
}

// SchedulerSnapshot is the JSON representation served by GET /v1/scheduler.
type SchedulerSnapshot struct {
	Algorithm           string `json:"algorithm"`
	ReinjectionRequired bool   `json:"reinjection_required"`
	PathCount           int    `json:"path_count"`
}

// StateSource supplies the live data the status endpoints report.
type StateSource interface {
	PathSnapshot() []pathtable.Path
	SchedulerSnapshot() (algorithm string, reinjectionRequired bool)
}

// New builds the control-plane HTTP handler: a health-check endpoint, a
// JSON status surface, and H2C so the same plaintext port serves gRPC
// health probes and plain HTTP clients alike, exactly as
// cmd/gobfd/main.go's newGRPCServer wraps its ConnectRPC mux.
func New(src StateSource, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	checker := grpchealth.NewStaticChecker(grpchealth.HealthV1ServiceName, ServiceName)
	mux.Handle(grpchealth.NewHandler(checker))

	mux.HandleFunc("/v1/paths", handlePaths(src))
	mux.HandleFunc("/v1/scheduler", handleScheduler(src))

	return logRequests(logger, h2c.NewHandler(mux, &http2.Server{}))
}

func handlePaths(src StateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := src.PathSnapshot()
		out := make([]PathSnapshot, len(snap))
		for i, p := range snap {
			out[i] = PathSnapshot{
				ID:            p.ID,
				Validation:    p.Validation.String(),
				Active:        p.Active,
				Primary:       p.Primary,
				DCIDAvailable: p.DCIDAvailable,
				SRTTMillis:    p.EffectiveSRTT().Milliseconds(),
				CWnd:          p.CWnd,
				InFlight:      p.InFlight,
			}
		}
		writeJSON(w, out)
	}
}

func handleScheduler(src StateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		algorithm, reinjection := src.SchedulerSnapshot()
		writeJSON(w, SchedulerSnapshot{
			Algorithm:           algorithm,
			ReinjectionRequired: reinjection,
			PathCount:           len(src.PathSnapshot()),
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("control request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
