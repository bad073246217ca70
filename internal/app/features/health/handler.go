package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/propertyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handler holds dependencies needed for health checks.
type Handler struct {
	Checks map[string]Pinger
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. checks maps a dependency name
// (e.g. "mongo", "postgres") to its probe.
func NewHandler(checks map[string]Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		Checks: checks,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
	Message      string            `json:"message,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "dependencies":{"mongo":"connected","postgres":"connected"} }
//
// When any dependency fails: 503 and
//
//	{ "status":"error", "dependencies":{"mongo":"disconnected",...}, "message":"Dependency unavailable" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:       "ok",
		Dependencies: make(map[string]string, len(h.Checks)),
	}

	for name, p := range h.Checks {
		if err := p.Ping(ctx); err != nil {
			h.Log.Error("health-check: ping failed", zap.String("dependency", name), zap.Error(err))
			resp.Status = "error"
			resp.Message = "Dependency unavailable"
			resp.Dependencies[name] = "disconnected"
			continue
		}
		resp.Dependencies[name] = "connected"
	}

	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
