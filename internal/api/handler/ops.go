package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/climatlas/climatlas/internal/api/response"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler serves health and readiness endpoints.
type OpsHandler struct {
	db Pinger
}

// NewOpsHandler creates an OpsHandler. db may be nil when the service runs
// without a database.
func NewOpsHandler(db Pinger) *OpsHandler {
	return &OpsHandler{db: db}
}

// Health handles GET /v1/ops/health. It always returns 200 while the process
// is serving.
func (h *OpsHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /v1/ops/ready. It returns 503 when a dependency is down.
func (h *OpsHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			response.ServiceUnavailable(w, r, "database unavailable")
			return
		}
	}

	response.JSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
