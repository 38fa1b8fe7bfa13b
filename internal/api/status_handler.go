package api

import (
	"log/slog"
	"net/http"

	"github.com/irislabs/iris-api/internal/api/shared"
	"github.com/irislabs/iris-api/internal/gateway"
)

// StatusHandler handles service status HTTP requests.
type StatusHandler struct {
	gateway *gateway.Gateway
	logger  *slog.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(gw *gateway.Gateway, logger *slog.Logger) *StatusHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StatusHandler")
	}

	return &StatusHandler{
		gateway: gw,
		logger:  logger.With(slog.String("component", "status_handler")),
	}
}

// GetStatus handles GET /status requests. It always responds 200; when the
// upstream AI service is unreachable the failure is reported in the body so
// monitoring clients can still read queue depth and utilization.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := h.gateway.Status(r.Context())
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}
