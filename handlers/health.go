package handlers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"omvsetup/constants"
	"omvsetup/flow"
)

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	manager *flow.Manager
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(manager *flow.Manager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// RegisterRoutes registers the health routes
func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.HealthCheckHandler)
}

// HealthCheckHandler reports the service status and the number of open flows.
func (h *HealthHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"version":      constants.AppVersion,
		"flows_active": h.manager.InProgress(),
	})
}
