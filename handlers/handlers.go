package handlers

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/julienschmidt/httprouter"

	"omvsetup/flow"
	"omvsetup/metrics"
	"omvsetup/state"
)

// InitHandlers wires every handler onto a router and wraps it with the session
// and metrics middleware.
func InitHandlers(manager *flow.Manager, store state.EntryStore, sessions *scs.SessionManager) http.Handler {
	router := httprouter.New()

	NewFlowHandler(manager, sessions).RegisterRoutes(router)
	NewEntriesHandler(store).RegisterRoutes(router)
	NewHealthHandler(manager).RegisterRoutes(router)

	metrics.Init()
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondWithError(w, r, ErrNotFound, "")
	})

	return metrics.HTTPMetricsMiddleware(sessions.LoadAndSave(router))
}
