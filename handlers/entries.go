package handlers

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"omvsetup/logger"
	"omvsetup/state"
)

// EntriesHandler exposes the stored entries.
type EntriesHandler struct {
	store state.EntryStore
}

// NewEntriesHandler creates a new EntriesHandler
func NewEntriesHandler(store state.EntryStore) *EntriesHandler {
	return &EntriesHandler{store: store}
}

// RegisterRoutes registers the entry routes
func (h *EntriesHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/entries", h.ListHandler)
	router.GET("/api/entries/:id", h.GetHandler)
}

type entryView struct {
	ID        string                 `json:"entry_id"`
	Title     string                 `json:"title"`
	Data      map[string]interface{} `json:"data"`
	Options   map[string]interface{} `json:"options"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func newEntryView(e state.Entry) entryView {
	r := e.Redacted()
	return entryView{
		ID:        r.ID,
		Title:     r.Title,
		Data:      r.Data,
		Options:   r.EffectiveOptions(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ListHandler returns every entry with its password redacted.
func (h *EntriesHandler) ListHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	entries, err := h.store.Entries(r.Context())
	if err != nil {
		logger.Get().Error().Err(err).Msg("Failed to list entries")
		RespondWithError(w, r, ErrInternalServer, "")
		return
	}

	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newEntryView(e))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": views,
		"count":   len(views),
	})
}

// GetHandler returns one entry.
func (h *EntriesHandler) GetHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, err := h.store.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		respondWithFlowError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEntryView(e))
}
