package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/reedfamily/reedcon/internal/history"
	"github.com/reedfamily/reedcon/internal/rcon"
)

type HistoryHandler struct {
	store *history.Store
}

func NewHistoryHandler(store *history.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// Lookup resolves a display name to the UID it was last seen with.
func (h *HistoryHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	uid, err := h.store.LookupLatestUID(r.Context(), name)
	if errors.Is(err, rcon.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no player seen with that name")
		return
	}
	if err != nil {
		log.Error().Str("module", "api").Err(err).Msg("lookup")
		writeError(w, http.StatusInternalServerError, "failed to query history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "uid": uid})
}

// Names lists every display name a UID has used.
func (h *HistoryHandler) Names(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if !rcon.IsUID(uid) {
		writeError(w, http.StatusBadRequest, "invalid uid")
		return
	}
	aliases, err := h.store.Names(r.Context(), uid)
	if err != nil {
		log.Error().Str("module", "api").Err(err).Msg("names")
		writeError(w, http.StatusInternalServerError, "failed to query history")
		return
	}
	writeJSON(w, http.StatusOK, aliases)
}

func (h *HistoryHandler) Actions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	actions, err := h.store.Actions(r.Context(), limit)
	if err != nil {
		log.Error().Str("module", "api").Err(err).Msg("actions")
		writeError(w, http.StatusInternalServerError, "failed to query actions")
		return
	}
	writeJSON(w, http.StatusOK, actions)
}
