package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/reedfamily/reedcon/internal/history"
	"github.com/reedfamily/reedcon/internal/monitor"
	"github.com/reedfamily/reedcon/internal/rcon"
)

// PlayerHandler serves the administrative workflows: roster, kick, ban and
// unban. Every ban, unban and kick is written to the audit log.
type PlayerHandler struct {
	client  *rcon.Client
	admin   *rcon.Admin
	monitor *monitor.Monitor
	history *history.Store
	game    string
}

func NewPlayerHandler(client *rcon.Client, admin *rcon.Admin, mon *monitor.Monitor, hist *history.Store, game string) *PlayerHandler {
	return &PlayerHandler{client: client, admin: admin, monitor: mon, history: hist, game: game}
}

func (h *PlayerHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"game":      h.game,
		"connected": h.client.Connected(),
		"pending":   h.client.Correlator().Pending(),
	}
	if snap := h.monitor.Latest(); snap != nil {
		resp["online"] = snap.Online
		resp["refreshed_at"] = snap.RefreshedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// List queries the server roster. With ?cached=1 it returns the monitor's
// last snapshot instead of asking the server.
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("cached") == "1" {
		snap := h.monitor.Latest()
		if snap == nil {
			snap = h.monitor.Refresh(r.Context())
		}
		writeJSON(w, http.StatusOK, snap)
		return
	}

	players, err := h.admin.Players(r.Context())
	if err != nil && !errors.Is(err, rcon.ErrEmptyRoster) {
		writeRCONError(w, err)
		return
	}
	if len(players) > 0 {
		if err := h.history.RecordRoster(r.Context(), players); err != nil {
			log.Error().Str("module", "api").Err(err).Msg("record roster")
		}
	}
	writeJSON(w, http.StatusOK, players)
}

func (h *PlayerHandler) Kick(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "session number must be an integer")
		return
	}

	err = h.admin.Kick(r.Context(), number)
	h.audit(r, &history.Action{Kind: "kick", Target: strconv.Itoa(number)}, err)
	if err != nil {
		writeRCONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": number, "message": "kick sent"})
}

func (h *PlayerHandler) Ban(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
		Hours  int    `json:"hours"`
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.admin.Ban(r.Context(), req.Target, req.Hours, req.Reason)
	detail := "hours=" + strconv.Itoa(req.Hours)
	if req.Reason != "" {
		detail += " reason=" + strings.TrimSpace(req.Reason)
	}
	if res.Kicked {
		detail += " kicked=" + strconv.Itoa(res.Session)
	}
	h.audit(r, &history.Action{Kind: "ban", Target: req.Target, UID: res.UID, Detail: detail}, err)
	if err != nil {
		writeRCONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PlayerHandler) Unban(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")

	res, err := h.admin.Unban(r.Context(), target)
	h.audit(r, &history.Action{Kind: "unban", Target: target, UID: res.UID}, err)
	if err != nil {
		writeRCONError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// audit records the action outside the request context so an abandoned
// request is still logged.
func (h *PlayerHandler) audit(r *http.Request, a *history.Action, err error) {
	a.Actor = actor(r)
	a.Outcome = history.OutcomeOf(err)
	if err != nil && a.Detail == "" {
		a.Detail = err.Error()
	} else if err != nil {
		a.Detail += " error=" + err.Error()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
	defer cancel()
	if err := h.history.RecordAction(ctx, a); err != nil {
		log.Error().Str("module", "api").Str("kind", a.Kind).Err(err).Msg("record action")
	}
}

// Live pushes every monitor snapshot over a websocket.
func (h *PlayerHandler) Live(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("module", "api").Err(err).Msg("roster websocket upgrade")
		return
	}
	defer conn.Close()

	ch := h.monitor.Subscribe()
	defer h.monitor.Unsubscribe(ch)

	if latest := h.monitor.Latest(); latest != nil {
		if err := conn.WriteJSON(latest); err != nil {
			return
		}
	}

	// Read from client to detect disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
