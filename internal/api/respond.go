package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/reedfamily/reedcon/internal/rcon"
)

// StatusClientClosedRequest is returned when the caller went away before the
// server answered.
const StatusClientClosedRequest = 499

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Str("module", "api").Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeRCONError maps an rcon workflow error to a response.
func writeRCONError(w http.ResponseWriter, err error) {
	var te *rcon.TransportError
	var re *rcon.ResolutionError
	switch {
	case errors.Is(err, rcon.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rcon.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &re):
		log.Error().Str("module", "api").Str("name", re.Name).Err(re.Err).Msg("player history lookup failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "cannot resolve " + re.Name + ": player history unavailable",
			"kind":  "resolution",
		})
	case errors.Is(err, rcon.ErrTimeout):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{
			"error":   err.Error(),
			"outcome": "ambiguous",
		})
	case errors.Is(err, rcon.ErrCancelled):
		writeError(w, StatusClientClosedRequest, err.Error())
	case errors.As(err, &te) && te.Retryable():
		writeError(w, http.StatusServiceUnavailable, "game server console is not connected")
	case errors.As(err, &te):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Error().Str("module", "api").Err(err).Msg("unexpected rcon error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
