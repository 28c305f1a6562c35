package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/reedfamily/reedcon/internal/game"
	"github.com/reedfamily/reedcon/internal/rcon"

	_ "github.com/reedfamily/reedcon/internal/game/reforger"
)

func TestWriteRCONError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: empty ban target", rcon.ErrInvalidArgument), http.StatusBadRequest},
		{&rcon.ResolutionError{Name: "Ghost", Err: rcon.ErrNotFound}, http.StatusNotFound},
		{&rcon.ResolutionError{Name: "Alice", Err: errors.New("database is locked")}, http.StatusServiceUnavailable},
		{&rcon.TimeoutError{Op: "ban", After: time.Second}, http.StatusGatewayTimeout},
		{fmt.Errorf("%w: %w", rcon.ErrCancelled, context.Canceled), StatusClientClosedRequest},
		{&rcon.TransportError{Command: "#kick 1", Err: rcon.ErrNotConnected}, http.StatusServiceUnavailable},
		{&rcon.TransportError{Command: "#kick 1", Err: errors.New("broken pipe")}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeRCONError(rec, tc.err)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestConsoleFrame_ClassifiesEveryLine(t *testing.T) {
	h := NewConsoleHandler(nil, nil, "armareforger")

	f := h.frame("Player #2 Bob (10.0.0.2:2001) connected\n(Global) Bob: hello")

	if assert.Len(t, f.Events, 2) {
		assert.Equal(t, game.EventJoin, f.Events[0].Type)
		assert.Equal(t, game.EventChat, f.Events[1].Type)
		assert.Equal(t, "hello", f.Events[1].Message)
	}
}

func TestWriteRCONError_ResolutionFailureIsDistinct(t *testing.T) {
	rec := httptest.NewRecorder()

	writeRCONError(rec, &rcon.ResolutionError{Name: "Alice", Err: errors.New("database is locked")})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"resolution"`)
	assert.NotContains(t, rec.Body.String(), "not connected")
}
