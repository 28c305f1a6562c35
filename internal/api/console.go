package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/reedfamily/reedcon/internal/game"
	"github.com/reedfamily/reedcon/internal/rcon"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ConsoleFrame is one server message pushed to a console watcher, with the
// events recognised in it.
type ConsoleFrame struct {
	Line   string        `json:"line,omitempty"`
	Events []*game.Event `json:"events,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type ConsoleHandler struct {
	client *rcon.Client
	admin  *rcon.Admin
	game   string
}

func NewConsoleHandler(client *rcon.Client, admin *rcon.Admin, game string) *ConsoleHandler {
	return &ConsoleHandler{client: client, admin: admin, game: game}
}

func (h *ConsoleHandler) frame(msg string) ConsoleFrame {
	f := ConsoleFrame{Line: msg}
	for line := range strings.Lines(msg) {
		if ev := game.Classify(h.game, strings.TrimRight(line, "\r\n")); ev != nil {
			f.Events = append(f.Events, ev)
		}
	}
	return f
}

// Handle streams every server message to the websocket and sends every text
// frame received from it as a raw console command.
func (h *ConsoleHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Str("module", "api").Err(err).Msg("console websocket upgrade")
		return
	}
	defer conn.Close()

	who := actor(r)
	log.Info().Str("module", "api").Str("actor", who).Msg("console attached")

	lines := h.client.Feed().Subscribe()
	defer h.client.Feed().Unsubscribe(lines)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	out := make(chan ConsoleFrame, 16)

	go func() {
		defer cancel()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			cmd := strings.TrimSpace(string(data))
			if cmd == "" {
				continue
			}
			log.Info().Str("module", "api").Str("actor", who).Str("command", cmd).Msg("console command")
			sendCtx, sendCancel := context.WithTimeout(ctx, 5*time.Second)
			err = h.admin.Command(sendCtx, cmd)
			sendCancel()
			if err != nil {
				select {
				case out <- ConsoleFrame{Error: err.Error()}:
				default:
				}
			}
		}
	}()

	for {
		var f ConsoleFrame
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-lines:
			if !ok {
				return
			}
			f = h.frame(msg)
		case f = <-out:
		}
		if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}
		if err := conn.WriteJSON(f); err != nil {
			return
		}
	}
}
