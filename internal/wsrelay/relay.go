// Package wsrelay connects to an RCON relay that exposes a game server's
// BattlEye console as a websocket: each text frame sent is one command and
// each text frame received is one server message.
package wsrelay

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/reedfamily/reedcon/internal/rcon"
)

const writeWait = 5 * time.Second

type Relay struct {
	url            string
	token          string
	reconnectDelay time.Duration
	dialer         *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn

	lines chan string
}

func New(url, token string, reconnectDelay time.Duration) *Relay {
	if reconnectDelay <= 0 {
		reconnectDelay = 500 * time.Millisecond
	}
	return &Relay{
		url:            url,
		token:          token,
		reconnectDelay: reconnectDelay,
		dialer:         &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		lines:          make(chan string, 256),
	}
}

func (r *Relay) Lines() <-chan string { return r.lines }

func (r *Relay) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

func (r *Relay) Send(ctx context.Context, command string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return fmt.Errorf("relay %s: %w", r.url, rcon.ErrNotConnected)
	}
	deadline := time.Now().Add(writeWait)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := r.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	if err := r.conn.WriteMessage(websocket.TextMessage, []byte(command)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Run keeps a relay connection open until ctx ends, then closes Lines.
func (r *Relay) Run(ctx context.Context) error {
	defer close(r.lines)
	for {
		err := r.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		log.Warn().Str("module", "wsrelay").Str("url", r.url).Err(err).
			Dur("retry_in", r.reconnectDelay).Msg("relay disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.reconnectDelay):
		}
	}
}

func (r *Relay) session(ctx context.Context) error {
	header := http.Header{}
	if r.token != "" {
		header.Set("Authorization", "Bearer "+r.token)
	}
	conn, resp, err := r.dialer.DialContext(ctx, r.url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial: %w", err)
	}

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-sessCtx.Done()
		conn.Close()
	}()

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.conn = nil
		r.mu.Unlock()
	}()
	log.Info().Str("module", "wsrelay").Str("url", r.url).Msg("relay connected")

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if kind != websocket.TextMessage {
			continue
		}
		select {
		case r.lines <- string(data):
		case <-sessCtx.Done():
			return sessCtx.Err()
		}
	}
}
