package docker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/rs/zerolog/log"

	"github.com/reedfamily/reedcon/internal/rcon"
)

// Console is an rcon.Transport over the stdin and output of a containerised
// game server. It reattaches after the container restarts.
type Console struct {
	cli            *Client
	container      string
	reconnectDelay time.Duration
	coalesce       time.Duration

	mu    sync.Mutex
	stdin net.Conn

	lines chan string
}

func NewConsole(cli *Client, container string, reconnectDelay, coalesce time.Duration) *Console {
	if reconnectDelay <= 0 {
		reconnectDelay = 500 * time.Millisecond
	}
	if coalesce <= 0 {
		coalesce = 75 * time.Millisecond
	}
	return &Console{
		cli:            cli,
		container:      container,
		reconnectDelay: reconnectDelay,
		coalesce:       coalesce,
		lines:          make(chan string, 256),
	}
}

func (c *Console) Lines() <-chan string { return c.lines }

func (c *Console) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stdin != nil
}

func (c *Console) Send(ctx context.Context, command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stdin == nil {
		return fmt.Errorf("container %s: %w", c.container, rcon.ErrNotConnected)
	}
	if dl, ok := ctx.Deadline(); ok {
		c.stdin.SetWriteDeadline(dl)
		defer c.stdin.SetWriteDeadline(time.Time{})
	}
	if _, err := io.WriteString(c.stdin, command+"\n"); err != nil {
		return fmt.Errorf("write stdin: %w", err)
	}
	return nil
}

// Run keeps the console attached until ctx ends, then closes Lines.
func (c *Console) Run(ctx context.Context) error {
	defer close(c.lines)
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		log.Warn().Str("module", "docker").Str("container", c.container).Err(err).
			Dur("retry_in", c.reconnectDelay).Msg("console disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Console) session(ctx context.Context) error {
	tty, err := c.cli.IsTTY(ctx, c.container)
	if err != nil {
		return err
	}
	resp, err := c.cli.Attach(ctx, c.container)
	if err != nil {
		return fmt.Errorf("attach: %w", err)
	}

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-sessCtx.Done()
		resp.Close()
	}()

	c.mu.Lock()
	c.stdin = resp.Conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.stdin = nil
		c.mu.Unlock()
	}()
	log.Info().Str("module", "docker").Str("container", c.container).Bool("tty", tty).Msg("console attached")

	var output io.Reader = resp.Reader
	if !tty {
		// Non-TTY output carries stream headers; demultiplex into a pipe.
		pr, pw := io.Pipe()
		go func() {
			_, err := stdcopy.StdCopy(pw, pw, resp.Reader)
			pw.CloseWithError(err)
		}()
		output = pr
	}

	raw := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(raw)
		sc := bufio.NewScanner(output)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case raw <- strings.TrimRight(sc.Text(), "\r"):
			case <-sessCtx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	return c.frame(sessCtx, raw, scanErr)
}

// frame groups raw lines into messages and forwards them until the stream ends.
func (c *Console) frame(ctx context.Context, raw <-chan string, scanErr <-chan error) error {
	f := &framer{window: c.coalesce}
	timer := time.NewTimer(c.coalesce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-raw:
			if !ok {
				if f.pending() {
					c.emit(ctx, f.flush())
				}
				select {
				case err := <-scanErr:
					if err != nil {
						return err
					}
				default:
				}
				return io.EOF
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			for _, msg := range f.add(line, time.Now()) {
				c.emit(ctx, msg)
			}
			if f.pending() {
				timer.Reset(c.coalesce)
			}
		case <-timer.C:
			if f.pending() {
				c.emit(ctx, f.flush())
			}
		}
	}
}

func (c *Console) emit(ctx context.Context, msg string) {
	select {
	case c.lines <- msg:
	case <-ctx.Done():
	}
}
