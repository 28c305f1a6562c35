package docker

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reedfamily/reedcon/internal/rcon"
)

func TestConsole_SendWhileDetached(t *testing.T) {
	c := NewConsole(nil, "reforger", 0, 0)

	err := c.Send(context.Background(), "#players")

	assert.ErrorIs(t, err, rcon.ErrNotConnected)
	assert.False(t, c.Connected())
}

func TestConsole_FrameForwardsMessages(t *testing.T) {
	c := NewConsole(nil, "reforger", 0, 20*time.Millisecond)
	raw := make(chan string)
	scanErr := make(chan error, 1)

	done := make(chan error, 1)
	go func() { done <- c.frame(context.Background(), raw, scanErr) }()

	raw <- "Players on server:"
	raw <- "1;ab6b9fa2-9ed8-434a-a2b6-bce11743372a;Alice"
	raw <- ""
	assert.Equal(t, "Players on server:\n1;ab6b9fa2-9ed8-434a-a2b6-bce11743372a;Alice", <-c.Lines())

	raw <- "Ban removed!"
	assert.Equal(t, "Ban removed!", <-c.Lines())

	close(raw)
	select {
	case err := <-done:
		require.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("frame did not return after the stream ended")
	}
}
