package rcon

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Client owns the process-wide console connection and the components that
// share it. Construct it once at startup and pass it to whoever needs it.
type Client struct {
	transport  Transport
	dispatcher *Dispatcher
	correlator *Correlator
	feed       *Feed
}

func NewClient(t Transport) *Client {
	return &Client{
		transport:  t,
		dispatcher: NewDispatcher(t),
		correlator: NewCorrelator(),
		feed:       NewFeed(),
	}
}

func (c *Client) Dispatcher() *Dispatcher { return c.dispatcher }
func (c *Client) Correlator() *Correlator { return c.correlator }
func (c *Client) Feed() *Feed             { return c.feed }

// Connected reports the transport link state. Transports that cannot tell are
// assumed connected.
func (c *Client) Connected() bool {
	if cc, ok := c.transport.(Connectivity); ok {
		return cc.Connected()
	}
	return true
}

// Run pumps server lines into the correlator and the feed until ctx ends or
// the transport closes its line stream.
func (c *Client) Run(ctx context.Context) error {
	defer c.feed.Close()
	lines := c.transport.Lines()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				log.Info().Str("module", "rcon.client").Msg("transport closed line stream")
				return nil
			}
			log.Debug().Str("module", "rcon.client").Str("line", line).Msg("message")
			if n := c.correlator.Dispatch(line); n > 0 {
				log.Debug().Str("module", "rcon.client").Int("resolved", n).Msg("line matched expectations")
			}
			c.feed.Publish(line)
		}
	}
}
