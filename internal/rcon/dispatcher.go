package rcon

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Dispatcher sends commands on the shared transport. It never retries.
type Dispatcher struct {
	transport Transport
}

func NewDispatcher(t Transport) *Dispatcher {
	return &Dispatcher{transport: t}
}

func (d *Dispatcher) Send(ctx context.Context, command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("%w: empty command", ErrInvalidArgument)
	}
	if err := d.transport.Send(ctx, command); err != nil {
		log.Error().Str("module", "rcon.dispatcher").Str("command", command).Err(err).Msg("send failed")
		return &TransportError{Command: command, Err: err}
	}
	log.Debug().Str("module", "rcon.dispatcher").Str("command", command).Msg("sent")
	return nil
}
