package rcon

import "context"

// Transport is a persistent, self-reconnecting console connection.
//
// Send hands a command to the server and returns once the transport has
// accepted it; it must return an error wrapping ErrNotConnected while the
// connection is down. Lines delivers every server-originated message in
// arrival order; a single message may span several lines of text. The channel
// is closed when the transport shuts down for good.
type Transport interface {
	Send(ctx context.Context, command string) error
	Lines() <-chan string
}

// Connectivity is implemented by transports that can report their link state.
type Connectivity interface {
	Connected() bool
}
