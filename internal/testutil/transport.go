package testutil

import (
	"context"
	"slices"
	"sync"
)

// FakeTransport is an in-memory console transport. Commands are recorded and
// may be answered through a Reply script; server lines can be injected with
// Emit.
type FakeTransport struct {
	mu    sync.Mutex
	sent  []string
	err   error
	reply func(cmd string) []string
	lines chan string
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{lines: make(chan string, 256)}
}

// Send records cmd. Scripted replies are emitted after Send returns, the way a
// real server answers asynchronously.
func (f *FakeTransport) Send(ctx context.Context, cmd string) error {
	f.mu.Lock()
	if f.err != nil {
		err := f.err
		f.mu.Unlock()
		return err
	}
	f.sent = append(f.sent, cmd)
	reply := f.reply
	f.mu.Unlock()

	if reply != nil {
		if out := reply(cmd); len(out) > 0 {
			go func() {
				for _, line := range out {
					f.lines <- line
				}
			}()
		}
	}
	return nil
}

func (f *FakeTransport) Lines() <-chan string { return f.lines }

func (f *FakeTransport) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err == nil
}

// Emit injects a server line.
func (f *FakeTransport) Emit(line string) { f.lines <- line }

// Reply installs a script answering each command with zero or more lines.
func (f *FakeTransport) Reply(fn func(cmd string) []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply = fn
}

// Fail makes every following Send return err; nil restores the link.
func (f *FakeTransport) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Sent returns a copy of every command accepted so far.
func (f *FakeTransport) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sent)
}

// Close ends the line stream.
func (f *FakeTransport) Close() { close(f.lines) }
