package rcon

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Predicate reports whether a server line is the one a caller waits for.
// Predicates run under the correlator lock and must not block.
type Predicate func(line string) bool

// Contains matches lines holding s anywhere.
func Contains(s string) Predicate {
	return func(line string) bool { return strings.Contains(line, s) }
}

// HasPrefix matches lines starting with s, ignoring leading whitespace.
func HasPrefix(s string) Predicate {
	return func(line string) bool { return strings.HasPrefix(strings.TrimLeft(line, " \t\r\n"), s) }
}

// Correlator matches untagged server lines against registered expectations.
//
// The server attaches no request identifiers to its output, so correlation is
// by content only: two expectations whose predicates accept the same line are
// both resolved by it. Callers that cannot embed a distinguishing value in
// their predicate must serialize themselves.
type Correlator struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*Expectation
}

func NewCorrelator() *Correlator {
	return &Correlator{pending: make(map[uint64]*Expectation)}
}

// Expectation is a registered wait for one matching line.
type Expectation struct {
	c        *Correlator
	id       uint64
	match    Predicate
	result   chan string
	resolved bool
}

// Expect registers a predicate. Register before sending the command that
// provokes the reply, then call Wait. Cancel must be called if Wait is not.
func (c *Correlator) Expect(match Predicate) *Expectation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	e := &Expectation{
		c:      c,
		id:     c.nextID,
		match:  match,
		result: make(chan string, 1),
	}
	c.pending[e.id] = e
	return e
}

// Await registers match and waits for it. See Expectation.Wait.
func (c *Correlator) Await(ctx context.Context, match Predicate, timeout time.Duration) (string, error) {
	return c.Expect(match).Wait(ctx, timeout)
}

// Dispatch offers line to every pending expectation and returns how many it
// resolved. Resolved expectations are removed before their waiters wake.
func (c *Correlator) Dispatch(line string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	resolved := 0
	for id, e := range c.pending {
		if !e.match(line) {
			continue
		}
		delete(c.pending, id)
		e.resolved = true
		e.result <- line
		resolved++
	}
	return resolved
}

// Pending returns the number of registered expectations.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Cancel deregisters the expectation. It reports whether the expectation was
// still pending, i.e. no line had resolved it. Safe to call more than once.
func (e *Expectation) Cancel() bool {
	e.c.mu.Lock()
	defer e.c.mu.Unlock()
	if _, ok := e.c.pending[e.id]; !ok {
		return false
	}
	delete(e.c.pending, e.id)
	return true
}

// Wait blocks until a matching line arrives, timeout elapses or ctx ends.
// The expectation is deregistered on every return path. A line delivered
// concurrently with the timeout or cancellation still wins.
func (e *Expectation) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case line := <-e.result:
		return line, nil
	case <-timer.C:
		if e.settle() {
			return <-e.result, nil
		}
		return "", &TimeoutError{After: timeout}
	case <-ctx.Done():
		if e.settle() {
			return <-e.result, nil
		}
		return "", fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}
}

// settle deregisters the expectation and reports whether a line resolved it.
func (e *Expectation) settle() bool {
	e.c.mu.Lock()
	defer e.c.mu.Unlock()
	delete(e.c.pending, e.id)
	return e.resolved
}
