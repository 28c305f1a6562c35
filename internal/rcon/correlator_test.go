package rcon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelator_ResolvesEveryMatchingExpectation(t *testing.T) {
	c := NewCorrelator()

	const n = 5
	exps := make([]*Expectation, n)
	for i := range exps {
		exps[i] = c.Expect(Contains("banned!"))
	}
	other := c.Expect(Contains("Ban removed!"))
	require.Equal(t, n+1, c.Pending())

	resolved := c.Dispatch("Player 'x' banned!")

	assert.Equal(t, n, resolved)
	assert.Equal(t, 1, c.Pending())
	for _, e := range exps {
		line, err := e.Wait(context.Background(), time.Second)
		require.NoError(t, err)
		assert.Equal(t, "Player 'x' banned!", line)
	}
	assert.True(t, other.Cancel())
	assert.Zero(t, c.Pending())
}

func TestCorrelator_FirstLineOnly(t *testing.T) {
	c := NewCorrelator()
	e := c.Expect(HasPrefix("a"))

	assert.Equal(t, 1, c.Dispatch("a1"))
	assert.Equal(t, 0, c.Dispatch("a2"))

	line, err := e.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a1", line)
}

func TestCorrelator_NoGrowthAfterBurst(t *testing.T) {
	c := NewCorrelator()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_, _ = c.Await(context.Background(), Contains("tick"), time.Second)
			case 1:
				_, _ = c.Await(context.Background(), Contains("never"), 10*time.Millisecond)
			default:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
				defer cancel()
				_, _ = c.Await(ctx, Contains("never"), time.Second)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		select {
		case <-done:
			assert.Zero(t, c.Pending())
			return
		case <-time.After(time.Millisecond):
			c.Dispatch("tick")
		}
	}
}

func TestCorrelator_TimeoutAfterDeadline(t *testing.T) {
	c := NewCorrelator()
	const timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := c.Await(context.Background(), Contains("never"), timeout)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	var te *TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, timeout, te.After)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+500*time.Millisecond)
	assert.Zero(t, c.Pending())
}

func TestCorrelator_CancelledByContext(t *testing.T) {
	c := NewCorrelator()
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		_, err := c.Await(ctx, Contains("never"), time.Minute)
		errc <- err
	}()
	require.Eventually(t, func() bool { return c.Pending() == 1 }, time.Second, time.Millisecond)

	cancel()
	err := <-errc

	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Zero(t, c.Pending())
}

func TestCorrelator_DeliveredLineWinsOverTimeout(t *testing.T) {
	c := NewCorrelator()
	e := c.Expect(Contains("x"))
	c.Dispatch("x")

	line, err := e.Wait(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, "x", line)
}

func TestExpectation_CancelIsIdempotent(t *testing.T) {
	c := NewCorrelator()
	e := c.Expect(Contains("x"))

	assert.True(t, e.Cancel())
	assert.False(t, e.Cancel())
	assert.Zero(t, c.Dispatch("x"))

	_, err := e.Wait(context.Background(), time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}
