package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reedfamily/reedcon/internal/rcon"
)

type stubSource struct {
	mu      sync.Mutex
	players []rcon.Player
	err     error
	calls   int
}

func (s *stubSource) Players(ctx context.Context) ([]rcon.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.players, s.err
}

func (s *stubSource) set(players []rcon.Player, err error) {
	s.mu.Lock()
	s.players, s.err = players, err
	s.mu.Unlock()
}

type stubRecorder struct {
	mu       sync.Mutex
	recorded [][]rcon.Player
}

func (r *stubRecorder) RecordRoster(_ context.Context, players []rcon.Player) error {
	r.mu.Lock()
	r.recorded = append(r.recorded, players)
	r.mu.Unlock()
	return nil
}

var alice = rcon.Player{Number: 1, UID: "ab6b9fa2-9ed8-434a-a2b6-bce11743372a", Name: "Alice"}

func TestRefresh_RecordsAndPublishes(t *testing.T) {
	src := &stubSource{players: []rcon.Player{alice}}
	rec := &stubRecorder{}
	m := New(src, rec, time.Hour)
	ch := m.Subscribe()

	snap := m.Refresh(context.Background())

	assert.Equal(t, 1, snap.Online)
	assert.Empty(t, snap.Err)
	assert.Equal(t, snap, <-ch)
	assert.Equal(t, snap, m.Latest())
	require.Len(t, rec.recorded, 1)
	assert.Equal(t, []rcon.Player{alice}, rec.recorded[0])
}

func TestRefresh_EmptyRosterIsNotAnError(t *testing.T) {
	src := &stubSource{players: []rcon.Player{}, err: rcon.ErrEmptyRoster}
	rec := &stubRecorder{}
	m := New(src, rec, time.Hour)

	snap := m.Refresh(context.Background())

	assert.Empty(t, snap.Err)
	assert.Equal(t, 0, snap.Online)
	assert.NotNil(t, snap.Players)
	assert.Empty(t, rec.recorded)
}

func TestRefresh_FailureKeepsPreviousPlayers(t *testing.T) {
	src := &stubSource{players: []rcon.Player{alice}}
	m := New(src, nil, time.Hour)
	m.Refresh(context.Background())

	src.set(nil, &rcon.TimeoutError{Op: "players", After: time.Second})
	snap := m.Refresh(context.Background())

	assert.Contains(t, snap.Err, "no confirmation")
	assert.Equal(t, []rcon.Player{alice}, snap.Players)
}

func TestStartStop(t *testing.T) {
	src := &stubSource{err: errors.New("down")}
	m := New(src, nil, 10*time.Millisecond)

	m.Start(context.Background())
	assert.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls >= 2
	}, time.Second, 5*time.Millisecond)
	m.Stop()

	require.NotNil(t, m.Latest())
	assert.Equal(t, "down", m.Latest().Err)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	m := New(&stubSource{}, nil, time.Hour)
	ch := m.Subscribe()
	m.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestRefresh_ConcurrentUnsubscribe(t *testing.T) {
	m := New(&stubSource{players: []rcon.Player{alice}}, nil, time.Hour)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				m.Refresh(context.Background())
			}
		}
	}()

	for range 200 {
		chans := make([]chan *Snapshot, 50)
		for i := range chans {
			chans[i] = m.Subscribe()
		}
		for _, ch := range chans {
			m.Unsubscribe(ch)
		}
	}
	close(stop)
	<-done

	m.mu.RLock()
	defer m.mu.RUnlock()
	assert.Empty(t, m.listeners)
}
