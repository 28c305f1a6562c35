package monitor

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reedfamily/reedcon/internal/rcon"
)

const DefaultInterval = 2 * time.Minute

// RosterSource answers roster queries. *rcon.Admin satisfies it.
type RosterSource interface {
	Players(ctx context.Context) ([]rcon.Player, error)
}

// Recorder persists observed (uid, name) pairs.
type Recorder interface {
	RecordRoster(ctx context.Context, players []rcon.Player) error
}

type Snapshot struct {
	Players     []rcon.Player `json:"players"`
	Online      int           `json:"online"`
	RefreshedAt time.Time     `json:"refreshed_at"`
	Err         string        `json:"error,omitempty"`
}

// Monitor refreshes the roster on an interval, records it into the history
// store and pushes every snapshot to its subscribers.
type Monitor struct {
	source   RosterSource
	recorder Recorder
	interval time.Duration

	mu        sync.RWMutex
	latest    *Snapshot
	listeners []chan *Snapshot

	cancel context.CancelFunc
	done   chan struct{}
}

func New(source RosterSource, recorder Recorder, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{source: source, recorder: recorder, interval: interval}
}

func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.Refresh(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Refresh(ctx)
			}
		}
	}()

	log.Info().Str("module", "monitor").Dur("interval", m.interval).Msg("roster monitor started")
}

func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// Refresh performs one roster round trip. On failure the previous player
// list is kept and the error is attached to the snapshot.
func (m *Monitor) Refresh(ctx context.Context) *Snapshot {
	players, err := m.source.Players(ctx)
	if errors.Is(err, rcon.ErrEmptyRoster) {
		err = nil
	}
	if ctx.Err() != nil {
		return m.Latest()
	}

	snap := &Snapshot{RefreshedAt: time.Now().UTC()}
	if err != nil {
		log.Warn().Str("module", "monitor").Err(err).Msg("roster refresh failed")
		snap.Err = err.Error()
		if prev := m.Latest(); prev != nil {
			snap.Players = prev.Players
		}
	} else {
		snap.Players = players
		if m.recorder != nil && len(players) > 0 {
			if err := m.recorder.RecordRoster(ctx, players); err != nil {
				log.Error().Str("module", "monitor").Err(err).Msg("record roster")
			}
		}
	}
	if snap.Players == nil {
		snap.Players = []rcon.Player{}
	}
	snap.Online = len(snap.Players)

	// Sends happen under the lock so Unsubscribe cannot close a channel
	// between the copy and the send.
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = snap
	for _, ch := range m.listeners {
		select {
		case ch <- snap:
		default:
		}
	}
	return snap
}

// Latest returns the most recent snapshot, or nil before the first refresh.
func (m *Monitor) Latest() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

func (m *Monitor) Subscribe() chan *Snapshot {
	ch := make(chan *Snapshot, 1)
	m.mu.Lock()
	m.listeners = append(m.listeners, ch)
	m.mu.Unlock()
	return ch
}

func (m *Monitor) Unsubscribe(ch chan *Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.listeners {
		if l == ch {
			m.listeners = slices.Delete(m.listeners, i, i+1)
			close(ch)
			return
		}
	}
}
