package rcon

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds every wait for a server confirmation.
const DefaultTimeout = 15 * time.Second

// Resolver maps a display name to the UID it was last seen with.
// It returns an error wrapping ErrNotFound when the name is unknown.
type Resolver interface {
	LookupLatestUID(ctx context.Context, name string) (string, error)
}

type BanResult struct {
	UID     string `json:"uid"`
	Target  string `json:"target"`
	Kicked  bool   `json:"kicked"`
	Session int    `json:"session,omitempty"`
}

type UnbanResult struct {
	UID    string `json:"uid"`
	Target string `json:"target"`
}

// Admin composes the dispatcher and correlator into administrative
// workflows. It never retries; retry policy belongs to the caller.
type Admin struct {
	dispatcher *Dispatcher
	correlator *Correlator
	resolver   Resolver
	timeout    time.Duration

	// Ban confirmations embed the identifier, so only bans of the same
	// identifier need to be serialized. Unban confirmations carry nothing.
	bans    keyedMutex
	unbanMu sync.Mutex
	roster  singleflight.Group
}

func NewAdmin(c *Client, resolver Resolver, timeout time.Duration) *Admin {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Admin{
		dispatcher: c.Dispatcher(),
		correlator: c.Correlator(),
		resolver:   resolver,
		timeout:    timeout,
	}
}

// Ban bans target for the given number of hours and, once the server has
// confirmed, kicks the player's session if it is still connected. A failed
// kick is logged and does not undo the ban.
//
// A *TimeoutError means the server did not confirm in time; the ban may
// nevertheless have been applied. Once the target is resolved the result
// carries the UID even on failure.
func (a *Admin) Ban(ctx context.Context, target string, hours int, reason string) (BanResult, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return BanResult{}, fmt.Errorf("%w: empty ban target", ErrInvalidArgument)
	}
	if hours < 0 {
		return BanResult{}, fmt.Errorf("%w: negative ban duration %d", ErrInvalidArgument, hours)
	}

	uid, err := a.resolve(ctx, target)
	if err != nil {
		return BanResult{}, err
	}

	unlock := a.bans.Lock(uid)
	defer unlock()

	cmd := banCommand(uid, int64(hours)*3600, reason)
	if _, err := a.exchange(ctx, "ban", cmd, Contains(banConfirmation(uid))); err != nil {
		return BanResult{UID: uid, Target: target}, err
	}
	log.Info().Str("module", "rcon.admin").Str("uid", uid).Str("target", target).Int("hours", hours).Msg("ban confirmed")

	res := BanResult{UID: uid, Target: target}
	if session, ok := a.kickResidual(ctx, uid); ok {
		res.Kicked = true
		res.Session = session
	}
	return res, nil
}

// Unban lifts the ban on target. Unbans are serialized: the server's
// confirmation does not name the player, so two unbans in flight could not be
// told apart.
func (a *Admin) Unban(ctx context.Context, target string) (UnbanResult, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return UnbanResult{}, fmt.Errorf("%w: empty unban target", ErrInvalidArgument)
	}

	uid, err := a.resolve(ctx, target)
	if err != nil {
		return UnbanResult{}, err
	}

	a.unbanMu.Lock()
	defer a.unbanMu.Unlock()

	if _, err := a.exchange(ctx, "unban", unbanCommand(uid), Contains(UnbanConfirmed)); err != nil {
		return UnbanResult{UID: uid, Target: target}, err
	}
	log.Info().Str("module", "rcon.admin").Str("uid", uid).Str("target", target).Msg("unban confirmed")
	return UnbanResult{UID: uid, Target: target}, nil
}

// Kick disconnects a session. The server sends no confirmation.
func (a *Admin) Kick(ctx context.Context, session int) error {
	if session < 0 {
		return fmt.Errorf("%w: negative session number %d", ErrInvalidArgument, session)
	}
	return a.dispatcher.Send(ctx, kickCommand(session))
}

// Command sends a raw console command without waiting for any reply.
func (a *Admin) Command(ctx context.Context, command string) error {
	return a.dispatcher.Send(ctx, command)
}

// Players queries the live roster. Concurrent callers share one round trip,
// so their identical roster expectations never race each other. It returns an
// empty slice and ErrEmptyRoster when nobody is connected.
func (a *Admin) Players(ctx context.Context) ([]Player, error) {
	ch := a.roster.DoChan("players", func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout+time.Second)
		defer cancel()
		text, err := a.exchange(shared, "players", PlayersCommand, HasPrefix(RosterBanner))
		if err != nil {
			return nil, err
		}
		return slices.Collect(ParseRoster(text)), nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		players, _ := res.Val.([]Player)
		if len(players) == 0 {
			return []Player{}, ErrEmptyRoster
		}
		return slices.Clone(players), nil
	}
}

// exchange registers the expectation, sends the command and waits for the
// confirmation. The expectation is removed on every path.
func (a *Admin) exchange(ctx context.Context, op, cmd string, match Predicate) (string, error) {
	exp := a.correlator.Expect(match)
	defer exp.Cancel()

	if err := a.dispatcher.Send(ctx, cmd); err != nil {
		return "", err
	}
	line, err := exp.Wait(ctx, a.timeout)
	if err != nil {
		var te *TimeoutError
		if errors.As(err, &te) {
			te.Op = op
			log.Warn().Str("module", "rcon.admin").Str("op", op).Str("command", cmd).
				Str("outcome", "ambiguous").Dur("after", a.timeout).
				Msg("no confirmation; the server may still have applied the command")
		}
		return "", err
	}
	return line, nil
}

// resolve returns target itself when it is UID-shaped, otherwise the UID the
// history store last saw for that display name.
func (a *Admin) resolve(ctx context.Context, target string) (string, error) {
	if IsUID(target) {
		return target, nil
	}
	if a.resolver == nil {
		return "", &ResolutionError{Name: target, Err: ErrNotFound}
	}
	uid, err := a.resolver.LookupLatestUID(ctx, target)
	if err != nil {
		return "", &ResolutionError{Name: target, Err: err}
	}
	if uid == "" {
		return "", &ResolutionError{Name: target, Err: ErrNotFound}
	}
	return uid, nil
}

// kickResidual kicks uid's live session, if any.
func (a *Admin) kickResidual(ctx context.Context, uid string) (int, bool) {
	players, err := a.Players(ctx)
	if err != nil {
		if !errors.Is(err, ErrEmptyRoster) {
			log.Warn().Str("module", "rcon.admin").Str("uid", uid).Err(err).Msg("roster after ban failed; residual session not checked")
		}
		return 0, false
	}
	for _, p := range players {
		if p.UID != uid {
			continue
		}
		if err := a.Kick(ctx, p.Number); err != nil {
			log.Warn().Str("module", "rcon.admin").Str("uid", uid).Int("session", p.Number).Err(err).Msg("kick after ban failed")
			return 0, false
		}
		return p.Number, true
	}
	return 0, false
}

// keyedMutex serializes work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
