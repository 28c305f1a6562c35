package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Executor sends a raw console command. *rcon.Admin satisfies it.
type Executor interface {
	Command(ctx context.Context, command string) error
}

type Scheduler struct {
	store  *Store
	exec   Executor
	cancel context.CancelFunc
	done   chan struct{}
}

func New(store *Store, exec Executor) *Scheduler {
	return &Scheduler{store: store, exec: exec}
}

func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for {
			// Wake on minute boundaries.
			now := time.Now()
			wait := time.Until(now.Truncate(time.Minute).Add(time.Minute))

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
				s.Tick(ctx, time.Now())
			}
		}
	}()

	log.Info().Str("module", "scheduler").Msg("scheduler started")
}

func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

// Tick runs every enabled schedule matching now and returns how many ran.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	schedules, err := s.store.enabled(ctx)
	if err != nil {
		log.Error().Str("module", "scheduler").Err(err).Msg("query schedules")
		return 0
	}

	ran := 0
	for _, sc := range schedules {
		cron, err := ParseCron(sc.CronExpr)
		if err != nil {
			log.Warn().Str("module", "scheduler").Str("schedule", sc.ID).Err(err).Msg("invalid cron expression")
			continue
		}
		if !cron.Matches(now) {
			continue
		}

		log.Info().Str("module", "scheduler").Str("schedule", sc.ID).Str("command", sc.Command).Msg("running")
		if err := s.exec.Command(ctx, sc.Command); err != nil {
			log.Error().Str("module", "scheduler").Str("schedule", sc.ID).Err(err).Msg("command failed")
			continue
		}
		ran++
		if err := s.store.markRun(ctx, sc.ID, now.UTC()); err != nil {
			log.Error().Str("module", "scheduler").Str("schedule", sc.ID).Err(err).Msg("update last_run")
		}
	}
	return ran
}
