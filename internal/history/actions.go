package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reedfamily/reedcon/internal/rcon"
)

// Outcome of an administrative action as far as this process can tell.
type Outcome string

const (
	OutcomeOK Outcome = "ok"
	// OutcomeTimeout means the server never confirmed; the action may still
	// have been applied.
	OutcomeTimeout Outcome = "timeout"
	OutcomeFailed  Outcome = "failed"
)

// OutcomeOf classifies the error returned by an rcon workflow.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, rcon.ErrTimeout):
		return OutcomeTimeout
	default:
		return OutcomeFailed
	}
}

// Action is one audited ban, unban or kick.
type Action struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Target    string    `json:"target"`
	UID       string    `json:"uid,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordAction stores a and fills in its ID and timestamp when unset.
func (s *Store) RecordAction(ctx context.Context, a *Action) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admin_actions (id, kind, target, uid, actor, outcome, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Kind, a.Target, a.UID, a.Actor, string(a.Outcome), a.Detail, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}

// Actions returns the most recent actions, newest first.
func (s *Store) Actions(ctx context.Context, limit int) ([]Action, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, target, uid, actor, outcome, detail, created_at
		FROM admin_actions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	actions := []Action{}
	for rows.Next() {
		var a Action
		var outcome string
		if err := rows.Scan(&a.ID, &a.Kind, &a.Target, &a.UID, &a.Actor, &outcome, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		a.Outcome = Outcome(outcome)
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
