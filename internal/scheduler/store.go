package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("schedule not found")
	ErrInvalidSchedule = errors.New("invalid schedule")
)

// Schedule runs a raw console command whenever CronExpr matches.
type Schedule struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CronExpr  string     `json:"cron_expr"`
	Command   string     `json:"command"`
	Enabled   bool       `json:"enabled"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Name     *string `json:"name"`
	CronExpr *string `json:"cron_expr"`
	Command  *string `json:"command"`
	Enabled  *bool   `json:"enabled"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func validate(s *Schedule) error {
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.CronExpr) == "" || strings.TrimSpace(s.Command) == "" {
		return fmt.Errorf("%w: name, cron_expr and command required", ErrInvalidSchedule)
	}
	if _, err := ParseCron(s.CronExpr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	return nil
}

const selectSchedule = `SELECT id, name, cron_expr, command, enabled, last_run, created_at FROM schedules`

type scanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row scanner) (Schedule, error) {
	var s Schedule
	var enabled int
	var lastRun sql.NullTime
	if err := row.Scan(&s.ID, &s.Name, &s.CronExpr, &s.Command, &enabled, &lastRun, &s.CreatedAt); err != nil {
		return Schedule{}, err
	}
	s.Enabled = enabled == 1
	if lastRun.Valid {
		t := lastRun.Time
		s.LastRun = &t
	}
	return s, nil
}

func (st *Store) List(ctx context.Context) ([]Schedule, error) {
	rows, err := st.db.QueryContext(ctx, selectSchedule+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	schedules := []Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (st *Store) Get(ctx context.Context, id string) (Schedule, error) {
	s, err := scanSchedule(st.db.QueryRowContext(ctx, selectSchedule+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Schedule{}, ErrNotFound
	}
	if err != nil {
		return Schedule{}, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

// Create stores a new, enabled schedule.
func (st *Store) Create(ctx context.Context, name, cronExpr, command string) (Schedule, error) {
	s := Schedule{
		ID:        uuid.New().String()[:8],
		Name:      strings.TrimSpace(name),
		CronExpr:  strings.TrimSpace(cronExpr),
		Command:   strings.TrimSpace(command),
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	}
	if err := validate(&s); err != nil {
		return Schedule{}, err
	}
	_, err := st.db.ExecContext(ctx,
		`INSERT INTO schedules (id, name, cron_expr, command, enabled, created_at) VALUES (?, ?, ?, ?, 1, ?)`,
		s.ID, s.Name, s.CronExpr, s.Command, s.CreatedAt,
	)
	if err != nil {
		return Schedule{}, fmt.Errorf("create schedule: %w", err)
	}
	return s, nil
}

func (st *Store) Update(ctx context.Context, id string, p Patch) (Schedule, error) {
	s, err := st.Get(ctx, id)
	if err != nil {
		return Schedule{}, err
	}
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.CronExpr != nil {
		s.CronExpr = strings.TrimSpace(*p.CronExpr)
	}
	if p.Command != nil {
		s.Command = strings.TrimSpace(*p.Command)
	}
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if err := validate(&s); err != nil {
		return Schedule{}, err
	}

	enabled := 0
	if s.Enabled {
		enabled = 1
	}
	_, err = st.db.ExecContext(ctx,
		`UPDATE schedules SET name = ?, cron_expr = ?, command = ?, enabled = ? WHERE id = ?`,
		s.Name, s.CronExpr, s.Command, enabled, id,
	)
	if err != nil {
		return Schedule{}, fmt.Errorf("update schedule: %w", err)
	}
	return s, nil
}

func (st *Store) Delete(ctx context.Context, id string) error {
	result, err := st.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (st *Store) enabled(ctx context.Context) ([]Schedule, error) {
	rows, err := st.db.QueryContext(ctx, selectSchedule+` WHERE enabled = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (st *Store) markRun(ctx context.Context, id string, at time.Time) error {
	_, err := st.db.ExecContext(ctx, `UPDATE schedules SET last_run = ? WHERE id = ?`, at, id)
	return err
}
