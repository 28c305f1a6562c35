package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/reedfamily/reedcon/internal/rcon"
)

// Store is the player connection history: which display names were seen
// with which UID, and when.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Alias is one display name a UID was seen with.
type Alias struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// LookupLatestUID returns the UID most recently seen with name. It returns an
// error wrapping rcon.ErrNotFound when the name was never seen.
func (s *Store) LookupLatestUID(ctx context.Context, name string) (string, error) {
	var uid string
	err := s.db.QueryRowContext(ctx,
		`SELECT player_id
		FROM player_connections
		WHERE player_name = ?
		ORDER BY timestamp_last_connection DESC
		LIMIT 1`, name,
	).Scan(&uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("no connection history for %q: %w", name, rcon.ErrNotFound)
		}
		return "", fmt.Errorf("query player history: %w", err)
	}
	return uid, nil
}

// RecordRoster upserts every (uid, name) pair of a roster snapshot.
func (s *Store) RecordRoster(ctx context.Context, players []rcon.Player) error {
	if len(players) == 0 {
		return nil
	}
	at := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO player_connections (player_id, player_name, timestamp_first_connection, timestamp_last_connection)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(player_id, player_name) DO UPDATE SET timestamp_last_connection = excluded.timestamp_last_connection`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range players {
		if _, err := stmt.ExecContext(ctx, p.UID, p.Name, at, at); err != nil {
			return fmt.Errorf("record %s: %w", p.UID, err)
		}
	}
	return tx.Commit()
}

// Names returns every display name seen with uid, most recent first.
func (s *Store) Names(ctx context.Context, uid string) ([]Alias, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, player_name, timestamp_first_connection, timestamp_last_connection
		FROM player_connections
		WHERE player_id = ?
		ORDER BY timestamp_last_connection DESC`, uid,
	)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer rows.Close()

	aliases := []Alias{}
	for rows.Next() {
		var a Alias
		if err := rows.Scan(&a.UID, &a.Name, &a.FirstSeen, &a.LastSeen); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}
