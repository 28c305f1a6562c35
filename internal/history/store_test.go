package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reedfamily/reedcon/internal/db"
	"github.com/reedfamily/reedcon/internal/rcon"
)

const (
	uidOne = "ab6b9fa2-9ed8-434a-a2b6-bce11743372a"
	uidTwo = "0f8fad5b-d9cb-469f-a165-70867728950e"
)

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(database))

	clock := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(database)
	s.now = func() time.Time { return clock }
	return s, &clock
}

func TestStore_LookupLatestUID(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRoster(ctx, []rcon.Player{{Number: 1, UID: uidOne, Name: "Shared"}}))
	*clock = clock.Add(time.Hour)
	require.NoError(t, s.RecordRoster(ctx, []rcon.Player{{Number: 2, UID: uidTwo, Name: "Shared"}}))

	uid, err := s.LookupLatestUID(ctx, "Shared")
	require.NoError(t, err)
	assert.Equal(t, uidTwo, uid, "most recent connection wins")

	*clock = clock.Add(time.Hour)
	require.NoError(t, s.RecordRoster(ctx, []rcon.Player{{Number: 1, UID: uidOne, Name: "Shared"}}))
	uid, err = s.LookupLatestUID(ctx, "Shared")
	require.NoError(t, err)
	assert.Equal(t, uidOne, uid)
}

func TestStore_LookupLatestUID_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.LookupLatestUID(context.Background(), "Ghost")

	assert.ErrorIs(t, err, rcon.ErrNotFound)
}

func TestStore_Names(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRoster(ctx, []rcon.Player{{Number: 1, UID: uidOne, Name: "OldName"}}))
	first := *clock
	*clock = clock.Add(24 * time.Hour)
	require.NoError(t, s.RecordRoster(ctx, []rcon.Player{{Number: 1, UID: uidOne, Name: "NewName"}}))
	*clock = clock.Add(time.Hour)
	require.NoError(t, s.RecordRoster(ctx, []rcon.Player{{Number: 1, UID: uidOne, Name: "NewName"}}))

	aliases, err := s.Names(ctx, uidOne)
	require.NoError(t, err)
	require.Len(t, aliases, 2)
	assert.Equal(t, "NewName", aliases[0].Name)
	assert.True(t, aliases[0].LastSeen.Equal(*clock))
	assert.Equal(t, "OldName", aliases[1].Name)
	assert.True(t, aliases[1].FirstSeen.Equal(first))

	none, err := s.Names(ctx, uidTwo)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_Actions(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	for i, outcome := range []Outcome{OutcomeOK, OutcomeTimeout, OutcomeFailed} {
		*clock = clock.Add(time.Minute)
		a := &Action{Kind: "ban", Target: fmt.Sprintf("t%d", i), Actor: "admin", Outcome: outcome}
		require.NoError(t, s.RecordAction(ctx, a))
		assert.NotEmpty(t, a.ID)
	}

	actions, err := s.Actions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "t2", actions[0].Target)
	assert.Equal(t, OutcomeFailed, actions[0].Outcome)
	assert.Equal(t, OutcomeTimeout, actions[1].Outcome)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeOK, OutcomeOf(nil))
	assert.Equal(t, OutcomeTimeout, OutcomeOf(&rcon.TimeoutError{Op: "ban", After: time.Second}))
	assert.Equal(t, OutcomeFailed, OutcomeOf(&rcon.TransportError{Command: "#kick 1", Err: rcon.ErrNotConnected}))
}
