package claimlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "claims.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDailyStatusEmpty(t *testing.T) {
	store := newTestStore(t)

	claimed, points, next, err := store.DailyStatus("pubkey1", time.Now())
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Empty(t, points)
	assert.Empty(t, next)
}

func TestMarkClaimAndStatus(t *testing.T) {
	store := newTestStore(t)
	day := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.MarkClaim("pubkey1", day, "100", "2026-08-30T10:00:00Z"))

	claimed, points, next, err := store.DailyStatus("pubkey1", day)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, "100", points)
	assert.Equal(t, "2026-08-30T10:00:00Z", next)

	// Different day is a fresh row.
	claimed, _, _, err = store.DailyStatus("pubkey1", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestSetNextEligibleDoesNotMarkClaimed(t *testing.T) {
	store := newTestStore(t)
	day := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.SetNextEligible("pubkey1", day, "2026-08-29T18:00:00Z"))

	claimed, _, next, err := store.DailyStatus("pubkey1", day)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, "2026-08-29T18:00:00Z", next)

	// A later claim upgrades the same row.
	require.NoError(t, store.MarkClaim("pubkey1", day, "50", "2026-08-30T18:00:00Z"))
	claimed, points, next, err := store.DailyStatus("pubkey1", day)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, "50", points)
	assert.Equal(t, "2026-08-30T18:00:00Z", next)
}

func TestKeysAreTrimmed(t *testing.T) {
	store := newTestStore(t)
	day := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.MarkClaim("  pubkey1  ", day, "10", ""))

	claimed, _, _, err := store.DailyStatus("pubkey1", day)
	require.NoError(t, err)
	assert.True(t, claimed)
}
