package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleTxns() []TransactionRecord {
	return []TransactionRecord{
		{ID: "t1", UserID: "u1", VendorName: "Netflix", Amount: "15.49", Date: "2024-01-01"},
		{ID: "t2", UserID: "u1", VendorName: "Netflix", Amount: "15.49", Date: "2024-02-01"},
		{ID: "t3", UserID: "u2", VendorName: "Spotify", Amount: "9.99", Date: "2024-01-15"},
	}
}

func TestStorage_SaveAndListTransactions(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveTransactions(sampleTxns()))

	all, err := s.ListTransactions(TransactionFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	u1, err := s.ListTransactions(TransactionFilters{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, u1, 2)
	// Ordered by date within user.
	assert.Equal(t, "t1", u1[0].ID)
	assert.Equal(t, "t2", u1[1].ID)
}

func TestStorage_SaveTransactions_UpsertsByID(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveTransactions(sampleTxns()))

	update := []TransactionRecord{
		{ID: "t1", UserID: "u1", VendorName: "NETFLIX.COM", Amount: "16.49", Date: "2024-01-01"},
	}
	require.NoError(t, s.SaveTransactions(update))

	got, err := s.GetTransaction("t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "16.49", got.Amount)

	all, err := s.ListTransactions(TransactionFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStorage_GetTransaction_Missing(t *testing.T) {
	s := newTestStorage(t)

	got, err := s.GetTransaction("nope")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStorage_RunLifecycle(t *testing.T) {
	s := newTestStorage(t)

	runID, err := s.StartRun(4)
	require.NoError(t, err)

	run, err := s.GetRun(runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 4, run.Workers)
	assert.Nil(t, run.CompletedAt)

	require.NoError(t, s.CompleteRun(runID, 100, 2, 1234))

	run, err = s.GetRun(runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.NotNil(t, run.CompletedAt)
	assert.Equal(t, 100, run.TxnCount)
	assert.Equal(t, 2, run.ErrorCount)
	assert.Equal(t, int64(1234), run.DurationMs)
}

func TestStorage_SaveAndGetFeatures(t *testing.T) {
	s := newTestStorage(t)
	runID, err := s.StartRun(1)
	require.NoError(t, err)

	records := []FeatureRecord{
		{RunID: runID, TxnID: "t1", Features: map[string]float64{"is_recurring": 1, "amount": 15.49}},
	}
	require.NoError(t, s.SaveFeatures(records))

	got, err := s.GetFeatures(runID, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1.0, got.Features["is_recurring"])
	assert.Equal(t, 15.49, got.Features["amount"])

	missing, err := s.GetFeatures(runID, "t9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStorage_ListRuns_NewestFirst(t *testing.T) {
	s := newTestStorage(t)
	first, err := s.StartRun(1)
	require.NoError(t, err)
	second, err := s.StartRun(2)
	require.NoError(t, err)

	runs, err := s.ListRuns(10)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)
}

func TestStorage_GetStats(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveTransactions(sampleTxns()))
	_, err := s.StartRun(1)
	require.NoError(t, err)

	stats, err := s.GetStats()

	require.NoError(t, err)
	assert.Equal(t, 3, stats.TransactionCount)
	assert.Equal(t, 2, stats.UserCount)
	assert.Equal(t, 1, stats.RunCount)
	assert.NotNil(t, stats.LastRunAt)
}

func TestStorage_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := NewStorage(path)
	require.NoError(t, err)
	require.NoError(t, s1.SaveTransactions(sampleTxns()))
	require.NoError(t, s1.Close())

	// Re-opening runs migrations again; already-applied versions are skipped.
	s2, err := NewStorage(path)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	all, err := s2.ListTransactions(TransactionFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
