package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/testutil"
)

func TestOpenIsIdempotent(t *testing.T) {
	path := t.TempDir() + "/archive.db"
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open("sqlite://" + path)
	require.NoError(t, err)
	defer s2.Close()

	var mode string
	require.NoError(t, s2.DB().Get(&mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", mode)
}

func TestDriverFor(t *testing.T) {
	tests := []struct {
		dsn, driver, source string
	}{
		{"archive.db", DriverSQLite, "archive.db"},
		{"sqlite:///tmp/a.db", DriverSQLite, "/tmp/a.db"},
		{"postgres://u@localhost/db", DriverPostgres, "postgres://u@localhost/db"},
		{"postgresql://u@localhost/db", DriverPostgres, "postgresql://u@localhost/db"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			driver, source := driverFor(tt.dsn)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestNewRecord(t *testing.T) {
	raw, rec := fixtureRecord(t, testutil.NewEnvelope())

	assert.Equal(t, ir.DocumentHash(raw), rec.Interchange.ID)
	assert.Equal(t, "SUBMITTERID", rec.Interchange.SenderID)
	assert.Equal(t, int64(905), rec.Interchange.ControlNumber)
	assert.Equal(t, "T", rec.Interchange.Usage)
	assert.Equal(t, int64(len(raw)), rec.Interchange.Size)
	assert.Equal(t, 1, rec.Interchange.TransactionCount)

	require.Len(t, rec.Transactions, 1)
	tx := rec.Transactions[0]
	assert.Equal(t, "0001", tx.ControlNumber)
	assert.Equal(t, "837P", tx.TransactionSet)
	assert.Len(t, tx.GraphHash, 64)
	assert.Contains(t, tx.Graph, `"ClaimID":"PATIENT001"`)
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, WithClock(func() time.Time { return fixedTime }), WithRunIDs(fixedRunID))
	_, rec := fixtureRecord(t, testutil.NewEnvelope())

	stored, inserted, err := s.Put(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "01890a5d-ac96-774b-bcce-b302099a8057", stored.RunID)
	assert.Equal(t, "2024-03-05T09:30:00Z", stored.ArchivedAt)

	got, err := s.Get(ctx, rec.Interchange.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	txs, err := s.Transactions(ctx, rec.Interchange.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Transactions, txs)
}

func TestPutIsIdempotentOnContent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	_, rec := fixtureRecord(t, testutil.NewEnvelope())

	first, inserted, err := s.Put(ctx, rec)
	require.NoError(t, err)
	require.True(t, inserted)

	again, inserted, err := s.Put(ctx, rec)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.RunID, again.RunID, "existing row returned")

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	clock := fixedTime
	s := createTestStore(t, WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	var ids []string
	for _, control := range []int64{1, 2, 3} {
		env := testutil.NewEnvelope()
		env.Interchange = control
		_, rec := fixtureRecord(t, env)
		_, _, err := s.Put(ctx, rec)
		require.NoError(t, err)
		ids = append(ids, rec.Interchange.ID)
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, ic := range all {
		assert.Equal(t, ids[i], ic.ID)
		assert.Equal(t, int64(i+1), ic.ControlNumber)
	}

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, all[:2], two)
}

func TestFindGraphAcrossInterchanges(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	// Same transaction content under two envelopes.
	var hash string
	for _, control := range []int64{10, 11} {
		env := testutil.NewEnvelope()
		env.Interchange = control
		_, rec := fixtureRecord(t, env)
		hash = rec.Transactions[0].GraphHash
		_, _, err := s.Put(ctx, rec)
		require.NoError(t, err)
	}

	found, err := s.FindGraph(ctx, hash)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestGetNotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPutRejectsEmptyID(t *testing.T) {
	s := createTestStore(t)
	_, _, err := s.Put(context.Background(), Record{})
	assert.Error(t, err)
}
