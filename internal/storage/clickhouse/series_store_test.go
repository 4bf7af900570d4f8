package clickhouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/storage"
	"brent-regime-lab/internal/storage/clickhouse"
)

func chDay(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestSeriesStore_InsertAndGetByDigest(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewSeriesStore(conn)
	ctx := context.Background()

	points := []domain.PricePoint{
		{Date: chDay(1), Price: 50.12},
		{Date: chDay(2), Price: 51.34},
		{Date: chDay(3), Price: 49.56},
	}
	require.NoError(t, store.InsertBulk(ctx, "digest-series-01", points))

	got, err := store.GetByDigest(ctx, "digest-series-01")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.True(t, got[0].Date.Equal(chDay(1)))
	assert.True(t, got[2].Date.Equal(chDay(3)))
	assert.InDelta(t, 50.12, got[0].Price, 1e-9)
}

func TestSeriesStore_GetByDateRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewSeriesStore(conn)
	ctx := context.Background()

	points := []domain.PricePoint{
		{Date: chDay(1), Price: 50},
		{Date: chDay(2), Price: 51},
		{Date: chDay(3), Price: 52},
		{Date: chDay(4), Price: 53},
	}
	require.NoError(t, store.InsertBulk(ctx, "digest-range-01", points))

	got, err := store.GetByDateRange(ctx, "digest-range-01", chDay(2), chDay(3))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Equal(chDay(2)))
	assert.True(t, got[1].Date.Equal(chDay(3)))
}

func TestSeriesStore_DuplicateDigestRejected(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewSeriesStore(conn)
	ctx := context.Background()

	points := []domain.PricePoint{{Date: chDay(1), Price: 50}}
	require.NoError(t, store.InsertBulk(ctx, "digest-dup-01", points))

	err := store.InsertBulk(ctx, "digest-dup-01", points)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSeriesStore_IntraBatchDuplicateRejected(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewSeriesStore(conn)
	ctx := context.Background()

	points := []domain.PricePoint{
		{Date: chDay(1), Price: 50},
		{Date: chDay(1), Price: 51},
	}
	err := store.InsertBulk(ctx, "digest-dup-02", points)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSeriesStore_GetMissingDigest(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewSeriesStore(conn)

	_, err := store.GetByDigest(context.Background(), "digest-missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
