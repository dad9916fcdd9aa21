package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"house-price-api/internal/common/config"
)

func setupCache(t *testing.T) (*PredictionCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewPredictionCache(rdb, "prediction:", "model-a", time.Minute), mr
}

func TestPredictionCache_MissThenHit(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()
	vec := []float64{2500, 4, 3, 2, 2005, 0, 1, 0, 0, 1, 0, 1}

	_, hit, err := cache.Get(ctx, vec)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, vec, 412345.678))

	got, hit, err := cache.Get(ctx, vec)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 412345.678, got)

	assert.True(t, mr.Exists(cache.Key(vec)))
	assert.Equal(t, time.Minute, mr.TTL(cache.Key(vec)))

	mr.FastForward(2 * time.Minute)
	_, hit, err = cache.Get(ctx, vec)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPredictionCache_Key(t *testing.T) {
	cache, _ := setupCache(t)

	a := cache.Key([]float64{1, 2, 3})
	assert.Equal(t, a, cache.Key([]float64{1, 2, 3}))
	assert.NotEqual(t, a, cache.Key([]float64{3, 2, 1}))
	assert.NotEqual(t, a, cache.Key([]float64{1, 2, 3, 0}))
	assert.Regexp(t, `^prediction:model-a:[0-9a-f]{64}$`, a)
}

func TestPredictionCache_SeparatesModels(t *testing.T) {
	oldCache, mr := setupCache(t)
	ctx := context.Background()
	vec := make([]float64, 12)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	newCache := NewPredictionCache(rdb, "prediction:", "model-b", time.Minute)

	require.NoError(t, oldCache.Set(ctx, vec, 100))
	assert.NotEqual(t, oldCache.Key(vec), newCache.Key(vec))

	_, hit, err := newCache.Get(ctx, vec)
	require.NoError(t, err)
	assert.False(t, hit, "a different model must not see another model's prices")

	require.NoError(t, newCache.Set(ctx, vec, 999))
	got, _, err := oldCache.Get(ctx, vec)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)
	got, _, err = newCache.Get(ctx, vec)
	require.NoError(t, err)
	assert.Equal(t, 999.0, got)
}

func TestPredictionCache_CorruptEntry(t *testing.T) {
	cache, mr := setupCache(t)
	vec := []float64{1}
	require.NoError(t, mr.Set(cache.Key(vec), "not-a-number"))

	_, hit, err := cache.Get(context.Background(), vec)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestPredictionCache_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	cache := NewPredictionCache(rdb, "prediction:", "model-a", time.Minute)
	mr.Close()

	_, _, err = cache.Get(context.Background(), []float64{1})
	assert.Error(t, err)
	assert.Error(t, cache.Set(context.Background(), []float64{1}, 2))
}

func TestNewRedis(t *testing.T) {
	_, err := NewRedis(config.CacheConfig{})
	assert.Error(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedis(config.CacheConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()))
}

func TestAuditLog_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO prediction_log`).
		WithArgs(
			sqlmock.AnyArg(), // id (UUID)
			"req-1",
			[]byte(`{"Area":2500}`),
			250000.5,
			"1.0.0",
			false,
			created,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	audit := NewAuditLog(db)
	id, err := audit.Record(context.Background(), AuditEntry{
		RequestID:    "req-1",
		Features:     map[string]float64{"Area": 2500},
		Predicted:    250000.5,
		ModelVersion: "1.0.0",
		CreatedAt:    created,
	})
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLog_RecordFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO prediction_log`).
		WillReturnError(errors.New("connection refused"))

	_, err = NewAuditLog(db).Record(context.Background(), AuditEntry{RequestID: "req-2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuditInsertFailed)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLog_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS prediction_log`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, NewAuditLog(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
