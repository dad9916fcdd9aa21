// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"house-price-api/internal/common/config"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

var ErrAuditInsertFailed = errors.New("AUDIT_INSERT_FAILED")

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

const createPredictionLog = `
	CREATE TABLE IF NOT EXISTS prediction_log (
		id            UUID PRIMARY KEY,
		request_id    TEXT NOT NULL,
		features      JSONB NOT NULL,
		predicted     DOUBLE PRECISION NOT NULL,
		model_version TEXT NOT NULL,
		cache_hit     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL
	)`

// AuditEntry is one served prediction.
type AuditEntry struct {
	RequestID    string
	Features     map[string]float64
	Predicted    float64
	ModelVersion string
	CacheHit     bool
	CreatedAt    time.Time
}

// AuditLog appends served predictions to the prediction_log table.
type AuditLog struct {
	db *sql.DB
}

func NewAuditLog(db *sql.DB) *AuditLog {
	return &AuditLog{db: db}
}

// EnsureSchema creates prediction_log when it does not exist.
func (a *AuditLog) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, createPredictionLog); err != nil {
		return fmt.Errorf("create prediction_log: %w", err)
	}
	return nil
}

// Record inserts e and returns the generated row id.
func (a *AuditLog) Record(ctx context.Context, e AuditEntry) (string, error) {
	featuresJSON, err := json.Marshal(e.Features)
	if err != nil {
		return "", fmt.Errorf("%w: marshal features: %v", ErrAuditInsertFailed, err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	id := uuid.New().String()
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO prediction_log (
			id, request_id, features, predicted, model_version, cache_hit, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id,
		e.RequestID,
		featuresJSON,
		e.Predicted,
		e.ModelVersion,
		e.CacheHit,
		e.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuditInsertFailed, err)
	}
	return id, nil
}
