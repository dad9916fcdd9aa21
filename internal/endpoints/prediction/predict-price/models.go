package predictprice

import (
	"context"

	"house-price-api/internal/common/database"
	"house-price-api/internal/common/logger"
	"house-price-api/internal/common/observability"
	"house-price-api/internal/common/validation"
	"house-price-api/internal/model"
)

// Input is the decoded request body. Only schema fields are read.
type Input map[string]interface{}

type Output struct {
	PredictedPrice float64 `json:"predicted_price"`
}

// Cache is satisfied by *database.PredictionCache.
type Cache interface {
	Get(ctx context.Context, vec []float64) (float64, bool, error)
	Set(ctx context.Context, vec []float64, price float64) error
}

// AuditLog is satisfied by *database.AuditLog.
type AuditLog interface {
	Record(ctx context.Context, e database.AuditEntry) (string, error)
}

// ServiceDependencies are wired once in main. Cache, Audit, Validator and
// Observability are optional.
type ServiceDependencies struct {
	Model         *model.Handle
	Logger        logger.Logger
	Cache         Cache
	Audit         AuditLog
	Validator     *validation.RecordValidator
	Observability *observability.Observability
}
