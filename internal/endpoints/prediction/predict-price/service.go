package predictprice

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"house-price-api/internal/common/database"
	apperrors "house-price-api/internal/common/errors"
	"house-price-api/internal/common/logger"
	"house-price-api/internal/common/metrics"
	"house-price-api/internal/common/observability"
	"house-price-api/internal/common/validation"
	"house-price-api/internal/features"
	"house-price-api/internal/model"
)

type Service struct {
	config    *Config
	logger    logger.Logger
	model     *model.Handle
	assembler *features.Assembler
	cache     Cache
	audit     AuditLog
	validator *validation.RecordValidator
	obs       *observability.Observability
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	obs := deps.Observability
	if obs == nil {
		obs = &observability.Observability{}
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config:    config,
		logger:    log,
		model:     deps.Model,
		assembler: features.NewAssembler(features.HousePrice, config.MissingPolicy),
		cache:     deps.Cache,
		audit:     deps.Audit,
		validator: deps.Validator,
		obs:       obs,
	}
}

// Execute turns one Feature Record into a price. Errors are *errors.StandardError.
func (s *Service) Execute(ctx context.Context, input Input) (*Output, error) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "predict",
		attribute.String("missing_policy", s.config.MissingPolicy.String()),
		attribute.Int("fields", len(input)),
	)
	defer span.End()
	log := logger.ForRequest(ctx, s.logger)

	outcome := metrics.OutcomeFailed
	defer func() {
		metrics.PredictionsTotal.WithLabelValues(outcome).Inc()
		s.obs.RecordPrediction(ctx, outcome)
		s.obs.RecordPredictionDuration(ctx, time.Since(start), outcome)
		span.SetAttributes(attribute.String("outcome", outcome))
	}()

	if !s.model.Ready() {
		err := apperrors.NewModelUnavailableError(s.model.Err())
		span.SetStatus(codes.Error, err.Message)
		return nil, err
	}

	vec, err := s.assemble(input)
	if err != nil {
		outcome = metrics.OutcomeRejected
		span.SetStatus(codes.Error, "invalid input")
		return nil, err
	}
	if missing := s.assembler.Missing(features.Record(input)); len(missing) > 0 {
		log.Debug("defaulted missing features to 0", map[string]interface{}{"fields": missing})
	}

	if price, ok := s.lookup(ctx, log, vec); ok {
		outcome = metrics.OutcomeCacheHit
		s.record(ctx, log, vec, price, true)
		return &Output{PredictedPrice: price}, nil
	}

	price, err := s.model.Predict(ctx, vec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inference failed")
		return nil, err
	}
	outcome = metrics.OutcomeSuccess

	if s.cache != nil {
		if err := s.cache.Set(ctx, vec, price); err != nil {
			log.Warn("prediction cache write failed", map[string]interface{}{"error": err})
		}
	}
	s.record(ctx, log, vec, price, false)

	log.Info("prediction served", map[string]interface{}{
		"predictedPrice": price,
		"durationMs":     time.Since(start).Milliseconds(),
	})
	return &Output{PredictedPrice: price}, nil
}

func (s *Service) assemble(input Input) ([]float64, error) {
	if s.config.ValidateSchema && s.validator != nil {
		if err := s.validator.Check(input); err != nil {
			return nil, err
		}
	}
	return s.assembler.Assemble(features.Record(input))
}

// lookup treats any cache failure as a miss.
func (s *Service) lookup(ctx context.Context, log logger.Logger, vec []float64) (float64, bool) {
	if s.cache == nil {
		return 0, false
	}
	price, hit, err := s.cache.Get(ctx, vec)
	if err != nil {
		log.Warn("prediction cache read failed", map[string]interface{}{"error": err})
		return 0, false
	}
	return price, hit
}

// record writes the audit row. Failures are logged and never surface to the caller.
func (s *Service) record(ctx context.Context, log logger.Logger, vec []float64, price float64, cacheHit bool) {
	if s.audit == nil {
		return
	}
	names := s.assembler.Schema().Names
	fields := make(map[string]float64, len(names))
	for i, name := range names {
		fields[name] = vec[i]
	}
	_, err := s.audit.Record(ctx, database.AuditEntry{
		RequestID:    logger.RequestID(ctx),
		Features:     fields,
		Predicted:    price,
		ModelVersion: s.model.Info().Version,
		CacheHit:     cacheHit,
	})
	if err != nil {
		log.Warn("prediction audit write failed", map[string]interface{}{"error": err})
	}
}
