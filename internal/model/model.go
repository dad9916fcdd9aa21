// Package model holds the process-wide, read-only regression model.
package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	apperrors "house-price-api/internal/common/errors"
	"house-price-api/internal/common/metrics"
)

var (
	ErrNotLoaded    = errors.New("model not loaded")
	ErrVectorLength = errors.New("feature vector length mismatch")
	ErrNonFinite    = errors.New("model produced a non-finite prediction")
)

// Predictor is a fitted regression model. Implementations must not mutate
// themselves in Predict so one instance can serve concurrent requests.
type Predictor interface {
	Predict(features []float64) (float64, error)
	NumFeatures() int
}

// Info describes the loaded artifact for logs and the health endpoint.
type Info struct {
	Name      string    `json:"name,omitempty"`
	Version   string    `json:"version,omitempty"`
	ModelType string    `json:"modelType"`
	Path      string    `json:"path"`
	Digest    string    `json:"digest,omitempty"`
	LoadedAt  time.Time `json:"loadedAt"`
}

// ID identifies the exact parameters being served: the artifact digest when
// known, otherwise name@version.
func (i Info) ID() string {
	if i.Digest != "" {
		return i.Digest
	}
	return i.Name + "@" + i.Version
}

// Handle is either usable (predictor set) or failed (err set). It is built
// once at startup and never reassigned.
type Handle struct {
	predictor Predictor
	info      Info
	err       error
}

// NewHandle wraps an already constructed predictor.
func NewHandle(p Predictor, info Info) *Handle {
	if p == nil {
		return Failed(ErrNotLoaded, info)
	}
	return &Handle{predictor: p, info: info}
}

// Failed returns a handle that reports err on every call.
func Failed(err error, info Info) *Handle {
	if err == nil {
		err = ErrNotLoaded
	}
	return &Handle{err: err, info: info}
}

// Ready reports whether predictions can be served.
func (h *Handle) Ready() bool {
	return h != nil && h.predictor != nil
}

// Err returns the load error of a failed handle, nil when ready.
func (h *Handle) Err() error {
	if h == nil {
		return ErrNotLoaded
	}
	return h.err
}

// Info returns artifact metadata.
func (h *Handle) Info() Info {
	if h == nil {
		return Info{}
	}
	return h.info
}

// NumFeatures is the vector width the model expects, 0 when not ready.
func (h *Handle) NumFeatures() int {
	if !h.Ready() {
		return 0
	}
	return h.predictor.NumFeatures()
}

// Predict runs one inference. Failures come back as *errors.StandardError with
// MODEL_UNAVAILABLE or INFERENCE_ERROR; a panic inside the predictor is
// converted rather than propagated.
func (h *Handle) Predict(ctx context.Context, vec []float64) (price float64, err error) {
	if !h.Ready() {
		return 0, apperrors.NewModelUnavailableError(h.Err())
	}
	if err := ctx.Err(); err != nil {
		return 0, apperrors.NewInferenceError(err)
	}
	if n := h.predictor.NumFeatures(); n > 0 && len(vec) != n {
		return 0, apperrors.NewInferenceError(fmt.Errorf("%w: got %d, want %d", ErrVectorLength, len(vec), n))
	}

	defer func() {
		if r := recover(); r != nil {
			price = 0
			err = apperrors.NewInferenceError(fmt.Errorf("predictor panic: %v", r))
		}
	}()

	start := time.Now()
	out, perr := h.predictor.Predict(vec)
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	if perr != nil {
		return 0, apperrors.NewInferenceError(perr)
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, apperrors.NewInferenceError(ErrNonFinite)
	}
	return out, nil
}
