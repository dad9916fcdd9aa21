package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"house-price-api/internal/common/config"
	apphttp "house-price-api/internal/common/http"
	"house-price-api/internal/common/logger"
	pp "house-price-api/internal/endpoints/prediction/predict-price"
	hc "house-price-api/internal/endpoints/system/health-check"
	"house-price-api/internal/model"
)

func newTestServer(t *testing.T, handle *model.Handle) http.Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	predict, err := pp.NewHandler(pp.HandlerOptions{Deps: pp.ServiceDependencies{Model: handle, Logger: log}})
	require.NoError(t, err)

	mux := newMux(routes{predict: predict, health: hc.NewHandler(handle, log)})
	return apphttp.NewServer(config.ServerConfig{MaxBodyBytes: 1 << 20}, mux, log).Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_LoadedModel(t *testing.T) {
	w := make([]float64, 12)
	w[0] = 150
	lr, err := model.NewLinearRegression(w, 10000)
	require.NoError(t, err)
	h := newTestServer(t, model.NewHandle(lr, model.Info{}))

	rec := do(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"House Price Prediction API is running!"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(apphttp.RequestIDHeader))

	rec = do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPost, "/predict", `{"Area": 1000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 160000.0, out["predicted_price"])

	rec = do(h, http.MethodPost, "/predict", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)

	rec = do(h, http.MethodGet, "/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "predictions_total")
}

func TestRoutes_FailedModel(t *testing.T) {
	h := newTestServer(t, model.Failed(nil, model.Info{}))

	rec := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)

	rec = do(h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(h, http.MethodPost, "/predict", `{"Area": 1000}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "MODEL_UNAVAILABLE")

	rec = do(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
