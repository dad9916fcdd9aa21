package http

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"house-price-api/internal/common/config"
	apperrors "house-price-api/internal/common/errors"
	"house-price-api/internal/common/logger"
	"house-price-api/internal/common/metrics"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(mark("a"), mark("b"), mark("c"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "c", "handler"}, order)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-123", seen)
	assert.Equal(t, "client-123", rec.Header().Get(RequestIDHeader))
}

func TestRecovery_WritesInternalError(t *testing.T) {
	log := logger.NewTestLogger(t)
	h := Recovery(log, apperrors.NewErrorHandler(log))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperrors.ErrCodeInternal, body.Code)
	assert.NotEmpty(t, body.Error)
}

func TestMaxBytes(t *testing.T) {
	h := MaxBytes(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("much longer than eight")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouteOf(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict", func(http.ResponseWriter, *http.Request) {})
	route := RouteOf(mux)

	assert.Equal(t, "POST /predict", route(httptest.NewRequest(http.MethodPost, "/predict", nil)))
	assert.Equal(t, "unmatched", route(httptest.NewRequest(http.MethodGet, "/nope", nil)))
}

func TestServer_StartStop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		apperrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	srv := NewServer(config.ServerConfig{
		Host:            "127.0.0.1",
		ReadTimeout:     1000,
		WriteTimeout:    1000,
		ShutdownTimeout: 1000,
		MaxBodyBytes:    1024,
	}, mux, logger.NewTestLogger(t))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	require.NoError(t, srv.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_PanicIsLoggedAndCounted(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := logger.NewZapAdapter(zap.New(core))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	h := NewServer(config.ServerConfig{MaxBodyBytes: 1024}, mux, log).Handler()

	requests := metrics.HTTPRequests.WithLabelValues("GET /boom", http.MethodGet, "500")
	errs := metrics.HTTPErrors.WithLabelValues("GET /boom", string(apperrors.ErrCodeInternal))
	beforeReq, beforeErr := testutil.ToFloat64(requests), testutil.ToFloat64(errs)

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	assert.Equal(t, beforeReq+1, testutil.ToFloat64(requests))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(errs))

	served := logs.FilterMessage("request served").All()
	require.Len(t, served, 1)
	assert.EqualValues(t, http.StatusInternalServerError, served[0].ContextMap()["status"])
	assert.Len(t, logs.FilterMessage("panic recovered").All(), 1)
}
