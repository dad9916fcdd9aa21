// Package healthcheck reports whether the model artifact loaded.
package healthcheck

import (
	"net/http"
	"time"

	apperrors "house-price-api/internal/common/errors"
	"house-price-api/internal/common/logger"
	"house-price-api/internal/model"
)

const (
	HealthRoute = "GET /health"
	ReadyRoute  = "GET /ready"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ReadyResponse struct {
	Status string      `json:"status"`
	Model  *model.Info `json:"model,omitempty"`
	Uptime string      `json:"uptime"`
}

type Handler struct {
	model   *model.Handle
	logger  logger.Logger
	started time.Time
}

func NewHandler(handle *model.Handle, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{
		model:   handle,
		logger:  log.WithFields(map[string]interface{}{"endpoint": "health-check"}),
		started: time.Now(),
	}
}

// Health is 200 when the model is usable and 500 with the load error otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.model.Ready() {
		reason := "unknown error"
		if err := h.model.Err(); err != nil {
			reason = err.Error()
		}
		logger.ForRequest(r.Context(), h.logger).Warn("health check failed", map[string]interface{}{"reason": reason})
		apperrors.WriteJSON(w, http.StatusInternalServerError, HealthResponse{
			Status:  "error",
			Message: "Model failed to load: " + reason,
		})
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Message: "Model is loaded.",
	})
}

// Ready is the orchestration probe: 503 keeps traffic away from a pod that
// cannot predict.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Uptime: time.Since(h.started).Round(time.Second).String()}
	if !h.model.Ready() {
		resp.Status = "not_ready"
		apperrors.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	info := h.model.Info()
	resp.Status = "ready"
	resp.Model = &info
	apperrors.WriteJSON(w, http.StatusOK, resp)
}

// Register mounts both routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(HealthRoute, h.Health)
	mux.HandleFunc(ReadyRoute, h.Ready)
}
