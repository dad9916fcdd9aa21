package predictprice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"house-price-api/internal/common/config"
	apperrors "house-price-api/internal/common/errors"
	"house-price-api/internal/common/logger"
)

const Route = "POST /predict"

type Handler struct {
	config     *Config
	logger     logger.Logger
	service    *Service
	errHandler *apperrors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Deps         ServiceDependencies
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.CustomConfig
	if cfg == nil {
		cfg = ConfigFromAppConfig(opts.AppConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for predict-price: %w", err)
	}
	if opts.Deps.Model == nil {
		return nil, errors.New("predict-price requires a model handle")
	}

	log := opts.Deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"endpoint": "predict-price"})
	opts.Deps.Logger = log

	return &Handler{
		config:     cfg,
		logger:     log,
		service:    NewService(opts.Deps, cfg),
		errHandler: apperrors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()
	r = r.WithContext(ctx)

	input, err := decodeInput(r.Body)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}

	output, err := h.service.Execute(ctx, input)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, output)
}

// decodeInput requires exactly one JSON object. Numbers stay json.Number so
// large integers are not rounded before coercion.
func decodeInput(body io.Reader) (Input, error) {
	if body == nil {
		return nil, apperrors.NewMalformedRequestError("No input data provided")
	}
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil, apperrors.NewMalformedRequestError("No input data provided")
		case errors.As(err, &tooLarge):
			return nil, apperrors.NewMalformedRequestError(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		default:
			return nil, apperrors.NewMalformedRequestError("request body is not valid JSON: " + err.Error())
		}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, apperrors.NewMalformedRequestError("request body must contain a single JSON object")
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, apperrors.NewMalformedRequestError("request body must be a JSON object")
	}
	return Input(obj), nil
}
