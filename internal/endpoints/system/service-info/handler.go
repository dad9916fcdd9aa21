package serviceinfo

import (
	"net/http"

	apperrors "house-price-api/internal/common/errors"
)

// Route matches only the root path, not every unmatched path.
const Route = "GET /{$}"

const RunningMessage = "House Price Prediction API is running!"

type Response struct {
	Message string `json:"message"`
}

func Handler(w http.ResponseWriter, _ *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, Response{Message: RunningMessage})
}
