package http

import (
	"encoding/json"
	"github.com/beldeveloper/go-errors-context"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
	"log/slog"
	"net/http"
)

// SetDefaultHeaders sets the basic set of headers to the response.
func SetDefaultHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Accept,Authorization,Accept-Language,Content-Type,Content-Language,X-Hub-Signature-256")
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusCode maps the error kind to the HTTP status. Incomplete targets are reported as absent.
func statusCode(err error) int {
	switch {
	case errors.Is(err, errtype.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errtype.ErrNotFound), errors.Is(err, errtype.ErrConfiguration):
		return http.StatusNotFound
	case errors.Is(err, errtype.ErrBadInput):
		return http.StatusBadRequest
	case errors.Is(err, errtype.ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func apiError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	} else {
		logger.Info("request rejected", "status", code, "error", err)
	}
	apiResponse(w, logger, code, errorResponse{Error: http.StatusText(code)})
}

func apiSuccess(w http.ResponseWriter, logger *slog.Logger, data interface{}) {
	apiResponse(w, logger, http.StatusOK, data)
}

func apiAccepted(w http.ResponseWriter, logger *slog.Logger, data interface{}) {
	apiResponse(w, logger, http.StatusAccepted, data)
}

func apiResponse(w http.ResponseWriter, logger *slog.Logger, code int, data interface{}) {
	SetDefaultHeaders(w)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("response is not written", "error", err)
	}
}
