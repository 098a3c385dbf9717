package framework

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/bootstrap"
	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
)

// FrameworkContext carries per-request dependencies into a handler.
type FrameworkContext struct {
	Service     *bootstrap.Service
	Logger      *slog.Logger
	ExecutionID string
}

// HandlerFunc is the signature for an HTTP function handler.
// A nil result with a nil error writes 204.
type HandlerFunc func(ctx context.Context, r *http.Request, fwCtx *FrameworkContext) (interface{}, error)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// WrapHandler wraps a handler with execution logging and JSON encoding of
// both results and errors.
func WrapHandler(serviceName string, svc *bootstrap.Service, handler HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		execID := uuid.NewString()

		base := svc.Logger
		if base == nil {
			base = slog.Default()
		}
		logger := base.With("service", serviceName, "execution_id", execID)

		start := time.Now()
		logger.Info("Function started", "method", r.Method, "path", r.URL.Path)

		outputs, handlerErr := handler(r.Context(), r, &FrameworkContext{
			Service:     svc,
			Logger:      logger,
			ExecutionID: execID,
		})

		w.Header().Set("X-Execution-Id", execID)

		if handlerErr != nil {
			status := StatusFor(handlerErr)
			if status >= http.StatusInternalServerError {
				logger.Error("Function failed", "error", handlerErr, "status", status, "duration_ms", time.Since(start).Milliseconds())
			} else {
				logger.Warn("Request rejected", "error", handlerErr, "status", status, "duration_ms", time.Since(start).Milliseconds())
			}
			WriteJSON(w, status, errorBody(handlerErr))
			return
		}

		logger.Info("Function completed successfully", "duration_ms", time.Since(start).Milliseconds())
		if outputs == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		WriteJSON(w, http.StatusOK, outputs)
	}
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(err error) int {
	code := apperrors.CodeInternalError
	var dErr *apperrors.DiaryError
	if errors.As(err, &dErr) {
		code = dErr.Code
	}
	switch code {
	case apperrors.CodeCatalogParse, apperrors.CodeValidationError, apperrors.CodeValueTypeMismatch, apperrors.CodeAttributeNotFound:
		return http.StatusBadRequest
	case apperrors.CodeArchetypeNotFound:
		return http.StatusNotFound
	case apperrors.CodeSelectionInvalid, apperrors.CodeCatalogInvalid:
		return http.StatusUnprocessableEntity
	case apperrors.CodeStorageError, apperrors.CodePubSubError:
		return http.StatusBadGateway
	case apperrors.CodeCatalogSource:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) ErrorBody {
	var dErr *apperrors.DiaryError
	if errors.As(err, &dErr) {
		return ErrorBody{Error: ErrorDetail{
			Code:      string(dErr.Code),
			Message:   dErr.Message,
			Retryable: dErr.Retryable,
			Metadata:  dErr.Metadata,
		}}
	}
	// Unknown errors may carry internals; keep them in the log only.
	return ErrorBody{Error: ErrorDetail{
		Code:    string(apperrors.ErrInternal.Code),
		Message: apperrors.ErrInternal.Message,
	}}
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
