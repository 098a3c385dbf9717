package framework

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/bootstrap"
	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
)

func newTestService(buf *bytes.Buffer) *bootstrap.Service {
	return bootstrap.NewServiceWith(nil, nil, nil, slog.New(slog.NewJSONHandler(buf, nil)))
}

func TestWrapHandler_Success(t *testing.T) {
	var logs bytes.Buffer
	svc := newTestService(&logs)

	handler := func(ctx context.Context, r *http.Request, fwCtx *FrameworkContext) (interface{}, error) {
		if fwCtx.Service != svc {
			t.Error("Service not injected correctly")
		}
		if fwCtx.ExecutionID == "" {
			t.Error("ExecutionID not generated")
		}
		return map[string]string{"status": "ok"}, nil
	}

	rec := httptest.NewRecorder()
	WrapHandler("test-service", svc, handler)(rec, httptest.NewRequest(http.MethodGet, "/muscle-groups", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Execution-Id") == "" {
		t.Error("missing execution id header")
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if !strings.Contains(logs.String(), "Function completed successfully") {
		t.Errorf("expected completion log, got %s", logs.String())
	}
}

func TestWrapHandler_NoContent(t *testing.T) {
	svc := newTestService(&bytes.Buffer{})
	handler := func(ctx context.Context, r *http.Request, fwCtx *FrameworkContext) (interface{}, error) {
		return nil, nil
	}

	rec := httptest.NewRecorder()
	WrapHandler("test-service", svc, handler)(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestWrapHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   ErrorBody
	}{
		{
			name:       "diary error keeps code and metadata",
			err:        apperrors.ErrArchetypeNotFound.WithMessage(`archetype "nope" not found`).WithMetadata("archetype", "nope"),
			wantStatus: http.StatusNotFound,
			wantBody: ErrorBody{Error: ErrorDetail{
				Code:     "ARCHETYPE_NOT_FOUND",
				Message:  `archetype "nope" not found`,
				Metadata: map[string]string{"archetype": "nope"},
			}},
		},
		{
			name:       "wrapped diary error",
			err:        fmt.Errorf("finalize: %w", apperrors.ErrSelectionInvalid.WithMessage("Invalid archetype")),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   ErrorBody{Error: ErrorDetail{Code: "SELECTION_INVALID", Message: "Invalid archetype"}},
		},
		{
			name:       "retryable infrastructure error",
			err:        apperrors.ErrPubSubError,
			wantStatus: http.StatusBadGateway,
			wantBody:   ErrorBody{Error: ErrorDetail{Code: "PUBSUB_ERROR", Message: "pubsub error", Retryable: true}},
		},
		{
			name:       "unknown error hides internals",
			err:        errors.New("connection string leaked"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   ErrorBody{Error: ErrorDetail{Code: "INTERNAL_ERROR", Message: "internal error"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&bytes.Buffer{})
			handler := func(ctx context.Context, r *http.Request, fwCtx *FrameworkContext) (interface{}, error) {
				return nil, tt.err
			}

			rec := httptest.NewRecorder()
			WrapHandler("test-service", svc, handler)(rec, httptest.NewRequest(http.MethodPost, "/validate", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var got ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if diff := cmp.Diff(tt.wantBody, got); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[apperrors.ErrorCode]int{
		apperrors.CodeCatalogParse:      http.StatusBadRequest,
		apperrors.CodeValidationError:   http.StatusBadRequest,
		apperrors.CodeValueTypeMismatch: http.StatusBadRequest,
		apperrors.CodeAttributeNotFound: http.StatusBadRequest,
		apperrors.CodeArchetypeNotFound: http.StatusNotFound,
		apperrors.CodeSelectionInvalid:  http.StatusUnprocessableEntity,
		apperrors.CodeCatalogInvalid:    http.StatusUnprocessableEntity,
		apperrors.CodeStorageError:      http.StatusBadGateway,
		apperrors.CodeCatalogSource:     http.StatusServiceUnavailable,
		apperrors.CodeInternalError:     http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := StatusFor(apperrors.New(code, "x")); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}
