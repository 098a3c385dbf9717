// Package catalogapi serves the exercise catalog over HTTP: browsing,
// allowed-value resolution, validation, display names and exercise
// creation with handoff to downstream consumers.
package catalogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/bootstrap"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/engine"
	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/exercise"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/framework"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/selection"
)

const serviceName = "catalog-api"

// maxBodyBytes caps request bodies; selections are a few hundred bytes.
const maxBodyBytes = 64 << 10

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error

	router     http.Handler
	routerOnce sync.Once
)

func init() {
	functions.HTTP("CatalogAPI", CatalogAPI)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx, serviceName)
		if svcErr != nil {
			slog.Error("Failed to initialize service", "error", svcErr)
		}
	})
	return svc, svcErr
}

// CatalogAPI is the HTTP entry point.
func CatalogAPI(w http.ResponseWriter, r *http.Request) {
	s, err := initService(r.Context())
	if err != nil {
		slog.Error("Service init failed", "error", err)
		http.Error(w, fmt.Sprintf("service init failed: %v", err), http.StatusInternalServerError)
		return
	}
	routerOnce.Do(func() {
		router = NewRouter(s)
	})
	router.ServeHTTP(w, r)
}

// NewRouter wires every route against s.
func NewRouter(s *bootstrap.Service) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /muscle-groups", framework.WrapHandler(serviceName, s, muscleGroupsHandler))
	mux.HandleFunc("GET /attributes", framework.WrapHandler(serviceName, s, attributesHandler))
	mux.HandleFunc("GET /archetypes", framework.WrapHandler(serviceName, s, archetypesHandler))
	mux.HandleFunc("POST /allowed-values", framework.WrapHandler(serviceName, s, allowedValuesHandler))
	mux.HandleFunc("POST /validate", framework.WrapHandler(serviceName, s, validateHandler))
	mux.HandleFunc("POST /display-name", framework.WrapHandler(serviceName, s, displayNameHandler))
	mux.HandleFunc("POST /exercises", framework.WrapHandler(serviceName, s, createExerciseHandler))
	return mux
}

// SelectionRequest is the body of every POST route. Attribute values may
// be strings or booleans; they are typed through the catalog.
type SelectionRequest struct {
	Archetype  string         `json:"archetype"`
	Attributes map[string]any `json:"attributes"`
	Attribute  string         `json:"attribute,omitempty"`
	IncludeFIT bool           `json:"includeFit,omitempty"`
}

type MuscleGroupsResponse struct {
	MuscleGroups []string            `json:"muscleGroups"`
	Subgroups    map[string][]string `json:"subgroups"`
}

type ArchetypesResponse struct {
	Archetypes  []catalog.Archetype `json:"archetypes"`
	Suggestions []engine.Suggestion `json:"suggestions,omitempty"`
}

type AllowedValuesResponse struct {
	Archetype string              `json:"archetype"`
	Allowed   map[string][]string `json:"allowed"`
}

type DisplayNameResponse struct {
	Name string `json:"name"`
}

type CreateExerciseResponse struct {
	Exercise  *exercise.Exercise `json:"exercise"`
	MessageID string             `json:"messageId"`
	FIT       []byte             `json:"fit,omitempty"`
}

func muscleGroupsHandler(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
	c := fwCtx.Service.Catalog
	return MuscleGroupsResponse{
		MuscleGroups: fwCtx.Service.Engine.MuscleGroups(),
		Subgroups:    c.Taxonomy(),
	}, nil
}

func attributesHandler(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
	return fwCtx.Service.Engine.Attributes(), nil
}

func archetypesHandler(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
	session := selection.New(fwCtx.Service.Engine)
	session.SetQuery(r.URL.Query().Get("q"))
	session.SetFilter(r.URL.Query().Get("group"))

	results := session.Results()
	if results == nil {
		results = []catalog.Archetype{}
	}
	return ArchetypesResponse{
		Archetypes:  results,
		Suggestions: session.Suggestions(),
	}, nil
}

func allowedValuesHandler(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
	req, attrs, err := decodeSelection(r, fwCtx.Service.Catalog)
	if err != nil {
		return nil, err
	}

	eng := fwCtx.Service.Engine
	var archetype *catalog.Archetype
	if a, ok := fwCtx.Service.Catalog.Archetype(req.Archetype); ok {
		archetype = &a
	}

	if req.Attribute != "" {
		if _, ok := fwCtx.Service.Catalog.Attribute(req.Attribute); !ok {
			return nil, apperrors.ErrAttributeNotFound.
				WithMessage(fmt.Sprintf("attribute %q is not in the catalog", req.Attribute)).
				WithMetadata("attribute", req.Attribute)
		}
	}

	allowed := map[string][]string{}
	switch {
	case req.Attribute != "":
		allowed[req.Attribute] = eng.AllowedValues(req.Attribute, archetype, attrs)
	case archetype != nil:
		for _, key := range archetype.AllowedAttributes {
			allowed[key] = eng.AllowedValues(key, archetype, attrs)
		}
	}

	return AllowedValuesResponse{Archetype: req.Archetype, Allowed: allowed}, nil
}

func validateHandler(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
	req, attrs, err := decodeSelection(r, fwCtx.Service.Catalog)
	if err != nil {
		return nil, err
	}
	return fwCtx.Service.Engine.IsCombinationValid(req.Archetype, attrs), nil
}

func displayNameHandler(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
	req, attrs, err := decodeSelection(r, fwCtx.Service.Catalog)
	if err != nil {
		return nil, err
	}
	return DisplayNameResponse{Name: fwCtx.Service.Engine.BuildDisplayName(req.Archetype, attrs)}, nil
}

// createExerciseHandler starts from the archetype defaults, applies the
// requested values, and publishes the exercise once the selection is valid.
func createExerciseHandler(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
	req, attrs, err := decodeSelection(r, fwCtx.Service.Catalog)
	if err != nil {
		return nil, err
	}

	session := selection.New(fwCtx.Service.Engine)
	if err := session.SelectArchetype(req.Archetype); err != nil {
		return nil, err
	}
	for _, key := range attrs.Keys() {
		session.Pick(key, attrs[key])
	}

	result, err := session.Finalize()
	if err != nil {
		return nil, err
	}

	ex, err := fwCtx.Service.Builder.Build(result)
	if err != nil {
		return nil, err
	}

	msgID, err := fwCtx.Service.PublishExerciseCreated(ctx, ex)
	if err != nil {
		return nil, err
	}
	fwCtx.Logger.Info("Exercise created", "exercise_id", ex.ID, "archetype", ex.ArchetypeKey, "message_id", msgID)

	resp := CreateExerciseResponse{Exercise: ex, MessageID: msgID}
	if req.IncludeFIT {
		fit, err := exercise.EncodeFIT(ex, time.Now())
		if err != nil {
			return nil, apperrors.ErrInternal.WithMessage("encode FIT workout").WithCause(err)
		}
		resp.FIT = fit
	}
	return resp, nil
}

func decodeSelection(r *http.Request, c *catalog.Catalog) (SelectionRequest, catalog.Attributes, error) {
	var req SelectionRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return req, nil, apperrors.ErrValidation.WithMessage("read request body").WithCause(err)
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return req, nil, apperrors.ErrValidation.WithMessage("request body is not valid JSON").WithCause(err)
		}
	}

	attrs, err := c.CoerceAll(req.Attributes)
	if err != nil {
		return req, nil, err
	}
	return req, attrs, nil
}
