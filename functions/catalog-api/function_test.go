package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/google/go-cmp/cmp"

	shared "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/bootstrap"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/engine"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/framework"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/testing/mocks"
)

func newTestRouter(t *testing.T, pub *mocks.MockPublisher) http.Handler {
	t.Helper()
	c, err := catalog.Parse(catalog.DefaultDocument())
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	cfg := &bootstrap.Config{ProjectID: "test", HandoffTopic: shared.TopicExerciseCreated}
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	return NewRouter(bootstrap.NewServiceWith(cfg, c, pub, logger))
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestMuscleGroups(t *testing.T) {
	h := newTestRouter(t, &mocks.MockPublisher{})
	rec := do(t, h, http.MethodGet, "/muscle-groups", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	got := decode[MuscleGroupsResponse](t, rec)
	want := []string{"chest", "back", "shoulders", "arms", "legs", "core"}
	if diff := cmp.Diff(want, got.MuscleGroups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"abs", "obliques"}, got.Subgroups["core"]); diff != "" {
		t.Errorf("core subgroups mismatch (-want +got):\n%s", diff)
	}
}

func TestAttributes(t *testing.T) {
	h := newTestRouter(t, &mocks.MockPublisher{})
	rec := do(t, h, http.MethodGet, "/attributes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	got := decode[[]catalog.AttributeDefinition](t, rec)
	if len(got) == 0 || got[0].Key != "style" {
		t.Fatalf("unexpected attributes %+v", got)
	}
	for _, def := range got {
		if def.Key == "uses_belt" && def.Type != catalog.AttributeBoolean {
			t.Errorf("uses_belt type = %q", def.Type)
		}
	}
}

func TestArchetypes(t *testing.T) {
	h := newTestRouter(t, &mocks.MockPublisher{})

	t.Run("query and group", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/archetypes?q=press&group=chest", nil)
		got := decode[ArchetypesResponse](t, rec)
		keys := make([]string, 0, len(got.Archetypes))
		for _, a := range got.Archetypes {
			keys = append(keys, a.Key)
		}
		if diff := cmp.Diff([]string{"bench_press"}, keys); diff != "" {
			t.Errorf("keys mismatch (-want +got):\n%s", diff)
		}
		if len(got.Suggestions) != 0 {
			t.Errorf("no suggestions expected when results exist, got %v", got.Suggestions)
		}
	})

	t.Run("typo yields suggestions", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/archetypes?q=benchpres", nil)
		got := decode[ArchetypesResponse](t, rec)
		if len(got.Archetypes) != 0 {
			t.Fatalf("expected no direct results, got %d", len(got.Archetypes))
		}
		if len(got.Suggestions) == 0 || got.Suggestions[0].Archetype.Key != "bench_press" {
			t.Errorf("expected bench_press suggestion first, got %+v", got.Suggestions)
		}
	})

	t.Run("empty query lists everything", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/archetypes", nil)
		got := decode[ArchetypesResponse](t, rec)
		if len(got.Archetypes) < 10 {
			t.Errorf("expected the whole catalog, got %d", len(got.Archetypes))
		}
	})
}

func TestAllowedValues(t *testing.T) {
	h := newTestRouter(t, &mocks.MockPublisher{})

	t.Run("single attribute", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/allowed-values", SelectionRequest{
			Archetype:  "bench_press",
			Attributes: map[string]any{"equipment": "barbell"},
			Attribute:  "grip_type",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		got := decode[AllowedValuesResponse](t, rec)
		if diff := cmp.Diff(map[string][]string{"grip_type": {"overhand", "underhand"}}, got.Allowed); diff != "" {
			t.Errorf("allowed mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("every allowed attribute", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/allowed-values", SelectionRequest{Archetype: "push_up"})
		got := decode[AllowedValuesResponse](t, rec)
		if diff := cmp.Diff([]string{"bodyweight", "resistance_band"}, got.Allowed["equipment"]); diff != "" {
			t.Errorf("equipment mismatch (-want +got):\n%s", diff)
		}
		if _, ok := got.Allowed["style"]; !ok {
			t.Errorf("expected style in %v", got.Allowed)
		}
	})

	t.Run("unknown archetype yields nothing", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/allowed-values", SelectionRequest{Archetype: "nope"})
		got := decode[AllowedValuesResponse](t, rec)
		if len(got.Allowed) != 0 {
			t.Errorf("expected empty map, got %v", got.Allowed)
		}
	})

	t.Run("unknown attribute is a bad request", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/allowed-values", SelectionRequest{Archetype: "bench_press", Attribute: "tempo"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		body := decode[framework.ErrorBody](t, rec)
		if body.Error.Code != "ATTRIBUTE_NOT_FOUND" || body.Error.Metadata["attribute"] != "tempo" {
			t.Errorf("unexpected error body %+v", body.Error)
		}
	})
}

func TestValidate(t *testing.T) {
	h := newTestRouter(t, &mocks.MockPublisher{})

	tests := []struct {
		name string
		req  SelectionRequest
		want engine.Validation
	}{
		{
			name: "valid",
			req:  SelectionRequest{Archetype: "bench_press", Attributes: map[string]any{"equipment": "dumbbell"}},
			want: engine.Validation{OK: true, Reasons: []string{}, Messages: []string{}},
		},
		{
			name: "missing requirement",
			req:  SelectionRequest{Archetype: "squat"},
			want: engine.Validation{
				Reasons:  []string{"Required attribute 'equipment' is missing"},
				Messages: []string{"Required attribute 'equipment' is missing"},
			},
		},
		{
			name: "custom message",
			req:  SelectionRequest{Archetype: "bench_press", Attributes: map[string]any{"equipment": "barbell", "is_single_arm": "yes"}},
			want: engine.Validation{
				Reasons:  []string{"Value 'yes' for 'is_single_arm' is denied"},
				Messages: []string{"Bars are lifted with both arms"},
			},
		},
		{
			name: "invalid archetype",
			req:  SelectionRequest{Archetype: "nope"},
			want: engine.Validation{
				Reasons:  []string{engine.ReasonInvalidArchetype},
				Messages: []string{engine.ReasonInvalidArchetype},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/validate", tt.req)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if diff := cmp.Diff(tt.want, decode[engine.Validation](t, rec)); diff != "" {
				t.Errorf("validation mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_BadInput(t *testing.T) {
	h := newTestRouter(t, &mocks.MockPublisher{})

	rec := do(t, h, http.MethodPost, "/validate", map[string]any{
		"archetype":  "squat",
		"attributes": map[string]any{"uses_belt": 3},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decode[framework.ErrorBody](t, rec)
	if body.Error.Code != "VALUE_TYPE_MISMATCH" {
		t.Errorf("code = %q", body.Error.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDisplayName(t *testing.T) {
	h := newTestRouter(t, &mocks.MockPublisher{})
	rec := do(t, h, http.MethodPost, "/display-name", SelectionRequest{
		Archetype:  "bench_press",
		Attributes: map[string]any{"equipment": "dumbbell", "bench_angle": "incline"},
	})
	got := decode[DisplayNameResponse](t, rec)
	if got.Name != "Dumbbell Incline Bench Press" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestCreateExercise(t *testing.T) {
	t.Run("publishes the built exercise", func(t *testing.T) {
		pub := &mocks.MockPublisher{}
		h := newTestRouter(t, pub)

		rec := do(t, h, http.MethodPost, "/exercises", SelectionRequest{
			Archetype:  "squat",
			Attributes: map[string]any{"equipment": "barbell", "uses_belt": true},
			IncludeFIT: true,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var got struct {
			Exercise struct {
				ArchetypeKey string            `json:"archetypeKey"`
				Name         string            `json:"name"`
				Attributes   map[string]any    `json:"attributes"`
				Sets         []json.RawMessage `json:"sets"`
			} `json:"exercise"`
			MessageID string `json:"messageId"`
			FIT       []byte `json:"fit"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if got.Exercise.ArchetypeKey != "squat" || got.Exercise.Name != "Barbell Squat" {
			t.Errorf("unexpected exercise %+v", got.Exercise)
		}
		// Archetype defaults are filled in before the requested values.
		if got.Exercise.Attributes["stance"] != "shoulder_width" || got.Exercise.Attributes["uses_belt"] != true {
			t.Errorf("unexpected attributes %v", got.Exercise.Attributes)
		}
		if len(got.Exercise.Sets) != 3 || got.MessageID != "msg-id" || len(got.FIT) == 0 {
			t.Errorf("unexpected response sets=%d id=%q fit=%d", len(got.Exercise.Sets), got.MessageID, len(got.FIT))
		}

		events := pub.Events()
		if len(events) != 1 {
			t.Fatalf("expected 1 published event, got %d", len(events))
		}
		var e event.Event = events[0].Event
		if events[0].Topic != shared.TopicExerciseCreated || e.Type() != shared.EventTypeExerciseCreated {
			t.Errorf("unexpected event %s on %s", e.Type(), events[0].Topic)
		}
	})

	t.Run("invalid selection is rejected without publishing", func(t *testing.T) {
		pub := &mocks.MockPublisher{}
		h := newTestRouter(t, pub)

		rec := do(t, h, http.MethodPost, "/exercises", SelectionRequest{
			Archetype:  "deadlift",
			Attributes: map[string]any{"equipment": "trap_bar", "variation": "sumo"},
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
		body := decode[framework.ErrorBody](t, rec)
		if body.Error.Code != "SELECTION_INVALID" || !strings.Contains(body.Error.Message, "Value 'sumo' for 'variation' is denied") {
			t.Errorf("unexpected error %+v", body.Error)
		}
		if len(pub.Events()) != 0 {
			t.Error("nothing should be published")
		}
	})

	t.Run("unknown archetype", func(t *testing.T) {
		h := newTestRouter(t, &mocks.MockPublisher{})
		rec := do(t, h, http.MethodPost, "/exercises", SelectionRequest{Archetype: "nope"})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("untyped publish failure is internal", func(t *testing.T) {
		pub := &mocks.MockPublisher{
			PublishCloudEventFunc: func(ctx context.Context, topic string, e event.Event) (string, error) {
				return "", errors.New("unavailable")
			},
		}
		h := newTestRouter(t, pub)
		rec := do(t, h, http.MethodPost, "/exercises", SelectionRequest{
			Archetype:  "plank",
			Attributes: map[string]any{},
		})
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500 for an untyped publish error", rec.Code)
		}
	})
}

func TestUnknownRoute(t *testing.T) {
	h := newTestRouter(t, &mocks.MockPublisher{})
	if rec := do(t, h, http.MethodGet, "/nothing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/validate", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}
