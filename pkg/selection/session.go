// Package selection tracks one user's in-progress exercise choice: the
// search query, muscle-group filter, chosen archetype and attribute
// values. Every decision is delegated to the engine; derived state is
// recomputed after each mutation.
//
// A Session is not safe for concurrent use. Create one per user flow or
// per request and never share it.
package selection

import (
	"fmt"
	"slices"
	"strings"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/engine"
	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
)

// maxSuggestions bounds the "did you mean" list.
const maxSuggestions = 5

// Result is the finalized selection handed to the exercise builder.
type Result struct {
	ArchetypeKey string             `json:"archetypeKey" yaml:"archetypeKey"`
	Attributes   catalog.Attributes `json:"attributes" yaml:"attributes"`
	PreviewName  string             `json:"previewName" yaml:"previewName"`
}

// Session is the mutable selection state plus its derived view.
type Session struct {
	engine *engine.Engine

	query     string
	filter    string
	archetype *catalog.Archetype
	values    catalog.Attributes

	results     []catalog.Archetype
	suggestions []engine.Suggestion
	allowed     map[string][]string
	validation  engine.Validation
	preview     string
}

// New starts an empty session over eng.
func New(eng *engine.Engine) *Session {
	s := &Session{
		engine: eng,
		values: catalog.Attributes{},
	}
	s.refresh()
	return s
}

// SetQuery replaces the free-text search query.
func (s *Session) SetQuery(query string) {
	s.query = query
	s.refresh()
}

// SetFilter restricts results to one primary muscle group; "" clears it.
func (s *Session) SetFilter(group string) {
	s.filter = group
	s.refresh()
}

// SelectArchetype chooses the archetype and resets the attribute values
// to the defaults of its allowed attributes.
func (s *Session) SelectArchetype(key string) error {
	a, ok := s.engine.Catalog().Archetype(key)
	if !ok {
		return apperrors.ErrArchetypeNotFound.
			WithMessage(fmt.Sprintf("archetype %q not found", key)).
			WithMetadata("archetype", key)
	}

	s.archetype = &a
	s.values = catalog.Attributes{}
	for _, attrKey := range a.AllowedAttributes {
		def, known := s.engine.Catalog().Attribute(attrKey)
		if !known {
			continue
		}
		if v, ok := def.DefaultValue(); ok {
			s.values[attrKey] = v
		}
	}
	s.refresh()
	return nil
}

// Pick sets an attribute value.
func (s *Session) Pick(key string, value catalog.Value) {
	s.values[key] = value
	s.refresh()
}

// Toggle removes the attribute when it already holds value, otherwise sets it.
func (s *Session) Toggle(key string, value catalog.Value) {
	if current, ok := s.values[key]; ok && current.Equal(value) {
		delete(s.values, key)
	} else {
		s.values[key] = value
	}
	s.refresh()
}

// Unset removes an attribute value.
func (s *Session) Unset(key string) {
	delete(s.values, key)
	s.refresh()
}

// Clear drops the archetype, the values, the query and the filter.
func (s *Session) Clear() {
	s.query = ""
	s.filter = ""
	s.archetype = nil
	s.values = catalog.Attributes{}
	s.refresh()
}

func (s *Session) refresh() {
	s.results = s.engine.Filter(s.query, s.filter)

	s.suggestions = nil
	if len(s.results) == 0 && strings.TrimSpace(s.query) != "" {
		s.suggestions = s.engine.Suggest(s.query, maxSuggestions)
	}

	s.allowed = map[string][]string{}
	if s.archetype == nil {
		s.validation = s.engine.IsCombinationValid("", s.values)
		s.preview = ""
		return
	}
	for _, key := range s.archetype.AllowedAttributes {
		s.allowed[key] = s.engine.AllowedValues(key, s.archetype, s.values)
	}
	s.validation = s.engine.IsCombinationValid(s.archetype.Key, s.values)
	s.preview = s.engine.BuildDisplayName(s.archetype.Key, s.values)
}

func (s *Session) Query() string  { return s.query }
func (s *Session) Filter() string { return s.filter }

// Archetype returns the chosen archetype, if any.
func (s *Session) Archetype() (catalog.Archetype, bool) {
	if s.archetype == nil {
		return catalog.Archetype{}, false
	}
	return *s.archetype, true
}

// Values returns a copy of the current attribute values.
func (s *Session) Values() catalog.Attributes {
	return s.values.Clone()
}

// Results are the archetypes matching the query and filter.
func (s *Session) Results() []catalog.Archetype {
	return append([]catalog.Archetype(nil), s.results...)
}

// Suggestions are offered only when a non-empty query matched nothing.
func (s *Session) Suggestions() []engine.Suggestion {
	return append([]engine.Suggestion(nil), s.suggestions...)
}

// Allowed returns the permitted values of key under the current
// selection. Keys outside the archetype's allowed attributes are resolved
// on demand.
func (s *Session) Allowed(key string) []string {
	if vals, ok := s.allowed[key]; ok {
		return append([]string(nil), vals...)
	}
	return s.engine.AllowedValues(key, s.archetype, s.values)
}

// AllowedAll returns the permitted values of every allowed attribute of
// the chosen archetype. It is empty before an archetype is selected.
func (s *Session) AllowedAll() map[string][]string {
	out := make(map[string][]string, len(s.allowed))
	for k, v := range s.allowed {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (s *Session) Validation() engine.Validation {
	v := s.validation
	v.Reasons = slices.Clone(v.Reasons)
	v.Messages = slices.Clone(v.Messages)
	return v
}

// PreviewName is the display name of the current selection, or "" before
// an archetype is chosen.
func (s *Session) PreviewName() string { return s.preview }

// CanFinalize reports whether an archetype is chosen and the combination is valid.
func (s *Session) CanFinalize() bool {
	return s.archetype != nil && s.validation.OK
}

// Finalize returns the validated selection. An incomplete or invalid
// selection yields a SELECTION_INVALID error listing every reason.
func (s *Session) Finalize() (Result, error) {
	if s.archetype == nil {
		return Result{}, apperrors.ErrSelectionInvalid.WithMessage("no archetype selected")
	}
	if !s.validation.OK {
		return Result{}, apperrors.ErrSelectionInvalid.
			WithMessage(strings.Join(s.validation.Reasons, "; ")).
			WithMetadata("archetype", s.archetype.Key)
	}
	return Result{
		ArchetypeKey: s.archetype.Key,
		Attributes:   s.values.Clone(),
		PreviewName:  s.preview,
	}, nil
}
