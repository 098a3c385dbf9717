// Package exercise turns a finalized selection into an exercise draft
// with an identifier and a default prescription. It performs no storage.
package exercise

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/muktihari/fit/profile/typedef"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/selection"
)

// Defaults is the prescription given to every new exercise.
type Defaults struct {
	Sets        int
	Reps        int
	WeightKg    float64
	RestSeconds int
}

// DefaultPrescription is 3 sets of 10 reps at 0 kg with 90 s rest.
var DefaultPrescription = Defaults{Sets: 3, Reps: 10, WeightKg: 0, RestSeconds: 90}

// Set is one planned working set.
type Set struct {
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weightKg"`
}

// Exercise is a draft ready to be persisted by the caller.
type Exercise struct {
	ID           string
	ArchetypeKey string
	Name         string
	PrimaryGroup string
	Attributes   catalog.Attributes
	Category     typedef.ExerciseCategory
	Sets         []Set
	RestSeconds  int
	CreatedAt    *timestamppb.Timestamp
}

// MarshalJSON renders the FIT category by name and the creation time as RFC 3339.
func (e *Exercise) MarshalJSON() ([]byte, error) {
	var created string
	if e.CreatedAt != nil {
		created = e.CreatedAt.AsTime().UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(struct {
		ID           string             `json:"id"`
		ArchetypeKey string             `json:"archetypeKey"`
		Name         string             `json:"name"`
		PrimaryGroup string             `json:"primaryGroup,omitempty"`
		Attributes   catalog.Attributes `json:"attributes"`
		Category     string             `json:"fitCategory"`
		Sets         []Set              `json:"sets"`
		RestSeconds  int                `json:"restSeconds"`
		CreatedAt    string             `json:"createdAt"`
	}{
		ID:           e.ID,
		ArchetypeKey: e.ArchetypeKey,
		Name:         e.Name,
		PrimaryGroup: e.PrimaryGroup,
		Attributes:   e.Attributes,
		Category:     e.Category.String(),
		Sets:         e.Sets,
		RestSeconds:  e.RestSeconds,
		CreatedAt:    created,
	})
}

// Builder creates exercises from finalized selections.
type Builder struct {
	Catalog  *catalog.Catalog
	Defaults Defaults

	// Overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// NewBuilder returns a Builder using DefaultPrescription.
func NewBuilder(c *catalog.Catalog) *Builder {
	return &Builder{
		Catalog:  c,
		Defaults: DefaultPrescription,
		Now:      time.Now,
		NewID:    uuid.NewString,
	}
}

// Build creates the exercise for res. The archetype must exist in the
// builder's catalog when one is configured.
func (b *Builder) Build(res selection.Result) (*Exercise, error) {
	if res.ArchetypeKey == "" {
		return nil, apperrors.ErrValidation.WithMessage("selection has no archetype")
	}

	var primaryGroup string
	if b.Catalog != nil {
		a, ok := b.Catalog.Archetype(res.ArchetypeKey)
		if !ok {
			return nil, apperrors.ErrArchetypeNotFound.
				WithMessage(fmt.Sprintf("archetype %q not found", res.ArchetypeKey)).
				WithMetadata("archetype", res.ArchetypeKey)
		}
		primaryGroup = a.PrimaryGroup
	}

	d := b.Defaults
	if d.Sets < 0 || d.Reps < 0 || d.WeightKg < 0 || d.RestSeconds < 0 {
		return nil, apperrors.ErrValidation.WithMessage("exercise defaults must not be negative")
	}

	sets := make([]Set, d.Sets)
	for i := range sets {
		sets[i] = Set{Reps: d.Reps, WeightKg: d.WeightKg}
	}

	now, newID := b.Now, b.NewID
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}

	name := res.PreviewName
	if name == "" {
		name = res.ArchetypeKey
	}

	return &Exercise{
		ID:           newID(),
		ArchetypeKey: res.ArchetypeKey,
		Name:         name,
		PrimaryGroup: primaryGroup,
		Attributes:   res.Attributes.Clone(),
		Category:     CategoryFor(res.ArchetypeKey),
		Sets:         sets,
		RestSeconds:  d.RestSeconds,
		CreatedAt:    timestamppb.New(now()),
	}, nil
}
