package engine

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
)

// displayPriority is the order attribute values appear in a display name:
// style first, then equipment, then position and grip, then single-limb flags.
var displayPriority = []string{
	"style",
	"variation",
	"equipment",
	"bench_angle",
	"body_position",
	"grip_type",
	"grip_width",
	"stance",
	"is_single_arm",
	"is_single_leg",
}

var singleLimbFlags = map[string]bool{
	"is_single_arm": true,
	"is_single_leg": true,
}

const singleSideLabel = "Single Side"

// BuildDisplayName synthesizes the canonical exercise name, e.g.
// "Incline Dumbbell Bench Press". Only string values that differ from
// the attribute default are surfaced. An unknown archetype key is
// returned unchanged.
func (e *Engine) BuildDisplayName(archetypeKey string, attrs catalog.Attributes) string {
	archetype, ok := e.catalog.Archetype(archetypeKey)
	if !ok {
		return archetypeKey
	}

	// Casers are stateful and must not be shared between goroutines.
	title := cases.Title(language.English)

	parts := make([]string, 0, len(displayPriority)+1)
	for _, key := range displayPriority {
		v, present := attrs[key]
		if !present {
			continue
		}
		s, isString := v.AsString()
		if !isString || s == "" {
			continue
		}
		if def, known := e.catalog.Attribute(key); known && def.Default != nil && *def.Default == s {
			continue
		}
		if singleLimbFlags[key] {
			parts = append(parts, singleSideLabel)
			continue
		}
		parts = append(parts, title.String(strings.ReplaceAll(s, "_", " ")))
	}

	parts = append(parts, archetype.DisplayName)
	return strings.Join(parts, " ")
}
