package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"

	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
)

// rawDocument mirrors the serialized catalog document. Pointer fields
// distinguish an absent section from an empty one.
type rawDocument struct {
	Version         string               `json:"version"`
	MuscleGroups    *[]string            `json:"muscleGroups"`
	MuscleSubgroups *map[string][]string `json:"muscleSubgroups"`
	Attributes      *[]rawAttribute      `json:"attributes"`
	Archetypes      *[]rawArchetype      `json:"archetypes"`
	Rules           *[]rawRule           `json:"rules"`
}

type rawAttribute struct {
	Key         string   `json:"key"`
	DisplayName *string  `json:"displayName"`
	Type        string   `json:"type"`
	Values      []string `json:"values"`
	Default     *string  `json:"default"`
}

type rawArchetype struct {
	Key                string    `json:"key"`
	DisplayName        string    `json:"displayName"`
	PrimaryGroup       *string   `json:"primaryGroup"`
	PrimarySubgroups   *[]string `json:"primarySubgroups"`
	SecondarySubgroups *[]string `json:"secondarySubgroups"`
	PrimaryMuscle      *string   `json:"primaryMuscle"`
	SecondaryMuscles   *[]string `json:"secondaryMuscles"`
	AllowedAttributes  *[]string `json:"allowedAttributes"`
}

type rawRule struct {
	Scope        string              `json:"scope"`
	Archetype    *string             `json:"archetype"`
	Target       *string             `json:"target"`
	If           map[string][]string `json:"if"`
	Allow        map[string][]string `json:"allow"`
	Deny         map[string][]string `json:"deny"`
	Require      []string            `json:"require"`
	ErrorMessage string              `json:"errorMessage"`
}

// Parse decodes a catalog document. Comments and trailing commas are
// accepted. Structural problems (missing required fields, type
// mismatches, duplicate keys, enum attributes without values or with a
// default outside their values, archetype-scoped rules without an
// archetype) are returned as errors; referential problems are left to
// Lint.
//
// Every section and field is required except version, the attribute
// values and default, and the rule archetype, target, if, allow, deny,
// require and errorMessage. A required list may be empty but not absent
// or null.
func Parse(data []byte) (*Catalog, error) {
	var doc rawDocument
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, apperrors.ErrCatalogParse.WithCause(err)
	}
	return build(doc)
}

func build(doc rawDocument) (*Catalog, error) {
	if missing := missingFields(
		field{"muscleGroups", doc.MuscleGroups == nil},
		field{"muscleSubgroups", doc.MuscleSubgroups == nil},
		field{"attributes", doc.Attributes == nil},
		field{"archetypes", doc.Archetypes == nil},
		field{"rules", doc.Rules == nil},
	); missing != "" {
		return nil, invalid("document: missing %s", missing)
	}

	c := Empty()
	c.version = doc.Version

	seenGroups := make(map[string]bool, len(*doc.MuscleGroups))
	for i, g := range *doc.MuscleGroups {
		if g == "" {
			return nil, invalid("muscleGroups[%d]: empty group name", i)
		}
		if seenGroups[g] {
			return nil, invalid("muscleGroups[%d]: duplicate group %q", i, g)
		}
		seenGroups[g] = true
		c.groups = append(c.groups, g)
	}
	for g, subs := range *doc.MuscleSubgroups {
		if subs == nil {
			return nil, invalid("muscleSubgroups.%s: missing subgroup list", g)
		}
		c.subgroups[g] = append([]string{}, subs...)
	}

	for i, ra := range *doc.Attributes {
		def, err := buildAttribute(i, ra)
		if err != nil {
			return nil, err
		}
		if _, dup := c.attrIndex[def.Key]; dup {
			return nil, invalid("attributes[%d]: duplicate key %q", i, def.Key)
		}
		c.attrIndex[def.Key] = len(c.attributes)
		c.attributes = append(c.attributes, def)
	}

	for i, ra := range *doc.Archetypes {
		a, err := buildArchetype(i, ra)
		if err != nil {
			return nil, err
		}
		if _, dup := c.archIndex[a.Key]; dup {
			return nil, invalid("archetypes[%d]: duplicate key %q", i, a.Key)
		}
		c.archIndex[a.Key] = len(c.archetypes)
		c.archetypes = append(c.archetypes, a)
	}

	for i, rr := range *doc.Rules {
		rule, err := buildRule(i, rr)
		if err != nil {
			return nil, err
		}
		c.rules = append(c.rules, rule)
	}

	return c, nil
}

func buildArchetype(i int, ra rawArchetype) (Archetype, error) {
	if ra.Key == "" {
		return Archetype{}, invalid("archetypes[%d]: missing key", i)
	}
	if ra.DisplayName == "" {
		return Archetype{}, invalid("archetypes[%d] (%s): missing displayName", i, ra.Key)
	}
	if missing := missingFields(
		field{"primaryGroup", ra.PrimaryGroup == nil},
		field{"primarySubgroups", ra.PrimarySubgroups == nil},
		field{"secondarySubgroups", ra.SecondarySubgroups == nil},
		field{"primaryMuscle", ra.PrimaryMuscle == nil},
		field{"secondaryMuscles", ra.SecondaryMuscles == nil},
		field{"allowedAttributes", ra.AllowedAttributes == nil},
	); missing != "" {
		return Archetype{}, invalid("archetypes[%d] (%s): missing %s", i, ra.Key, missing)
	}

	a := Archetype{
		Key:                ra.Key,
		DisplayName:        ra.DisplayName,
		PrimaryGroup:       *ra.PrimaryGroup,
		PrimarySubgroups:   *ra.PrimarySubgroups,
		SecondarySubgroups: *ra.SecondarySubgroups,
		PrimaryMuscle:      *ra.PrimaryMuscle,
		SecondaryMuscles:   *ra.SecondaryMuscles,
		AllowedAttributes:  *ra.AllowedAttributes,
	}
	a.searchText = buildSearchText(a)
	return a, nil
}

func buildAttribute(i int, ra rawAttribute) (AttributeDefinition, error) {
	if ra.Key == "" {
		return AttributeDefinition{}, invalid("attributes[%d]: missing key", i)
	}
	if ra.DisplayName == nil {
		return AttributeDefinition{}, invalid("attribute %q: missing displayName", ra.Key)
	}
	def := AttributeDefinition{
		Key:         ra.Key,
		DisplayName: *ra.DisplayName,
		Type:        AttributeType(ra.Type),
		Values:      ra.Values,
		Default:     ra.Default,
	}

	switch def.Type {
	case AttributeEnum:
		if len(def.Values) == 0 {
			return AttributeDefinition{}, invalid("attribute %q: enum requires at least one value", def.Key)
		}
		if def.Default != nil && !contains(def.Values, *def.Default) {
			return AttributeDefinition{}, invalid("attribute %q: default %q is not one of its values", def.Key, *def.Default)
		}
	case AttributeBoolean:
		if def.Default != nil {
			if _, err := strconv.ParseBool(*def.Default); err != nil {
				return AttributeDefinition{}, invalid("attribute %q: boolean default %q is not true or false", def.Key, *def.Default)
			}
		}
	case "":
		return AttributeDefinition{}, invalid("attribute %q: missing type", def.Key)
	default:
		return AttributeDefinition{}, invalid("attribute %q: unknown type %q", def.Key, ra.Type)
	}
	return def, nil
}

func buildRule(i int, rr rawRule) (RuleClause, error) {
	rule := RuleClause{
		If:           rr.If,
		Allow:        rr.Allow,
		Deny:         rr.Deny,
		Require:      rr.Require,
		ErrorMessage: rr.ErrorMessage,
	}
	if rr.Target != nil {
		rule.Target = *rr.Target
	}

	switch rr.Scope {
	case "global":
		rule.Scope = GlobalScope
	case "archetype":
		if rr.Archetype == nil || *rr.Archetype == "" {
			return RuleClause{}, invalid("rules[%d]: archetype scope without an archetype key", i)
		}
		rule.Scope = ArchetypeScope(*rr.Archetype)
	case "":
		return RuleClause{}, invalid("rules[%d]: missing scope", i)
	default:
		return RuleClause{}, invalid("rules[%d]: unknown scope %q", i, rr.Scope)
	}
	return rule, nil
}

func invalid(format string, args ...any) error {
	return apperrors.ErrCatalogInvalid.WithMessage(fmt.Sprintf(format, args...))
}

type field struct {
	name   string
	absent bool
}

// missingFields joins the names of the absent fields.
func missingFields(fields ...field) string {
	var names []string
	for _, f := range fields {
		if f.absent {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, ", ")
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Load fetches and parses the document from src.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadOrEmpty is the startup path. Fetch and parse failures are logged
// and an empty catalog is returned: search then yields nothing and every
// validation fails with "Invalid archetype", but the caller keeps running.
// Lint warnings are logged and do not block loading.
func LoadOrEmpty(ctx context.Context, src Source, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "catalog", "source", src.String())

	c, err := Load(ctx, src)
	if err != nil {
		logger.Error("Catalog load failed, continuing with empty catalog", "error", err)
		return Empty()
	}

	for _, w := range c.Lint() {
		logger.Warn("Catalog lint", "path", w.Path, "warning", w.Message)
	}

	logger.Info("Catalog loaded",
		"version", c.version,
		"muscle_groups", len(c.groups),
		"attributes", len(c.attributes),
		"archetypes", len(c.archetypes),
		"rules", len(c.rules))
	return c
}
