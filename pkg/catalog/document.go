// Package catalog holds the exercise catalog document: the muscle
// taxonomy, attribute definitions, exercise archetypes and the rule
// clauses constraining attribute values.
//
// A Catalog is built once by Parse (or LoadOrEmpty at startup) and is
// never mutated afterwards, so a single instance can be shared by any
// number of concurrent readers. Slices returned by accessors are copies;
// the slices nested inside returned structs are shared and must be
// treated as read-only.
package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
)

// AttributeType is the declared type of an attribute.
type AttributeType string

const (
	AttributeEnum    AttributeType = "enum"
	AttributeBoolean AttributeType = "boolean"
)

// AttributeDefinition describes one configurable exercise parameter.
type AttributeDefinition struct {
	Key         string        `json:"key" yaml:"key"`
	DisplayName string        `json:"displayName" yaml:"displayName"`
	Type        AttributeType `json:"type" yaml:"type"`
	Values      []string      `json:"values,omitempty" yaml:"values,omitempty"` // nil when the document declares none
	Default     *string       `json:"default,omitempty" yaml:"default,omitempty"`
}

// HasDefault reports whether the attribute declares a default value.
func (d AttributeDefinition) HasDefault() bool {
	return d.Default != nil
}

// DefaultValue returns the declared default typed through the attribute's tag.
func (d AttributeDefinition) DefaultValue() (Value, bool) {
	if d.Default == nil {
		return Value{}, false
	}
	if d.Type == AttributeBoolean {
		b, err := strconv.ParseBool(*d.Default)
		if err != nil {
			return Value{}, false
		}
		return BoolValue(b), true
	}
	return StringValue(*d.Default), true
}

// Archetype is a named exercise template independent of equipment or grip.
type Archetype struct {
	Key                string   `json:"key" yaml:"key"`
	DisplayName        string   `json:"displayName" yaml:"displayName"`
	PrimaryGroup       string   `json:"primaryGroup" yaml:"primaryGroup"`
	PrimarySubgroups   []string `json:"primarySubgroups" yaml:"primarySubgroups"`
	SecondarySubgroups []string `json:"secondarySubgroups" yaml:"secondarySubgroups"`
	PrimaryMuscle      string   `json:"primaryMuscle" yaml:"primaryMuscle"`
	SecondaryMuscles   []string `json:"secondaryMuscles" yaml:"secondaryMuscles"`
	AllowedAttributes  []string `json:"allowedAttributes" yaml:"allowedAttributes"`

	searchText string
}

// AllowsAttribute reports whether key is one of the archetype's allowed attributes.
func (a Archetype) AllowsAttribute(key string) bool {
	for _, k := range a.AllowedAttributes {
		if k == key {
			return true
		}
	}
	return false
}

// SearchText is the lowercase, space-joined display name, muscles and
// subgroups of the archetype.
func (a Archetype) SearchText() string {
	if a.searchText != "" {
		return a.searchText
	}
	return buildSearchText(a)
}

func buildSearchText(a Archetype) string {
	parts := make([]string, 0, 2+len(a.SecondaryMuscles)+len(a.PrimarySubgroups)+len(a.SecondarySubgroups))
	parts = append(parts, a.DisplayName, a.PrimaryMuscle)
	parts = append(parts, a.SecondaryMuscles...)
	parts = append(parts, a.PrimarySubgroups...)
	parts = append(parts, a.SecondarySubgroups...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Scope says which archetypes a rule clause applies to. The zero Scope
// is global; an archetype scope always carries a non-empty key.
type Scope struct {
	archetype string
}

// GlobalScope applies to every archetype.
var GlobalScope = Scope{}

// ArchetypeScope restricts a rule to one archetype. It panics on an empty
// key, which would otherwise silently widen the rule to global.
func ArchetypeScope(key string) Scope {
	if key == "" {
		panic("catalog: archetype scope requires an archetype key")
	}
	return Scope{archetype: key}
}

func (s Scope) IsGlobal() bool { return s.archetype == "" }

// Archetype returns the scoped archetype key, or false for the global scope.
func (s Scope) Archetype() (string, bool) {
	return s.archetype, s.archetype != ""
}

func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return "archetype:" + s.archetype
}

// ValueSets maps attribute keys to lists of values. It is the shape of a
// rule's if, allow and deny clauses.
type ValueSets map[string][]string

// Values returns the list declared for key, if any.
func (v ValueSets) Values(key string) ([]string, bool) {
	vals, ok := v[key]
	return vals, ok
}

// Contains reports whether key is declared and lists value.
func (v ValueSets) Contains(key, value string) bool {
	for _, candidate := range v[key] {
		if candidate == value {
			return true
		}
	}
	return false
}

// RuleClause is a conditional constraint narrowing legal attribute values.
type RuleClause struct {
	Scope        Scope
	Target       string // empty when the rule has no target
	If           ValueSets
	Allow        ValueSets
	Deny         ValueSets
	Require      []string
	ErrorMessage string
}

func (r RuleClause) HasTarget() bool { return r.Target != "" }

// Catalog is the immutable, loaded-once catalog document.
type Catalog struct {
	version    string
	groups     []string
	subgroups  map[string][]string
	attributes []AttributeDefinition
	attrIndex  map[string]int
	archetypes []Archetype
	archIndex  map[string]int
	rules      []RuleClause
}

// Empty returns the degraded-but-valid catalog used when loading fails.
func Empty() *Catalog {
	return &Catalog{
		groups:     []string{},
		subgroups:  map[string][]string{},
		attributes: []AttributeDefinition{},
		attrIndex:  map[string]int{},
		archetypes: []Archetype{},
		archIndex:  map[string]int{},
		rules:      []RuleClause{},
	}
}

// IsEmpty reports whether the catalog has no archetypes.
func (c *Catalog) IsEmpty() bool {
	return len(c.archetypes) == 0
}

func (c *Catalog) Version() string { return c.version }

// MuscleGroups returns the group names in document order.
func (c *Catalog) MuscleGroups() []string {
	return append([]string(nil), c.groups...)
}

// Subgroups returns the ordered subgroups of group.
func (c *Catalog) Subgroups(group string) []string {
	return append([]string(nil), c.subgroups[group]...)
}

// Taxonomy returns a copy of the group to subgroup mapping.
func (c *Catalog) Taxonomy() map[string][]string {
	out := make(map[string][]string, len(c.subgroups))
	for g, subs := range c.subgroups {
		out[g] = append([]string(nil), subs...)
	}
	return out
}

func (c *Catalog) Attributes() []AttributeDefinition {
	return append([]AttributeDefinition(nil), c.attributes...)
}

func (c *Catalog) Attribute(key string) (AttributeDefinition, bool) {
	i, ok := c.attrIndex[key]
	if !ok {
		return AttributeDefinition{}, false
	}
	return c.attributes[i], true
}

func (c *Catalog) Archetypes() []Archetype {
	return append([]Archetype(nil), c.archetypes...)
}

func (c *Catalog) Archetype(key string) (Archetype, bool) {
	i, ok := c.archIndex[key]
	if !ok {
		return Archetype{}, false
	}
	return c.archetypes[i], true
}

// Rules returns the rule clauses in declaration order. Order is
// significant: allowed-value resolution applies rules cumulatively.
func (c *Catalog) Rules() []RuleClause {
	return append([]RuleClause(nil), c.rules...)
}

// Coerce converts a raw caller value (as decoded from JSON or a flag) into
// a Value using the attribute's declared type. Keys the catalog does not
// define keep the Go type they arrived with so the validator can still
// report them as not allowed.
func (c *Catalog) Coerce(key string, raw any) (Value, error) {
	def, known := c.Attribute(key)
	if !known {
		switch t := raw.(type) {
		case string:
			return StringValue(t), nil
		case bool:
			return BoolValue(t), nil
		case Value:
			return t, nil
		}
		return Value{}, apperrors.ErrValueTypeMismatch.
			WithMessage(fmt.Sprintf("attribute %q has unsupported value type %T", key, raw)).
			WithMetadata("attribute", key)
	}

	switch def.Type {
	case AttributeBoolean:
		switch t := raw.(type) {
		case bool:
			return BoolValue(t), nil
		case string:
			b, err := strconv.ParseBool(t)
			if err == nil {
				return BoolValue(b), nil
			}
		case Value:
			if b, ok := t.AsBool(); ok {
				return BoolValue(b), nil
			}
			if s, ok := t.AsString(); ok {
				if b, err := strconv.ParseBool(s); err == nil {
					return BoolValue(b), nil
				}
			}
		}
	default:
		switch t := raw.(type) {
		case string:
			return StringValue(t), nil
		case Value:
			if s, ok := t.AsString(); ok {
				return StringValue(s), nil
			}
		}
	}

	return Value{}, apperrors.ErrValueTypeMismatch.
		WithMessage(fmt.Sprintf("attribute %q expects a %s value, got %v", key, def.Type, raw)).
		WithMetadata("attribute", key)
}

// CoerceAll coerces every entry of raw in key order; the first failure
// is returned.
func (c *Catalog) CoerceAll(raw map[string]any) (Attributes, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Attributes, len(raw))
	for _, k := range keys {
		val, err := c.Coerce(k, raw[k])
		if err != nil {
			return nil, err
		}
		out[k] = val
	}
	return out, nil
}
