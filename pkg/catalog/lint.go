package catalog

import (
	"fmt"
	"regexp"
	"sort"
)

// Warning is a referential inconsistency found after a successful parse.
// Warnings never prevent loading; the engine tolerates dangling keys.
type Warning struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	return w.Path + ": " + w.Message
}

var snakeCase = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)

// Lint reports references the document makes to keys it never declares.
func (c *Catalog) Lint() []Warning {
	var warnings []Warning
	warn := func(path, format string, args ...any) {
		warnings = append(warnings, Warning{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	declaredGroups := make(map[string]bool, len(c.groups))
	for _, g := range c.groups {
		declaredGroups[g] = true
	}

	knownSubgroups := make(map[string]bool)
	for _, g := range sortedKeys(c.subgroups) {
		if len(c.groups) > 0 && !declaredGroups[g] {
			warn("muscleSubgroups."+g, "group is not listed in muscleGroups")
		}
		if !snakeCase.MatchString(g) {
			warn("muscleSubgroups."+g, "group key is not lowercase snake_case")
		}
		for _, sub := range c.subgroups[g] {
			knownSubgroups[sub] = true
			if !snakeCase.MatchString(sub) {
				warn("muscleSubgroups."+g, "subgroup %q is not lowercase snake_case", sub)
			}
		}
	}

	for _, a := range c.archetypes {
		path := "archetypes." + a.Key
		if len(c.groups) > 0 && a.PrimaryGroup != "" && !declaredGroups[a.PrimaryGroup] {
			warn(path, "primaryGroup %q is not a declared muscle group", a.PrimaryGroup)
		}
		if len(knownSubgroups) > 0 {
			for _, sub := range append(append([]string{}, a.PrimarySubgroups...), a.SecondarySubgroups...) {
				if !knownSubgroups[sub] {
					warn(path, "subgroup %q is not declared in muscleSubgroups", sub)
				}
			}
		}
		for _, key := range a.AllowedAttributes {
			if _, ok := c.attrIndex[key]; !ok {
				warn(path, "allowedAttributes references unknown attribute %q", key)
			}
		}
	}

	for i, r := range c.rules {
		path := fmt.Sprintf("rules[%d]", i)

		var scoped *Archetype
		if key, ok := r.Scope.Archetype(); ok {
			if idx, found := c.archIndex[key]; found {
				scoped = &c.archetypes[idx]
			} else {
				warn(path, "scoped to unknown archetype %q", key)
			}
		}

		if r.HasTarget() {
			if _, ok := c.attrIndex[r.Target]; !ok {
				warn(path, "target %q is not a declared attribute", r.Target)
			} else if scoped != nil && !scoped.AllowsAttribute(r.Target) {
				warn(path, "target %q is not in %s allowedAttributes", r.Target, scoped.Key)
			}
		}

		for _, clause := range []struct {
			name string
			sets ValueSets
		}{{"if", r.If}, {"allow", r.Allow}, {"deny", r.Deny}} {
			for _, key := range sortedKeys(clause.sets) {
				def, ok := c.Attribute(key)
				if !ok {
					warn(path, "%s references unknown attribute %q", clause.name, key)
					continue
				}
				if def.Values == nil {
					continue
				}
				for _, v := range clause.sets[key] {
					if !contains(def.Values, v) {
						warn(path, "%s lists %q which is not a value of %q", clause.name, v, key)
					}
				}
			}
		}

		if len(r.Require) > 0 {
			if r.Scope.IsGlobal() {
				warn(path, "require on a global rule is ignored; scope it to an archetype")
			}
			for _, key := range r.Require {
				if _, ok := c.attrIndex[key]; !ok {
					warn(path, "require references unknown attribute %q", key)
				} else if scoped != nil && !scoped.AllowsAttribute(key) {
					warn(path, "required attribute %q is not in %s allowedAttributes", key, scoped.Key)
				}
			}
		}
	}

	return warnings
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
