package engine

import (
	"strings"
	"testing"

	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
)

func TestBuildDisplayName(t *testing.T) {
	e := newDefaultEngine(t)

	tests := []struct {
		name      string
		archetype string
		attrs     catalog.Attributes
		want      string
	}{
		{"no attributes", "squat", nil, "Squat"},
		{"default omitted", "bench_press", strs("bench_angle", "flat", "equipment", "barbell"), "Barbell Bench Press"},
		{"non-default surfaced", "bench_press", strs("bench_angle", "incline"), "Incline Bench Press"},
		{"priority order not map order", "bench_press", strs("grip_width", "wide", "equipment", "dumbbell", "style", "paused", "bench_angle", "incline"), "Paused Dumbbell Incline Wide Bench Press"},
		{"underscores become spaces", "squat", strs("equipment", "smith_machine", "stance", "shoulder_width"), "Smith Machine Squat"},
		{"single arm label", "lateral_raise", strs("is_single_arm", "yes"), "Single Side Lateral Raise"},
		{"single arm default omitted", "lateral_raise", strs("is_single_arm", "no", "equipment", "cable"), "Cable Lateral Raise"},
		{"single leg label", "leg_press", strs("equipment", "machine", "is_single_leg", "yes"), "Machine Single Side Leg Press"},
		{"attributes outside priority ignored", "deadlift", strs("tempo", "slow"), "Deadlift"},
		{"bool values ignored", "deadlift", catalog.Attributes{"uses_belt": catalog.BoolValue(true), "variation": catalog.StringValue("sumo")}, "Sumo Deadlift"},
		{"unknown archetype unchanged", "nonexistent_key", strs("equipment", "barbell"), "nonexistent_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.BuildDisplayName(tt.archetype, tt.attrs); got != tt.want {
				t.Errorf("BuildDisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildDisplayName_Properties(t *testing.T) {
	e := newDefaultEngine(t)

	if got := e.BuildDisplayName("bench_press", strs("bench_angle", "flat", "equipment", "barbell")); strings.Contains(got, "Flat") {
		t.Errorf("default bench angle leaked into %q", got)
	}
	if got := e.BuildDisplayName("lateral_raise", strs("is_single_arm", "yes")); !strings.Contains(got, "Single Side") || strings.Contains(strings.ToLower(got), "yes") {
		t.Errorf("single-limb flag rendered as %q", got)
	}
	if got := e.BuildDisplayName("nonexistent_key", catalog.Attributes{}); got != "nonexistent_key" {
		t.Errorf("unknown archetype rendered as %q", got)
	}
}
