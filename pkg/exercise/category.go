package exercise

import (
	"github.com/muktihari/fit/profile/typedef"
)

// archetypeCategories maps catalog archetype keys to FIT exercise categories.
var archetypeCategories = map[string]typedef.ExerciseCategory{
	"bench_press":       typedef.ExerciseCategoryBenchPress,
	"push_up":           typedef.ExerciseCategoryPushUp,
	"chest_fly":         typedef.ExerciseCategoryFlye,
	"pull_up":           typedef.ExerciseCategoryPullUp,
	"lat_pulldown":      typedef.ExerciseCategoryPullUp,
	"row":               typedef.ExerciseCategoryRow,
	"deadlift":          typedef.ExerciseCategoryDeadlift,
	"shrug":             typedef.ExerciseCategoryShrug,
	"overhead_press":    typedef.ExerciseCategoryShoulderPress,
	"lateral_raise":     typedef.ExerciseCategoryLateralRaise,
	"bicep_curl":        typedef.ExerciseCategoryCurl,
	"triceps_extension": typedef.ExerciseCategoryTricepsExtension,
	"squat":             typedef.ExerciseCategorySquat,
	"lunge":             typedef.ExerciseCategoryLunge,
	"leg_press":         typedef.ExerciseCategorySquat,
	"hip_thrust":        typedef.ExerciseCategoryHipRaise,
	"calf_raise":        typedef.ExerciseCategoryCalfRaise,
	"plank":             typedef.ExerciseCategoryPlank,
}

// CategoryFor returns the FIT category of an archetype, or
// ExerciseCategoryUnknown for keys without a mapping.
func CategoryFor(archetypeKey string) typedef.ExerciseCategory {
	if c, ok := archetypeCategories[archetypeKey]; ok {
		return c
	}
	return typedef.ExerciseCategoryUnknown
}
