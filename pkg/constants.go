package shared

const (
	ProjectID = "gym-diary-project" // Can be overridden by GOOGLE_CLOUD_PROJECT

	TopicExerciseCreated = "topic-exercise-created"

	EventTypeExerciseCreated = "com.gymdiary.exercise.created"
	EventSourceCatalogAPI    = "/gym-diary/catalog-api"

	CollectionCatalogs = "catalogs"
)
