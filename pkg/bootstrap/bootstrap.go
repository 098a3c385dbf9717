package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"

	shared "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/catalog"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/engine"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/exercise"
	"github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/infrastructure/database"
	infrapubsub "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/infrastructure/pubsub"
	infrastorage "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/infrastructure/storage"
)

// Config holds standard configuration for all services
type Config struct {
	ProjectID     string
	CatalogSource string // catalog URI; empty means the embedded default
	EnablePublish bool
	HandoffTopic  string
	LogLevel      slog.Level
}

// Service holds initialized dependencies. The catalog and engine are
// shared read-only by every request.
type Service struct {
	Catalog *catalog.Catalog
	Engine  *engine.Engine
	Builder *exercise.Builder
	Pub     shared.Publisher
	Config  *Config
	Logger  *slog.Logger
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = shared.ProjectID // Fallback
	}

	topic := os.Getenv("HANDOFF_TOPIC")
	if topic == "" {
		topic = shared.TopicExerciseCreated
	}

	return &Config{
		ProjectID:     projectID,
		CatalogSource: os.Getenv("CATALOG_SOURCE"),
		EnablePublish: os.Getenv("ENABLE_PUBLISH") == "true",
		HandoffTopic:  topic,
		LogLevel:      ParseLevel(os.Getenv("LOG_LEVEL")),
	}
}

// ParseLevel maps LOG_LEVEL values to slog levels; anything unrecognized is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message.
// The component may come from the record or from Logger.With.
type ComponentHandler struct {
	slog.Handler
	component string
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	component := h.component
	hasRecordComponent := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = a.Value.String()
			hasRecordComponent = true
			return false // stop
		}
		return true
	})

	if component == "" {
		return h.Handler.Handle(ctx, r)
	}

	newRecord := slog.NewRecord(r.Time, r.Level, fmt.Sprintf("[%s] %s", component, r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		if !hasRecordComponent || a.Key != "component" {
			newRecord.AddAttrs(a)
		}
		return true
	})
	return h.Handler.Handle(ctx, newRecord)
}

// WithAttrs keeps the wrapper in place and captures a component attribute.
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	component := h.component
	rest := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "component" {
			component = a.Value.String()
			continue
		}
		rest = append(rest, a)
	}
	return &ComponentHandler{Handler: h.Handler.WithAttrs(rest), component: component}
}

func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{Handler: h.Handler.WithGroup(name), component: h.component}
}

// NewLogger creates a configured logger instance writing JSON to stdout
func NewLogger(serviceName string, level slog.Level) *slog.Logger {
	return NewLoggerTo(os.Stdout, serviceName, level)
}

// NewLoggerTo is NewLogger with an explicit destination.
func NewLoggerTo(w io.Writer, serviceName string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, GetSlogHandlerOptions(level))
	return slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
}

// NewCatalogSource resolves a catalog URI. Cloud clients are created only
// for the scheme that needs them; the returned close func releases them.
func NewCatalogSource(ctx context.Context, uri string, cfg *Config) (catalog.Source, func(), error) {
	noop := func() {}

	parsed, err := catalog.ParseSourceURI(uri)
	if err != nil {
		return nil, noop, err
	}

	switch parsed.Kind {
	case catalog.SourceFile:
		return catalog.FileSource{Path: parsed.Location}, noop, nil
	case catalog.SourceBlob:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("storage init: %w", err)
		}
		src := catalog.BlobSource{
			Store:  infrastorage.NewStorageAdapter(client),
			Bucket: parsed.Location,
			Object: parsed.Name,
		}
		return src, func() { _ = client.Close() }, nil
	case catalog.SourceDocument:
		client, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, noop, fmt.Errorf("firestore init: %w", err)
		}
		src := catalog.DocumentSource{
			Store:      database.NewCatalogStore(client),
			Collection: parsed.Location,
			ID:         parsed.Name,
		}
		return src, func() { _ = client.Close() }, nil
	default:
		return catalog.EmbeddedSource{}, noop, nil
	}
}

// NewService initializes all standard dependencies. Catalog problems never
// fail startup: the service degrades to an empty catalog and logs why.
func NewService(ctx context.Context, serviceName string) (*Service, error) {
	cfg := LoadConfig()
	logger := NewLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Initializing service", "project_id", cfg.ProjectID, "catalog_source", cfg.CatalogSource)

	var cat *catalog.Catalog
	src, closeSource, err := NewCatalogSource(ctx, cfg.CatalogSource, cfg)
	if err != nil {
		logger.Error("Catalog source init failed, continuing with empty catalog", "component", "catalog", "error", err)
		cat = catalog.Empty()
	} else {
		cat = catalog.LoadOrEmpty(ctx, src, logger)
		closeSource()
	}

	// Pub/Sub
	var pubAdapter shared.Publisher
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			logger.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		pubAdapter = &infrapubsub.PubSubAdapter{Client: psClient, Logger: logger}
		logger.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		pubAdapter = &infrapubsub.LogPublisher{Logger: logger}
		logger.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	return NewServiceWith(cfg, cat, pubAdapter, logger), nil
}

// NewServiceWith assembles a Service from already-built parts.
func NewServiceWith(cfg *Config, cat *catalog.Catalog, pub shared.Publisher, logger *slog.Logger) *Service {
	if cfg == nil {
		cfg = &Config{ProjectID: shared.ProjectID, HandoffTopic: shared.TopicExerciseCreated}
	}
	if cat == nil {
		cat = catalog.Empty()
	}
	if pub == nil {
		pub = &infrapubsub.LogPublisher{Logger: logger}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Catalog: cat,
		Engine:  engine.New(cat),
		Builder: exercise.NewBuilder(cat),
		Pub:     pub,
		Config:  cfg,
		Logger:  logger,
	}
}

// PublishExerciseCreated hands a built exercise to downstream consumers.
func (s *Service) PublishExerciseCreated(ctx context.Context, ex *exercise.Exercise) (string, error) {
	e, err := infrapubsub.NewCloudEvent(shared.EventSourceCatalogAPI, shared.EventTypeExerciseCreated, ex)
	if err != nil {
		return "", fmt.Errorf("build event: %w", err)
	}
	e.SetSubject(ex.ArchetypeKey)
	return s.Pub.PublishCloudEvent(ctx, s.Config.HandoffTopic, e)
}
