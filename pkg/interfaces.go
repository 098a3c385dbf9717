package shared

import (
	"context"

	"github.com/cloudevents/sdk-go/v2/event"
)

// --- Catalog Document Interfaces ---

// CatalogDocumentStore reads a serialized catalog document by collection/id.
// Implementations only read; the catalog is an external versioned input.
type CatalogDocumentStore interface {
	GetCatalogDocument(ctx context.Context, collection, id string) ([]byte, error)
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}
