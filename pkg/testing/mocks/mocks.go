package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudevents/sdk-go/v2/event"
)

// --- Mock Catalog Document Store ---
type MockCatalogDocumentStore struct {
	GetCatalogDocumentFunc func(ctx context.Context, collection, id string) ([]byte, error)
}

func (m *MockCatalogDocumentStore) GetCatalogDocument(ctx context.Context, collection, id string) ([]byte, error) {
	if m.GetCatalogDocumentFunc != nil {
		return m.GetCatalogDocumentFunc(ctx, collection, id)
	}
	return nil, fmt.Errorf("catalog document %s/%s not found", collection, id)
}

// --- Mock Publisher ---
type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)

	mu        sync.Mutex
	Published []PublishedEvent
}

// PublishedEvent records one call to PublishCloudEvent.
type PublishedEvent struct {
	Topic string
	Event event.Event
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	m.mu.Lock()
	m.Published = append(m.Published, PublishedEvent{Topic: topic, Event: e})
	m.mu.Unlock()

	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// Events returns a snapshot of the published events.
func (m *MockPublisher) Events() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedEvent(nil), m.Published...)
}

// --- Mock Storage ---
type MockBlobStore struct {
	ReadFunc func(ctx context.Context, bucket, object string) ([]byte, error)
}

func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	return []byte("mock-data"), nil
}
