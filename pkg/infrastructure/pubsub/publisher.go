package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/cloudevents/sdk-go/v2/event"

	apperrors "github.com/luketherose/gym-diary-ios-swiftui-sub000/pkg/errors"
)

// PubSubAdapter publishes CloudEvents to Google Cloud Pub/Sub
type PubSubAdapter struct {
	Client *pubsub.Client
	Logger *slog.Logger
}

func (a *PubSubAdapter) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func (a *PubSubAdapter) PublishCloudEvent(ctx context.Context, topicID string, e event.Event) (string, error) {
	bytes, err := json.Marshal(e)
	if err != nil {
		a.logger().Error("Failed to marshal CloudEvent", "topic", topicID, "error", err)
		return "", apperrors.Wrap(err, apperrors.CodePubSubError, "marshal CloudEvent")
	}
	a.logger().Info("Publishing CloudEvent",
		"topic", topicID,
		"event_type", e.Type(),
		"event_id", e.ID(),
		"source", e.Source(),
		"size_bytes", len(bytes))
	return a.publish(ctx, topicID, bytes, map[string]string{"ce-type": e.Type()})
}

func (a *PubSubAdapter) publish(ctx context.Context, topicID string, data []byte, attributes map[string]string) (string, error) {
	topic := a.Client.Topic(topicID)
	msg := &pubsub.Message{
		Data: data,
	}
	if attributes != nil {
		msg.Attributes = attributes
	}
	res := topic.Publish(ctx, msg)
	msgID, err := res.Get(ctx)
	if err != nil {
		a.logger().Error("Failed to publish message", "topic", topicID, "error", err)
		return "", apperrors.ErrPubSubError.WithCause(err).WithMetadata("topic", topicID)
	}
	a.logger().Info("Message published successfully", "topic", topicID, "message_id", msgID, "size_bytes", len(data))
	return msgID, nil
}

// LogPublisher logs events instead of publishing them, for local development
// and deployments with publishing disabled.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p *LogPublisher) PublishCloudEvent(ctx context.Context, topicID string, e event.Event) (string, error) {
	bytes, err := json.Marshal(e)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodePubSubError, "marshal CloudEvent")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("MOCK PUBLISH", "topic", topicID, "event_type", e.Type(), "data", string(bytes))
	return "mock-msg-id", nil
}
