package pubsub

import (
	"encoding/json"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// NewCloudEvent creates a standardized CloudEvent v1.0
func NewCloudEvent(source, eventType string, data interface{}) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetSpecVersion("1.0")
	e.SetID(uuid.NewString())
	e.SetType(eventType)
	e.SetSource(source)

	// Protobuf messages go through protojson so well-known types render as strings
	if msg, ok := data.(proto.Message); ok {
		opts := protojson.MarshalOptions{
			UseProtoNames: true,
		}
		bytes, err := opts.Marshal(msg)
		if err != nil {
			return e, err
		}
		// Wrap in json.RawMessage so it's not base64 encoded
		if err := e.SetData(cloudevents.ApplicationJSON, json.RawMessage(bytes)); err != nil {
			return e, err
		}
		return e, nil
	}

	if err := e.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return e, err
	}
	return e, nil
}
