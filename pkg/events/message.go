package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// MetadataVersion is the metadata key carrying the payload schema version.
const MetadataVersion = "event_version"

// NewMessage encodes event as a JSON message tagged with version and the trace
// from ctx.
func NewMessage(ctx context.Context, event any, version int) (*message.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("events: marshal %T: %w", event, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataVersion, strconv.Itoa(version))
	injectTrace(ctx, msg)
	return msg, nil
}

// Decode unmarshals the JSON payload of msg into a T.
func Decode[T any](msg *message.Message) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("events: decode %T: %w", v, err)
	}
	return v, nil
}

func injectTrace(ctx context.Context, msg *message.Message) {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		msg.Metadata.Set(k, v)
	}
}

func extractTrace(ctx context.Context, msg *message.Message) context.Context {
	carrier := propagation.MapCarrier{}
	for k, v := range msg.Metadata {
		carrier[k] = v
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
