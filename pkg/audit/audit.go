// Package audit publishes one event for every record the console creates,
// updates or deletes.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clinicdesk/admin-console/pkg/gateway/httpclient"
)

// Source is the event source name the console publishes under.
const Source = "admin-console"

// EventWriter is the transport; *kafka.Producer satisfies it.
type EventWriter interface {
	PublishEvent(ctx context.Context, eventType, source, partitionKey string, data map[string]interface{}, metadata map[string]string) error
}

// Publisher turns mutations into audit events.
type Publisher struct {
	writer EventWriter
}

func NewPublisher(writer EventWriter) *Publisher {
	return &Publisher{writer: writer}
}

// Publish sends eventType for the record stored under resource/key. The record
// is embedded as it was sent to or returned by the backend.
func (p *Publisher) Publish(ctx context.Context, eventType, resource, key string, record interface{}) error {
	payload, err := toMap(record)
	if err != nil {
		return fmt.Errorf("encode %s/%s for audit: %w", resource, key, err)
	}

	data := map[string]interface{}{
		"resource": resource,
		"key":      key,
		"record":   payload,
	}
	metadata := map[string]string{}
	if id := httpclient.RequestID(ctx); id != "" {
		metadata["request_id"] = id
	}
	return p.writer.PublishEvent(ctx, eventType, Source, resource+"/"+key, data, metadata)
}

func toMap(record interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Discard drops every event. It stands in when no brokers are configured.
type Discard struct{}

func (Discard) Publish(ctx context.Context, eventType, resource, key string, record interface{}) error {
	return nil
}
