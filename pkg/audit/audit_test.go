package audit

import (
	"context"
	"testing"

	"github.com/clinicdesk/admin-console/pkg/common/models"
	"github.com/clinicdesk/admin-console/pkg/gateway/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvent struct {
	eventType    string
	source       string
	partitionKey string
	data         map[string]interface{}
	metadata     map[string]string
}

type fakeWriter struct {
	events []capturedEvent
}

func (w *fakeWriter) PublishEvent(ctx context.Context, eventType, source, partitionKey string, data map[string]interface{}, metadata map[string]string) error {
	w.events = append(w.events, capturedEvent{eventType, source, partitionKey, data, metadata})
	return nil
}

func TestPublishEmbedsRecord(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w)
	ctx := httpclient.WithRequestID(context.Background(), "req-1")

	doctor := models.Doctor{DoctorID: models.IntPtr(3), FirstName: "Ivan", LastName: "Petrov"}
	require.NoError(t, p.Publish(ctx, models.EventRecordCreated, "doctors", "3", doctor))

	require.Len(t, w.events, 1)
	ev := w.events[0]
	assert.Equal(t, models.EventRecordCreated, ev.eventType)
	assert.Equal(t, Source, ev.source)
	assert.Equal(t, "doctors/3", ev.partitionKey)
	assert.Equal(t, "doctors", ev.data["resource"])
	assert.Equal(t, "3", ev.data["key"])
	record := ev.data["record"].(map[string]interface{})
	assert.Equal(t, "Ivan", record["firstName"])
	assert.Equal(t, float64(3), record["doctorID"])
	assert.Equal(t, "req-1", ev.metadata["request_id"])
}

func TestPublishRejectsNonObjects(t *testing.T) {
	p := NewPublisher(&fakeWriter{})
	err := p.Publish(context.Background(), models.EventRecordDeleted, "doctors", "1", []int{1})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Publish(context.Background(), models.EventRecordDeleted, "doctors", "1", nil))
}
