package eventsvc

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kazi/core/project"
)

type writerStub struct {
	msgs []kafka.Message
}

func (w *writerStub) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *writerStub) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	stub := new(writerStub)
	pub := &KafkaPublisher{writer: stub}

	at := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	evt := project.Event{
		Type:      project.EventEvaluated,
		ProjectID: 42,
		Student:   "ada",
		Status:    project.StatusApproved,
		Marks:     null.IntFrom(75),
		At:        at,
	}
	require.NoError(t, pub.Publish(context.Background(), evt))
	require.Len(t, stub.msgs, 1)

	msg := stub.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, []kafka.Header{{Key: "type", Value: []byte(project.EventEvaluated)}}, msg.Headers)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, map[string]interface{}{
		"type":       "project.evaluated",
		"project_id": float64(42),
		"student":    "ada",
		"status":     "Approved",
		"marks":      float64(75),
		"at":         "2024-05-02T10:00:00Z",
	}, got)
}
