package eventsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/project"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes project events to a kafka topic, keyed by project ID.
type KafkaPublisher struct {
	writer messageWriter
}

var _ project.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher returns an async publisher: delivery failures are logged, never returned.
func NewKafkaPublisher(conf core.KafkaConfig, logger core.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(conf.Brokers...),
		Topic:        conf.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				logger.Error(fmt.Sprintf("delivering %d project event(s): %v", len(msgs), err), err)
			}
		},
	}
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt project.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "marshalling event")
	}

	msg := kafka.Message{
		Key:   []byte(strconv.Itoa(evt.ProjectID)),
		Value: data,
		Time:  evt.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	}
	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "writing event")
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
