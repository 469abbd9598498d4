package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/activity"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/kafka"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/sse"
)

const streamEvent = "activity"

type kafkaPublisher struct {
	writer kafka.MessageWriter
	topic  string
}

// NewKafkaPublisher publishes activities as JSON keyed by company, so one
// company's events stay ordered within a partition.
func NewKafkaPublisher(writer kafka.MessageWriter, topic string) activity.Publisher {
	return &kafkaPublisher{writer: writer, topic: topic}
}

func (p *kafkaPublisher) Publish(ctx context.Context, a activity.Activity) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message(p.topic, a.CompanyID, string(a.Type), payload)); err != nil {
		return fmt.Errorf("failed to publish activity: %w", err)
	}
	return nil
}

type hubPublisher struct {
	hub *sse.Hub
}

// NewHubPublisher fans activities out to live stream subscribers of the company.
func NewHubPublisher(hub *sse.Hub) activity.Publisher {
	return &hubPublisher{hub: hub}
}

func (p *hubPublisher) Publish(ctx context.Context, a activity.Activity) error {
	p.hub.Publish(a.CompanyID, sse.Event{Event: streamEvent, Data: a})
	return nil
}
