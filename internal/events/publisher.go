// Package events sends domain events to Kafka on behalf of the services.
package events

import (
	"context"
	"time"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/kafka"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Publisher is safe to use as a nil pointer; it then drops every event.
type Publisher struct {
	producer           Producer
	topic              string
	notificationsTopic string
	logger             logrus.FieldLogger
	now                func() time.Time
}

type PublisherOption func(*Publisher)

func WithNotificationsTopic(topic string) PublisherOption {
	return func(p *Publisher) {
		p.notificationsTopic = topic
	}
}

func NewPublisher(producer Producer, topic string, logger logrus.FieldLogger, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish never fails the caller: delivery errors are logged as warnings.
func (p *Publisher) Publish(ctx context.Context, eventType kafka.EventType, kind domain.EntityKind, id, name string) {
	if p == nil || p.producer == nil || p.topic == "" {
		return
	}
	event := kafka.Event{
		Type:       eventType,
		EntityKind: kind,
		EntityID:   id,
		Name:       name,
		OccurredAt: p.now().UTC(),
	}
	if err := p.producer.Publish(ctx, p.topic, id, event); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{"type": eventType, "id": id}).Warn("failed to publish event")
		return
	}
	if p.notificationsTopic != "" && event.Notifies() {
		if err := p.producer.Publish(ctx, p.notificationsTopic, id, event); err != nil {
			p.logger.WithError(err).WithFields(logrus.Fields{"type": eventType, "id": id}).Warn("failed to publish notification")
		}
	}
}
