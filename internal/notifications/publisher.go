package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
)

const (
	eventTypeNotificationCreated = "notification.created"

	defaultPublishTimeout = 10 * time.Second
)

// Envelope is the stable message structure published to the notification topic.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Payload describes one notification to deliver.
type Payload struct {
	UserID   *uuid.UUID                 `json:"userId,omitempty"`
	Scope    enums.NotificationScope    `json:"scope"`
	Type     enums.NotificationType     `json:"type"`
	Priority enums.NotificationPriority `json:"priority"`
	Title    string                     `json:"title"`
	Message  string                     `json:"message"`
	Link     *string                    `json:"link,omitempty"`
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type messagePublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

// Publisher pushes notification envelopes onto the Pub/Sub topic consumed
// by the worker.
type Publisher struct {
	pub messagePublisher
}

// NewPublisher wraps a topic publisher.
func NewPublisher(pub *gcppubsub.Publisher) (*Publisher, error) {
	if pub == nil {
		return nil, fmt.Errorf("notification topic publisher required")
	}
	return &Publisher{pub: gcpPublisher{pub}}, nil
}

func newPublisherWith(pub messagePublisher) *Publisher {
	return &Publisher{pub: pub}
}

// Publish serializes the payload and blocks until the broker confirms it.
func (p *Publisher) Publish(ctx context.Context, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}

	envelope := Envelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode notification envelope: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_id":   envelope.EventID,
			"event_type": eventTypeNotificationCreated,
			"scope":      string(payload.Scope),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := p.pub.Publish(publishCtx, msg)
	if result == nil {
		return fmt.Errorf("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.Publisher.Publish(ctx, msg)
}
