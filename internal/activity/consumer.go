package activity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/trustpoints/trustpoints-backend/pkg/logger"
)

// Consumer drains the activity topic and persists each event.
type Consumer struct {
	repo         Repository
	subscription *pubsub.Subscriber
	logg         *logger.Logger
	now          func() time.Time
}

// NewConsumer constructs a consumer that watches the provided subscription.
func NewConsumer(repo Repository, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, errors.New("activity repository is required")
	}
	if subscription == nil {
		return nil, errors.New("activity subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		logg:         logg,
		now:          time.Now,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process returns true when the message should be acked. Malformed payloads
// are acked (retrying cannot fix them); storage failures are nacked for
// redelivery.
func (c *Consumer) process(ctx context.Context, msgID string, data []byte) bool {
	logCtx := c.logg.WithField(ctx, "message_id", msgID)

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal activity event", err)
		return true
	}

	row, err := rowFromEvent(event, c.now)
	if err != nil {
		c.logg.Error(logCtx, "dropping invalid activity event", err)
		return true
	}

	if err := c.repo.Create(ctx, row); err != nil {
		c.logg.Error(logCtx, "failed to persist activity event", err)
		return false
	}
	return true
}
