package activity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
	"github.com/trustpoints/trustpoints-backend/pkg/enums"
	"github.com/trustpoints/trustpoints-backend/pkg/logger"
)

// Event is one economically significant moment in an order or wallet flow.
type Event struct {
	UserID      uuid.UUID          `json:"user_id"`
	Type        enums.ActivityType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Points      *int               `json:"points,omitempty"`
	OrderID     *string            `json:"order_id,omitempty"`
	Metadata    json.RawMessage    `json:"metadata,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// Recorder appends activity events. Recording is best effort: implementations
// log failures instead of surfacing them, so callers never roll back core
// state because the activity trail hiccuped.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

type dbRecorder struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewDBRecorder writes events straight to the activities table.
func NewDBRecorder(repo Repository, logg *logger.Logger) (Recorder, error) {
	if repo == nil {
		return nil, errors.New("activity repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &dbRecorder{repo: repo, logg: logg, now: time.Now}, nil
}

func (r *dbRecorder) Record(ctx context.Context, event Event) {
	row, err := rowFromEvent(event, r.now)
	if err != nil {
		r.logg.Error(ctx, "dropping invalid activity event", err)
		return
	}
	if err := r.repo.Create(ctx, row); err != nil {
		logCtx := r.logg.WithField(ctx, "activity_type", string(event.Type))
		r.logg.Error(logCtx, "failed to record activity", err)
	}
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type pubsubRecorder struct {
	pub     publisher
	logg    *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

const defaultPublishTimeout = 10 * time.Second

// NewPubSubRecorder publishes events to the activity topic; a worker persists
// them out of band.
func NewPubSubRecorder(pub *gcppubsub.Publisher, logg *logger.Logger) (Recorder, error) {
	if pub == nil {
		return nil, errors.New("activity publisher is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &pubsubRecorder{
		pub:     publisherAdapter{pub},
		logg:    logg,
		timeout: defaultPublishTimeout,
		now:     time.Now,
	}, nil
}

func (r *pubsubRecorder) Record(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = r.now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		r.logg.Error(ctx, "failed to encode activity event", err)
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	result := r.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"activity_type": string(event.Type),
		},
	})
	if _, err := result.Get(publishCtx); err != nil {
		logCtx := r.logg.WithField(ctx, "activity_type", string(event.Type))
		r.logg.Error(logCtx, "failed to publish activity event", err)
	}
}

type publisherAdapter struct {
	pub *gcppubsub.Publisher
}

func (a publisherAdapter) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return a.pub.Publish(ctx, msg)
}

func rowFromEvent(event Event, now func() time.Time) (*models.Activity, error) {
	if event.UserID == uuid.Nil {
		return nil, errors.New("activity event missing user id")
	}
	if !event.Type.IsValid() {
		return nil, errors.New("activity event has unknown type")
	}
	if event.Title == "" {
		return nil, errors.New("activity event missing title")
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = now().UTC()
	}
	return &models.Activity{
		ID:          uuid.New(),
		UserID:      event.UserID,
		Type:        event.Type,
		Title:       event.Title,
		Description: event.Description,
		Points:      event.Points,
		OrderID:     event.OrderID,
		Metadata:    event.Metadata,
		CreatedAt:   occurred,
	}, nil
}
