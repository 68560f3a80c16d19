package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trustpoints/trustpoints-backend/internal/activity"
	"github.com/trustpoints/trustpoints-backend/pkg/config"
	"github.com/trustpoints/trustpoints-backend/pkg/db"
	"github.com/trustpoints/trustpoints-backend/pkg/logger"
	"github.com/trustpoints/trustpoints-backend/pkg/pubsub"
)

const readinessTimeout = 10 * time.Second

type serviceParams struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
	PubSub *pubsub.Client
}

// service drains the activity event subscription into the activities table.
type service struct {
	logg     *logger.Logger
	db       *db.Client
	pubsub   *pubsub.Client
	consumer *activity.Consumer
}

func newService(params serviceParams) (*service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.PubSub == nil {
		return nil, fmt.Errorf("pubsub client is required")
	}

	consumer, err := activity.NewConsumer(
		activity.NewRepository(params.DB.DB()),
		params.PubSub.ActivitySubscription(),
		params.Logger,
	)
	if err != nil {
		return nil, fmt.Errorf("building activity consumer: %w", err)
	}

	return &service{
		logg:     params.Logger,
		db:       params.DB,
		pubsub:   params.PubSub,
		consumer: consumer,
	}, nil
}

func (s *service) ensureReadiness(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	if err := s.db.Ping(checkCtx); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	if err := s.pubsub.Ping(checkCtx); err != nil {
		return fmt.Errorf("pubsub not ready: %w", err)
	}
	return nil
}

func (s *service) run(ctx context.Context) error {
	return s.consumer.Run(ctx)
}
