package activity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
	pkgerrors "github.com/trustpoints/trustpoints-backend/pkg/errors"
	"github.com/trustpoints/trustpoints-backend/pkg/pagination"
)

// Service exposes the read side of the activity feed.
type Service interface {
	Feed(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Activity, error)
}

type service struct {
	repo Repository
}

// NewService wires an activity service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Feed(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Activity, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	activities, err := s.repo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activities")
	}
	return activities, nil
}
