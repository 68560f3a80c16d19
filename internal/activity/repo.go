package activity

import (
	"context"

	"github.com/google/uuid"
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
	"github.com/trustpoints/trustpoints-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists append-only activity rows. Rows are never updated or
// deleted once written.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, activity *models.Activity) error
	ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Activity, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an activity repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Activity, error) {
	page = pagination.Normalize(page)
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Skip).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}
