package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
	"github.com/trustpoints/trustpoints-backend/pkg/enums"
	"github.com/trustpoints/trustpoints-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists orders. Status transitions go through conditional
// updates keyed on the expected prior status; a false return means the guard
// observed a different state and nothing was written.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID string) (*models.Order, error)

	ClaimIfPending(ctx context.Context, orderID string, hunterID uuid.UUID, at time.Time) (bool, error)
	MarkInTransit(ctx context.Context, orderID string, hunterID uuid.UUID, at time.Time) (bool, error)
	MarkDelivered(ctx context.Context, orderID string, hunterID uuid.UUID, at time.Time) (bool, error)
	CancelIfOpen(ctx context.Context, orderID string, senderID uuid.UUID, at time.Time) (bool, error)

	ListAvailable(ctx context.Context, page pagination.Params) ([]models.Order, error)
	ListPendingInBox(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]models.Order, error)
	ListBySender(ctx context.Context, senderID uuid.UUID, page pagination.Params) ([]models.Order, error)
	ListByHunter(ctx context.Context, hunterID uuid.UUID, page pagination.Params) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ClaimIfPending binds the hunter and flips PENDING to CLAIMED in one
// conditional write. Exactly one concurrent caller can win.
func (r *repository) ClaimIfPending(ctx context.Context, orderID string, hunterID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET status = ?, hunter_id = ?, claimed_at = ?, updated_at = ?
		WHERE order_id = ? AND status = ?
	`, enums.OrderStatusClaimed, hunterID, at, at, orderID, enums.OrderStatusPending)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) MarkInTransit(ctx context.Context, orderID string, hunterID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET status = ?, picked_up_at = ?, updated_at = ?
		WHERE order_id = ? AND status = ? AND hunter_id = ?
	`, enums.OrderStatusInTransit, at, at, orderID, enums.OrderStatusClaimed, hunterID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) MarkDelivered(ctx context.Context, orderID string, hunterID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET status = ?, delivered_at = ?, updated_at = ?
		WHERE order_id = ? AND status = ? AND hunter_id = ?
	`, enums.OrderStatusDelivered, at, at, orderID, enums.OrderStatusInTransit, hunterID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CancelIfOpen flips PENDING or CLAIMED to CANCELLED for the owning sender.
// Cancellation after pickup is not allowed.
func (r *repository) CancelIfOpen(ctx context.Context, orderID string, senderID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET status = ?, cancelled_at = ?, updated_at = ?
		WHERE order_id = ? AND sender_id = ? AND status IN (?, ?)
	`, enums.OrderStatusCancelled, at, at, orderID, senderID, enums.OrderStatusPending, enums.OrderStatusClaimed)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListAvailable(ctx context.Context, page pagination.Params) ([]models.Order, error) {
	page = pagination.Normalize(page)
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.OrderStatusPending).
		Order("created_at ASC").
		Limit(page.Limit).
		Offset(page.Skip).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListPendingInBox prefilters by bounding box; the exact radius cut and
// distance ordering happen in the service with the same haversine used at
// order creation.
func (r *repository) ListPendingInBox(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.OrderStatusPending).
		Where("pickup_lat BETWEEN ? AND ?", minLat, maxLat).
		Where("pickup_lng BETWEEN ? AND ?", minLng, maxLng).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListBySender(ctx context.Context, senderID uuid.UUID, page pagination.Params) ([]models.Order, error) {
	page = pagination.Normalize(page)
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Skip).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByHunter(ctx context.Context, hunterID uuid.UUID, page pagination.Params) ([]models.Order, error) {
	page = pagination.Normalize(page)
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("hunter_id = ?", hunterID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Skip).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
