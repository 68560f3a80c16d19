package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
	"github.com/trustpoints/trustpoints-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository owns the users.points column and the append-only ledger rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	// DebitIfSufficient decrements points only when the balance covers the
	// amount. Returns false when the guard failed, leaving the row untouched.
	DebitIfSufficient(ctx context.Context, userID uuid.UUID, amount int) (bool, error)
	Credit(ctx context.Context, userID uuid.UUID, amount int) error
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error
	ListEntries(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.LedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select("points").
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return 0, err
	}
	return user.Points, nil
}

func (r *repository) DebitIfSufficient(ctx context.Context, userID uuid.UUID, amount int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET points = points - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND points >= ?
	`, amount, userID, amount)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Credit(ctx context.Context, userID uuid.UUID, amount int) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET points = points + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, amount, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListEntries(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.LedgerEntry, error) {
	page = pagination.Normalize(page)
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Skip).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
