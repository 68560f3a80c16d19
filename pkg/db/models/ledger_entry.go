package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trustpoints/trustpoints-backend/pkg/enums"
)

// LedgerEntry records an immutable balance change. Entries are written in the
// same transaction as the balance update, so the per-user sum of deltas always
// equals the user's current points balance.
type LedgerEntry struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Delta     int                `gorm:"column:delta;not null" json:"delta"`
	Reason    enums.LedgerReason `gorm:"column:reason;not null" json:"reason"`
	OrderID   *string            `gorm:"column:order_id;index" json:"order_id,omitempty"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
