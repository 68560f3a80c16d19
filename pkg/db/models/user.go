package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that acts as sender, hunter, or both. The points column
// is the ledger balance; it is only ever changed through atomic arithmetic
// updates so concurrent debits never lose writes.
type User struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	FullName     string    `gorm:"column:full_name;not null" json:"full_name"`
	Phone        *string   `gorm:"column:phone" json:"phone,omitempty"`
	Points       int       `gorm:"column:points;not null;default:0" json:"points"`
	TrustScore   int       `gorm:"column:trust_score;not null;default:0" json:"trust_score"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
