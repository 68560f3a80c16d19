package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/trustpoints/trustpoints-backend/pkg/enums"
)

// Activity is an append-only feed record. Rows are never mutated or deleted.
type Activity struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index:idx_activities_user_created,priority:1" json:"user_id"`
	Type        enums.ActivityType `gorm:"column:type;not null" json:"type"`
	Title       string             `gorm:"column:title;not null" json:"title"`
	Description string             `gorm:"column:description" json:"description"`
	Points      *int               `gorm:"column:points" json:"points,omitempty"`
	OrderID     *string            `gorm:"column:order_id;index" json:"order_id,omitempty"`
	Metadata    json.RawMessage    `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime;index:idx_activities_user_created,priority:2,sort:desc" json:"created_at"`
}
