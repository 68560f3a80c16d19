package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trustpoints/trustpoints-backend/pkg/enums"
)

// Order is a delivery posted by a sender and fulfilled by a hunter.
//
// "status + hunter_id" is one logically atomic cell: both are only written
// through conditional updates keyed on the expected prior status, never
// read-modify-write. hunter_id is set exactly once, at the claim transition.
type Order struct {
	OrderID  string     `gorm:"column:order_id;primaryKey" json:"order_id"`
	SenderID uuid.UUID  `gorm:"column:sender_id;type:uuid;not null;index" json:"sender_id"`
	HunterID *uuid.UUID `gorm:"column:hunter_id;type:uuid;index" json:"hunter_id,omitempty"`

	Status enums.OrderStatus `gorm:"column:status;not null;default:'PENDING';index:idx_orders_status_created,priority:1" json:"status"`

	ItemName        string             `gorm:"column:item_name;not null" json:"item_name"`
	ItemCategory    enums.ItemCategory `gorm:"column:item_category;not null;default:'OTHER'" json:"item_category"`
	ItemWeightKg    float64            `gorm:"column:item_weight_kg;not null" json:"item_weight_kg"`
	ItemFragile     bool               `gorm:"column:item_fragile;not null;default:false" json:"item_fragile"`
	ItemDescription string             `gorm:"column:item_description" json:"item_description"`

	PickupAddress      string  `gorm:"column:pickup_address;not null" json:"pickup_address"`
	PickupLat          float64 `gorm:"column:pickup_lat;not null" json:"pickup_lat"`
	PickupLng          float64 `gorm:"column:pickup_lng;not null" json:"pickup_lng"`
	DestinationAddress string  `gorm:"column:destination_address;not null" json:"destination_address"`
	DestinationLat     float64 `gorm:"column:destination_lat;not null" json:"destination_lat"`
	DestinationLng     float64 `gorm:"column:destination_lng;not null" json:"destination_lng"`

	DistanceKm        float64 `gorm:"column:distance_km;not null" json:"distance_km"`
	PointsCost        int     `gorm:"column:points_cost;not null" json:"points_cost"`
	TrustPointsReward int     `gorm:"column:trust_points_reward;not null" json:"trust_points_reward"`

	Notes *string `gorm:"column:notes" json:"notes,omitempty"`

	ClaimedAt   *time.Time `gorm:"column:claimed_at" json:"claimed_at,omitempty"`
	PickedUpAt  *time.Time `gorm:"column:picked_up_at" json:"picked_up_at,omitempty"`
	DeliveredAt *time.Time `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	CancelledAt *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime;index:idx_orders_status_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
