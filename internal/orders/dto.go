package orders

import (
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
)

// LocationDTO is an address plus its coordinates.
type LocationDTO struct {
	Address string  `json:"address" validate:"required"`
	Lat     float64 `json:"lat" validate:"required,latitude"`
	Lng     float64 `json:"lng" validate:"required,longitude"`
}

// CreateOrderRequest is the payload senders post to create an order.
type CreateOrderRequest struct {
	ItemName        string      `json:"item_name" validate:"required"`
	ItemCategory    string      `json:"item_category" validate:"required"`
	ItemWeightKg    float64     `json:"item_weight_kg" validate:"required,gt=0"`
	ItemFragile     bool        `json:"item_fragile"`
	ItemDescription string      `json:"item_description"`
	Pickup          LocationDTO `json:"pickup" validate:"required"`
	Destination     LocationDTO `json:"destination" validate:"required"`
	Notes           *string     `json:"notes,omitempty"`
}

// EstimateRequest prices a hypothetical order without creating it.
type EstimateRequest struct {
	ItemWeightKg float64     `json:"item_weight_kg" validate:"required,gt=0"`
	ItemFragile  bool        `json:"item_fragile"`
	Pickup       LocationDTO `json:"pickup" validate:"required"`
	Destination  LocationDTO `json:"destination" validate:"required"`
}

// EstimateResponse returns the quote a sender would pay and a hunter would earn.
type EstimateResponse struct {
	DistanceKm        float64 `json:"distance_km"`
	PointsCost        int     `json:"points_cost"`
	TrustPointsReward int     `json:"trust_points_reward"`
}

// NearbyOrder pairs a pending order with its distance from the query point.
type NearbyOrder struct {
	models.Order
	DistanceFromQueryKm float64 `json:"distance_from_query_km"`
}
