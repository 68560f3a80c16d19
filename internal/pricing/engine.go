package pricing

import (
	"math"

	pkgerrors "github.com/trustpoints/trustpoints-backend/pkg/errors"
)

const (
	// MinCost is the floor charged to a sender, regardless of distance.
	MinCost = 10
	// MinReward is the floor paid to a hunter, regardless of distance.
	MinReward = 5

	distanceRate      = 10.0
	weightRate        = 5.0
	fragileCostFactor = 1.2
	fragileRewardFee  = 1.5
)

// Quote bundles the two sides of an order's economics.
type Quote struct {
	PointsCost        int `json:"points_cost"`
	TrustPointsReward int `json:"trust_points_reward"`
}

// CostToSender computes the points a sender pays to post an order.
// The first kilogram rides free; fragile items carry a surcharge.
func CostToSender(distanceKm, weightKg float64, fragile bool) (int, error) {
	if err := validate(distanceKm, weightKg); err != nil {
		return 0, err
	}
	base := math.Round(distanceRate*distanceKm + weightRate*math.Max(0, weightKg-1))
	if fragile {
		base *= fragileCostFactor
	}
	cost := int(math.Round(base))
	if cost < MinCost {
		cost = MinCost
	}
	return cost, nil
}

// RewardToHunter computes the points a hunter earns on delivery.
func RewardToHunter(distanceKm float64, fragile bool) (int, error) {
	if distanceKm < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidOrderParameters, "distance must not be negative")
	}
	base := math.Round(distanceRate * distanceKm)
	if fragile {
		base *= fragileRewardFee
	}
	reward := int(math.Round(base))
	if reward < MinReward {
		reward = MinReward
	}
	return reward, nil
}

// QuoteOrder computes both sides at once for order creation and estimates.
func QuoteOrder(distanceKm, weightKg float64, fragile bool) (Quote, error) {
	cost, err := CostToSender(distanceKm, weightKg, fragile)
	if err != nil {
		return Quote{}, err
	}
	reward, err := RewardToHunter(distanceKm, fragile)
	if err != nil {
		return Quote{}, err
	}
	return Quote{PointsCost: cost, TrustPointsReward: reward}, nil
}

func validate(distanceKm, weightKg float64) error {
	if distanceKm < 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidOrderParameters, "distance must not be negative")
	}
	if weightKg <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidOrderParameters, "weight must be positive")
	}
	return nil
}
