package enums

import "fmt"

// ActivityType labels entries in the append-only activity feed.
type ActivityType string

const (
	ActivityOrderCreated      ActivityType = "ORDER_CREATED"
	ActivityOrderClaimed      ActivityType = "ORDER_CLAIMED"
	ActivityOrderPickedUp     ActivityType = "ORDER_PICKED_UP"
	ActivityOrderDelivered    ActivityType = "ORDER_DELIVERED"
	ActivityOrderCancelled    ActivityType = "ORDER_CANCELLED"
	ActivityPointsEarned      ActivityType = "POINTS_EARNED"
	ActivityPointsSpent       ActivityType = "POINTS_SPENT"
	ActivityPointsRefunded    ActivityType = "POINTS_REFUNDED"
	ActivityPointsTransferred ActivityType = "POINTS_TRANSFERRED"
	ActivityPointsReceived    ActivityType = "POINTS_RECEIVED"
	ActivityAccountCreated    ActivityType = "ACCOUNT_CREATED"
)

var validActivityTypes = []ActivityType{
	ActivityOrderCreated,
	ActivityOrderClaimed,
	ActivityOrderPickedUp,
	ActivityOrderDelivered,
	ActivityOrderCancelled,
	ActivityPointsEarned,
	ActivityPointsSpent,
	ActivityPointsRefunded,
	ActivityPointsTransferred,
	ActivityPointsReceived,
	ActivityAccountCreated,
}

// String implements fmt.Stringer.
func (a ActivityType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityType.
func (a ActivityType) IsValid() bool {
	for _, candidate := range validActivityTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityType converts raw input into an ActivityType.
func ParseActivityType(value string) (ActivityType, error) {
	for _, candidate := range validActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity type %q", value)
}
