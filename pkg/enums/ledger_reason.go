package enums

import "fmt"

// LedgerReason explains why a ledger entry changed a user's balance.
type LedgerReason string

const (
	LedgerReasonOrderEscrow    LedgerReason = "order_escrow"
	LedgerReasonOrderRefund    LedgerReason = "order_refund"
	LedgerReasonDeliveryReward LedgerReason = "delivery_reward"
	LedgerReasonTransferOut    LedgerReason = "transfer_out"
	LedgerReasonTransferIn     LedgerReason = "transfer_in"
	LedgerReasonSignupGrant    LedgerReason = "signup_grant"
)

var validLedgerReasons = []LedgerReason{
	LedgerReasonOrderEscrow,
	LedgerReasonOrderRefund,
	LedgerReasonDeliveryReward,
	LedgerReasonTransferOut,
	LedgerReasonTransferIn,
	LedgerReasonSignupGrant,
}

// String implements fmt.Stringer.
func (r LedgerReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known LedgerReason.
func (r LedgerReason) IsValid() bool {
	for _, candidate := range validLedgerReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseLedgerReason converts raw input into a LedgerReason.
func ParseLedgerReason(value string) (LedgerReason, error) {
	for _, candidate := range validLedgerReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger reason %q", value)
}
