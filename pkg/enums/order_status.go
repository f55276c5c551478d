package enums

import "strings"

// OrderStatus is the canonical payment outcome derived from provider state.
type OrderStatus string

const (
	OrderStatusSucceeded  OrderStatus = "succeeded"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusUnknown    OrderStatus = "unknown"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusSucceeded,
	OrderStatusProcessing,
	OrderStatusFailed,
	OrderStatusUnknown,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus maps a provider status string into the closed status set.
// The session payment status "paid" and the payment-object status "succeeded"
// both normalize to Succeeded; anything unrecognized is Unknown, never an error.
func ParseOrderStatus(raw string) OrderStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid", "succeeded":
		return OrderStatusSucceeded
	case "processing":
		return OrderStatusProcessing
	case "failed":
		return OrderStatusFailed
	default:
		return OrderStatusUnknown
	}
}
