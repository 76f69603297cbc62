package enums

import (
	"encoding/json"
	"fmt"
)

// OrderStatus describes the fulfillment axis of an order. It is independent
// of PaymentStatus: a cancelled order may still carry a completed payment.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
	OrderStatusRefunded,
}

// IsValid reports whether the value matches the canonical order status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanCancel reports whether a cancel request is still allowed for the status.
func (s OrderStatus) CanCancel() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// ParseOrderStatus converts the raw string to OrderStatus. The backend uses
// "delivering" and "completed" interchangeably with shipped/delivered.
func ParseOrderStatus(value string) (OrderStatus, error) {
	switch value {
	case "delivering":
		return OrderStatusShipped, nil
	case "completed":
		return OrderStatusDelivered, nil
	}
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// UnmarshalJSON normalizes backend aliases so the rest of the client only
// ever sees canonical statuses. Unknown values pass through unchanged; the
// server owns the vocabulary.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if parsed, err := ParseOrderStatus(raw); err == nil {
		*s = parsed
		return nil
	}
	*s = OrderStatus(raw)
	return nil
}
