package enums

import "fmt"

// PaymentFlowState tracks the external payment handoff for non-COD orders:
// order_created -> url_requested -> redirected -> verified | failed.
type PaymentFlowState string

const (
	PaymentFlowOrderCreated PaymentFlowState = "order_created"
	PaymentFlowURLRequested PaymentFlowState = "url_requested"
	PaymentFlowRedirected   PaymentFlowState = "redirected"
	PaymentFlowVerified     PaymentFlowState = "verified"
	PaymentFlowFailed       PaymentFlowState = "failed"
)

var validPaymentFlowStates = []PaymentFlowState{
	PaymentFlowOrderCreated,
	PaymentFlowURLRequested,
	PaymentFlowRedirected,
	PaymentFlowVerified,
	PaymentFlowFailed,
}

// IsValid reports whether the value matches the canonical flow state enum.
func (s PaymentFlowState) IsValid() bool {
	for _, candidate := range validPaymentFlowStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// Terminal reports whether the flow has reached a final outcome.
func (s PaymentFlowState) Terminal() bool {
	return s == PaymentFlowVerified || s == PaymentFlowFailed
}

// ParsePaymentFlowState converts the raw string to PaymentFlowState.
func ParsePaymentFlowState(value string) (PaymentFlowState, error) {
	for _, candidate := range validPaymentFlowStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment flow state %q", value)
}
