package enums

import "fmt"

// PaymentMethod describes how an order is paid.
type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "cod"
	PaymentMethodVNPay   PaymentMethod = "vnpay"
	PaymentMethodBanking PaymentMethod = "banking"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCOD,
	PaymentMethodVNPay,
	PaymentMethodBanking,
}

// IsValid reports whether the value matches the canonical payment method enum.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// RequiresExternalPayment reports whether checkout must run the external
// payment handoff (create url, redirect, verify) after order creation.
func (m PaymentMethod) RequiresExternalPayment() bool {
	return m != PaymentMethodCOD
}

// ParsePaymentMethod converts the raw string to PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
