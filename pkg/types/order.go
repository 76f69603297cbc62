package types

import (
	"time"

	"github.com/helashop/storefront-go/pkg/enums"
	"github.com/shopspring/decimal"
)

// Address is the shipping destination submitted with an order.
type Address struct {
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Street   string `json:"street" validate:"required"`
	Ward     string `json:"ward,omitempty"`
	District string `json:"district,omitempty"`
	City     string `json:"city" validate:"required"`
}

// OrderItem is one purchased line as the server recorded it.
type OrderItem struct {
	Product  ProductRef      `json:"product"`
	Name     string          `json:"name,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// StatusHistoryEntry records one server-side status transition.
type StatusHistoryEntry struct {
	Status    enums.OrderStatus `json:"status"`
	Note      string            `json:"note,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Order is the client's read-only view of a server-side order. Status and
// PaymentStatus are independent axes; neither is derived from the other.
type Order struct {
	ID              string               `json:"_id"`
	OrderNumber     string               `json:"orderNumber"`
	Status          enums.OrderStatus    `json:"status"`
	PaymentMethod   enums.PaymentMethod  `json:"paymentMethod"`
	PaymentStatus   enums.PaymentStatus  `json:"paymentStatus"`
	Items           []OrderItem          `json:"items"`
	ShippingAddress Address              `json:"shippingAddress"`
	Total           decimal.Decimal      `json:"total"`
	Notes           string               `json:"notes,omitempty"`
	CancelReason    string               `json:"cancelReason,omitempty"`
	StatusHistory   []StatusHistoryEntry `json:"statusHistory,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// OrderPage is one page of the my-orders listing.
type OrderPage struct {
	Orders     []Order `json:"orders"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
	Total      int     `json:"total"`
}
