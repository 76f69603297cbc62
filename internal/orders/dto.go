package orders

import (
	"github.com/helashop/storefront-go/pkg/enums"
	"github.com/helashop/storefront-go/pkg/types"
)

// CreateOrderInput is the checkout submission. SelectedProductIDs narrows the
// order to a subset of cart lines; empty means the whole cart.
type CreateOrderInput struct {
	ShippingAddress    types.Address       `json:"shippingAddress"`
	PaymentMethod      enums.PaymentMethod `json:"paymentMethod" validate:"required"`
	Notes              string              `json:"notes,omitempty"`
	SelectedProductIDs []string            `json:"selectedProducts,omitempty"`
}

// ListParams filters and pages the my-orders listing. Zero values are
// omitted from the query string.
type ListParams struct {
	Status enums.OrderStatus
	Page   int
	Limit  int
}
