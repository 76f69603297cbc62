package types

import (
	"github.com/shopspring/decimal"
)

// ProductRef is the product slice embedded in a cart line.
type ProductRef struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name,omitempty"`
	Price    decimal.Decimal `json:"price,omitempty"`
	ImageURL string          `json:"image,omitempty"`
}

// CartLine is one product entry in the cart, priced at add time.
type CartLine struct {
	Product  ProductRef      `json:"product"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Cart is the authoritative server-sourced cart snapshot. The client never
// computes Items, TotalItems, or TotalAmount itself; every value here is a
// verbatim copy of the last successful server response, or the empty sentinel.
type Cart struct {
	Items       []CartLine      `json:"items"`
	TotalItems  int             `json:"totalItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// EmptyCart returns the well-defined empty-cart sentinel.
func EmptyCart() Cart {
	return Cart{
		Items:       []CartLine{},
		TotalItems:  0,
		TotalAmount: decimal.Zero,
	}
}

// IsEmpty reports whether the cart holds no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clone returns a deep copy so callers cannot mutate the held snapshot.
func (c Cart) Clone() Cart {
	out := Cart{
		Items:       make([]CartLine, len(c.Items)),
		TotalItems:  c.TotalItems,
		TotalAmount: c.TotalAmount,
	}
	copy(out.Items, c.Items)
	return out
}

// SelectionTotal aggregates price*quantity over the named products. This is
// display-only checkout math over a user-selected subset; it never feeds back
// into the persisted cart.
func (c Cart) SelectionTotal(productIDs []string) decimal.Decimal {
	selected := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		selected[id] = struct{}{}
	}
	total := decimal.Zero
	for _, line := range c.Items {
		if _, ok := selected[line.Product.ID]; !ok {
			continue
		}
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// SelectLines returns the cart lines matching the named products, in cart order.
func (c Cart) SelectLines(productIDs []string) []CartLine {
	selected := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		selected[id] = struct{}{}
	}
	var lines []CartLine
	for _, line := range c.Items {
		if _, ok := selected[line.Product.ID]; ok {
			lines = append(lines, line)
		}
	}
	return lines
}
