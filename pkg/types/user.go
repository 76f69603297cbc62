package types

import "github.com/shopspring/decimal"

// UserSnapshot is the profile slice cached locally alongside the token. It is
// a convenience copy; the server remains authoritative.
type UserSnapshot struct {
	ID        string `json:"_id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatar,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Product is a catalog entry from product/all.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image,omitempty"`
	Category    string          `json:"category,omitempty"`
	InStock     bool            `json:"inStock"`
}

// Banner is a promotional entry from banner/get-banners.
type Banner struct {
	ID       string `json:"_id"`
	Title    string `json:"title,omitempty"`
	ImageURL string `json:"image"`
	LinkURL  string `json:"link,omitempty"`
	Active   bool   `json:"isActive"`
}
