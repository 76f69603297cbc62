package auth

import "github.com/helashop/storefront-go/pkg/types"

// Credentials is the login input.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the signup input for auth/mobileRegister.
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone,omitempty"`
}

// LoginResult is what a successful login yields. User is nil when the server
// response carried no snapshot next to the token.
type LoginResult struct {
	Token string
	User  *types.UserSnapshot
}
