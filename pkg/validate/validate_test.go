package validate

import (
	"testing"

	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
)

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestStructReportsFieldsByJSONTag(t *testing.T) {
	err := Struct(loginInput{Email: "not-an-email", Password: "123"})
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["email"] != "must be a valid email" {
		t.Fatalf("unexpected email message: %q", details["email"])
	}
	if details["password"] != "must be at least 6" {
		t.Fatalf("unexpected password message: %q", details["password"])
	}
}

func TestStructAcceptsValidInput(t *testing.T) {
	if err := Struct(loginInput{Email: "user@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVar(t *testing.T) {
	if err := Var("user@example.com", "required,email"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Var("", "required,email"); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
