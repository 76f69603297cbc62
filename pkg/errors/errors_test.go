package errors

import (
	stdErrors "errors"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		userMsg   string
		retryable bool
		detailsOK bool
	}{
		{code: CodeTimeout, userMsg: "the request timed out, please try again", retryable: true},
		{code: CodeNetworkUnreachable, userMsg: "network unavailable, check your connection", retryable: true},
		{code: CodeServer, userMsg: "the server could not process the request", detailsOK: true},
		{code: CodeSessionExpired, userMsg: "your session has expired, please sign in again"},
		{code: CodeNotAuthenticated, userMsg: "please sign in to continue"},
		{code: CodeInvalidToken, userMsg: "invalid session token"},
		{code: CodeAuthFailed, userMsg: "invalid email or password"},
		{code: CodeValidation, userMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, userMsg: "resource not found"},
		{code: CodePaymentFailed, userMsg: "payment could not be completed", detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.UserMessage != tt.userMsg {
			t.Fatalf("code %s expected user message %q got %q", tt.code, tt.userMsg, meta.UserMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.UserMessage != "something went wrong" {
		t.Fatalf("expected internal fallback, got %q", meta.UserMessage)
	}
}

func TestServerErrorCarriesStatusAndBody(t *testing.T) {
	err := Server(404, map[string]any{"message": "product not found"})
	if err.Code() != CodeServer {
		t.Fatalf("expected server code, got %s", err.Code())
	}
	if StatusOf(err) != 404 {
		t.Fatalf("expected status 404, got %d", StatusOf(err))
	}
	if UserMessage(err) != "product not found" {
		t.Fatalf("expected server message, got %q", UserMessage(err))
	}
}

func TestUserMessageFallsBackWhenBodyLacksMessage(t *testing.T) {
	err := Server(500, map[string]any{"detail": "stack trace"})
	if UserMessage(err) != "the server could not process the request" {
		t.Fatalf("unexpected user message %q", UserMessage(err))
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeNetworkUnreachable, cause, "dial api")
	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected cause to survive wrapping")
	}
	typed := As(err)
	if typed == nil || typed.Code() != CodeNetworkUnreachable {
		t.Fatalf("expected typed network error, got %v", err)
	}
	if !Retryable(err) {
		t.Fatalf("network errors should be user-retryable")
	}
}

func TestStatusOfNonServerErrorIsZero(t *testing.T) {
	if StatusOf(New(CodeNotAuthenticated, "no token")) != 0 {
		t.Fatalf("local errors carry no http status")
	}
	if StatusOf(stdErrors.New("plain")) != 0 {
		t.Fatalf("untyped errors carry no http status")
	}
}

func TestDumpIncludesChainAndServerDetails(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeServer, cause, "call failed").
		WithDetails(ServerDetails{Status: 503, Body: map[string]any{"message": "down"}})

	d := Dump(err)
	if d.Code != CodeServer {
		t.Fatalf("expected server code, got %s", d.Code)
	}
	if d.HTTPStatus != 503 {
		t.Fatalf("expected status 503, got %d", d.HTTPStatus)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d", len(d.Chain))
	}
}
