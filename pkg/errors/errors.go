package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeTimeout            Code = "TIMEOUT"
	CodeNetworkUnreachable Code = "NETWORK_UNREACHABLE"
	CodeServer             Code = "SERVER_ERROR"
	CodeSessionExpired     Code = "SESSION_EXPIRED"
	CodeNotAuthenticated   Code = "NOT_AUTHENTICATED"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeAuthFailed         Code = "AUTH_FAILED"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeNotFound           Code = "NOT_FOUND"
	CodePaymentFailed      Code = "PAYMENT_FAILED"
	CodeDecode             Code = "DECODE_ERROR"
	CodeInternal           Code = "INTERNAL_ERROR"
)

type Metadata struct {
	Retryable      bool
	UserMessage    string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeTimeout: {
		Retryable:   true,
		UserMessage: "the request timed out, please try again",
	},
	CodeNetworkUnreachable: {
		Retryable:   true,
		UserMessage: "network unavailable, check your connection",
	},
	CodeServer: {
		Retryable:      false,
		UserMessage:    "the server could not process the request",
		DetailsAllowed: true,
	},
	CodeSessionExpired: {
		Retryable:   false,
		UserMessage: "your session has expired, please sign in again",
	},
	CodeNotAuthenticated: {
		Retryable:   false,
		UserMessage: "please sign in to continue",
	},
	CodeInvalidToken: {
		Retryable:   false,
		UserMessage: "invalid session token",
	},
	CodeAuthFailed: {
		Retryable:   false,
		UserMessage: "invalid email or password",
	},
	CodeValidation: {
		Retryable:      false,
		UserMessage:    "validation failed",
		DetailsAllowed: true,
	},
	CodeNotFound: {
		Retryable:   false,
		UserMessage: "resource not found",
	},
	CodePaymentFailed: {
		Retryable:      false,
		UserMessage:    "payment could not be completed",
		DetailsAllowed: true,
	},
	CodeDecode: {
		Retryable:      false,
		UserMessage:    "unexpected response from the server",
		DetailsAllowed: true,
	},
	CodeInternal: {
		Retryable:   false,
		UserMessage: "something went wrong",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// ServerDetails carries the HTTP status and decoded body of a non-2xx response.
// Callers branch on Status, never on body text.
type ServerDetails struct {
	Status int            `json:"status"`
	Body   map[string]any `json:"body,omitempty"`
}

// Message returns the server-provided message when the body carries one.
func (d ServerDetails) Message() string {
	if d.Body == nil {
		return ""
	}
	if msg, ok := d.Body["message"].(string); ok {
		return msg
	}
	return ""
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// Server builds a SERVER_ERROR carrying the response status and decoded body.
func Server(status int, body map[string]any) *Error {
	return New(CodeServer, fmt.Sprintf("server returned status %d", status)).
		WithDetails(ServerDetails{Status: status, Body: body})
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// StatusOf extracts the HTTP status from an error carrying a server response,
// or 0 when the error never reached the server.
func StatusOf(err error) int {
	typed := As(err)
	if typed == nil {
		return 0
	}
	if details, ok := typed.Details().(ServerDetails); ok {
		return details.Status
	}
	return 0
}

// UserMessage resolves the text shown to an end user: the server-provided
// message when one is present and allowed, otherwise the code's default.
func UserMessage(err error) string {
	typed := As(err)
	if typed == nil {
		return MetadataFor(CodeInternal).UserMessage
	}
	meta := MetadataFor(typed.Code())
	if meta.DetailsAllowed {
		if details, ok := typed.Details().(ServerDetails); ok {
			if msg := details.Message(); msg != "" {
				return msg
			}
		}
	}
	return meta.UserMessage
}

// Retryable reports whether a fresh user-initiated retry may succeed.
// Nothing in the client retries automatically.
func Retryable(err error) bool {
	typed := As(err)
	if typed == nil {
		return false
	}
	return MetadataFor(typed.Code()).Retryable
}
