package types

import (
	"encoding/json"
	"strings"

	"github.com/helashop/storefront-go/pkg/errors"
)

// Envelope is the backend's outer response wrapper. The nesting of actual
// payloads under Data is inconsistent across endpoints, so each payload
// family gets a decoder that probes the documented shapes in a fixed
// priority order and fails explicitly when none match.
type Envelope struct {
	Code   int             `json:"code,omitempty"`
	Status string          `json:"status,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Dig descends through nested JSON objects by key. It returns nil when any
// key along the path is absent or the value is not an object.
func Dig(raw json.RawMessage, keys ...string) json.RawMessage {
	current := raw
	for _, key := range keys {
		if len(current) == 0 {
			return nil
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(current, &obj); err != nil {
			return nil
		}
		next, ok := obj[key]
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// UnwrapData strips one envelope level when present, otherwise returns the
// body unchanged.
func UnwrapData(raw json.RawMessage) json.RawMessage {
	if data := Dig(raw, "data"); len(data) > 0 {
		return data
	}
	return raw
}

// TokenPayload is the decoded result of a login response.
type TokenPayload struct {
	Token string
	User  *UserSnapshot
}

// DecodeToken extracts the bearer token from a login response body, probing
// the three documented shapes in order: top-level `token`, `data.token`, and
// a code+data envelope's `data.token`. First non-empty match wins.
func DecodeToken(raw json.RawMessage) (TokenPayload, error) {
	locations := [][]string{
		{"token"},
		{"data", "token"},
		{"data", "data", "token"},
	}
	for _, path := range locations {
		field := Dig(raw, path...)
		if len(field) == 0 {
			continue
		}
		var token string
		if err := json.Unmarshal(field, &token); err != nil {
			continue
		}
		if strings.TrimSpace(token) == "" {
			continue
		}
		payload := TokenPayload{Token: token}
		payload.User = decodeUserNear(raw, path[:len(path)-1])
		return payload, nil
	}
	return TokenPayload{}, errors.New(errors.CodeDecode, "no token in login response").
		WithDetails(string(raw))
}

func decodeUserNear(raw json.RawMessage, prefix []string) *UserSnapshot {
	field := Dig(raw, append(append([]string{}, prefix...), "user")...)
	if len(field) == 0 {
		return nil
	}
	var user UserSnapshot
	if err := json.Unmarshal(field, &user); err != nil {
		return nil
	}
	if user.ID == "" && user.Email == "" {
		return nil
	}
	return &user
}

// DecodeCart extracts a cart snapshot from a cart-returning response body.
// Candidates are probed in priority order: the body itself, `cart`,
// `data.cart`, and `data`; the first candidate carrying an `items` field is
// decoded verbatim.
func DecodeCart(raw json.RawMessage) (Cart, error) {
	candidates := []json.RawMessage{
		raw,
		Dig(raw, "cart"),
		Dig(raw, "data", "cart"),
		Dig(raw, "data"),
	}
	for _, candidate := range candidates {
		if len(candidate) == 0 {
			continue
		}
		if items := Dig(candidate, "items"); len(items) == 0 {
			continue
		}
		var cart Cart
		if err := json.Unmarshal(candidate, &cart); err != nil {
			return Cart{}, errors.Wrap(errors.CodeDecode, err, "malformed cart payload")
		}
		if cart.Items == nil {
			cart.Items = []CartLine{}
		}
		return cart, nil
	}
	return Cart{}, errors.New(errors.CodeDecode, "no cart in response").
		WithDetails(string(raw))
}

// DecodeOrder extracts a single order, tolerating `order` and `data.order`
// nesting as well as a bare order object.
func DecodeOrder(raw json.RawMessage) (Order, error) {
	candidates := []json.RawMessage{
		Dig(raw, "data", "order"),
		Dig(raw, "order"),
		Dig(raw, "data"),
		raw,
	}
	for _, candidate := range candidates {
		if len(candidate) == 0 {
			continue
		}
		if id := Dig(candidate, "_id"); len(id) == 0 {
			continue
		}
		var order Order
		if err := json.Unmarshal(candidate, &order); err != nil {
			return Order{}, errors.Wrap(errors.CodeDecode, err, "malformed order payload")
		}
		return order, nil
	}
	return Order{}, errors.New(errors.CodeDecode, "no order in response").
		WithDetails(string(raw))
}

// DecodeList decodes a JSON array found either at the named key, under
// `data.<key>`, or as the bare body.
func DecodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	candidates := []json.RawMessage{
		Dig(raw, "data", key),
		Dig(raw, key),
		UnwrapData(raw),
	}
	for _, candidate := range candidates {
		if len(candidate) == 0 {
			continue
		}
		trimmed := strings.TrimSpace(string(candidate))
		if !strings.HasPrefix(trimmed, "[") {
			continue
		}
		var out []T
		if err := json.Unmarshal(candidate, &out); err != nil {
			return nil, errors.Wrap(errors.CodeDecode, err, "malformed list payload")
		}
		return out, nil
	}
	return nil, errors.New(errors.CodeDecode, "no "+key+" list in response").
		WithDetails(string(raw))
}
