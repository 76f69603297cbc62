package cart

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/helashop/storefront-go/internal/httpclient"
	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/logger"
	"github.com/helashop/storefront-go/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	fetchEndpoint  = "cart/get-cart"
	addEndpoint    = "cart/add-to-cart"
	updateEndpoint = "cart/update-cart-item"
	removeEndpoint = "cart/remove-from-cart"
	clearEndpoint  = "cart/clear-cart"
)

// Manager keeps exactly one authoritative cart in memory. The held cart is
// always a verbatim copy of the last successful cart-returning server
// response, or the empty sentinel. The client never does its own arithmetic
// on the persisted cart.
type Manager interface {
	FetchCart(ctx context.Context) (types.Cart, error)
	AddItem(ctx context.Context, productID string, quantity int) (bool, error)
	UpdateItem(ctx context.Context, productID string, quantity int) (bool, error)
	RemoveItem(ctx context.Context, productID string) (bool, error)
	EmptyCart(ctx context.Context) (bool, error)
	Current() types.Cart
	SelectionTotal(productIDs []string) decimal.Decimal
	Reset()
}

type authedRequester interface {
	Do(ctx context.Context, endpoint string, opts httpclient.Options) (*httpclient.Response, error)
}

type sessionChecker interface {
	IsLoggedIn(ctx context.Context) bool
}

type manager struct {
	authed   authedRequester
	sessions sessionChecker
	logger   *logger.Logger

	mu      sync.Mutex
	current types.Cart
}

// ManagerParams bundles the dependencies required to build the cart manager.
type ManagerParams struct {
	Authed   authedRequester
	Sessions sessionChecker
	Logger   *logger.Logger
}

// NewManager constructs a cart manager starting from the empty sentinel.
func NewManager(params ManagerParams) (Manager, error) {
	if params.Authed == nil {
		return nil, fmt.Errorf("authenticated client is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session checker is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &manager{
		authed:   params.Authed,
		sessions: params.Sessions,
		logger:   params.Logger,
		current:  types.EmptyCart(),
	}, nil
}

// FetchCart pulls the cart from the server and replaces the local copy. Any
// failure resets the local cart to the empty sentinel rather than leaving a
// stale one behind.
func (m *manager) FetchCart(ctx context.Context) (types.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.sessions.IsLoggedIn(ctx) {
		m.current = types.EmptyCart()
		return m.current.Clone(), pkgerrors.New(pkgerrors.CodeNotAuthenticated, "no session")
	}

	resp, err := m.authed.Do(ctx, fetchEndpoint, httpclient.Options{Method: http.MethodGet})
	if err != nil {
		m.current = types.EmptyCart()
		return m.current.Clone(), err
	}
	fetched, err := types.DecodeCart(resp.Data)
	if err != nil {
		m.current = types.EmptyCart()
		return m.current.Clone(), err
	}

	m.current = fetched
	return m.current.Clone(), nil
}

// AddItem posts a new line to the cart. On success the local cart is replaced
// with the server's post-mutation cart. Product-not-found and validation
// rejections come back as false with an inspectable typed error; the local
// cart is left untouched on every failure.
func (m *manager) AddItem(ctx context.Context, productID string, quantity int) (bool, error) {
	if err := validateLine(productID, quantity); err != nil {
		return false, err
	}
	return m.mutate(ctx, addEndpoint, map[string]any{
		"productId": productID,
		"quantity":  quantity,
	})
}

// UpdateItem changes the quantity of an existing line. A quantity of zero is
// rejected locally: removal goes through RemoveItem, never through an update.
func (m *manager) UpdateItem(ctx context.Context, productID string, quantity int) (bool, error) {
	if err := validateLine(productID, quantity); err != nil {
		return false, err
	}
	return m.mutate(ctx, updateEndpoint, map[string]any{
		"productId": productID,
		"quantity":  quantity,
	})
}

// RemoveItem deletes a line from the cart.
func (m *manager) RemoveItem(ctx context.Context, productID string) (bool, error) {
	if strings.TrimSpace(productID) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return m.mutate(ctx, removeEndpoint, map[string]any{"productId": productID})
}

// EmptyCart clears the cart server-side and replaces the local copy with the
// server's response.
func (m *manager) EmptyCart(ctx context.Context) (bool, error) {
	return m.mutate(ctx, clearEndpoint, nil)
}

// mutate serializes cart mutations so their effects apply in submission
// order. Unlike FetchCart, a failed mutation preserves the previous cart:
// the server state presumably did not change either.
func (m *manager) mutate(ctx context.Context, endpoint string, body any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.sessions.IsLoggedIn(ctx) {
		m.current = types.EmptyCart()
		return false, pkgerrors.New(pkgerrors.CodeNotAuthenticated, "no session")
	}

	resp, err := m.authed.Do(ctx, endpoint, httpclient.Options{
		Method: http.MethodPost,
		Body:   body,
	})
	if err != nil {
		switch pkgerrors.StatusOf(err) {
		case http.StatusNotFound:
			return false, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		case http.StatusBadRequest:
			return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cart mutation rejected")
		}
		return false, err
	}

	mutated, err := types.DecodeCart(resp.Data)
	if err != nil {
		m.logger.Warn(m.logger.WithEndpoint(ctx, endpoint), "cart response did not decode")
		return false, err
	}

	m.current = mutated
	return true, nil
}

// Current returns a copy of the authoritative cart.
func (m *manager) Current() types.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// SelectionTotal aggregates the price of a user-selected subset of lines.
// Display-only: it never feeds back into the authoritative cart.
func (m *manager) SelectionTotal(productIDs []string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.SelectionTotal(productIDs)
}

// Reset drops the local cart to the empty sentinel. Called on logout.
func (m *manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = types.EmptyCart()
}

func validateLine(productID string, quantity int) error {
	if strings.TrimSpace(productID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	return nil
}
