package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/helashop/storefront-go/internal/httpclient"
	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/logger"
	"github.com/helashop/storefront-go/pkg/types"
	"github.com/helashop/storefront-go/pkg/validate"
)

const (
	createEndpoint = "order/create"
	listEndpoint   = "order/my-orders"
	cancelEndpoint = "order/cancel"
)

// Service submits and reads orders. Orders are read-only from the client's
// perspective: the view is always fetched, never locally mutated, except
// through the explicit cancel action.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (types.Order, error)
	List(ctx context.Context, params ListParams) (types.OrderPage, error)
	Get(ctx context.Context, orderID string) (types.Order, error)
	Cancel(ctx context.Context, orderID, reason string) (types.Order, error)
}

type authedRequester interface {
	Do(ctx context.Context, endpoint string, opts httpclient.Options) (*httpclient.Response, error)
}

type cartReader interface {
	Current() types.Cart
}

type service struct {
	authed authedRequester
	carts  cartReader
	logger *logger.Logger
}

// ServiceParams bundles the dependencies required to build the order service.
type ServiceParams struct {
	Authed authedRequester
	Carts  cartReader
	Logger *logger.Logger
}

// NewService constructs the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Authed == nil {
		return nil, fmt.Errorf("authenticated client is required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart reader is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{authed: params.Authed, carts: params.Carts, logger: params.Logger}, nil
}

// Create submits the checkout. An empty cart, or a selected subset matching
// none of its lines, fails before any network call.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (types.Order, error) {
	if err := validate.Struct(input); err != nil {
		return types.Order{}, err
	}
	if !input.PaymentMethod.IsValid() {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	cart := s.carts.Current()
	if cart.IsEmpty() {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if len(input.SelectedProductIDs) > 0 && len(cart.SelectLines(input.SelectedProductIDs)) == 0 {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "selected items are not in the cart")
	}

	resp, err := s.authed.Do(ctx, createEndpoint, httpclient.Options{
		Method: http.MethodPost,
		Body:   input,
	})
	if err != nil {
		return types.Order{}, err
	}
	order, err := types.DecodeOrder(resp.Data)
	if err != nil {
		return types.Order{}, err
	}

	s.logger.Info(s.logger.WithOrderID(ctx, order.ID), "order created")
	return order, nil
}

// List fetches one page of the caller's orders.
func (s *service) List(ctx context.Context, params ListParams) (types.OrderPage, error) {
	endpoint := listEndpoint
	if query := params.encode(); query != "" {
		endpoint += "?" + query
	}
	resp, err := s.authed.Do(ctx, endpoint, httpclient.Options{Method: http.MethodGet})
	if err != nil {
		return types.OrderPage{}, err
	}
	return decodeOrderPage(resp.Data)
}

// Get fetches a single order by id.
func (s *service) Get(ctx context.Context, orderID string) (types.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	resp, err := s.authed.Do(ctx, listEndpoint+"/"+url.PathEscape(orderID), httpclient.Options{Method: http.MethodGet})
	if err != nil {
		return types.Order{}, err
	}
	return types.DecodeOrder(resp.Data)
}

// Cancel asks the server to cancel an order. Callers only offer this for
// orders whose status allows cancellation (see enums.OrderStatus.CanCancel);
// the server remains the authority and rejects anything else.
func (s *service) Cancel(ctx context.Context, orderID, reason string) (types.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	resp, err := s.authed.Do(ctx, cancelEndpoint+"/"+url.PathEscape(orderID), httpclient.Options{
		Method: http.MethodPut,
		Body:   map[string]string{"cancelReason": reason},
	})
	if err != nil {
		return types.Order{}, err
	}
	return types.DecodeOrder(resp.Data)
}

func (p ListParams) encode() string {
	values := url.Values{}
	if p.Status != "" {
		values.Set("status", string(p.Status))
	}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}
	return values.Encode()
}

// decodeOrderPage tolerates the envelope placing the page either directly
// under data or as a bare orders array.
func decodeOrderPage(raw json.RawMessage) (types.OrderPage, error) {
	body := types.UnwrapData(raw)
	var page types.OrderPage
	if err := json.Unmarshal(body, &page); err == nil && page.Orders != nil {
		return page, nil
	}
	orders, err := types.DecodeList[types.Order](raw, "orders")
	if err != nil {
		return types.OrderPage{}, err
	}
	return types.OrderPage{Orders: orders, Page: 1, TotalPages: 1, Total: len(orders)}, nil
}
