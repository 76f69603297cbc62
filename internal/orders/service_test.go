package orders

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/helashop/storefront-go/internal/httpclient"
	"github.com/helashop/storefront-go/pkg/enums"
	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/logger"
	"github.com/helashop/storefront-go/pkg/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type authedStub struct {
	calls    int
	endpoint string
	method   string
	body     any
	data     string
	err      error
}

func (a *authedStub) Do(ctx context.Context, endpoint string, opts httpclient.Options) (*httpclient.Response, error) {
	a.calls++
	a.endpoint = endpoint
	a.method = opts.Method
	a.body = opts.Body
	if a.err != nil {
		return nil, a.err
	}
	return &httpclient.Response{Status: 200, OK: true, Data: json.RawMessage(a.data)}, nil
}

type cartStub struct {
	cart types.Cart
}

func (c *cartStub) Current() types.Cart { return c.cart }

func filledCart() types.Cart {
	return types.Cart{
		Items: []types.CartLine{
			{Product: types.ProductRef{ID: "p1"}, Price: decimal.NewFromInt(100), Quantity: 2},
		},
		TotalItems:  2,
		TotalAmount: decimal.NewFromInt(200),
	}
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		ShippingAddress: types.Address{
			FullName: "A Buyer",
			Phone:    "0900000000",
			Street:   "1 Main St",
			City:     "Hanoi",
		},
		PaymentMethod: enums.PaymentMethodCOD,
	}
}

func newTestService(t *testing.T, authed *authedStub, cart types.Cart) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Authed: authed,
		Carts:  &cartStub{cart: cart},
		Logger: logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestCreateSubmitsOrder(t *testing.T) {
	authed := &authedStub{data: `{"code":200,"data":{"order":{"_id":"o1","orderNumber":"HN-1001","status":"pending","paymentMethod":"cod","paymentStatus":"pending","total":200}}}`}
	svc := newTestService(t, authed, filledCart())

	order, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authed.endpoint != "order/create" {
		t.Fatalf("unexpected endpoint %q", authed.endpoint)
	}
	if order.ID != "o1" || order.OrderNumber != "HN-1001" {
		t.Fatalf("unexpected order %+v", order)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected status %q", order.Status)
	}
}

func TestCreateRejectsEmptyCartLocally(t *testing.T) {
	authed := &authedStub{}
	svc := newTestService(t, authed, types.EmptyCart())

	_, err := svc.Create(context.Background(), validInput())
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if authed.calls != 0 {
		t.Fatalf("expected no network call, got %d", authed.calls)
	}
}

func TestCreateRejectsDisjointSelection(t *testing.T) {
	authed := &authedStub{}
	svc := newTestService(t, authed, filledCart())

	input := validInput()
	input.SelectedProductIDs = []string{"p404"}
	_, err := svc.Create(context.Background(), input)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if authed.calls != 0 {
		t.Fatalf("expected no network call, got %d", authed.calls)
	}
}

func TestCreateRejectsIncompleteAddress(t *testing.T) {
	authed := &authedStub{}
	svc := newTestService(t, authed, filledCart())

	input := validInput()
	input.ShippingAddress.Phone = ""
	_, err := svc.Create(context.Background(), input)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if authed.calls != 0 {
		t.Fatalf("expected no network call, got %d", authed.calls)
	}
}

func TestListEncodesQuery(t *testing.T) {
	authed := &authedStub{data: `{"data":{"orders":[{"_id":"o1","status":"pending"}],"page":2,"totalPages":5,"total":42}}`}
	svc := newTestService(t, authed, types.EmptyCart())

	page, err := svc.List(context.Background(), ListParams{Status: enums.OrderStatusPending, Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authed.endpoint != "order/my-orders?limit=10&page=2&status=pending" {
		t.Fatalf("unexpected endpoint %q", authed.endpoint)
	}
	if len(page.Orders) != 1 || page.Orders[0].ID != "o1" {
		t.Fatalf("unexpected orders %+v", page.Orders)
	}
	if page.Page != 2 || page.TotalPages != 5 || page.Total != 42 {
		t.Fatalf("unexpected paging %+v", page)
	}
}

func TestListToleratesBareArray(t *testing.T) {
	authed := &authedStub{data: `{"data":{"orders":[{"_id":"o1"},{"_id":"o2"}]}}`}
	svc := newTestService(t, authed, types.EmptyCart())

	page, err := svc.List(context.Background(), ListParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authed.endpoint != "order/my-orders" {
		t.Fatalf("unexpected endpoint %q", authed.endpoint)
	}
	if len(page.Orders) != 2 || page.Total != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestGetFetchesByID(t *testing.T) {
	authed := &authedStub{data: `{"data":{"order":{"_id":"o1","status":"delivering","paymentStatus":"completed"}}}`}
	svc := newTestService(t, authed, types.EmptyCart())

	order, err := svc.Get(context.Background(), "o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authed.endpoint != "order/my-orders/o1" {
		t.Fatalf("unexpected endpoint %q", authed.endpoint)
	}
	// Status and payment status are independent axes.
	if order.Status != enums.OrderStatusShipped {
		t.Fatalf("unexpected status %q", order.Status)
	}
	if order.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("unexpected payment status %q", order.PaymentStatus)
	}
}

func TestCancelSendsReason(t *testing.T) {
	authed := &authedStub{data: `{"data":{"order":{"_id":"o1","status":"cancelled","cancelReason":"changed my mind"}}}`}
	svc := newTestService(t, authed, types.EmptyCart())

	order, err := svc.Cancel(context.Background(), "o1", "changed my mind")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authed.endpoint != "order/cancel/o1" {
		t.Fatalf("unexpected endpoint %q", authed.endpoint)
	}
	if authed.method != "PUT" {
		t.Fatalf("unexpected method %q", authed.method)
	}
	body, _ := authed.body.(map[string]string)
	if body["cancelReason"] != "changed my mind" {
		t.Fatalf("unexpected body %+v", authed.body)
	}
	if order.Status != enums.OrderStatusCancelled {
		t.Fatalf("unexpected status %q", order.Status)
	}
}

func TestCancelRequiresOrderID(t *testing.T) {
	authed := &authedStub{}
	svc := newTestService(t, authed, types.EmptyCart())

	_, err := svc.Cancel(context.Background(), " ", "reason")
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if authed.calls != 0 {
		t.Fatalf("expected no network call, got %d", authed.calls)
	}
}

func TestServerErrorsPassThrough(t *testing.T) {
	authed := &authedStub{err: pkgerrors.Server(500, map[string]any{"message": "boom"})}
	svc := newTestService(t, authed, filledCart())

	_, err := svc.Create(context.Background(), validInput())
	if pkgerrors.As(err).Code() != pkgerrors.CodeServer {
		t.Fatalf("expected SERVER_ERROR, got %v", err)
	}
}
