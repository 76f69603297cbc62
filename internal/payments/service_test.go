package payments

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/helashop/storefront-go/internal/httpclient"
	"github.com/helashop/storefront-go/pkg/config"
	"github.com/helashop/storefront-go/pkg/enums"
	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/logger"
	"github.com/rs/zerolog"
)

type authedStub struct {
	calls    int
	endpoint string
	body     any
	data     string
	err      error
}

func (a *authedStub) Do(ctx context.Context, endpoint string, opts httpclient.Options) (*httpclient.Response, error) {
	a.calls++
	a.endpoint = endpoint
	a.body = opts.Body
	if a.err != nil {
		return nil, a.err
	}
	return &httpclient.Response{Status: 200, OK: true, Data: json.RawMessage(a.data)}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})
}

func paymentConfig() config.PaymentConfig {
	return config.PaymentConfig{
		GatewayPayPath:  "vpcpay.html",
		ErrorPageMarker: "Error.html",
		ReturnAddr:      "127.0.0.1:7632",
	}
}

func newTestService(t *testing.T, authed *authedStub) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Authed: authed,
		Config: paymentConfig(),
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestCreatePaymentURLReturnsGatewayURL(t *testing.T) {
	authed := &authedStub{data: `{"code":200,"data":{"paymentUrl":"https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?vnp_Amount=20000"}}`}
	svc := newTestService(t, authed)

	url, err := svc.CreatePaymentURL(context.Background(), "o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authed.endpoint != "payment/vnpay/create-payment-url" {
		t.Fatalf("unexpected endpoint %q", authed.endpoint)
	}
	body, _ := authed.body.(map[string]string)
	if body["orderId"] != "o1" {
		t.Fatalf("unexpected body %+v", authed.body)
	}
	if url == "" {
		t.Fatalf("expected a payment url")
	}
	if svc.FlowState("o1") != enums.PaymentFlowURLRequested {
		t.Fatalf("unexpected flow state %s", svc.FlowState("o1"))
	}
}

func TestCreatePaymentURLDetectsEmbeddedErrorPage(t *testing.T) {
	authed := &authedStub{data: `{"data":{"paymentUrl":"https://pay/vpcpay.html?redirect=Error.html?code=24"}}`}
	svc := newTestService(t, authed)

	url, err := svc.CreatePaymentURL(context.Background(), "o1")
	if url != "" {
		t.Fatalf("error page url must never be handed back, got %q", url)
	}
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodePaymentFailed {
		t.Fatalf("expected PAYMENT_FAILED, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["errorCode"] != "24" {
		t.Fatalf("expected errorCode 24, got %+v", typed.Details())
	}
	if svc.FlowState("o1") != enums.PaymentFlowFailed {
		t.Fatalf("unexpected flow state %s", svc.FlowState("o1"))
	}
}

func TestCreatePaymentURLRejectsForeignURL(t *testing.T) {
	authed := &authedStub{data: `{"data":{"paymentUrl":"https://example.com/checkout"}}`}
	svc := newTestService(t, authed)

	_, err := svc.CreatePaymentURL(context.Background(), "o1")
	if pkgerrors.As(err).Code() != pkgerrors.CodePaymentFailed {
		t.Fatalf("expected PAYMENT_FAILED, got %v", err)
	}
}

func TestCreatePaymentURLTokenShapes(t *testing.T) {
	cases := []string{
		`{"paymentUrl":"https://pay/vpcpay.html?a=1"}`,
		`{"data":{"paymentUrl":"https://pay/vpcpay.html?a=1"}}`,
		`{"data":{"data":{"paymentUrl":"https://pay/vpcpay.html?a=1"}}}`,
	}
	for _, body := range cases {
		authed := &authedStub{data: body}
		svc := newTestService(t, authed)
		if _, err := svc.CreatePaymentURL(context.Background(), "o1"); err != nil {
			t.Fatalf("body %s: unexpected error: %v", body, err)
		}
	}
}

func TestCreatePaymentURLMissingURL(t *testing.T) {
	authed := &authedStub{data: `{"code":200,"data":{}}`}
	svc := newTestService(t, authed)

	_, err := svc.CreatePaymentURL(context.Background(), "o1")
	if pkgerrors.As(err).Code() != pkgerrors.CodeDecode {
		t.Fatalf("expected DECODE_ERROR, got %v", err)
	}
}

func TestVerifyAcceptsSuccessShapes(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{`{"success":true}`, true},
		{`{"data":{"success":false}}`, false},
		{`{"data":{"paymentStatus":"completed"}}`, true},
		{`{"data":{"order":{"paymentStatus":"pending"}}}`, false},
		{`{"data":{}}`, false},
	}
	for _, tc := range cases {
		authed := &authedStub{data: tc.body}
		svc := newTestService(t, authed)
		got, err := svc.Verify(context.Background(), "o1")
		if err != nil {
			t.Fatalf("body %s: unexpected error: %v", tc.body, err)
		}
		if got != tc.want {
			t.Fatalf("body %s: expected %v, got %v", tc.body, tc.want, got)
		}
		if authed.endpoint != "payment/vnpay/verify/o1" {
			t.Fatalf("unexpected endpoint %q", authed.endpoint)
		}
	}
}

func TestVerifyNeverAssumesSuccessFromRedirect(t *testing.T) {
	authed := &authedStub{data: `{"data":{"paymentStatus":"completed"}}`}
	svc := newTestService(t, authed)

	svc.MarkRedirected("o1")
	if svc.FlowState("o1") != enums.PaymentFlowRedirected {
		t.Fatalf("expected redirected state, got %s", svc.FlowState("o1"))
	}

	ok, err := svc.Verify(context.Background(), "o1")
	if err != nil || !ok {
		t.Fatalf("expected verified, got ok=%v err=%v", ok, err)
	}
	if svc.FlowState("o1") != enums.PaymentFlowVerified {
		t.Fatalf("expected verified state, got %s", svc.FlowState("o1"))
	}
}

func TestVerifyFailurePassesThrough(t *testing.T) {
	authed := &authedStub{err: pkgerrors.New(pkgerrors.CodeTimeout, "request timed out")}
	svc := newTestService(t, authed)

	ok, err := svc.Verify(context.Background(), "o1")
	if ok {
		t.Fatalf("expected failure")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeTimeout {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if svc.FlowState("o1") != enums.PaymentFlowFailed {
		t.Fatalf("expected failed state, got %s", svc.FlowState("o1"))
	}
}
