package payments

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

type verifierStub struct {
	verified   bool
	err        error
	redirected []string
	checked    []string
}

func (v *verifierStub) Verify(ctx context.Context, orderID string) (bool, error) {
	v.checked = append(v.checked, orderID)
	return v.verified, v.err
}

func (v *verifierStub) MarkRedirected(orderID string) {
	v.redirected = append(v.redirected, orderID)
}

func newTestListener(t *testing.T, v verifier, gatherer prometheus.Gatherer) *ReturnListener {
	t.Helper()
	listener, err := NewReturnListener(v, paymentConfig(), testLogger(), gatherer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return listener
}

func TestReturnRouteVerifiesMatchingOrder(t *testing.T) {
	stub := &verifierStub{verified: true}
	listener := newTestListener(t, stub, nil)

	results := make(chan ReturnResult, 1)
	server := httptest.NewServer(listener.router("o1", results))
	defer server.Close()

	resp, err := http.Get(server.URL + "/payment/return?vnp_TxnRef=o1&vnp_ResponseCode=00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Payment confirmed") {
		t.Fatalf("unexpected body %q", body)
	}

	if len(stub.redirected) != 1 || stub.redirected[0] != "o1" {
		t.Fatalf("expected redirect recorded, got %v", stub.redirected)
	}
	if len(stub.checked) != 1 || stub.checked[0] != "o1" {
		t.Fatalf("expected server-side verification, got %v", stub.checked)
	}

	select {
	case result := <-results:
		if result.OrderID != "o1" || !result.Verified {
			t.Fatalf("unexpected result %+v", result)
		}
	default:
		t.Fatalf("expected a delivered result")
	}
}

func TestReturnRouteRejectsUnknownOrder(t *testing.T) {
	stub := &verifierStub{verified: true}
	listener := newTestListener(t, stub, nil)

	results := make(chan ReturnResult, 1)
	server := httptest.NewServer(listener.router("o1", results))
	defer server.Close()

	resp, err := http.Get(server.URL + "/payment/return?vnp_TxnRef=o2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if len(stub.checked) != 0 {
		t.Fatalf("expected no verification for unknown order, got %v", stub.checked)
	}
}

func TestReturnRouteServesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	listener := newTestListener(t, &verifierStub{}, registry)

	server := httptest.NewServer(listener.router("o1", make(chan ReturnResult, 1)))
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}
