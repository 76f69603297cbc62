package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/helashop/storefront-go/internal/httpclient"
	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
)

type clientStub struct {
	endpoint string
	data     string
	err      error
}

func (c *clientStub) Request(ctx context.Context, endpoint string, opts httpclient.Options) (*httpclient.Response, error) {
	c.endpoint = endpoint
	if c.err != nil {
		return nil, c.err
	}
	return &httpclient.Response{Status: 200, OK: true, Data: json.RawMessage(c.data)}, nil
}

func TestProducts(t *testing.T) {
	client := &clientStub{data: `{"code":200,"data":{"products":[{"_id":"p1","name":"Tea","price":100},{"_id":"p2","name":"Coffee","price":30}]}}`}
	svc, err := NewService(client)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	products, err := svc.Products(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.endpoint != "product/all" {
		t.Fatalf("unexpected endpoint %q", client.endpoint)
	}
	if len(products) != 2 || products[0].ID != "p1" || products[1].Name != "Coffee" {
		t.Fatalf("unexpected products %+v", products)
	}
}

func TestBanners(t *testing.T) {
	client := &clientStub{data: `{"data":{"banners":[{"_id":"b1","image":"https://cdn/banner.png"}]}}`}
	svc, err := NewService(client)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	banners, err := svc.Banners(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.endpoint != "banner/get-banners" {
		t.Fatalf("unexpected endpoint %q", client.endpoint)
	}
	if len(banners) != 1 || banners[0].ID != "b1" {
		t.Fatalf("unexpected banners %+v", banners)
	}
}

func TestErrorsPassThrough(t *testing.T) {
	client := &clientStub{err: pkgerrors.New(pkgerrors.CodeNetworkUnreachable, "connection refused")}
	svc, err := NewService(client)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Products(context.Background()); pkgerrors.As(err).Code() != pkgerrors.CodeNetworkUnreachable {
		t.Fatalf("expected NETWORK_UNREACHABLE, got %v", err)
	}
}
