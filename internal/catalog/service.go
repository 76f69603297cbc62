package catalog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/helashop/storefront-go/internal/httpclient"
	"github.com/helashop/storefront-go/pkg/types"
)

const (
	productsEndpoint = "product/all"
	bannersEndpoint  = "banner/get-banners"
)

// Service reads the public catalog. No session required.
type Service interface {
	Products(ctx context.Context) ([]types.Product, error)
	Banners(ctx context.Context) ([]types.Banner, error)
}

type requester interface {
	Request(ctx context.Context, endpoint string, opts httpclient.Options) (*httpclient.Response, error)
}

type service struct {
	client requester
}

// NewService constructs the catalog reader.
func NewService(client requester) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	return &service{client: client}, nil
}

func (s *service) Products(ctx context.Context) ([]types.Product, error) {
	resp, err := s.client.Request(ctx, productsEndpoint, httpclient.Options{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	return types.DecodeList[types.Product](resp.Data, "products")
}

func (s *service) Banners(ctx context.Context) ([]types.Banner, error) {
	resp, err := s.client.Request(ctx, bannersEndpoint, httpclient.Options{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}
	return types.DecodeList[types.Banner](resp.Data, "banners")
}
