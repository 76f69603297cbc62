package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/helashop/storefront-go/internal/httpclient"
	"github.com/helashop/storefront-go/pkg/config"
	"github.com/helashop/storefront-go/pkg/enums"
	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/logger"
	"github.com/helashop/storefront-go/pkg/types"
)

const (
	createURLEndpoint = "payment/vnpay/create-payment-url"
	verifyEndpoint    = "payment/vnpay/verify"
)

var errorCodePattern = regexp.MustCompile(`code=(\d+)`)

// Service coordinates the external VNPay handoff: create a payment URL, hand
// control to the gateway, then verify server-side once control returns. The
// client never trusts the redirect alone.
type Service interface {
	CreatePaymentURL(ctx context.Context, orderID string) (string, error)
	MarkRedirected(orderID string)
	Verify(ctx context.Context, orderID string) (bool, error)
	FlowState(orderID string) enums.PaymentFlowState
}

type authedRequester interface {
	Do(ctx context.Context, endpoint string, opts httpclient.Options) (*httpclient.Response, error)
}

type service struct {
	authed authedRequester
	cfg    config.PaymentConfig
	logger *logger.Logger

	mu    sync.Mutex
	flows map[string]enums.PaymentFlowState
}

// ServiceParams bundles the dependencies required to build the payment service.
type ServiceParams struct {
	Authed authedRequester
	Config config.PaymentConfig
	Logger *logger.Logger
}

// NewService constructs the VNPay orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Authed == nil {
		return nil, fmt.Errorf("authenticated client is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Config.GatewayPayPath == "" {
		return nil, fmt.Errorf("gateway pay path is required")
	}
	return &service{
		authed: params.Authed,
		cfg:    params.Config,
		logger: params.Logger,
		flows:  map[string]enums.PaymentFlowState{},
	}, nil
}

// CreatePaymentURL asks the backend for a gateway URL for the order. The URL
// is validated structurally before it is handed back: it must reference the
// gateway pay path, and a URL embedding the gateway's error page is a payment
// failure carrying the embedded numeric code, never a success.
func (s *service) CreatePaymentURL(ctx context.Context, orderID string) (string, error) {
	if strings.TrimSpace(orderID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	s.setFlow(orderID, enums.PaymentFlowOrderCreated)

	resp, err := s.authed.Do(ctx, createURLEndpoint, httpclient.Options{
		Method: http.MethodPost,
		Body:   map[string]string{"orderId": orderID},
	})
	if err != nil {
		s.setFlow(orderID, enums.PaymentFlowFailed)
		return "", err
	}

	paymentURL, err := decodePaymentURL(resp.Data)
	if err != nil {
		s.setFlow(orderID, enums.PaymentFlowFailed)
		return "", err
	}

	if code, found := s.embeddedErrorCode(paymentURL); found {
		s.setFlow(orderID, enums.PaymentFlowFailed)
		s.logger.Warn(s.logger.WithOrderID(ctx, orderID), "gateway returned an error page url")
		return "", pkgerrors.New(pkgerrors.CodePaymentFailed, "payment gateway rejected the order").
			WithDetails(map[string]string{"errorCode": code})
	}
	if !s.referencesGateway(paymentURL) {
		s.setFlow(orderID, enums.PaymentFlowFailed)
		return "", pkgerrors.New(pkgerrors.CodePaymentFailed, "payment url does not reference the gateway")
	}

	s.setFlow(orderID, enums.PaymentFlowURLRequested)
	return paymentURL, nil
}

// MarkRedirected records that control was handed to the gateway. Verify is
// still required before any success is reported.
func (s *service) MarkRedirected(orderID string) {
	s.setFlow(orderID, enums.PaymentFlowRedirected)
}

// Verify asks the backend whether the payment actually settled.
func (s *service) Verify(ctx context.Context, orderID string) (bool, error) {
	if strings.TrimSpace(orderID) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	resp, err := s.authed.Do(ctx, verifyEndpoint+"/"+url.PathEscape(orderID), httpclient.Options{
		Method: http.MethodGet,
	})
	if err != nil {
		s.setFlow(orderID, enums.PaymentFlowFailed)
		return false, err
	}

	settled := decodeVerifyResult(resp.Data)
	if settled {
		s.setFlow(orderID, enums.PaymentFlowVerified)
	} else {
		s.setFlow(orderID, enums.PaymentFlowFailed)
	}
	return settled, nil
}

// FlowState reports the last observed handoff state for the order.
func (s *service) FlowState(orderID string) enums.PaymentFlowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flows[orderID]
}

func (s *service) setFlow(orderID string, state enums.PaymentFlowState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[orderID] = state
}

func (s *service) referencesGateway(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.Contains(parsed.Path, s.cfg.GatewayPayPath)
}

// embeddedErrorCode detects a gateway error page anywhere in the URL,
// including nested inside the query string, and extracts its numeric code.
func (s *service) embeddedErrorCode(raw string) (string, bool) {
	idx := strings.Index(raw, s.cfg.ErrorPageMarker)
	if s.cfg.ErrorPageMarker == "" || idx < 0 {
		return "", false
	}
	match := errorCodePattern.FindStringSubmatch(raw[idx:])
	if match == nil {
		return "", true
	}
	return match[1], true
}

func decodePaymentURL(raw json.RawMessage) (string, error) {
	locations := [][]string{
		{"paymentUrl"},
		{"data", "paymentUrl"},
		{"data", "data", "paymentUrl"},
	}
	for _, keys := range locations {
		field := types.Dig(raw, keys...)
		if len(field) == 0 {
			continue
		}
		var value string
		if err := json.Unmarshal(field, &value); err != nil {
			continue
		}
		if value != "" {
			return value, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeDecode, "response carried no payment url")
}

// decodeVerifyResult accepts either an explicit success flag or a completed
// payment status, wherever the envelope nests it.
func decodeVerifyResult(raw json.RawMessage) bool {
	for _, keys := range [][]string{{"success"}, {"data", "success"}} {
		field := types.Dig(raw, keys...)
		if len(field) == 0 {
			continue
		}
		var flag bool
		if err := json.Unmarshal(field, &flag); err == nil {
			return flag
		}
	}
	for _, keys := range [][]string{{"paymentStatus"}, {"data", "paymentStatus"}, {"data", "order", "paymentStatus"}} {
		field := types.Dig(raw, keys...)
		if len(field) == 0 {
			continue
		}
		var status enums.PaymentStatus
		if err := json.Unmarshal(field, &status); err == nil {
			return status == enums.PaymentStatusCompleted
		}
	}
	return false
}
