package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/helashop/storefront-go/pkg/config"
	"github.com/helashop/storefront-go/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReturnResult is what the gateway's return redirect reported for an order,
// after server-side verification.
type ReturnResult struct {
	OrderID  string
	Verified bool
}

type verifier interface {
	Verify(ctx context.Context, orderID string) (bool, error)
	MarkRedirected(orderID string)
}

// ReturnListener runs a loopback HTTP server during checkout that catches
// the gateway's return redirect, extracts the order reference, and verifies
// the payment server-side before reporting success.
type ReturnListener struct {
	verifier verifier
	cfg      config.PaymentConfig
	logger   *logger.Logger
	gatherer prometheus.Gatherer
}

// NewReturnListener builds the return listener. The gatherer is optional;
// when set, the listener serves /metrics from it.
func NewReturnListener(v verifier, cfg config.PaymentConfig, logg *logger.Logger, gatherer prometheus.Gatherer) (*ReturnListener, error) {
	if v == nil {
		return nil, fmt.Errorf("payment verifier is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.ReturnAddr == "" {
		return nil, fmt.Errorf("return listener address is required")
	}
	return &ReturnListener{verifier: v, cfg: cfg, logger: logg, gatherer: gatherer}, nil
}

// Listen serves until the gateway redirects back for the given order, the
// wait window elapses, or the context is cancelled. The first matching
// return wins; later redirects for the same order hit a closed server.
func (l *ReturnListener) Listen(ctx context.Context, orderID string) (ReturnResult, error) {
	results := make(chan ReturnResult, 1)

	server := &http.Server{
		Addr:              l.cfg.ReturnAddr,
		Handler:           l.router(orderID, results),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	wait := l.cfg.ReturnWait
	if wait <= 0 {
		wait = 10 * time.Minute
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	select {
	case result := <-results:
		return result, nil
	case err := <-serveErr:
		return ReturnResult{}, fmt.Errorf("return listener: %w", err)
	case <-timer.C:
		return ReturnResult{}, fmt.Errorf("gateway did not return within %s", wait)
	case <-ctx.Done():
		return ReturnResult{}, ctx.Err()
	}
}

func (l *ReturnListener) router(orderID string, results chan<- ReturnResult) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
	r.Get("/payment/return", l.handleReturn(orderID, results))
	if l.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(l.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (l *ReturnListener) handleReturn(orderID string, results chan<- ReturnResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		returned := r.URL.Query().Get("vnp_TxnRef")
		if returned == "" {
			returned = r.URL.Query().Get("orderId")
		}
		if returned != orderID {
			l.logger.Warn(l.logger.WithOrderID(ctx, returned), "return redirect for unexpected order")
			http.Error(w, "unknown order", http.StatusNotFound)
			return
		}

		l.verifier.MarkRedirected(orderID)
		verified, err := l.verifier.Verify(ctx, orderID)
		if err != nil {
			l.logger.Error(ctx, "payment verification failed", err)
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if verified {
			fmt.Fprintln(w, "Payment confirmed. You can return to the app.")
		} else {
			fmt.Fprintln(w, "Payment not confirmed. Check your order in the app.")
		}

		select {
		case results <- ReturnResult{OrderID: orderID, Verified: verified}:
		default:
		}
	}
}
