package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/helashop/storefront-go/internal/httpclient"
	"github.com/helashop/storefront-go/internal/session"
	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/logger"
)

// Requester is the transport surface the helper decorates.
type Requester interface {
	Request(ctx context.Context, endpoint string, opts httpclient.Options) (*httpclient.Response, error)
}

// Authed decorates requests with the stored bearer token. A missing token
// fails fast without any network call, and a 401 response is reclassified as
// SESSION_EXPIRED with the local session torn down eagerly.
type Authed struct {
	client Requester
	store  session.Store
	logger *logger.Logger
}

// NewAuthed builds the authenticated request helper.
func NewAuthed(client Requester, store session.Store, logg *logger.Logger) (*Authed, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Authed{client: client, store: store, logger: logg}, nil
}

// Do behaves exactly like the underlying client's Request with the bearer
// token injected.
func (a *Authed) Do(ctx context.Context, endpoint string, opts httpclient.Options) (*httpclient.Response, error) {
	token, err := a.store.Token(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotAuthenticated, err, "read session token")
	}
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotAuthenticated, "no session token")
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	for key, value := range opts.Headers {
		headers[key] = value
	}
	opts.Headers = headers

	resp, err := a.client.Request(ctx, endpoint, opts)
	if err != nil {
		if pkgerrors.StatusOf(err) == http.StatusUnauthorized {
			a.teardown(ctx)
			typed := pkgerrors.Wrap(pkgerrors.CodeSessionExpired, err, "session rejected by server")
			if details, ok := pkgerrors.As(err).Details().(pkgerrors.ServerDetails); ok {
				typed = typed.WithDetails(details)
			}
			return nil, typed
		}
		return nil, err
	}
	return resp, nil
}

// teardown clears local session state after the server rejected the token.
// Best effort: a storage failure here must not mask the session expiry.
func (a *Authed) teardown(ctx context.Context) {
	if err := a.store.ClearToken(ctx); err != nil {
		a.logger.Warn(a.logger.WithField(ctx, "error", err.Error()), "failed to clear token after 401")
	}
	if err := a.store.ClearUser(ctx); err != nil {
		a.logger.Warn(a.logger.WithField(ctx, "error", err.Error()), "failed to clear cached user after 401")
	}
}
