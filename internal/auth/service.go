package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/helashop/storefront-go/internal/httpclient"
	"github.com/helashop/storefront-go/internal/session"
	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/logger"
	"github.com/helashop/storefront-go/pkg/types"
	"github.com/helashop/storefront-go/pkg/validate"
	"go.uber.org/multierr"
)

const (
	loginEndpoint    = "auth/login"
	registerEndpoint = "auth/mobileRegister"
	resetEndpoint    = "auth/reset-password"
	profileEndpoint  = "user/profile"
)

// Service defines the session lifecycle offered to the rest of the client.
type Service interface {
	Login(ctx context.Context, creds Credentials) (LoginResult, error)
	Logout(ctx context.Context) bool
	IsLoggedIn(ctx context.Context) bool
	ValidateToken(ctx context.Context) bool
	Register(ctx context.Context, input Registration) error
	ResetPassword(ctx context.Context, email string) error
	TokenExpiry(ctx context.Context) (TokenExpiry, bool)
}

type service struct {
	client requester
	authed authedRequester
	store  session.Store
	logger *logger.Logger
}

type requester interface {
	Request(ctx context.Context, endpoint string, opts httpclient.Options) (*httpclient.Response, error)
}

type authedRequester interface {
	Do(ctx context.Context, endpoint string, opts httpclient.Options) (*httpclient.Response, error)
}

// ServiceParams bundles the dependencies required to build the auth service.
type ServiceParams struct {
	Client  requester
	Authed  authedRequester
	Session session.Store
	Logger  *logger.Logger
}

// NewService constructs the auth session manager.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if params.Authed == nil {
		return nil, fmt.Errorf("authenticated client is required")
	}
	if params.Session == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		client: params.Client,
		authed: params.Authed,
		store:  params.Session,
		logger: params.Logger,
	}, nil
}

// Login authenticates against auth/login. Success requires a non-empty token
// in the response, probed top-level first, then data.token, then
// data.data.token. The token is persisted before the result is returned.
func (s *service) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	if err := validate.Struct(creds); err != nil {
		return LoginResult{}, err
	}

	resp, err := s.client.Request(ctx, loginEndpoint, httpclient.Options{
		Method: http.MethodPost,
		Body:   creds,
	})
	if err != nil {
		if status := pkgerrors.StatusOf(err); status >= 400 && status < 500 {
			return LoginResult{}, pkgerrors.Wrap(pkgerrors.CodeAuthFailed, err, "login rejected")
		}
		return LoginResult{}, err
	}

	payload, err := types.DecodeToken(resp.Data)
	if err != nil {
		return LoginResult{}, pkgerrors.Wrap(pkgerrors.CodeAuthFailed, err, "login response carried no token")
	}

	if err := s.store.SetToken(ctx, payload.Token); err != nil {
		return LoginResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist session token")
	}
	if payload.User != nil {
		if err := s.store.SetCachedUser(ctx, payload.User); err != nil {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "failed to cache user snapshot")
		}
	}

	s.logger.Info(s.logger.WithEndpoint(ctx, loginEndpoint), "login succeeded")
	return LoginResult{Token: payload.Token, User: payload.User}, nil
}

// Logout tears down the local session. Both removals are always attempted
// even if the first fails, and a logout while already logged out is a no-op
// success.
func (s *service) Logout(ctx context.Context) bool {
	err := multierr.Append(
		s.store.ClearToken(ctx),
		s.store.ClearUser(ctx),
	)
	if err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "logout completed with storage errors")
		return false
	}
	return true
}

// IsLoggedIn reports whether a token is stored. No server round-trip.
func (s *service) IsLoggedIn(ctx context.Context) bool {
	token, err := s.store.Token(ctx)
	if err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "failed to read session token")
		return false
	}
	return token != ""
}

// ValidateToken checks the stored token against the server. Any rejection
// logs the session out before returning false, so a stale token never
// lingers. A transport failure leaves the session untouched since nothing
// was learned about the token.
func (s *service) ValidateToken(ctx context.Context) bool {
	if !s.IsLoggedIn(ctx) {
		return false
	}
	_, err := s.authed.Do(ctx, profileEndpoint, httpclient.Options{Method: http.MethodGet})
	if err == nil {
		return true
	}
	switch pkgerrors.As(err).Code() {
	case pkgerrors.CodeTimeout, pkgerrors.CodeNetworkUnreachable:
		return false
	}
	s.Logout(ctx)
	return false
}

// Register creates an account via auth/mobileRegister. It does not log the
// new account in.
func (s *service) Register(ctx context.Context, input Registration) error {
	if err := validate.Struct(input); err != nil {
		return err
	}
	_, err := s.client.Request(ctx, registerEndpoint, httpclient.Options{
		Method: http.MethodPost,
		Body:   input,
	})
	if err != nil {
		if status := pkgerrors.StatusOf(err); status >= 400 && status < 500 {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "registration rejected")
		}
		return err
	}
	return nil
}

// ResetPassword requests a password reset email.
func (s *service) ResetPassword(ctx context.Context, email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return err
	}
	_, err := s.client.Request(ctx, resetEndpoint, httpclient.Options{
		Method: http.MethodPost,
		Body:   map[string]string{"email": email},
	})
	return err
}
