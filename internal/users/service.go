package users

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/helashop/storefront-go/internal/httpclient"
	"github.com/helashop/storefront-go/internal/session"
	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/logger"
	"github.com/helashop/storefront-go/pkg/types"
	"github.com/helashop/storefront-go/pkg/validate"
)

const profileEndpoint = "user/profile"

// Service reads and updates the signed-in user's profile. The session store
// keeps a cached snapshot so the profile survives offline reads; the server
// stays authoritative.
type Service interface {
	Profile(ctx context.Context) (types.UserSnapshot, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (types.UserSnapshot, error)
}

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

type authedRequester interface {
	Do(ctx context.Context, endpoint string, opts httpclient.Options) (*httpclient.Response, error)
}

type service struct {
	authed authedRequester
	store  session.Store
	logger *logger.Logger
}

// ServiceParams bundles the dependencies required to build the user service.
type ServiceParams struct {
	Authed  authedRequester
	Session session.Store
	Logger  *logger.Logger
}

// NewService constructs the user profile service.
func NewService(params ServiceParams) (Service, error) {
	if params.Authed == nil {
		return nil, fmt.Errorf("authenticated client is required")
	}
	if params.Session == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{authed: params.Authed, store: params.Session, logger: params.Logger}, nil
}

// Profile fetches the live profile and refreshes the cached snapshot. On a
// transport failure the cached snapshot is returned instead; session
// rejections still propagate so callers can route to login.
func (s *service) Profile(ctx context.Context) (types.UserSnapshot, error) {
	resp, err := s.authed.Do(ctx, profileEndpoint, httpclient.Options{Method: http.MethodGet})
	if err != nil {
		switch pkgerrors.As(err).Code() {
		case pkgerrors.CodeTimeout, pkgerrors.CodeNetworkUnreachable:
			if cached, cacheErr := s.store.CachedUser(ctx); cacheErr == nil && cached != nil {
				s.logger.Warn(s.logger.WithEndpoint(ctx, profileEndpoint), "serving cached profile after transport failure")
				return *cached, nil
			}
		}
		return types.UserSnapshot{}, err
	}

	snapshot, err := decodeSnapshot(resp.Data)
	if err != nil {
		return types.UserSnapshot{}, err
	}
	if err := s.store.SetCachedUser(ctx, &snapshot); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "failed to refresh cached profile")
	}
	return snapshot, nil
}

// UpdateProfile pushes the edit to the server and writes the server's view
// of the profile back to the session store.
func (s *service) UpdateProfile(ctx context.Context, input UpdateProfileInput) (types.UserSnapshot, error) {
	if err := validate.Struct(input); err != nil {
		return types.UserSnapshot{}, err
	}
	resp, err := s.authed.Do(ctx, profileEndpoint, httpclient.Options{
		Method: http.MethodPut,
		Body:   input,
	})
	if err != nil {
		return types.UserSnapshot{}, err
	}
	snapshot, err := decodeSnapshot(resp.Data)
	if err != nil {
		return types.UserSnapshot{}, err
	}
	if err := s.store.SetCachedUser(ctx, &snapshot); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "failed to refresh cached profile")
	}
	return snapshot, nil
}

// decodeSnapshot tolerates the profile sitting at data.user, user, or data.
func decodeSnapshot(raw json.RawMessage) (types.UserSnapshot, error) {
	candidates := []json.RawMessage{
		types.Dig(raw, "data", "user"),
		types.Dig(raw, "user"),
		types.Dig(raw, "data"),
		raw,
	}
	for _, candidate := range candidates {
		if len(candidate) == 0 {
			continue
		}
		var snapshot types.UserSnapshot
		if err := json.Unmarshal(candidate, &snapshot); err != nil {
			continue
		}
		if snapshot.ID != "" || snapshot.Email != "" {
			return snapshot, nil
		}
	}
	return types.UserSnapshot{}, pkgerrors.New(pkgerrors.CodeDecode, "response carried no profile")
}
