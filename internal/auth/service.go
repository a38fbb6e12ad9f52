// Package auth calls the backend's authentication and account endpoints.
package auth

import (
	"context"

	"github.com/heartbridge/heartbridge/internal/api"
)

const (
	PathStartLogin = "/api/auth/start-login"
	PathVerifyCode = "/api/auth/verify-code"
	PathLogin      = "/api/auth/login"
	PathProfile    = "/api/profile"
	PathVideos     = "/api/videos"
)

// Service is a typed facade over the api client.
type Service struct {
	client *api.Client
}

// NewService wraps client.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// StartLogin requests a verification code for the phone number.
func (s *Service) StartLogin(ctx context.Context, req StartLoginRequest) (StartLoginResponse, error) {
	return api.Post[StartLoginResponse](ctx, s.client, PathStartLogin, req)
}

// VerifyCode exchanges the code for a token and the account.
func (s *Service) VerifyCode(ctx context.Context, req VerifyCodeRequest) (VerifyCodeResponse, error) {
	resp, err := api.Post[VerifyCodeResponse](ctx, s.client, PathVerifyCode, req)
	if err != nil {
		return VerifyCodeResponse{}, err
	}
	if err := requireSession(resp.Token, resp.User); err != nil {
		return VerifyCodeResponse{}, err
	}
	return resp, nil
}

// Login is the phone-only login the backend still exposes.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	resp, err := api.Post[LoginResponse](ctx, s.client, PathLogin, req)
	if err != nil {
		return LoginResponse{}, err
	}
	if err := requireSession(resp.Token, resp.User); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// requireSession rejects a login reply without a token or a user object.
func requireSession(token string, user *User) error {
	if token == "" {
		return &api.DecodingError{Message: "missing token"}
	}
	if user == nil {
		return &api.DecodingError{Message: "missing user"}
	}
	return nil
}

// Profile fetches the signed-in account.
func (s *Service) Profile(ctx context.Context) (ProfileResponse, error) {
	return api.Get[ProfileResponse](ctx, s.client, PathProfile)
}

// Videos lists the video library.
func (s *Service) Videos(ctx context.Context) (VideosResponse, error) {
	return api.Get[VideosResponse](ctx, s.client, PathVideos)
}
