package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/davidahmann/agent-platform/internal/gateway"
	"github.com/davidahmann/agent-platform/internal/tokenstore"
	"github.com/davidahmann/agent-platform/pkg/types"
)

const (
	LoginPath  = "/api/auth/login"
	SignupPath = "/api/auth/signup"
)

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrMissingToken       = errors.New("login response has no access_token")
)

// Service runs the login/signup/logout flows and owns writes to the token
// store.
type Service struct {
	Gateway *gateway.Client
	Tokens  tokenstore.Store
	Logger  *slog.Logger
}

// Login exchanges email/password for a bearer token and stores it.
func (s *Service) Login(ctx context.Context, email string, password string) (types.TokenResponse, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return types.TokenResponse{}, ErrMissingCredentials
	}

	payload, err := s.Gateway.PostForm(ctx, LoginPath, EncodeLoginForm(email, password))
	if err != nil {
		return types.TokenResponse{}, err
	}

	var tok types.TokenResponse
	if err := payload.Decode(&tok); err != nil {
		return types.TokenResponse{}, fmt.Errorf("decode login response: %w", err)
	}
	if tok.AccessToken == "" {
		return types.TokenResponse{}, ErrMissingToken
	}
	if err := s.Tokens.Set(tok.AccessToken); err != nil {
		return types.TokenResponse{}, fmt.Errorf("store token: %w", err)
	}
	s.logger().Info("logged in", "email", email)
	return tok, nil
}

// Signup creates a tenant and its admin. When the response carries a token
// the session is logged in immediately.
func (s *Service) Signup(ctx context.Context, req types.SignupRequest) (types.SignupResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return types.SignupResponse{}, ErrMissingCredentials
	}

	payload, err := s.Gateway.PostJSON(ctx, SignupPath, req, false)
	if err != nil {
		return types.SignupResponse{}, err
	}

	var resp types.SignupResponse
	if err := payload.Decode(&resp); err != nil {
		return types.SignupResponse{}, fmt.Errorf("decode signup response: %w", err)
	}
	if resp.Token != nil && resp.Token.AccessToken != "" {
		if err := s.Tokens.Set(resp.Token.AccessToken); err != nil {
			return resp, fmt.Errorf("store token: %w", err)
		}
		s.logger().Info("signed up and logged in", "email", req.Email)
	}
	return resp, nil
}

// Logout removes the stored credential.
func (s *Service) Logout() error {
	if err := s.Tokens.Clear(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// EncodeLoginForm builds the OAuth2 password form body, username first.
func EncodeLoginForm(email string, password string) string {
	return "username=" + url.QueryEscape(email) + "&password=" + url.QueryEscape(password)
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
