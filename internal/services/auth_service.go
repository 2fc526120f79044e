package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"deskmates.dev/internal/config"
	"deskmates.dev/internal/models"
)

// ErrUnauthorized is returned when the provider rejects credentials or a token
var ErrUnauthorized = errors.New("unauthorized")

// ProviderError is a non-2xx answer from the auth provider
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth provider returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("auth provider returned %d", e.Status)
}

// Is lets callers match rejected credentials with errors.Is(err, ErrUnauthorized)
func (e *ProviderError) Is(target error) bool {
	if target != ErrUnauthorized {
		return false
	}
	switch {
	case e.Status == http.StatusUnauthorized, e.Status == http.StatusForbidden:
		return true
	case e.Code == "invalid_grant", e.Code == "invalid_credentials", e.Code == "bad_jwt":
		return true
	}
	return false
}

// providerErrorBody covers both error shapes GoTrue has used
type providerErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

// AuthService talks to a GoTrue-compatible auth REST API
type AuthService struct {
	base     string
	anonKey  string
	provider string
	client   *http.Client
	log      logrus.FieldLogger
}

// NewAuthService creates a new AuthService. A nil client gets one with the
// configured timeout.
func NewAuthService(cfg config.AuthConfig, client *http.Client, log logrus.FieldLogger) *AuthService {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &AuthService{
		base:     strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey:  cfg.AnonKey,
		provider: cfg.Provider,
		client:   client,
		log:      log.WithField("component", "auth"),
	}
}

// DefaultProvider returns the OAuth provider used when none is named
func (s *AuthService) DefaultProvider() string {
	return s.provider
}

// SignUp registers an email/password account. When the provider requires
// email confirmation the returned session has no tokens, only the user.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	var out struct {
		models.AuthSession
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	err := s.do(ctx, http.MethodPost, "/signup", "", models.Credentials{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}

	sess := out.AuthSession
	if sess.User == nil && out.ID != "" {
		sess.User = &models.AuthUser{ID: out.ID, Email: out.Email}
	}
	return &sess, nil
}

// SignInWithPassword exchanges email and password for a session
func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*models.AuthSession, error) {
	var out models.AuthSession
	err := s.do(ctx, http.MethodPost, "/token?grant_type=password", "", models.Credentials{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthorizeURL returns where to send the browser to start an OAuth sign-in
func (s *AuthService) AuthorizeURL(provider, redirectTo, challenge string) string {
	if provider == "" {
		provider = s.provider
	}
	q := url.Values{}
	q.Set("provider", provider)
	q.Set("redirect_to", redirectTo)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "s256")
	return s.base + "/authorize?" + q.Encode()
}

// ExchangeCode trades an OAuth authorization code and its PKCE verifier for a session
func (s *AuthService) ExchangeCode(ctx context.Context, code, verifier string) (*models.AuthSession, error) {
	body := map[string]string{"auth_code": code, "code_verifier": verifier}
	var out models.AuthSession
	if err := s.do(ctx, http.MethodPost, "/token?grant_type=pkce", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh trades a refresh token for a new session
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var out models.AuthSession
	if err := s.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser returns the user an access token belongs to
func (s *AuthService) GetUser(ctx context.Context, accessToken string) (*models.AuthUser, error) {
	var out models.AuthUser
	if err := s.do(ctx, http.MethodGet, "/user", accessToken, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("auth provider returned a user without id")
	}
	return &out, nil
}

// SignOut revokes the session behind accessToken
func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	return s.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// do sends a JSON request and decodes a JSON answer into out, if given
func (s *AuthService) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.base+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = s.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling auth provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		pe := &ProviderError{Status: resp.StatusCode}
		var eb providerErrorBody
		if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&eb); err == nil {
			pe.Code = firstNonEmpty(eb.ErrorCode, eb.Error)
			pe.Message = firstNonEmpty(eb.Msg, eb.ErrorDescription, eb.Message)
		}
		s.log.WithFields(logrus.Fields{
			"path":   strings.SplitN(path, "?", 2)[0],
			"status": pe.Status,
			"code":   pe.Code,
		}).Warn("auth provider error")
		return pe
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding auth response: %w", err)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
