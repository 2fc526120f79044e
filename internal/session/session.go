// Package session keeps the signed-in user's tokens in an encrypted cookie.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"deskmates.dev/internal/models"
)

var (
	// ErrNoSession is returned when the request carries no usable session
	ErrNoSession = errors.New("no session")
	// ErrExpired is returned alongside a session whose access token has expired
	ErrExpired = errors.New("session expired")
)

const nonceSize = 24

// Session is what the cookie carries
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // unix seconds, 0 if unknown
}

// FromAuth builds a session from a provider token pair
func FromAuth(as *models.AuthSession, now time.Time) *Session {
	s := &Session{
		AccessToken:  as.AccessToken,
		RefreshToken: as.RefreshToken,
		ExpiresAt:    as.ExpiresAt,
	}
	if s.ExpiresAt == 0 && as.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(as.ExpiresIn) * time.Second).Unix()
	}
	if as.User != nil {
		s.UserID = as.User.ID
		s.Email = as.User.Email
	}
	return s
}

// User returns the identity stored in the session
func (s *Session) User() *models.AuthUser {
	return &models.AuthUser{ID: s.UserID, Email: s.Email}
}

// Options configures cookie attributes
type Options struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Codec seals sessions into cookies and opens them again
type Codec struct {
	key  [32]byte
	opts Options
	now  func() time.Time
}

// NewCodec creates a Codec whose key is derived from secret
func NewCodec(secret string, opts Options) *Codec {
	if opts.Name == "" {
		opts.Name = "session"
	}
	return &Codec{
		key:  sha256.Sum256([]byte(secret)),
		opts: opts,
		now:  time.Now,
	}
}

// Seal encrypts v and returns a cookie-safe string
func (c *Codec) Seal(v any) (string, error) {
	msg, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("reading nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], msg, &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

// Open decrypts a value produced by Seal into v
func (c *Codec) Open(sealed string, v any) error {
	box, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return fmt.Errorf("decoding cookie: %w", err)
	}
	if len(box) < nonceSize+secretbox.Overhead {
		return fmt.Errorf("cookie too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	msg, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &c.key)
	if !ok {
		return fmt.Errorf("cookie failed authentication")
	}
	return json.Unmarshal(msg, v)
}

// Write stores s in the session cookie
func (c *Codec) Write(w http.ResponseWriter, s *Session) error {
	v, err := c.Seal(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, c.cookie(c.opts.Name, v, c.opts.MaxAge))
	return nil
}

// Read returns the session in r. A session past its expiry is returned
// together with ErrExpired so the caller can refresh it.
func (c *Codec) Read(r *http.Request) (*Session, error) {
	ck, err := r.Cookie(c.opts.Name)
	if err != nil {
		return nil, ErrNoSession
	}

	var s Session
	if err := c.Open(ck.Value, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if s.AccessToken == "" {
		return nil, ErrNoSession
	}
	if s.ExpiresAt != 0 && c.now().Unix() >= s.ExpiresAt {
		return &s, ErrExpired
	}
	return &s, nil
}

// Clear removes the session cookie
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(c.opts.Name, "", -1))
}

func (c *Codec) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case maxAge < 0:
		ck.MaxAge = -1
	case maxAge > 0:
		ck.MaxAge = int(maxAge / time.Second)
	}
	return ck
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, if any
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
