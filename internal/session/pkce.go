package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
)

const verifierTTL = 10 * time.Minute

// NewVerifier returns a random PKCE code verifier
func NewVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Challenge returns the S256 code challenge for verifier
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (c *Codec) verifierName() string {
	return c.opts.Name + "_pkce"
}

// WriteVerifier stores the PKCE verifier for the callback to pick up
func (c *Codec) WriteVerifier(w http.ResponseWriter, verifier string) error {
	v, err := c.Seal(verifier)
	if err != nil {
		return err
	}
	http.SetCookie(w, c.cookie(c.verifierName(), v, verifierTTL))
	return nil
}

// ReadVerifier returns the stored PKCE verifier and clears its cookie
func (c *Codec) ReadVerifier(w http.ResponseWriter, r *http.Request) (string, error) {
	ck, err := r.Cookie(c.verifierName())
	if err != nil {
		return "", ErrNoSession
	}
	http.SetCookie(w, c.cookie(c.verifierName(), "", -1))

	var verifier string
	if err := c.Open(ck.Value, &verifier); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	return verifier, nil
}
