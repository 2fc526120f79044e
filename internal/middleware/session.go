package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"deskmates.dev/internal/models"
	"deskmates.dev/internal/session"
)

// Refresher renews an expired session
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*models.AuthSession, error)
}

// RequireSession rejects requests without a signed-in user with 401. An
// expired session is refreshed once when refresher is set.
func RequireSession(codec *session.Codec, refresher Refresher, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := LoadSession(w, r, codec, refresher)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					log.WithError(err).WithField("request_id", GetRequestID(r.Context())).Info("session rejected")
				}
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), s)))
		})
	}
}

// LoadSession reads the request's session, refreshing it if it has expired.
// A session that cannot be refreshed is cleared.
func LoadSession(w http.ResponseWriter, r *http.Request, codec *session.Codec, refresher Refresher) (*session.Session, error) {
	s, err := codec.Read(r)
	if !errors.Is(err, session.ErrExpired) {
		return s, err
	}

	if refresher == nil || s.RefreshToken == "" {
		codec.Clear(w)
		return nil, err
	}
	as, err := refresher.Refresh(r.Context(), s.RefreshToken)
	if err != nil {
		codec.Clear(w)
		return nil, err
	}

	fresh := session.FromAuth(as, time.Now())
	if fresh.UserID == "" {
		fresh.UserID, fresh.Email = s.UserID, s.Email
	}
	if err := codec.Write(w, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}
