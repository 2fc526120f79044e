package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"deskmates.dev/internal/middleware"
	"deskmates.dev/internal/models"
	"deskmates.dev/internal/services"
	"deskmates.dev/internal/session"
)

// AuthHandler handles sign-up, sign-in and the OAuth round trip
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	sessions    *session.Codec
	log         logrus.FieldLogger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(as *services.AuthService, us *services.UserService, sessions *session.Codec, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService: as,
		userService: us,
		sessions:    sessions,
		log:         log,
	}
}

// decodeCredentials reads an email/password body, answering 400 or 413 itself
func decodeCredentials(w http.ResponseWriter, r *http.Request) (models.Credentials, bool) {
	var c models.Credentials
	if !decodeJSON(w, r, &c) {
		return c, false
	}
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" || c.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return c, false
	}
	return c, true
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	as, err := h.authService.SignUp(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	if as.AccessToken == "" {
		respondJSON(w, http.StatusOK, models.SessionStatus{User: as.User, ConfirmationSent: true})
		return
	}
	h.startSession(w, r, as)
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	as, err := h.authService.SignInWithPassword(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	h.startSession(w, r, as)
}

// startSession records the user, sets the cookie and reports the new session
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, as *models.AuthSession) {
	if as.User == nil {
		u, err := h.authService.GetUser(r.Context(), as.AccessToken)
		if err != nil {
			h.respondAuthError(w, r, err)
			return
		}
		as.User = u
	}
	if err := h.userService.EnsureUser(r.Context(), as.User); err != nil {
		h.logger(r).WithError(err).Error("recording user")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s := session.FromAuth(as, time.Now())
	if err := h.sessions.Write(w, s); err != nil {
		h.logger(r).WithError(err).Error("writing session")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, models.SessionStatus{LoggedIn: true, User: s.User()})
}

// OAuth handles GET /api/auth/oauth/{provider} - redirects to the provider
func (h *AuthHandler) OAuth(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	verifier, err := session.NewVerifier()
	if err != nil {
		h.logger(r).WithError(err).Error("creating PKCE verifier")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := h.sessions.WriteVerifier(w, verifier); err != nil {
		h.logger(r).WithError(err).Error("writing PKCE verifier")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	target := h.authService.AuthorizeURL(provider, origin(r)+"/auth/callback", session.Challenge(verifier))
	http.Redirect(w, r, target, http.StatusFound)
}

// Callback handles GET /auth/callback - finishes the OAuth round trip.
// Any failure sends the browser to /auth-error.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r)
	fail := func(err error, msg string) {
		if err != nil {
			log = log.WithError(err)
		}
		log.Warn(msg)
		http.Redirect(w, r, "/auth-error", http.StatusTemporaryRedirect)
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		fail(nil, "callback without code")
		return
	}
	verifier, err := h.sessions.ReadVerifier(w, r)
	if err != nil {
		fail(err, "callback without verifier")
		return
	}

	as, err := h.authService.ExchangeCode(r.Context(), code, verifier)
	if err != nil {
		fail(err, "exchanging code")
		return
	}
	user, err := h.authService.GetUser(r.Context(), as.AccessToken)
	if err != nil {
		fail(err, "fetching user")
		return
	}
	if err := h.userService.EnsureUser(r.Context(), user); err != nil {
		fail(err, "recording user")
		return
	}

	as.User = user
	if err := h.sessions.Write(w, session.FromAuth(as, time.Now())); err != nil {
		fail(err, "writing session")
		return
	}
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// SignOut handles POST /api/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if s, err := h.sessions.Read(r); s != nil {
		if err := h.authService.SignOut(r.Context(), s.AccessToken); err != nil {
			h.logger(r).WithError(err).Info("provider sign-out failed")
		}
	} else if err != nil && !errors.Is(err, session.ErrNoSession) {
		h.logger(r).WithError(err).Debug("reading session")
	}
	h.sessions.Clear(w)
	respondJSON(w, http.StatusOK, models.SessionStatus{LoggedIn: false})
}

// Session handles GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	s, err := middleware.LoadSession(w, r, h.sessions, h.authService)
	if err != nil {
		respondJSON(w, http.StatusOK, models.SessionStatus{LoggedIn: false})
		return
	}
	respondJSON(w, http.StatusOK, models.SessionStatus{LoggedIn: true, User: s.User()})
}

func (h *AuthHandler) respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *services.ProviderError
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.As(err, &pe) && pe.Status >= 400 && pe.Status < 500:
		msg := pe.Message
		if msg == "" {
			msg = http.StatusText(pe.Status)
		}
		respondError(w, pe.Status, msg)
	default:
		h.logger(r).WithError(err).Error("auth provider failed")
		respondError(w, http.StatusBadGateway, "Authentication service unavailable")
	}
}

func (h *AuthHandler) logger(r *http.Request) logrus.FieldLogger {
	return h.log.WithField("request_id", middleware.GetRequestID(r.Context()))
}

// origin returns scheme://host of the request as the browser saw it
func origin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
