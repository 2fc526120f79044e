package models

import "time"

// Credentials is the body of the email/password endpoints
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUser is the identity returned by the auth provider
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession is a token pair issued by the auth provider
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at,omitempty"` // unix seconds
	User         *AuthUser `json:"user,omitempty"`
}

// User is a row of the application's users table
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStatus answers GET /api/auth/session
type SessionStatus struct {
	LoggedIn         bool      `json:"logged_in"`
	User             *AuthUser `json:"user,omitempty"`
	ConfirmationSent bool      `json:"confirmation_sent,omitempty"` // sign-up awaits email confirmation
}
