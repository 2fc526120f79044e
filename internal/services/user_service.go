package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"deskmates.dev/internal/models"
)

// UserRepository is the storage UserService needs
type UserRepository interface {
	Get(ctx context.Context, id string) (*models.User, error)
	InsertIfAbsent(ctx context.Context, u models.User) (bool, error)
}

// UserService keeps the application's own user records
type UserService struct {
	repo UserRepository
	now  func() time.Time
	log  logrus.FieldLogger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, log logrus.FieldLogger) *UserService {
	return &UserService{
		repo: repo,
		now:  time.Now,
		log:  log.WithField("component", "users"),
	}
}

// EnsureUser records an authenticated user the first time they are seen.
// Existing records are left untouched.
func (s *UserService) EnsureUser(ctx context.Context, u *models.AuthUser) error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("user id is required")
	}

	created, err := s.repo.InsertIfAbsent(ctx, models.User{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("recording user: %w", err)
	}
	if created {
		s.log.WithField("user_id", u.ID).Info("new user recorded")
	}
	return nil
}

// Get returns a stored user record
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repo.Get(ctx, id)
}
