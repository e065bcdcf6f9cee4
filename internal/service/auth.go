package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"sublearn/internal/repository"
)

// ErrWrongPassword is returned by Login when the password does not match
var ErrWrongPassword = errors.New("wrong password")

// AuthService guards the chat surface behind a shared password
type AuthService struct {
	userRepo    repository.UserRepository
	botPassword string
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, botPassword string) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		botPassword: botPassword,
	}
}

// CheckPassword verifies if provided password matches. An empty configured
// password matches nothing.
func (s *AuthService) CheckPassword(password string) bool {
	if s.botPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.botPassword)) == 1
}

// IsAuthorized checks if user is authorized
func (s *AuthService) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	authorized, err := s.userRepo.IsAuthorized(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("check authorization of user %d: %w", userID, err)
	}
	return authorized, nil
}

// AuthorizeUser authorizes a user
func (s *AuthService) AuthorizeUser(ctx context.Context, userID int64) error {
	if err := s.userRepo.AuthorizeUser(ctx, userID); err != nil {
		return fmt.Errorf("authorize user %d: %w", userID, err)
	}
	return nil
}

// Login authorizes userID when password matches
func (s *AuthService) Login(ctx context.Context, userID int64, password string) error {
	if !s.CheckPassword(password) {
		return ErrWrongPassword
	}
	return s.AuthorizeUser(ctx, userID)
}

// EnsureUserExists creates user record if doesn't exist
func (s *AuthService) EnsureUserExists(ctx context.Context, userID int64) error {
	if err := s.userRepo.EnsureUserExists(ctx, userID); err != nil {
		return fmt.Errorf("ensure user %d: %w", userID, err)
	}
	return nil
}
