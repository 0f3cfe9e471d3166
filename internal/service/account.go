// Package service contains the business logic layer of the application.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → enforces rules, orchestrates
//	Repository      → reads/writes the store
//
// Services accept plain values and return domain errors from package
// apperror. They know nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/grade-predictor/internal/apperror"
	"github.com/sakif/grade-predictor/internal/auth"
	"github.com/sakif/grade-predictor/internal/model"
	"github.com/sakif/grade-predictor/internal/repository"
)

// AccountService is the account directory: signup, login and the
// first-visit flag.
type AccountService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AccountService {
	return &AccountService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// normalizeEmail makes lookups case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a new account flagged as new.
//
// The existence check gives the common case a clean error; the store's
// unique index catches two signups racing for the same address, and
// reports it with the same DuplicateEmail error.
func (s *AccountService) Signup(ctx context.Context, name, email, password string) (*model.User, error) {
	email = normalizeEmail(email)

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.DuplicateEmail()
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/account: checking email: %w", err)
	}

	digest, err := s.passwords.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, apperror.ValidationFailed("password", "must be at most 72 bytes")
	}
	if err != nil {
		return nil, fmt.Errorf("service/account: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: digest,
		IsNewUser:    true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/account: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	return user, nil
}

// Login checks credentials. An unknown email and a wrong password produce
// the same InvalidCredentials error and cost the same bcrypt work.
func (s *AccountService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperror.ErrNotFound) {
		s.passwords.Burn(password)
		return nil, apperror.InvalidCredentials()
	}
	if err != nil {
		return nil, fmt.Errorf("service/account: looking up user: %w", err)
	}

	if !s.passwords.Verify(password, user.PasswordHash) {
		return nil, apperror.InvalidCredentials()
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return user, nil
}

// MarkNotNew clears the new-user flag. Unknown ids yield ErrNotFound;
// repeated calls succeed.
func (s *AccountService) MarkNotNew(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperror.UserNotFound()
	}
	err := s.users.MarkNotNew(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.UserNotFound()
	}
	if err != nil {
		return fmt.Errorf("service/account: marking %s not new: %w", userID, err)
	}
	return nil
}
