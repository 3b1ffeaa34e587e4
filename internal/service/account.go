package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/courseshop/internal/data"
	"github.com/target/courseshop/internal/domain/model"
	apperrors "github.com/target/courseshop/internal/errors"
	"github.com/target/courseshop/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email or wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AccountServiceOptions groups dependencies for AccountService.
type AccountServiceOptions struct {
	Users  ports.UserRepository // Required
	Logger *slog.Logger         // Optional
	Cost   int                  // Optional: bcrypt cost, defaults to bcrypt.DefaultCost
}

// AccountService handles registration, login and profile updates.
type AccountService struct {
	users     ports.UserRepository
	logger    *slog.Logger
	cost      int
	dummyHash []byte
}

// NewAccountService constructs an AccountService.
func NewAccountService(opts AccountServiceOptions) (*AccountService, error) {
	if opts.Users == nil {
		return nil, errors.New("UserRepository is required")
	}
	cost := opts.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	// Compared against for unknown emails so both paths cost one bcrypt run.
	dummy, err := bcrypt.GenerateFromPassword([]byte("courseshop-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}
	return &AccountService{
		users:     opts.Users,
		logger:    logger.With("component", "account_service"),
		cost:      cost,
		dummyHash: dummy,
	}, nil
}

// Register validates the request, hashes the password and creates the account.
func (s *AccountService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(ctx, &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
	})
	if errors.Is(err, data.ErrEmailExists) {
		return nil, &apperrors.AppError{
			Code:    apperrors.ErrCodeConflict,
			Message: "An account with this email already exists.",
			Field:   "email",
			Cause:   err,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "account registered", "user_id", u.ID)
	return u, nil
}

// Authenticate checks an email/password pair.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.users.GetByEmail(ctx, model.NormalizeEmail(email))
	if errors.Is(err, data.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetByID returns the user or a not_found AppError.
func (s *AccountService) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, data.ErrUserNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateProfile changes the display name and, when given, the avatar URL.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, req model.UpdateProfileRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.ValidationField("name", err.Error())
	}
	u, err := s.users.UpdateProfile(ctx, id, req)
	if errors.Is(err, data.ErrUserNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// List returns a page of accounts.
func (s *AccountService) List(ctx context.Context, limit, offset int) ([]*model.User, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

// Delete removes an account. It reports whether a row was deleted.
func (s *AccountService) Delete(ctx context.Context, id string) (bool, error) {
	return s.users.Delete(ctx, id)
}
