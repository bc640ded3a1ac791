package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/alimagdye/product-management-api/internal/domain"
	"github.com/alimagdye/product-management-api/internal/repository"
	"github.com/alimagdye/product-management-api/pkg/config"
	"github.com/alimagdye/product-management-api/pkg/crypto"
	jwtpkg "github.com/alimagdye/product-management-api/pkg/jwt"
)

var (
	// ErrUserExists reports a username or email collision at signup without
	// revealing which field collided.
	ErrUserExists = errors.New("auth: username or email already exists")
	// ErrInvalidCredentials covers both a wrong password and an unknown
	// username. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("auth: incorrect password or username")
	// ErrLookupFailed reports an infrastructure failure while fetching the
	// account, distinct from wrong credentials.
	ErrLookupFailed = errors.New("auth: user lookup failed")
)

// Service handles signup and login workflows.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// Signup registers a new user and returns it along with a signed token. The
// plaintext password is hashed immediately and never stored or logged.
func (s Service) Signup(ctx context.Context, username, email, password string) (*domain.User, string, error) {
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.logger.Warn("signup rejected, duplicate username or email")
			return nil, "", ErrUserExists
		}
		s.logger.Error("user creation failed", "error", err)
		return nil, "", fmt.Errorf("create user: %w", err)
	}
	token, err := jwtpkg.GenerateToken(user.ID, user.Username, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login authenticates a user and returns it along with a signed token.
//
// Whether or not the username exists, exactly one bcrypt comparison of equal
// cost runs before the decision: against the stored digest when the account
// is real, against crypto.DummyHash when it is not. The comparison is never
// short-circuited even though a missing account already settles the outcome.
func (s Service) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("user lookup failed", "error", err)
		return nil, "", ErrLookupFailed
	}

	hash := []byte(crypto.DummyHash)
	if user != nil {
		hash = user.PasswordHash
	}
	cmpErr := crypto.ComparePassword(hash, password)
	if user == nil || cmpErr != nil {
		s.logger.Warn("login rejected")
		return nil, "", ErrInvalidCredentials
	}

	token, err := jwtpkg.GenerateToken(user.ID, user.Username, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}
