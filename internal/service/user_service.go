package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"authgate/internal/domain"
	"authgate/internal/password"
	"authgate/internal/repository"
	"authgate/internal/token"
)

// timingPassword is hashed once so unknown-email logins pay the same bcrypt cost as real ones.
const timingPassword = "timing-equalizer"

// AuthService turns registration and login requests into signed tokens.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (token.Token, error)
	Authenticate(ctx context.Context, in AuthenticateInput) (token.Token, error)
	Profile(ctx context.Context, email string) (*domain.User, error)
}

// TokenIssuer is satisfied by *token.Codec.
type TokenIssuer interface {
	Issue(subject string, role domain.Role, now time.Time) (token.Token, error)
}

type Option func(*authService)

// WithClock overrides time.Now for token timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *authService) {
		s.now = now
	}
}

type authService struct {
	users     repository.UserRepository
	hasher    password.Hasher
	tokens    TokenIssuer
	logger    logrus.FieldLogger
	now       func() time.Time
	dummyHash string
}

func NewAuthService(
	users repository.UserRepository,
	hasher password.Hasher,
	tokens TokenIssuer,
	logger logrus.FieldLogger,
	opts ...Option,
) (AuthService, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	dummy, err := hasher.Hash(timingPassword)
	if err != nil {
		return nil, fmt.Errorf("prepare timing hash: %w", err)
	}

	s := &authService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger.WithField("component", "auth"),
		now:       time.Now,
		dummyHash: dummy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (token.Token, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return token.Token{}, err
	}

	email := domain.NormalizeEmail(in.Email)
	log := s.logger.WithField("email", email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		log.Info("registration rejected: email taken")
		return token.Token{}, ErrDuplicateCredential
	} else if !errors.Is(err, repository.ErrNotFound) {
		return token.Token{}, storeErr("lookup user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return token.Token{}, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}

	// issued before the insert so a persisted user always has a token to return
	tok, err := s.tokens.Issue(user.Email, user.Role, s.now())
	if err != nil {
		return token.Token{}, fmt.Errorf("issue token: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			log.Info("registration rejected: email taken concurrently")
			return token.Token{}, ErrDuplicateCredential
		}
		return token.Token{}, storeErr("create user", err)
	}

	log.WithField("user_id", user.ID).Info("user registered")
	return tok, nil
}

func (s *authService) Authenticate(ctx context.Context, in AuthenticateInput) (token.Token, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return token.Token{}, err
	}

	email := domain.NormalizeEmail(in.Email)
	log := s.logger.WithField("email", email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.hasher.Verify(s.dummyHash, in.Password)
			log.Debug("authentication failed: unknown email")
			return token.Token{}, ErrInvalidCredentials
		}
		return token.Token{}, storeErr("lookup user", err)
	}

	if err := s.hasher.Verify(user.PasswordHash, in.Password); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			log.WithError(err).Warn("stored password hash unusable")
		} else {
			log.Debug("authentication failed: password mismatch")
		}
		return token.Token{}, ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(user.Email, user.Role, s.now())
	if err != nil {
		return token.Token{}, fmt.Errorf("issue token: %w", err)
	}

	log.WithField("user_id", user.ID).Info("user authenticated")
	return tok, nil
}

func (s *authService) Profile(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr("lookup user", err)
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
