// Package auth registers users, checks passwords and manages login sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sujalbistaa/yatube/internal/models"
	"github.com/sujalbistaa/yatube/internal/repository"
)

// CookieName is the cookie carrying the session key.
const CookieName = "sessionid"

// ErrInvalidCredentials is returned by Login for an unknown user or a wrong
// password. Callers cannot tell the two cases apart.
var ErrInvalidCredentials = errors.New("invalid username or password")

type Service struct {
	repo *repository.Repository
	ttl  time.Duration
	now  func() time.Time
	cost int
}

type Option func(*Service)

// WithClock overrides time.Now for session expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(repo *repository.Repository, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		cost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Register creates a user with a hashed password. A taken username yields
// repository.ErrConflict.
func (s *Service) Register(ctx context.Context, username, password, firstName, lastName string) (*models.User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the credentials and opens a new session.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Session, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.Open(ctx, u)
}

// Open starts a session for u without checking a password.
func (s *Service) Open(ctx context.Context, u *models.User) (*models.Session, error) {
	sess := &models.Session{
		Key:       uuid.NewString(),
		UserID:    u.ID,
		User:      *u,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Authenticate returns the user owning key. Unknown and expired sessions
// both yield repository.ErrNotFound.
func (s *Service) Authenticate(ctx context.Context, key string) (*models.User, error) {
	if _, err := uuid.Parse(key); err != nil {
		return nil, fmt.Errorf("session: %w", repository.ErrNotFound)
	}
	return s.repo.SessionUser(ctx, key, s.now().UTC())
}

func (s *Service) Logout(ctx context.Context, key string) error {
	return s.repo.DeleteSession(ctx, key)
}
