package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"briefly-backend/internal/shared/apperr"
	"briefly-backend/internal/shared/password"
	"briefly-backend/internal/shared/telemetry"
)

// TokenIssuer signs session tokens for a user.
type TokenIssuer interface {
	Issue(subject, email string) (string, error)
}

// Session is the result of a successful sign-in.
type Session struct {
	Token string
	User  User
}

type Service struct {
	Repo   Repo
	Tokens TokenIssuer
	Now    func() time.Time
}

func NewService(repo Repo, tokens TokenIssuer) *Service {
	return &Service{Repo: repo, Tokens: tokens, Now: func() time.Time { return time.Now().UTC() }}
}

// Create registers a user. The (email, phone) pair must be unused.
func (s *Service) Create(ctx context.Context, in NewUser) (User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Email == "" {
		return User{}, ErrInvalidInput
	}
	user := User{
		ID:        uuid.NewString(),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     in.Phone,
		Email:     in.Email,
		CreatedAt: s.now(),
	}
	if in.Password != "" {
		hash, err := password.Hash(in.Password)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	telemetry.Info("user.created", map[string]any{"user_id": user.ID})
	return user, nil
}

// Verify signs a user in by email and password. Accounts without a stored
// password (created through Google) cannot sign in here. Every failure
// reports the account as missing.
func (s *Service) Verify(ctx context.Context, email, plain string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return Session{}, ErrInvalidInput
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if user.PasswordHash == "" {
		telemetry.Warn("user.verify_no_password", map[string]any{"user_id": user.ID})
		return Session{}, ErrNotFound
	}
	if err := password.Compare(user.PasswordHash, plain); err != nil {
		telemetry.Warn("user.verify_mismatch", map[string]any{"user_id": user.ID})
		return Session{}, ErrNotFound
	}
	return s.startSession(ctx, user)
}

// FindOrCreateByEmail signs in an externally authenticated identity,
// registering it on first sight.
func (s *Service) FindOrCreateByEmail(ctx context.Context, email, firstName, lastName string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return Session{}, ErrInvalidInput
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		user, err = s.Create(ctx, NewUser{Email: email, FirstName: firstName, LastName: lastName})
		if errors.Is(err, apperr.ErrConflict) {
			user, err = s.Repo.GetByEmail(ctx, email)
		}
	}
	if err != nil {
		return Session{}, err
	}
	return s.startSession(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByEmail(ctx, email)
}

func (s *Service) startSession(ctx context.Context, user User) (Session, error) {
	if s.Tokens == nil {
		return Session{}, errors.New("token issuer not configured")
	}
	token, err := s.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	now := s.now()
	if err := s.Repo.TouchLogin(ctx, user.ID, now); err != nil {
		telemetry.Warn("user.touch_login_failed", map[string]any{"user_id": user.ID, "err": err})
	} else {
		user.LastLoggedInAt = &now
	}
	return Session{Token: token, User: user}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
