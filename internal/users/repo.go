package users

import (
	"context"
	"time"
)

// Repo persists users.
type Repo interface {
	// Create inserts a user, returning ErrAlreadyExists when the (email, phone)
	// pair is taken.
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	// GetByEmail returns the oldest user registered with email.
	GetByEmail(ctx context.Context, email string) (User, error)
	TouchLogin(ctx context.Context, userID string, at time.Time) error
}
