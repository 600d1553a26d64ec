package users

import "time"

// User is a registered account. Email and Phone together are unique.
type User struct {
	ID             string
	FirstName      string
	LastName       string
	Phone          string
	Email          string
	PasswordHash   string
	CreatedAt      time.Time
	LastLoggedInAt *time.Time
}

// NewUser is the input for registration.
type NewUser struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Password  string
}
