package users

import "briefly-backend/internal/shared/apperr"

var (
	ErrNotFound      = apperr.NotFound("Account Does Not Exist")
	ErrAlreadyExists = apperr.Conflict("User Already Exists")
	ErrInvalidInput  = apperr.Validation("email is required")
	ErrNoPassword    = apperr.Validation("password is required")
)
