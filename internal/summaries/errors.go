package summaries

import (
	"errors"

	"briefly-backend/internal/shared/apperr"
)

var (
	ErrNotFound               = apperr.NotFound("Summary not found")
	ErrNoInput                = apperr.NotFound("Summary input not found")
	ErrInvalidType            = apperr.Validation("type must be one of code, research, documentation")
	ErrEmptyInput             = apperr.Validation("initialData is required")
	ErrEmptyFile              = apperr.Validation("no text could be extracted from the file")
	ErrEmptyFeedback          = apperr.Validation("feedback is required")
	ErrFileTooLarge           = apperr.Validation("file exceeds the upload limit")
	ErrRecipientNotRegistered = apperr.NotFound("The recipient must be a registered user of Briefly.")
	ErrSelfShare              = apperr.Validation("You cannot share a summary with yourself.")

	// ErrAlreadyShared is returned by share stores on a duplicate
	// (summary, recipient) pair.
	ErrAlreadyShared = errors.New("summary already shared with recipient")
)
