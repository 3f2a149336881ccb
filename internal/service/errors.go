package service

import "errors"

// Service errors.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrFolderNotFound    = errors.New("folder not found")
	ErrPriceBelowMinimum = errors.New("target price below minimum")
	ErrNotOwned          = errors.New("not your product or folder")
	ErrDuplicateFolder   = errors.New("product already in folder")
	ErrFolderExists      = errors.New("folder name already exists")
	ErrInvalidFolderName = errors.New("invalid folder name")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInvalidUsername   = errors.New("invalid username format")
	ErrInvalidPassword   = errors.New("invalid password format")
	ErrInvalidAdminToken = errors.New("invalid admin token")
	ErrLoginFailed       = errors.New("invalid username or password")
)

// MessageError pairs a sentinel error with a resolved, user-facing
// message. errors.Is still matches the underlying sentinel.
type MessageError struct {
	err     error
	Message string
}

// NewMessageError wraps err with a resolved message.
func NewMessageError(err error, message string) *MessageError {
	return &MessageError{err: err, Message: message}
}

// Error returns the resolved message.
func (e *MessageError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel for errors.Is.
func (e *MessageError) Unwrap() error {
	return e.err
}

// UserMessage extracts the resolved message from an error chain, or
// returns fallback when the error carries none.
func UserMessage(err error, fallback string) string {
	var msgErr *MessageError
	if errors.As(err, &msgErr) {
		return msgErr.Message
	}
	return fallback
}
