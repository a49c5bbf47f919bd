package app_errors

import (
	"errors"
	"fmt"
)

// Backend and identity conditions.
var ErrBackendUnavailable = errors.New("backend not configured")
var ErrNotAuthenticated = errors.New("not authenticated")
var ErrNotFound = errors.New("not found")
var ErrReadOnly = errors.New("backend is read-only")

var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrIncorrectPassword = errors.New("incorrect password")
var ErrTokenNotFound = errors.New("token not found")
var ErrTokenExpired = errors.New("token expired")
var ErrLinkExpired = errors.New("sign-in link is invalid or expired")

var ErrInvalidID = errors.New("invalid id")
var ErrInvalidInput = errors.New("invalid input")
var ErrNotImage = errors.New("not image")
var ErrFileSize = errors.New("file size error")
var ErrSearchDisabled = errors.New("search is not configured")
var ErrStorageDisabled = errors.New("object storage is not configured")

// QueryFailedError is returned when the backend rejected a query. Message is
// the backend's own text and is shown to users as is.
type QueryFailedError struct {
	Message string
	Err     error
}

func (e *QueryFailedError) Error() string {
	return e.Message
}

func (e *QueryFailedError) Unwrap() error {
	return e.Err
}

// QueryFailed wraps err as a QueryFailedError. Errors that already carry a
// known condition are returned unchanged.
func QueryFailed(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrNotFound) || IsQueryFailed(err) {
		return err
	}
	return &QueryFailedError{Message: err.Error(), Err: err}
}

func QueryFailedf(format string, args ...any) error {
	return &QueryFailedError{Message: fmt.Sprintf(format, args...)}
}

func IsQueryFailed(err error) bool {
	var qf *QueryFailedError
	return errors.As(err, &qf)
}

// Message returns the text to show for err. A QueryFailedError anywhere in
// the chain wins over the wrapping context.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var qf *QueryFailedError
	if errors.As(err, &qf) {
		return qf.Message
	}
	return err.Error()
}
