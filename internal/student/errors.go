package student

import "errors"

var (
	// ErrNotFound means no student matched the given id or usn.
	ErrNotFound = errors.New("student not found")
	// ErrDuplicateUSN means the usn is already registered.
	ErrDuplicateUSN = errors.New("usn already registered")
	// ErrDuplicateEmail means the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrBadCredentials means the password did not match.
	ErrBadCredentials = errors.New("incorrect password")
	// ErrInvalidStatus means the requested status is not one of the enum values.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrFileRequired means the transition needs an uploaded assignment.
	ErrFileRequired = errors.New("no assignment uploaded")
	// ErrValidation means a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")
)
