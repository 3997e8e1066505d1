package types

import (
	"errors"
	"fmt"
)

// Kind sentinels. Every *Error matches exactly one of them with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Error is a caller-facing failure with a stable code and a message key
// used for localization.
type Error struct {
	Kind   error
	Code   int
	Key    string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s (%d)", e.Key, e.Code)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the kind sentinel and any *Error with the same code.
func (e *Error) Is(target error) bool {
	if target == e.Kind {
		return true
	}
	if t, ok := target.(*Error); ok {
		return t.Code == e.Code
	}
	return false
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

// WithDetail returns a copy of e with a human-readable detail.
func (e *Error) WithDetail(format string, args ...any) *Error {
	c := *e
	c.Detail = fmt.Sprintf(format, args...)
	return &c
}

var (
	ErrUserNotFound          = &Error{Kind: ErrNotFound, Code: 101, Key: "USER_NOT_FOUND"}
	ErrUsernameExists        = &Error{Kind: ErrConflict, Code: 102, Key: "USERNAME_ALREADY_EXISTS"}
	ErrPasswordLengthInvalid = &Error{Kind: ErrValidation, Code: 103, Key: "USER_PASSWORD_LENGTH_INVALID"}
	ErrPhoneInvalid          = &Error{Kind: ErrValidation, Code: 104, Key: "USER_PHONE_LENGTH_INVALID"}
	ErrEmailExists           = &Error{Kind: ErrConflict, Code: 105, Key: "USER_EMAIL_ALREADY_EXISTS"}
	ErrPhoneExists           = &Error{Kind: ErrConflict, Code: 106, Key: "USER_PHONE_ALREADY_EXISTS"}
	ErrDeceasedNotFound      = &Error{Kind: ErrNotFound, Code: 107, Key: "DECEASED_NOT_FOUND"}
	ErrFileNotFound          = &Error{Kind: ErrNotFound, Code: 108, Key: "FILE_NOT_FOUND"}
	ErrPersonalIDExists      = &Error{Kind: ErrConflict, Code: 109, Key: "DECEASED_PERSONAL_ID_ALREADY_EXISTS"}
	ErrPersonalIDInvalid     = &Error{Kind: ErrValidation, Code: 110, Key: "DECEASED_PERSONAL_ID_SIZE_INVALID"}
	ErrDeceasedFileNotFound  = &Error{Kind: ErrNotFound, Code: 111, Key: "DECEASED_FILE_NOT_FOUND"}
	ErrBadCredentials        = &Error{Kind: ErrUnauthenticated, Code: 112, Key: "BAD_CREDENTIALS"}
	ErrValidationFailed      = &Error{Kind: ErrValidation, Code: 400, Key: "VALIDATION_FAILED"}

	// ErrFileConflict is a late unique violation on a file token.
	ErrFileConflict = &Error{Kind: ErrConflict, Code: 113, Key: "FILE_ALREADY_EXISTS"}
	ErrAuthRequired = &Error{Kind: ErrUnauthenticated, Code: 401, Key: "AUTHENTICATION_REQUIRED"}
	ErrAccessDenied = &Error{Kind: ErrForbidden, Code: 403, Key: "ACCESS_DENIED"}
)

// AsError extracts the *Error from a chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
