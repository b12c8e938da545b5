package errors

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	ErrDuplicateEmail = errors.New("user with this email already exists")

	ErrDuplicateUsername = errors.New("username already taken")
)
