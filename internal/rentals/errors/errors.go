package errors

import "errors"

var (
	ErrNotFound = errors.New("rental not found")

	ErrDuplicateID = errors.New("rental with this id already exists")

	ErrLockHeld = errors.New("car is locked by another booking")
)
