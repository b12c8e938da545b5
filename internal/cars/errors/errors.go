package errors

import "errors"

var (
	ErrNotFound = errors.New("car not found")

	ErrDuplicateID = errors.New("car with this id already exists")
)
