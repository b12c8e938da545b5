package errors

import "errors"

var (
	ErrNotFound = errors.New("review not found")

	ErrDuplicateReview = errors.New("user already reviewed this car")
)
