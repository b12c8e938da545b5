package errors

import "errors"

var (
	ErrInvalidToken = errors.New("invalid token")

	ErrExpiredToken = errors.New("token has expired")

	ErrInvalidCredentials = errors.New("invalid credentials")
)
