package auth

import "errors"

var (
	// ErrAuthMissing means the request carried no usable bearer credential.
	ErrAuthMissing = errors.New("auth: missing bearer token")
	// ErrAuthInvalid means a bearer token was presented but failed verification.
	ErrAuthInvalid = errors.New("auth: invalid token")

	ErrNotFound           = errors.New("auth: advisor not found")
	ErrAdvisorExists      = errors.New("auth: advisor already exists")
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
)
