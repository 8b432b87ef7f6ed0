// Package domain defines domain-level errors for the auth feature.
package domain

import "errors"

// Domain errors for authentication operations.
// These errors represent business logic failures and should be handled appropriately by upper layers.
var (
	// ErrEmailAlreadyExists indicates that a live user with the given email already exists.
	// This is returned during registration when attempting to create a duplicate user.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrUserNotFound indicates that no live user was found with the given criteria.
	// A structurally valid token whose referent has been soft-deleted also resolves to this.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials indicates that the provided credentials are incorrect.
	// This is returned during login when email or password is invalid.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrTokenAbsent indicates that no bearer token was supplied with the request.
	ErrTokenAbsent = errors.New("authorization token required")

	// ErrTokenExpired indicates that the presented token's expiry has passed.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid indicates a malformed token, a signature mismatch, or a
	// token that no longer matches the user's stored current token (revoked).
	ErrTokenInvalid = errors.New("token is invalid")
)
