// Package common defines shared constants, sentinel errors and username
// rules used across client and server layers of myLIST. Callers should
// use errors.Is to match the sentinel values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation errors (rejected before any I/O).
	ErrInvalidUsername = errors.New("username must be 3-20 characters: letters, digits, '.', '_' or '-'")

	// Registration conflict.
	ErrUsernameTaken = errors.New("username already taken")

	// Session flow control.
	ErrNotLoggedIn = errors.New("not logged in")

	// Service-level errors.
	ErrInternal = errors.New("internal error")
)
