package common

import "strings"

const (
	UsernameMinLen = 3
	UsernameMaxLen = 20
)

// NormalizeUsername trims surrounding whitespace and lowercases the input.
// Every comparison of usernames anywhere in the system goes through this,
// so "Alice " and "alice" are the same identity.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateUsername normalizes the input and checks the length and charset
// rules. It returns the normalized username, or ErrInvalidUsername.
func ValidateUsername(s string) (string, error) {
	name := NormalizeUsername(s)
	if len(name) < UsernameMinLen || len(name) > UsernameMaxLen {
		return "", ErrInvalidUsername
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return "", ErrInvalidUsername
		}
	}
	return name, nil
}
