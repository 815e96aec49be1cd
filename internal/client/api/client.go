// Package api implements the remote API client: a thin HTTP/JSON wrapper
// over the myLIST server endpoints. Every call carries an explicit
// timeout and is routed through a circuit breaker so a flapping server
// degrades the session to offline mode instead of hanging it.
package api

import (
	"context"
	"errors"

	"github.com/edavydenko/mylist/internal/models"
)

var (
	// ErrUnavailable covers any transport failure, timeout, open breaker
	// or non-success status that is not a more specific condition below.
	ErrUnavailable = errors.New("server unavailable")
	// ErrNotFound means the server has no record for the username.
	ErrNotFound = errors.New("user not found")
	// ErrConflict means the username is already taken.
	ErrConflict = errors.New("username already exists")
)

// Client is the remote side of the sync layer.
type Client interface {
	// CheckUsername reports whether a record exists, returning it when it does.
	CheckUsername(ctx context.Context, username string) (*models.UserRecord, bool, error)
	// CreateUser registers a username with empty lists and returns the
	// server's copy of the new record.
	CreateUser(ctx context.Context, username string) (*models.UserRecord, error)
	// SaveUserData replaces the stored record and returns what the server
	// kept (which may be its own, newer copy).
	SaveUserData(ctx context.Context, rec *models.UserRecord) (*models.UserRecord, error)
	// GetUserData fetches the stored record.
	GetUserData(ctx context.Context, username string) (*models.UserRecord, error)
	// GetUserStats fetches server-side list statistics.
	GetUserStats(ctx context.Context, username string) (*models.Stats, error)
	// Ping checks server liveness.
	Ping(ctx context.Context) error

	Close() error
}
