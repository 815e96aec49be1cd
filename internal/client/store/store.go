// Package store implements the device-local persistent cache of user
// records. Two tiers of keys are kept: the single "current session"
// record, and one entry per username ever logged into on this device.
package store

import (
	"context"

	"github.com/edavydenko/mylist/internal/models"
)

// Store is the local key-value cache. Absent keys are reported as
// common.ErrNotFound; any other error means the store itself is broken
// and there is no fallback beneath it.
type Store interface {
	// Current returns the active session record, if any.
	Current(ctx context.Context) (*models.UserRecord, error)
	// SaveCurrent marks rec as the active session record.
	SaveCurrent(ctx context.Context, rec *models.UserRecord) error
	// ClearCurrent removes the active session marker only.
	ClearCurrent(ctx context.Context) error

	// User returns the cached record for a normalized username.
	User(ctx context.Context, username string) (*models.UserRecord, error)
	// SaveUser caches rec under its normalized username.
	SaveUser(ctx context.Context, rec *models.UserRecord) error
	// DeleteUser drops the cached record for a username.
	DeleteUser(ctx context.Context, username string) error

	Close() error
}
