// Package users implements the server-side user service: storage of the
// per-user record plus the keep-newer rule applied when clients push
// concurrent copies.
package users

import (
	"context"
	"time"

	"github.com/edavydenko/mylist/internal/models"
)

// Repository persists user records. Implementations report a missing
// username as common.ErrNotFound and a duplicate one as
// common.ErrUsernameTaken.
type Repository interface {
	Get(ctx context.Context, username string) (*models.UserRecord, error)
	Create(ctx context.Context, rec *models.UserRecord) error
	// SaveNewer stores rec if its LastModified is strictly newer than the
	// stored copy's, creating the row when absent. It returns the copy
	// the repository holds afterwards. The check and the write happen
	// atomically so concurrent pushes cannot interleave.
	SaveNewer(ctx context.Context, rec *models.UserRecord) (*models.UserRecord, error)
	// TouchLastActive bumps the activity timestamp without touching the
	// record itself.
	TouchLastActive(ctx context.Context, username string, at time.Time) error
	LastActive(ctx context.Context, username string) (time.Time, error)
}
