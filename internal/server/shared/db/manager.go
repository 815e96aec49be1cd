// Package db wires repository implementations to their backing storage.
package db

import (
	"github.com/edavydenko/mylist/internal/server/users"
)

type RepositoryManager interface {
	Users() users.Repository
	Close() error
}
