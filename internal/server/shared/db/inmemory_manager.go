package db

import "github.com/edavydenko/mylist/internal/server/users"

// InMemoryRepositoryManager backs the server with in-process maps. Used
// in tests and for running without PostgreSQL.
type InMemoryRepositoryManager struct {
	users users.Repository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *InMemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
