package users

import (
	"context"
	"sync"
	"time"

	"github.com/edavydenko/mylist/internal/common"
	"github.com/edavydenko/mylist/internal/models"
)

// MemoryRepository is an in-memory Repository used in tests and for
// running the server without a database.
type MemoryRepository struct {
	mu         sync.RWMutex
	records    map[string]*models.UserRecord
	lastActive map[string]time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records:    make(map[string]*models.UserRecord),
		lastActive: make(map[string]time.Time),
	}
}

func (r *MemoryRepository) Get(ctx context.Context, username string) (*models.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return rec.Clone(), nil
}

func (r *MemoryRepository) Create(ctx context.Context, rec *models.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.Username]; ok {
		return common.ErrUsernameTaken
	}
	r.records[rec.Username] = rec.Clone()
	r.lastActive[rec.Username] = rec.CreatedAt
	return nil
}

func (r *MemoryRepository) SaveNewer(ctx context.Context, rec *models.UserRecord) (*models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[rec.Username]
	if !ok {
		r.records[rec.Username] = rec.Clone()
		r.lastActive[rec.Username] = rec.CreatedAt
		return rec, nil
	}

	r.lastActive[rec.Username] = time.Now()
	if !rec.LastModified.After(existing.LastModified) {
		return existing.Clone(), nil
	}

	rec = rec.Clone()
	rec.CreatedAt = existing.CreatedAt
	r.records[rec.Username] = rec
	return rec.Clone(), nil
}

func (r *MemoryRepository) TouchLastActive(ctx context.Context, username string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[username]; ok {
		r.lastActive[username] = at
	}
	return nil
}

func (r *MemoryRepository) LastActive(ctx context.Context, username string) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.records[username]; !ok {
		return time.Time{}, common.ErrNotFound
	}
	return r.lastActive[username], nil
}
