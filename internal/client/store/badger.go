package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/edavydenko/mylist/internal/common"
	"github.com/edavydenko/mylist/internal/models"
)

// Key layout in BadgerDB.
const (
	currentKey    = "current"
	userKeyPrefix = "user:"
)

// BadgerStore is the durable Store implementation. Records survive
// restarts; the store is scoped to one device (badger holds a directory
// lock, so a second process on the same data dir fails fast instead of
// racing).
type BadgerStore struct {
	db *badger.DB
}

// Open opens (or creates) the store at dir.
func Open(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already-open badger database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) get(key string) (*models.UserRecord, error) {
	var rec models.UserRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return common.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *BadgerStore) set(key string, rec *models.UserRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *BadgerStore) delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (s *BadgerStore) Current(ctx context.Context) (*models.UserRecord, error) {
	return s.get(currentKey)
}

func (s *BadgerStore) SaveCurrent(ctx context.Context, rec *models.UserRecord) error {
	return s.set(currentKey, rec)
}

func (s *BadgerStore) ClearCurrent(ctx context.Context) error {
	return s.delete(currentKey)
}

func (s *BadgerStore) User(ctx context.Context, username string) (*models.UserRecord, error) {
	return s.get(userKeyPrefix + common.NormalizeUsername(username))
}

func (s *BadgerStore) SaveUser(ctx context.Context, rec *models.UserRecord) error {
	return s.set(userKeyPrefix+common.NormalizeUsername(rec.Username), rec)
}

func (s *BadgerStore) DeleteUser(ctx context.Context, username string) error {
	return s.delete(userKeyPrefix + common.NormalizeUsername(username))
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BadgerStore)(nil)
