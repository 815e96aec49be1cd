package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edavydenko/mylist/internal/common"
	"github.com/edavydenko/mylist/internal/logging"
	"github.com/edavydenko/mylist/internal/models"
)

// Service validates usernames and applies the keep-newer rule: a pushed
// record only replaces the stored one when its LastModified is newer.
type Service struct {
	repo Repository
	log  logging.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logging.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// Check reports whether a username is registered, returning its record
// when it is. A lookup also counts as user activity.
func (s *Service) Check(ctx context.Context, usernameInput string) (*models.UserRecord, bool, error) {
	username, err := common.ValidateUsername(usernameInput)
	if err != nil {
		return nil, false, err
	}

	rec, err := s.repo.Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("error loading user: %w", err)
	}

	if err := s.repo.TouchLastActive(ctx, username, s.now()); err != nil {
		s.log.Warn(ctx, "error updating last_active", "username", username, "error", err)
	}
	return rec, true, nil
}

// Create registers a username with empty lists.
func (s *Service) Create(ctx context.Context, usernameInput string) (*models.UserRecord, error) {
	username, err := common.ValidateUsername(usernameInput)
	if err != nil {
		return nil, err
	}

	rec := models.NewUserRecord(username, s.now())
	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, common.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user created", "username", username)
	return rec, nil
}

// Save stores a pushed record, keeping whichever copy was modified last.
// The returned record is what the server now holds; callers compare its
// LastModified with what they sent to learn whether their push won.
func (s *Service) Save(ctx context.Context, rec *models.UserRecord) (*models.UserRecord, error) {
	username, err := common.ValidateUsername(rec.Username)
	if err != nil {
		return nil, err
	}
	rec = rec.Clone()
	rec.Username = username
	if rec.CreatedAt.IsZero() {
		// First contact from an offline-registered client.
		rec.CreatedAt = s.now()
	}

	stored, err := s.repo.SaveNewer(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("error saving user: %w", err)
	}

	if !stored.LastModified.Equal(rec.LastModified) {
		s.log.Info(ctx, "push discarded, stored copy is newer",
			"username", username,
			"pushed", rec.LastModified, "stored", stored.LastModified)
	}
	return stored, nil
}

// Get fetches a stored record.
func (s *Service) Get(ctx context.Context, usernameInput string) (*models.UserRecord, error) {
	username, err := common.ValidateUsername(usernameInput)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.repo.TouchLastActive(ctx, username, s.now()); err != nil {
		s.log.Warn(ctx, "error updating last_active", "username", username, "error", err)
	}
	return rec, nil
}

// Stats computes list statistics from the stored record.
func (s *Service) Stats(ctx context.Context, usernameInput string) (*models.Stats, error) {
	username, err := common.ValidateUsername(usernameInput)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	stats := models.StatsFor(rec)
	if la, err := s.repo.LastActive(ctx, username); err == nil {
		stats.LastActive = la
	}
	return stats, nil
}
