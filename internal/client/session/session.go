// Package session owns the authentication flow and the single active
// user record. It reconciles three sources of truth: the in-memory copy,
// the local store, and the remote server, resolving conflicts with the
// record's last-modified timestamp (the newer copy wins, remote wins
// ties). The in-memory record stays usable with no network at all.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/edavydenko/mylist/internal/client/api"
	"github.com/edavydenko/mylist/internal/client/connectivity"
	"github.com/edavydenko/mylist/internal/client/store"
	"github.com/edavydenko/mylist/internal/common"
	"github.com/edavydenko/mylist/internal/logging"
	"github.com/edavydenko/mylist/internal/models"
)

// Mode is the session's network state. Online degrades to offline on any
// remote failure and never recovers within the session; only a fresh
// Login can re-establish online mode.
type Mode string

const (
	ModeUnauthenticated Mode = "unauthenticated"
	ModeOnline          Mode = "online-synced"
	ModeOffline         Mode = "offline"
)

// Session is the sync manager. All operations are serialized by an
// internal mutex, so a slow remote write can never clobber a newer
// optimistic local state.
type Session struct {
	store  store.Store
	api    api.Client
	policy connectivity.Policy
	log    logging.Logger
	now    func() time.Time

	mu       sync.Mutex
	user     *models.UserRecord
	mode     Mode
	syncDone chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New builds a Session over the given local store, remote client and
// connectivity policy.
func New(st store.Store, cl api.Client, pol connectivity.Policy, log logging.Logger, opts ...Option) *Session {
	s := &Session{
		store:  st,
		api:    cl,
		policy: pol,
		log:    log,
		now:    time.Now,
		mode:   ModeUnauthenticated,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns a copy of the active record, or nil when logged out.
func (s *Session) Current() *models.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

// Mode returns the current session mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SyncDone returns a channel closed when the most recently scheduled
// background push has finished. With no push pending it is already
// closed. Push failures are logged, never delivered to callers.
func (s *Session) SyncDone() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncDone == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return s.syncDone
}

// pushAsync schedules a fire-and-forget upload of rec. The session mutex
// must be held. The push runs detached from any caller context: a caller
// abandoning interest must not cancel the sync.
func (s *Session) pushAsync(rec *models.UserRecord) {
	done := make(chan struct{})
	s.syncDone = done

	go func() {
		defer close(done)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if _, err := s.api.SaveUserData(ctx, rec); err != nil {
			s.log.Warn(ctx, "background sync failed", "username", rec.Username, "error", err)
			return
		}
		s.log.Debug(ctx, "background sync complete", "username", rec.Username)
	}()
}

// touch bumps the record's LastModified, clamped so the timestamp never
// goes backwards even on clock skew.
func (s *Session) touch(rec *models.UserRecord) {
	now := s.now()
	if !now.After(rec.LastModified) {
		now = rec.LastModified.Add(time.Millisecond)
	}
	rec.LastModified = now
}

// adopt installs rec as the active record and persists the session marker.
func (s *Session) adopt(ctx context.Context, rec *models.UserRecord, mode Mode) error {
	if err := s.store.SaveCurrent(ctx, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.user = rec
	s.mode = mode
	return nil
}

// localUser reads the cached record for name, mapping absence to nil.
// Any other storage error is fatal: there is no fallback beneath the
// local store.
func (s *Session) localUser(ctx context.Context, name string) (*models.UserRecord, error) {
	rec, err := s.store.User(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("local store: %w", err)
	}
	return rec, nil
}

// Login authenticates by username. It consults the local cache and, when
// the connectivity policy is favorable, the server, then adopts whichever
// copy has the greater LastModified (remote wins ties). When no record
// exists anywhere the result signals that registration is needed.
func (s *Session) Login(ctx context.Context, usernameInput string) (*LoginResult, error) {
	name, err := common.ValidateUsername(usernameInput)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.localUser(ctx, name)
	if err != nil {
		return nil, err
	}

	var remote *models.UserRecord
	remoteAvailable := false
	if s.policy.Favorable(ctx) {
		rec, exists, err := s.api.CheckUsername(ctx, name)
		if err != nil {
			s.log.Warn(ctx, "server unreachable, using offline mode", "username", name, "error", err)
		} else {
			remoteAvailable = true
			if exists {
				remote = rec
			}
		}
	}

	var adopted *models.UserRecord
	switch {
	case remote != nil && local != nil:
		if local.LastModified.After(remote.LastModified) {
			// Local is newer: adopt it and sync it up in the background.
			adopted = local
			s.pushAsync(local.Clone())
		} else {
			adopted = remote
			if err := s.store.SaveUser(ctx, remote); err != nil {
				return nil, fmt.Errorf("local store: %w", err)
			}
		}
	case remote != nil:
		adopted = remote
		if err := s.store.SaveUser(ctx, remote); err != nil {
			return nil, fmt.Errorf("local store: %w", err)
		}
	case local != nil:
		adopted = local
		if remoteAvailable {
			s.pushAsync(local.Clone())
		}
	default:
		return &LoginResult{NeedsRegistration: true}, nil
	}

	mode := ModeOffline
	if remoteAvailable {
		mode = ModeOnline
	}
	if err := s.adopt(ctx, adopted, mode); err != nil {
		return nil, err
	}

	return &LoginResult{
		Offline: !remoteAvailable,
		Message: welcomeBack(name, !remoteAvailable),
	}, nil
}

// Register creates a new account. The username must be free both locally
// and (when reachable) remotely. The local write is unconditional; the
// remote create is best-effort and its failure only flips the session
// into offline mode.
func (s *Session) Register(ctx context.Context, usernameInput string) (*LoginResult, error) {
	name, err := common.ValidateUsername(usernameInput)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.localUser(ctx, name)
	if err != nil {
		return nil, err
	}
	if local != nil {
		return nil, common.ErrUsernameTaken
	}

	remoteAvailable := false
	if s.policy.Favorable(ctx) {
		_, exists, err := s.api.CheckUsername(ctx, name)
		if err != nil {
			s.log.Warn(ctx, "server unreachable during registration", "username", name, "error", err)
		} else {
			remoteAvailable = true
			if exists {
				return nil, common.ErrUsernameTaken
			}
		}
	}

	rec := models.NewUserRecord(name, s.now())
	if err := s.store.SaveUser(ctx, rec); err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}

	mode := ModeOffline
	if remoteAvailable {
		created, err := s.api.CreateUser(ctx, name)
		switch {
		case err != nil:
			s.log.Warn(ctx, "remote registration failed, continuing offline", "username", name, "error", err)
		case created != nil:
			// Merge back server-assigned fields; the lists stay empty.
			rec = created
			if err := s.store.SaveUser(ctx, rec); err != nil {
				return nil, fmt.Errorf("local store: %w", err)
			}
			mode = ModeOnline
		default:
			mode = ModeOnline
		}
	}

	if err := s.adopt(ctx, rec, mode); err != nil {
		return nil, err
	}

	return &LoginResult{
		Offline: mode == ModeOffline,
		Message: welcomeNew(name, mode == ModeOffline),
	}, nil
}

// Logout clears the in-memory record and the persisted session marker.
// The user's data stays in the local cache and on the server.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ClearCurrent(ctx); err != nil && !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("clear session: %w", err)
	}
	s.user = nil
	s.mode = ModeUnauthenticated
	s.syncDone = nil
	return nil
}

// UpdateLists replaces the active record's lists wholesale. The in-memory
// record reflects the argument before any persistence happens; the local
// write always runs, the remote save only in online mode. A remote
// failure flips the session offline for its remaining lifetime.
func (s *Session) UpdateLists(ctx context.Context, lists models.Lists) (*SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil, common.ErrNotLoggedIn
	}

	s.user.Lists = lists.Clone()
	s.touch(s.user)

	if err := s.store.SaveUser(ctx, s.user); err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}
	if err := s.store.SaveCurrent(ctx, s.user); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if s.mode != ModeOnline || !s.policy.Favorable(ctx) {
		return &SaveResult{Synced: false, Message: msgSavedLocally}, nil
	}

	stored, err := s.api.SaveUserData(ctx, s.user)
	if err != nil {
		s.log.Warn(ctx, "remote save failed, switching to offline mode", "username", s.user.Username, "error", err)
		s.mode = ModeOffline
		return &SaveResult{Synced: false, Message: msgSavedLocally}, nil
	}

	// The server keeps the newer record; adopt its copy only if it beat ours.
	if stored != nil && stored.LastModified.After(s.user.LastModified) {
		s.user = stored
		if err := s.store.SaveUser(ctx, stored); err != nil {
			return nil, fmt.Errorf("local store: %w", err)
		}
		if err := s.store.SaveCurrent(ctx, stored); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}

	return &SaveResult{Synced: true, Message: msgSynced}, nil
}

// Refresh re-reads the active record from its source of truth. Offline it
// re-adopts the local copy. Online it fetches the remote copy and merges
// by LastModified, same as Login: the remote pull does not overwrite a
// newer never-synced local record. Fails open: on fetch errors the prior
// in-memory record is returned and the session degrades offline.
func (s *Session) Refresh(ctx context.Context) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil, common.ErrNotLoggedIn
	}

	if s.mode != ModeOnline || !s.policy.Favorable(ctx) {
		local, err := s.localUser(ctx, s.user.Username)
		if err != nil {
			return nil, err
		}
		if local != nil {
			if err := s.adopt(ctx, local, s.mode); err != nil {
				return nil, err
			}
		}
		return s.user.Clone(), nil
	}

	remote, err := s.api.GetUserData(ctx, s.user.Username)
	if err != nil {
		s.log.Warn(ctx, "refresh failed, switching to offline mode", "username", s.user.Username, "error", err)
		s.mode = ModeOffline
		return s.user.Clone(), nil
	}

	if remote.LastModified.Before(s.user.LastModified) {
		// Local copy is newer than the server's: keep it and sync it up.
		s.pushAsync(s.user.Clone())
		return s.user.Clone(), nil
	}

	if err := s.store.SaveUser(ctx, remote); err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}
	if err := s.adopt(ctx, remote, ModeOnline); err != nil {
		return nil, err
	}
	return s.user.Clone(), nil
}

// Stats returns list statistics: the server's numbers when online,
// locally computed ones otherwise.
func (s *Session) Stats(ctx context.Context) (*models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil, common.ErrNotLoggedIn
	}

	if s.mode == ModeOnline && s.policy.Favorable(ctx) {
		stats, err := s.api.GetUserStats(ctx, s.user.Username)
		if err == nil {
			return stats, nil
		}
		s.log.Warn(ctx, "remote stats failed, computing locally", "username", s.user.Username, "error", err)
		s.mode = ModeOffline
	}

	return models.StatsFor(s.user), nil
}

// Resume re-adopts the persisted session record, if any, e.g. on process
// start. The session comes back in offline mode; only a fresh Login can
// make it online.
func (s *Session) Resume(ctx context.Context) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.Current(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("local store: %w", err)
	}
	s.user = rec
	s.mode = ModeOffline
	return rec.Clone(), nil
}
