package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edavydenko/mylist/internal/client/api"
	"github.com/edavydenko/mylist/internal/client/connectivity"
	"github.com/edavydenko/mylist/internal/common"
	"github.com/edavydenko/mylist/internal/logging"
	"github.com/edavydenko/mylist/internal/models"
)

// ---- fake local store ----

type memStore struct {
	mu      sync.Mutex
	users   map[string]*models.UserRecord
	current *models.UserRecord
	calls   int
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*models.UserRecord{}}
}

var errBroken = errors.New("disk on fire")

func (m *memStore) Current(ctx context.Context) (*models.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAll {
		return nil, errBroken
	}
	if m.current == nil {
		return nil, common.ErrNotFound
	}
	return m.current.Clone(), nil
}

func (m *memStore) SaveCurrent(ctx context.Context, rec *models.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAll {
		return errBroken
	}
	m.current = rec.Clone()
	return nil
}

func (m *memStore) ClearCurrent(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.current = nil
	return nil
}

func (m *memStore) User(ctx context.Context, username string) (*models.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAll {
		return nil, errBroken
	}
	rec, ok := m.users[common.NormalizeUsername(username)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *memStore) SaveUser(ctx context.Context, rec *models.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failAll {
		return errBroken
	}
	m.users[common.NormalizeUsername(rec.Username)] = rec.Clone()
	return nil
}

func (m *memStore) DeleteUser(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	delete(m.users, common.NormalizeUsername(username))
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) stored(t *testing.T, name string) *models.UserRecord {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[name]
	require.True(t, ok, "no local record for %q", name)
	return rec.Clone()
}

// ---- fake remote client ----

type fakeClient struct {
	mu sync.Mutex

	records map[string]*models.UserRecord

	CheckErr  error
	CreateErr error
	SaveErr   error
	GetErr    error
	StatsErr  error
	StatsRet  *models.Stats

	SavedRecords []*models.UserRecord
}

func newFakeClient() *fakeClient {
	return &fakeClient{records: map[string]*models.UserRecord{}}
}

func (f *fakeClient) put(rec *models.UserRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.Username] = rec.Clone()
}

func (f *fakeClient) CheckUsername(ctx context.Context, username string) (*models.UserRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CheckErr != nil {
		return nil, false, f.CheckErr
	}
	rec, ok := f.records[username]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

func (f *fakeClient) CreateUser(ctx context.Context, username string) (*models.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if _, ok := f.records[username]; ok {
		return nil, api.ErrConflict
	}
	rec := models.NewUserRecord(username, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	f.records[username] = rec
	return rec.Clone(), nil
}

func (f *fakeClient) SaveUserData(ctx context.Context, rec *models.UserRecord) (*models.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SaveErr != nil {
		return nil, f.SaveErr
	}
	f.SavedRecords = append(f.SavedRecords, rec.Clone())
	stored, ok := f.records[rec.Username]
	if ok && stored.LastModified.After(rec.LastModified) {
		return stored.Clone(), nil
	}
	f.records[rec.Username] = rec.Clone()
	return rec.Clone(), nil
}

func (f *fakeClient) GetUserData(ctx context.Context, username string) (*models.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	rec, ok := f.records[username]
	if !ok {
		return nil, api.ErrNotFound
	}
	return rec.Clone(), nil
}

func (f *fakeClient) GetUserStats(ctx context.Context, username string) (*models.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StatsErr != nil {
		return nil, f.StatsErr
	}
	if f.StatsRet != nil {
		return f.StatsRet, nil
	}
	return &models.Stats{}, nil
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }
func (f *fakeClient) Close() error                   { return nil }

func (f *fakeClient) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.SavedRecords)
}

// ---- helpers ----

func newSession(st *memStore, cl *fakeClient, pol connectivity.Policy) *Session {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	step := 0
	clock := func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}
	return New(st, cl, pol, logging.NewNopLogger(), WithClock(clock))
}

func waitSync(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.SyncDone():
	case <-time.After(2 * time.Second):
		t.Fatal("background sync did not finish")
	}
}

// ---- tests ----

func TestRegister_ValidatesBeforeAnyIO(t *testing.T) {
	st := newMemStore()
	s := newSession(st, newFakeClient(), connectivity.Always)

	_, err := s.Register(context.Background(), "ab")
	require.ErrorIs(t, err, common.ErrInvalidUsername)
	require.Zero(t, st.calls, "validation must reject before any store access")

	_, err = s.Login(context.Background(), "ab")
	require.ErrorIs(t, err, common.ErrInvalidUsername)
	require.Zero(t, st.calls)
}

func TestRegister_ThenLogin_ReturnsEmptyRecord(t *testing.T) {
	ctx := context.Background()
	s := newSession(newMemStore(), newFakeClient(), connectivity.Always)

	res, err := s.Register(ctx, "alice")
	require.NoError(t, err)
	require.False(t, res.NeedsRegistration)
	require.False(t, res.Offline)
	require.Equal(t, ModeOnline, s.Mode())

	res, err = s.Login(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "Welcome back, alice!", res.Message)

	rec := s.Current()
	require.Equal(t, "alice", rec.Username)
	require.Empty(t, rec.Lists.Media)
	require.Empty(t, rec.Lists.Todo)
	require.False(t, rec.CreatedAt.IsZero())
}

func TestRegister_CaseAndWhitespaceAreSameIdentity(t *testing.T) {
	ctx := context.Background()
	s := newSession(newMemStore(), newFakeClient(), connectivity.Always)

	_, err := s.Register(ctx, "Alice")
	require.NoError(t, err)

	_, err = s.Register(ctx, "  ALICE ")
	require.ErrorIs(t, err, common.ErrUsernameTaken)
}

func TestRegister_LocalConflictEvenWhenRemoteUnreachable(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	existing := models.NewUserRecord("alice", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	existing.Lists.Todo = []models.TaskItem{{ID: "t1", Text: "keep me"}}
	require.NoError(t, st.SaveUser(ctx, existing))
	st.calls = 0

	s := newSession(st, newFakeClient(), connectivity.Never)

	_, err := s.Register(ctx, "alice")
	require.ErrorIs(t, err, common.ErrUsernameTaken)

	// The existing local record was not overwritten.
	rec := st.stored(t, "alice")
	require.Len(t, rec.Lists.Todo, 1)
	require.Equal(t, "keep me", rec.Lists.Todo[0].Text)
}

func TestRegister_RemoteConflict(t *testing.T) {
	cl := newFakeClient()
	cl.put(models.NewUserRecord("alice", time.Now()))

	s := newSession(newMemStore(), cl, connectivity.Always)
	_, err := s.Register(context.Background(), "alice")
	require.ErrorIs(t, err, common.ErrUsernameTaken)
}

func TestRegister_RemoteCreateFailureFallsBackOffline(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	cl := newFakeClient()
	cl.CreateErr = api.ErrUnavailable

	s := newSession(st, cl, connectivity.Always)
	res, err := s.Register(ctx, "alice")
	require.NoError(t, err, "remote create failure must not fail registration")
	require.True(t, res.Offline)
	require.Equal(t, ModeOffline, s.Mode())

	// The record exists locally regardless.
	st.stored(t, "alice")
}

func TestLogin_NeedsRegistration(t *testing.T) {
	s := newSession(newMemStore(), newFakeClient(), connectivity.Always)

	res, err := s.Login(context.Background(), "nobody")
	require.NoError(t, err)
	require.True(t, res.NeedsRegistration)
	require.Equal(t, ModeUnauthenticated, s.Mode())
	require.Nil(t, s.Current())
}

func TestLogin_RemoteNewerWins(t *testing.T) {
	ctx := context.Background()
	t1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	st := newMemStore()
	local := models.NewUserRecord("alice", t1)
	local.LastModified = t1
	require.NoError(t, st.SaveUser(ctx, local))

	cl := newFakeClient()
	remote := models.NewUserRecord("alice", t1)
	remote.LastModified = t2
	remote.Lists.Media = []models.MediaItem{{ImdbID: "tt1375666", Title: "Inception"}}
	cl.put(remote)

	s := newSession(st, cl, connectivity.Always)
	_, err := s.Login(ctx, "alice")
	require.NoError(t, err)

	rec := s.Current()
	require.True(t, rec.LastModified.Equal(t2))
	require.Len(t, rec.Lists.Media, 1)

	// Local cache was overwritten with the remote copy.
	cached := st.stored(t, "alice")
	require.True(t, cached.LastModified.Equal(t2))
	require.Len(t, cached.Lists.Media, 1)
}

func TestLogin_LocalNewerWinsAndPushes(t *testing.T) {
	ctx := context.Background()
	t1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	st := newMemStore()
	local := models.NewUserRecord("alice", t1)
	local.LastModified = t1.Add(time.Hour)
	local.Lists.Todo = []models.TaskItem{{ID: "t1", Text: "newer locally"}}
	require.NoError(t, st.SaveUser(ctx, local))

	cl := newFakeClient()
	remote := models.NewUserRecord("alice", t1)
	remote.LastModified = t1
	cl.put(remote)

	s := newSession(st, cl, connectivity.Always)
	_, err := s.Login(ctx, "alice")
	require.NoError(t, err)

	rec := s.Current()
	require.Len(t, rec.Lists.Todo, 1)

	waitSync(t, s)
	require.Equal(t, 1, cl.savedCount(), "local winner must be pushed to remote")
}

func TestLogin_EqualTimestampsRemoteWins(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	st := newMemStore()
	local := models.NewUserRecord("alice", ts)
	local.Lists.Todo = []models.TaskItem{{ID: "l", Text: "local"}}
	require.NoError(t, st.SaveUser(ctx, local))

	cl := newFakeClient()
	remote := models.NewUserRecord("alice", ts)
	remote.Lists.Todo = []models.TaskItem{{ID: "r", Text: "remote"}}
	cl.put(remote)

	s := newSession(st, cl, connectivity.Always)
	_, err := s.Login(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "remote", s.Current().Lists.Todo[0].Text)
}

func TestLogin_OnlyLocal_OfflinePolicy(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	require.NoError(t, st.SaveUser(ctx, models.NewUserRecord("alice", time.Now())))

	s := newSession(st, newFakeClient(), connectivity.Never)
	res, err := s.Login(ctx, "alice")
	require.NoError(t, err)
	require.True(t, res.Offline)
	require.Contains(t, res.Message, "offline mode")
	require.Equal(t, ModeOffline, s.Mode())
}

func TestLogin_CheckFailureDegradesToLocal(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	require.NoError(t, st.SaveUser(ctx, models.NewUserRecord("alice", time.Now())))

	cl := newFakeClient()
	cl.CheckErr = api.ErrUnavailable

	s := newSession(st, cl, connectivity.Always)
	res, err := s.Login(ctx, "alice")
	require.NoError(t, err)
	require.True(t, res.Offline)
}

func TestLogin_FatalStoreErrorPropagates(t *testing.T) {
	st := newMemStore()
	st.failAll = true

	s := newSession(st, newFakeClient(), connectivity.Never)
	_, err := s.Login(context.Background(), "alice")
	require.ErrorIs(t, err, errBroken)
}

func TestUpdateLists_OptimisticAndImmediate(t *testing.T) {
	ctx := context.Background()
	s := newSession(newMemStore(), newFakeClient(), connectivity.Always)
	_, err := s.Register(ctx, "alice")
	require.NoError(t, err)

	lists := s.Current().Lists
	lists.Media = append(lists.Media, models.MediaItem{ImdbID: "tt0133093", Title: "The Matrix"})

	res, err := s.UpdateLists(ctx, lists)
	require.NoError(t, err)
	require.True(t, res.Synced)

	rec := s.Current()
	require.Len(t, rec.Lists.Media, 1)
	require.Equal(t, "The Matrix", rec.Lists.Media[0].Title)
}

func TestUpdateLists_LastModifiedNeverDecreases(t *testing.T) {
	ctx := context.Background()
	s := newSession(newMemStore(), newFakeClient(), connectivity.Never)
	_, err := s.Register(ctx, "alice")
	require.NoError(t, err)

	var prev time.Time
	for i := 0; i < 5; i++ {
		lists := s.Current().Lists
		lists.Todo = append(lists.Todo, models.TaskItem{ID: "t", Text: "x"})
		_, err := s.UpdateLists(ctx, lists)
		require.NoError(t, err)

		lm := s.Current().LastModified
		require.True(t, lm.After(prev), "LastModified went backwards: %v -> %v", prev, lm)
		prev = lm
	}
}

func TestUpdateLists_RemoteFailureIsLocalSuccess(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	cl := newFakeClient()

	s := newSession(st, cl, connectivity.Always)
	_, err := s.Register(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, ModeOnline, s.Mode())

	cl.SaveErr = api.ErrUnavailable

	lists := s.Current().Lists
	lists.Bucket = append(lists.Bucket, models.TaskItem{ID: "b1", Text: "see aurora"})

	res, err := s.UpdateLists(ctx, lists)
	require.NoError(t, err, "remote failure must not fail the operation")
	require.False(t, res.Synced)
	require.Contains(t, res.Message, "locally")
	require.Equal(t, ModeOffline, s.Mode())

	// Offline refresh serves the same data back: nothing was lost.
	rec, err := s.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, rec.Lists.Bucket, 1)
	require.Equal(t, "see aurora", rec.Lists.Bucket[0].Text)
}

func TestUpdateLists_OfflineStaysOffline(t *testing.T) {
	ctx := context.Background()
	cl := newFakeClient()
	s := newSession(newMemStore(), cl, connectivity.Never)
	_, err := s.Register(ctx, "alice")
	require.NoError(t, err)

	lists := s.Current().Lists
	lists.Todo = append(lists.Todo, models.TaskItem{ID: "t1", Text: "x"})
	res, err := s.UpdateLists(ctx, lists)
	require.NoError(t, err)
	require.False(t, res.Synced)
	require.Zero(t, cl.savedCount(), "offline session must not call the server")
}

func TestUpdateLists_RequiresLogin(t *testing.T) {
	s := newSession(newMemStore(), newFakeClient(), connectivity.Always)
	_, err := s.UpdateLists(context.Background(), models.Lists{})
	require.ErrorIs(t, err, common.ErrNotLoggedIn)
}

func TestRefresh_MergesByTimestamp(t *testing.T) {
	ctx := context.Background()
	cl := newFakeClient()
	s := newSession(newMemStore(), cl, connectivity.Always)
	_, err := s.Register(ctx, "alice")
	require.NoError(t, err)

	// Server has a newer copy (e.g. written from another device).
	newer := s.Current()
	newer.Lists.Travel = []models.TravelItem{{ID: "tr1", Name: "Kyoto"}}
	newer.LastModified = newer.LastModified.Add(time.Hour)
	cl.put(newer)

	rec, err := s.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, rec.Lists.Travel, 1)
	require.Equal(t, "Kyoto", rec.Lists.Travel[0].Name)
}

func TestRefresh_KeepsNewerLocalAndPushes(t *testing.T) {
	ctx := context.Background()
	cl := newFakeClient()
	s := newSession(newMemStore(), cl, connectivity.Always)
	_, err := s.Register(ctx, "alice")
	require.NoError(t, err)

	lists := s.Current().Lists
	lists.Todo = append(lists.Todo, models.TaskItem{ID: "t1", Text: "unsynced"})
	_, err = s.UpdateLists(ctx, lists)
	require.NoError(t, err)

	// Age the server copy behind the local one.
	stale := s.Current()
	stale.Lists.Todo = nil
	stale.LastModified = stale.LastModified.Add(-time.Hour)
	cl.put(stale)

	before := cl.savedCount()
	rec, err := s.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, rec.Lists.Todo, 1, "refresh must not drop a newer local record")

	waitSync(t, s)
	require.Greater(t, cl.savedCount(), before, "newer local record should be pushed")
}

func TestRefresh_FailsOpen(t *testing.T) {
	ctx := context.Background()
	cl := newFakeClient()
	s := newSession(newMemStore(), cl, connectivity.Always)
	_, err := s.Register(ctx, "alice")
	require.NoError(t, err)

	lists := s.Current().Lists
	lists.Todo = append(lists.Todo, models.TaskItem{ID: "t1", Text: "still here"})
	_, err = s.UpdateLists(ctx, lists)
	require.NoError(t, err)

	cl.GetErr = api.ErrUnavailable
	rec, err := s.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, rec.Lists.Todo, 1)
	require.Equal(t, ModeOffline, s.Mode())
}

func TestStats_FallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	cl := newFakeClient()
	cl.StatsErr = api.ErrUnavailable

	s := newSession(newMemStore(), cl, connectivity.Always)
	_, err := s.Register(ctx, "alice")
	require.NoError(t, err)

	lists := s.Current().Lists
	lists.Media = []models.MediaItem{
		{ImdbID: "a", Status: models.MediaCompleted},
		{ImdbID: "b", Status: models.MediaInProgress},
		{ImdbID: "c", Status: models.MediaPlanned},
	}
	_, err = s.UpdateLists(ctx, lists)
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalMedia)
	require.Equal(t, 1, stats.Completed)
	require.Equal(t, 1, stats.Watching)
}

func TestLogout_ClearsSessionOnly(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	s := newSession(st, newFakeClient(), connectivity.Never)
	_, err := s.Register(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))
	require.Nil(t, s.Current())
	require.Equal(t, ModeUnauthenticated, s.Mode())

	// The user's data survives in the local cache.
	st.stored(t, "alice")
}

func TestResume_ReadoptsPersistedSessionOffline(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	s := newSession(st, newFakeClient(), connectivity.Never)
	_, err := s.Register(ctx, "alice")
	require.NoError(t, err)

	s2 := newSession(st, newFakeClient(), connectivity.Never)
	rec, err := s2.Resume(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", rec.Username)
	require.Equal(t, ModeOffline, s2.Mode())
}

// End-to-end: register, edit, lose the network, come back offline.
func TestScenario_OfflineRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	cl := newFakeClient()

	s := newSession(st, cl, connectivity.Always)

	res, err := s.Register(ctx, "Ali")
	require.NoError(t, err)
	require.False(t, res.Offline)

	rec := s.Current()
	require.Empty(t, rec.Lists.Media)
	require.False(t, rec.CreatedAt.IsZero())

	lists := rec.Lists
	lists.Media = append(lists.Media, models.MediaItem{ImdbID: "tt0816692", Title: "Interstellar"})

	cl.SaveErr = api.ErrUnavailable
	save, err := s.UpdateLists(ctx, lists)
	require.NoError(t, err)
	require.False(t, save.Synced)
	require.Len(t, s.Current().Lists.Media, 1, "in-memory record must reflect the change immediately")

	require.NoError(t, s.Logout(ctx))

	res, err = s.Login(ctx, "ALI ")
	require.NoError(t, err)
	require.False(t, res.NeedsRegistration)

	got := s.Current()
	require.Equal(t, "ali", got.Username)
	require.Len(t, got.Lists.Media, 1)
	require.Equal(t, "Interstellar", got.Lists.Media[0].Title)
}
