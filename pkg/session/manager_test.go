package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/pageflow/internal/testutils"
	"github.com/aretw0/pageflow/pkg/adapters/memory"
	"github.com/aretw0/pageflow/pkg/cache"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/navigation"
	"github.com/aretw0/pageflow/pkg/ports"
	"github.com/aretw0/pageflow/pkg/registry"
	"github.com/aretw0/pageflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, sessionID)
}

func (s SlowStore) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, sessionID, snap)
}

type fakeLocker struct {
	mu       sync.Mutex
	locks    int
	unlocks  int
	lastTTL  time.Duration
	failWith error
}

func (l *fakeLocker) Lock(_ context.Context, _ string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return nil, l.failWith
	}
	l.locks++
	l.lastTTL = ttl
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

type fixture struct {
	mgr     *session.Manager
	store   ports.SnapshotStore
	fetcher *testutils.Fetcher
}

func newFixture(t *testing.T, store ports.SnapshotStore, opts ...session.Option) *fixture {
	t.Helper()
	reg := registry.Default()
	fetcher := testutils.NewFetcher(testutils.SiteDocs())
	c := cache.New(reg, fetcher, ports.ExtractorFunc(testutils.MainExtractor))

	n := 0
	var mu sync.Mutex
	opts = append([]session.Option{session.WithIDGenerator(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("s%d", n)
	})}, opts...)

	return &fixture{
		mgr:     session.NewManager(store, reg, c, opts...),
		store:   store,
		fetcher: fetcher,
	}
}

func TestManager_Start(t *testing.T) {
	f := newFixture(t, memory.NewStore())
	ctx := context.Background()

	view, err := f.mgr.Start(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "s1", view.Session.SessionID)
	assert.Equal(t, domain.PageHome, view.Session.CurrentPage)
	assert.Equal(t, testutils.Fragment(domain.PageHome), view.Content)
	assert.Nil(t, view.Result)

	stored, err := f.store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.PageHome, stored.CurrentPage)
	assert.Equal(t, []domain.HistoryEntry{{PageID: domain.PageHome, URL: "index.html"}}, stored.Entries)
	assert.NotEmpty(t, stored.Title)
}

func TestManager_StartOnLocation(t *testing.T) {
	f := newFixture(t, memory.NewStore())

	view, err := f.mgr.Start(context.Background(), "/site/cv.html")
	require.NoError(t, err)
	assert.Equal(t, domain.PageCV, view.Session.CurrentPage)
	assert.Equal(t, "/site/cv.html", view.Session.Location())
}

func TestManager_StartFailureIsNotPersisted(t *testing.T) {
	f := newFixture(t, memory.NewStore())
	f.fetcher.Fail("index.html", errors.New("offline"))

	_, err := f.mgr.Start(context.Background(), "index.html")
	var loadErr *domain.FragmentLoadError
	require.ErrorAs(t, err, &loadErr)

	ids, err := f.mgr.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestManager_NavigateBackForward(t *testing.T) {
	f := newFixture(t, memory.NewStore())
	ctx := context.Background()
	start, err := f.mgr.Start(ctx, "index.html")
	require.NoError(t, err)
	id := start.Session.SessionID

	view, err := f.mgr.Navigate(ctx, id, "blog")
	require.NoError(t, err)
	require.NotNil(t, view.Result)
	assert.Equal(t, navigation.OutcomeCompleted, view.Result.Outcome)
	assert.Equal(t, domain.DirectionForward, view.Result.Direction)
	assert.Equal(t, testutils.Fragment(domain.PageBlog), view.Content)
	assert.Equal(t, 1, view.Session.Index)

	view, err = f.mgr.Navigate(ctx, id, "contact.html")
	require.NoError(t, err)
	assert.Equal(t, domain.PageContact, view.Session.CurrentPage)
	assert.Len(t, view.Session.Entries, 3)

	view, err = f.mgr.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, navigation.OutcomeRestored, view.Result.Outcome)
	assert.Equal(t, domain.PageBlog, view.Session.CurrentPage)
	assert.Equal(t, testutils.Fragment(domain.PageBlog), view.Content)

	view, err = f.mgr.Forward(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PageContact, view.Session.CurrentPage)

	view, err = f.mgr.Forward(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, navigation.OutcomeIgnored, view.Result.Outcome)

	got, err := f.mgr.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PageContact, got.Session.CurrentPage)
	assert.Equal(t, testutils.Fragment(domain.PageContact), got.Content)
}

func TestManager_NavigateSamePageIgnored(t *testing.T) {
	f := newFixture(t, memory.NewStore())
	ctx := context.Background()
	start, err := f.mgr.Start(ctx, "index.html")
	require.NoError(t, err)

	view, err := f.mgr.Navigate(ctx, start.Session.SessionID, "home")
	require.NoError(t, err)
	assert.Equal(t, navigation.OutcomeIgnored, view.Result.Outcome)
	assert.Len(t, view.Session.Entries, 1)
}

func TestManager_NavigateAnchorStaysOnPage(t *testing.T) {
	f := newFixture(t, memory.NewStore())
	ctx := context.Background()
	start, err := f.mgr.Start(ctx, "index.html")
	require.NoError(t, err)
	id := start.Session.SessionID

	_, err = f.mgr.Navigate(ctx, id, "cv")
	require.NoError(t, err)
	view, err := f.mgr.Navigate(ctx, id, "#skills")
	require.NoError(t, err)
	assert.Equal(t, navigation.OutcomeIgnored, view.Result.Outcome)
	assert.Empty(t, view.Session.Assigned)
	assert.Len(t, view.Session.Entries, 2)

	_, err = f.mgr.Back(ctx, id)
	require.NoError(t, err)
	view, err = f.mgr.Forward(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PageCV, view.Session.CurrentPage)
	assert.Equal(t, testutils.Fragment(domain.PageCV), view.Content)
}

func TestManager_NavigateFallback(t *testing.T) {
	f := newFixture(t, memory.NewStore())
	ctx := context.Background()
	start, err := f.mgr.Start(ctx, "index.html")
	require.NoError(t, err)
	f.fetcher.Fail("cv.html", errors.New("502 bad gateway"))

	view, err := f.mgr.Navigate(ctx, start.Session.SessionID, "cv")
	require.NoError(t, err)
	assert.Equal(t, navigation.OutcomeFallback, view.Result.Outcome)
	assert.Empty(t, view.Content)
	assert.Equal(t, []string{"cv.html"}, view.Session.Assigned)
	assert.Equal(t, domain.PageCV, view.Session.CurrentPage)
}

func TestManager_NavigateUnknownSession(t *testing.T) {
	f := newFixture(t, memory.NewStore())

	_, err := f.mgr.Navigate(context.Background(), "missing", "blog")
	assert.True(t, session.IsNotFound(err))

	_, err = f.mgr.Get(context.Background(), "missing")
	assert.True(t, session.IsNotFound(err))
}

func TestManager_Delete(t *testing.T) {
	f := newFixture(t, memory.NewStore())
	ctx := context.Background()
	start, err := f.mgr.Start(ctx, "index.html")
	require.NoError(t, err)

	require.NoError(t, f.mgr.Delete(ctx, start.Session.SessionID))
	_, err = f.mgr.Get(ctx, start.Session.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, f.mgr.Delete(ctx, start.Session.SessionID), domain.ErrSessionNotFound)
}

func TestManager_EventSink(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
	)
	sink := func(sessionID string, ev domain.NavigationEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, sessionID+":"+string(ev.Type))
	}
	f := newFixture(t, memory.NewStore(), session.WithEventSink(sink))
	ctx := context.Background()

	start, err := f.mgr.Start(ctx, "index.html")
	require.NoError(t, err)
	_, err = f.mgr.Navigate(ctx, start.Session.SessionID, "blog")
	require.NoError(t, err)
	_, err = f.mgr.Back(ctx, start.Session.SessionID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"s1:" + string(domain.EventTransitionBegin),
		"s1:" + string(domain.EventNavigationComplete),
		"s1:" + string(domain.EventHistoryRestore),
	}, events)
}

func TestManager_SerialisesOperations(t *testing.T) {
	f := newFixture(t, SlowStore{memory.NewStore()})
	ctx := context.Background()
	start, err := f.mgr.Start(ctx, "index.html")
	require.NoError(t, err)
	id := start.Session.SessionID

	targets := []string{"blog", "cv", "contact", "home"}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			view, err := f.mgr.Navigate(ctx, id, target)
			assert.NoError(t, err)
			if err == nil && view.Result.Outcome == navigation.OutcomeCompleted {
				mu.Lock()
				completed++
				mu.Unlock()
			}
		}(targets[i%len(targets)])
	}
	wg.Wait()

	got, err := f.mgr.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Session.Entries, 1+completed, "no navigation may be lost")
	assert.Equal(t, got.Session.Entries[got.Session.Index].PageID, got.Session.CurrentPage)
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &fakeLocker{}
	f := newFixture(t, memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	ctx := context.Background()

	start, err := f.mgr.Start(ctx, "index.html")
	require.NoError(t, err)
	_, err = f.mgr.Navigate(ctx, start.Session.SessionID, "blog")
	require.NoError(t, err)

	assert.Equal(t, 2, locker.locks)
	assert.Equal(t, 2, locker.unlocks)
	assert.Equal(t, 5*time.Second, locker.lastTTL)

	locker.failWith = errors.New("redis down")
	_, err = f.mgr.Navigate(ctx, start.Session.SessionID, "cv")
	assert.ErrorContains(t, err, "redis down")
}

func TestManager_SessionsShareCache(t *testing.T) {
	f := newFixture(t, memory.NewStore())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		view, err := f.mgr.Start(ctx, "index.html")
		require.NoError(t, err)
		_, err = f.mgr.Navigate(ctx, view.Session.SessionID, "blog")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.fetcher.Calls("index.html"))
	assert.Equal(t, 1, f.fetcher.Calls("blog.html"))

	ids, err := f.mgr.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2", "s3"}, ids)
}
