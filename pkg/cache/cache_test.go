package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/pageflow/internal/testutils"
	"github.com/aretw0/pageflow/pkg/cache"
	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/ports"
	"github.com/aretw0/pageflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, opts ...cache.Option) (*cache.Cache, *testutils.Fetcher) {
	t.Helper()
	fetcher := testutils.NewFetcher(testutils.SiteDocs())
	c := cache.New(registry.Default(), fetcher, ports.ExtractorFunc(testutils.MainExtractor), opts...)
	return c, fetcher
}

func TestLoad_MissThenHit(t *testing.T) {
	c, fetcher := newCache(t)
	ctx := context.Background()

	_, ok := c.Get(domain.PageBlog)
	assert.False(t, ok)

	first, err := c.Load(ctx, domain.PageBlog)
	require.NoError(t, err)
	assert.Equal(t, testutils.Fragment(domain.PageBlog), first)

	second, err := c.Load(ctx, domain.PageBlog)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 1, fetcher.Calls("blog.html"), "second load must be served from cache")
	assert.Equal(t, cache.Stats{Hits: 1, Misses: 1, Fetches: 1}, c.Stats())

	cached, ok := c.Get(domain.PageBlog)
	assert.True(t, ok)
	assert.Equal(t, first, cached)
}

func TestLoad_ConcurrentSameID_SingleFetch(t *testing.T) {
	c, fetcher := newCache(t)
	open := fetcher.Block()

	const callers = 8
	started := make(chan struct{}, callers)
	fetcher.OnCall(func(string) { started <- struct{}{} })

	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			frag, err := c.Load(context.Background(), domain.PageCV)
			assert.NoError(t, err)
			results[i] = frag
		}(i)
	}

	<-started
	// Give the remaining callers a chance to join the pending fetch.
	time.Sleep(20 * time.Millisecond)
	open()
	wg.Wait()

	assert.Equal(t, 1, fetcher.Calls("cv.html"))
	for _, r := range results {
		assert.Equal(t, testutils.Fragment(domain.PageCV), r)
	}
}

func TestLoad_FetchFailure(t *testing.T) {
	c, fetcher := newCache(t)
	boom := errors.New("connection refused")
	fetcher.Fail("blog.html", boom)

	_, err := c.Load(context.Background(), domain.PageBlog)

	var loadErr *domain.FragmentLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, domain.PageBlog, loadErr.PageID)
	assert.ErrorIs(t, err, boom)

	_, ok := c.Get(domain.PageBlog)
	assert.False(t, ok, "failed entries stay absent")
	assert.Equal(t, int64(1), c.Stats().Failures)
}

func TestLoad_RetryAfterFailure(t *testing.T) {
	c, fetcher := newCache(t)
	fetcher.Fail("index.html", errors.New("timeout"))

	_, err := c.Load(context.Background(), domain.PageHome)
	require.Error(t, err)

	fetcher.Recover("index.html")
	frag, err := c.Load(context.Background(), domain.PageHome)
	require.NoError(t, err)
	assert.Equal(t, testutils.Fragment(domain.PageHome), frag)
	assert.Equal(t, 2, fetcher.Calls("index.html"))
}

func TestLoad_MissingContentRegion(t *testing.T) {
	fetcher := testutils.NewFetcher(map[string]string{"index.html": "<html><body>no main here</body></html>"})
	c := cache.New(registry.Default(), fetcher, ports.ExtractorFunc(testutils.MainExtractor))

	_, err := c.Load(context.Background(), domain.PageHome)
	assert.ErrorIs(t, err, domain.ErrMissingContent)
}

func TestLoad_UnknownPage(t *testing.T) {
	c, fetcher := newCache(t)

	_, err := c.Load(context.Background(), "about")

	var unknown *domain.UnknownPageError
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, 0, fetcher.TotalCalls())
}

func TestLoad_Timeout(t *testing.T) {
	c, fetcher := newCache(t, cache.WithFetchTimeout(30*time.Millisecond))
	open := fetcher.Block()
	defer open()

	start := time.Now()
	_, err := c.Load(context.Background(), domain.PageContact)

	assert.ErrorIs(t, err, domain.ErrLoadTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)

	_, ok := c.Get(domain.PageContact)
	assert.False(t, ok)
}

func TestLoad_CallerCancellation(t *testing.T) {
	c, fetcher := newCache(t)
	open := fetcher.Block()
	defer open()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Load(ctx, domain.PageBlog)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPreloadAll_PartialFailure(t *testing.T) {
	c, fetcher := newCache(t)
	fetcher.Fail("cv.html", errors.New("unreachable"))

	report := c.PreloadAll(context.Background())

	assert.ElementsMatch(t, []domain.PageID{domain.PageHome, domain.PageBlog, domain.PageContact}, report.Loaded)
	require.Contains(t, report.Failed, domain.PageCV)
	assert.Len(t, report.Failed, 1)

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get(domain.PageCV)
	assert.False(t, ok)
}

func TestPreload_SwallowsErrors(t *testing.T) {
	c, fetcher := newCache(t)
	fetcher.Fail("blog.html", errors.New("offline"))

	assert.NotPanics(t, func() { c.Preload(context.Background(), domain.PageBlog) })
	c.Preload(context.Background(), domain.PageHome)

	_, ok := c.Get(domain.PageHome)
	assert.True(t, ok)
}

type recordingObserver struct {
	mu      sync.Mutex
	lookups map[bool]int
	fetches int
	errs    int
}

func (o *recordingObserver) ObserveLookup(_ domain.PageID, hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lookups[hit]++
}

func (o *recordingObserver) ObserveFetch(_ domain.PageID, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fetches++
	if err != nil {
		o.errs++
	}
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{lookups: make(map[bool]int)}
	c, fetcher := newCache(t, cache.WithObserver(obs))
	fetcher.Fail("cv.html", errors.New("down"))
	ctx := context.Background()

	_, _ = c.Load(ctx, domain.PageHome)
	_, _ = c.Load(ctx, domain.PageHome)
	_, _ = c.Load(ctx, domain.PageCV)

	assert.Equal(t, 1, obs.lookups[true])
	assert.Equal(t, 2, obs.lookups[false])
	assert.Equal(t, 2, obs.fetches)
	assert.Equal(t, 1, obs.errs)
}
