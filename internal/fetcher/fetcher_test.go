package fetcher_test

import (
	"context"
	"errors"
	"harbortags/internal/fetcher"
	"harbortags/internal/harbor"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls   int32
	release chan struct{}
	err     error
}

func (s *countingSource) FetchTags(ctx context.Context, repo, project string) (harbor.TagList, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return harbor.TagList{}, s.err
	}
	return harbor.TagList{Project: project, Tags: []harbor.Tag{{Name: repo + "-" + project}}}, nil
}

func TestFetch_DedupesConcurrentIdenticalRequests(t *testing.T) {
	src := &countingSource{release: make(chan struct{})}
	f := fetcher.NewFetcher(src)

	const callers = 10
	var wg sync.WaitGroup
	results := make([]harbor.TagList, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			list, err := f.Fetch(context.Background(), "demo", "svc")
			assert.NoError(t, err)
			results[i] = list
		}(i)
	}

	// Give every caller a chance to join the in-flight request.
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))
	for _, r := range results {
		require.Len(t, r.Tags, 1)
		assert.Equal(t, "demo-svc", r.Tags[0].Name)
	}
}

func TestFetch_DoesNotCacheCompletedRequests(t *testing.T) {
	src := &countingSource{}
	f := fetcher.NewFetcher(src)

	for range 3 {
		_, err := f.Fetch(context.Background(), "demo", "svc")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&src.calls))
}

func TestFetch_DistinctProjectsAreNotShared(t *testing.T) {
	src := &countingSource{}
	f := fetcher.NewFetcher(src)

	a, err := f.Fetch(context.Background(), "demo", "a")
	require.NoError(t, err)
	b, err := f.Fetch(context.Background(), "demo", "b")
	require.NoError(t, err)

	assert.Equal(t, "demo-a", a.Tags[0].Name)
	assert.Equal(t, "demo-b", b.Tags[0].Name)
}

func TestFetch_PropagatesSourceErrors(t *testing.T) {
	want := &harbor.UnexpectedStatusError{Project: "svc", StatusCode: 500}
	f := fetcher.NewFetcher(&countingSource{err: want})

	_, err := f.Fetch(context.Background(), "demo", "svc")
	var se *harbor.UnexpectedStatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 500, se.StatusCode)
}

func TestFetch_ValidatesArguments(t *testing.T) {
	f := fetcher.NewFetcher(&countingSource{})

	var nilCtx context.Context
	_, err := f.Fetch(nilCtx, "demo", "svc")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), "", "svc")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), "demo", "")
	assert.Error(t, err)

	_, err = fetcher.NewFetcher(nil).Fetch(context.Background(), "demo", "svc")
	assert.Error(t, err)

	var nilFetcher *fetcher.Fetcher
	_, err = nilFetcher.Fetch(context.Background(), "demo", "svc")
	assert.Error(t, err)
}
