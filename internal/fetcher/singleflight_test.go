package fetcher

import (
	"errors"
	"harbortags/internal/harbor"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlightGroup_CollapsesConcurrentCalls(t *testing.T) {
	var g flightGroup
	var calls int32
	release := make(chan struct{})

	fn := func() (harbor.TagList, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return harbor.TagList{Project: "svc", Tags: []harbor.Tag{{Name: "v1"}}}, nil
	}

	var wg sync.WaitGroup
	var sharedCount int32
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, shared, err := g.do("demo/svc", fn)
			assert.NoError(t, err)
			assert.Equal(t, "svc", list.Project)
			if shared {
				atomic.AddInt32(&sharedCount, 1)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(10), atomic.LoadInt32(&sharedCount))
}

func TestFlightGroup_PropagatesError(t *testing.T) {
	var g flightGroup
	boom := errors.New("boom")

	list, shared, err := g.do("k", func() (harbor.TagList, error) {
		return harbor.TagList{Project: "ignored"}, boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, shared)
	assert.Equal(t, harbor.TagList{}, list)
}
