package engine

import (
	"context"
	"fmt"
	"harbortags/internal/harbor"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func tagAt(name string, hours int) harbor.Tag {
	return harbor.Tag{Name: name, PushTime: base.Add(time.Duration(hours) * time.Hour)}
}

// fakeSource is an in-memory TagSource that records concurrency.
type fakeSource struct {
	tags   map[string][]harbor.Tag
	errs   map[string]error
	denied map[string]bool
	panics map[string]bool
	delay  time.Duration

	mu          sync.Mutex
	calls       map[string]int
	inFlight    int
	maxInFlight int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		tags:   map[string][]harbor.Tag{},
		errs:   map[string]error{},
		denied: map[string]bool{},
		panics: map[string]bool{},
		calls:  map[string]int{},
	}
}

func (s *fakeSource) FetchTags(ctx context.Context, repo, project string) (harbor.TagList, error) {
	s.mu.Lock()
	s.calls[project]++
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return harbor.TagList{}, &harbor.TransportError{Project: project, Err: ctx.Err()}
		}
	}
	if s.panics[project] {
		panic("boom: " + project)
	}
	if err := s.errs[project]; err != nil {
		return harbor.TagList{}, err
	}
	if s.denied[project] {
		return harbor.TagList{Project: project, Denied: true}, nil
	}
	return harbor.TagList{Project: project, Tags: s.tags[project]}, nil
}

func (s *fakeSource) callCount(project string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[project]
}

// newRegistry starts a fake Harbor API. Each project maps to a handler body;
// the special bodies "401" and "500" produce those statuses.
func newRegistry(t *testing.T, repo string, projects map[string]string) *harbor.Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/repositories/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/repositories/"+repo+"/")
		project, ok := strings.CutSuffix(rest, "/tags")
		body, known := projects[project]
		if !ok || !known {
			http.NotFound(w, r)
			return
		}
		switch body {
		case "401":
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"errors":[{"code":"UNAUTHORIZED"}]}`)
		case "500":
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "internal error")
		default:
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
		}
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	c, err := harbor.NewClient(context.Background(), server.URL+"/api")
	require.NoError(t, err)
	return c
}
