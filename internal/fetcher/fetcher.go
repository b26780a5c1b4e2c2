package fetcher

import (
	"context"
	"fmt"
	"harbortags/internal/harbor"
)

// TagSource is the registry query a Fetcher delegates to. *harbor.Client
// satisfies it; tests substitute fakes.
type TagSource interface {
	FetchTags(ctx context.Context, repo, project string) (harbor.TagList, error)
}

// Fetcher deduplicates concurrent identical tag queries. Completed results are
// not retained: a later call for the same project issues a new request.
type Fetcher struct {
	source TagSource
	group  flightGroup
}

func NewFetcher(source TagSource) *Fetcher {
	return &Fetcher{source: source}
}

// Fetch returns the tag list for repo/project. Callers asking for the same
// repo/project while a request is in flight share its result, including its
// error. The returned Tags slice may be shared and must not be modified.
func (f *Fetcher) Fetch(ctx context.Context, repo, project string) (harbor.TagList, error) {
	if ctx == nil {
		return harbor.TagList{}, fmt.Errorf("Fetch: nil context")
	}
	if f == nil {
		return harbor.TagList{}, fmt.Errorf("Fetch: nil Fetcher")
	}
	if f.source == nil {
		return harbor.TagList{}, fmt.Errorf("Fetch: nil tag source (use NewFetcher)")
	}
	if repo == "" {
		return harbor.TagList{}, fmt.Errorf("Fetch: empty repo")
	}
	if project == "" {
		return harbor.TagList{}, fmt.Errorf("Fetch: empty project")
	}

	list, _, err := f.group.do(flightKey(repo, project), func() (harbor.TagList, error) {
		return f.source.FetchTags(ctx, repo, project)
	})
	return list, err
}

func flightKey(repo, project string) string {
	return repo + "/" + project
}
