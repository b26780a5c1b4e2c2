package harbor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxErrorBody = 512

// Tag is one published image tag as returned by
// GET /repositories/{repo}/{project}/tags?detail=true.
type Tag struct {
	Name     string    `json:"name"`
	PushTime time.Time `json:"push_time"`

	Digest   string    `json:"digest,omitempty"`
	Size     int64     `json:"size,omitempty"`
	Author   string    `json:"author,omitempty"`
	Created  time.Time `json:"created,omitempty"`
	PullTime time.Time `json:"pull_time,omitempty"`
}

// TagList is the outcome of one successful tag query.
//
// Denied is set when the registry answered 401; Tags is then empty. This is a
// warning condition for the caller, not an error.
type TagList struct {
	Project string
	Tags    []Tag
	Denied  bool
}

// ValidateName rejects repo and project names that would not map onto their
// own path under /repositories. Nested names separated by "/" are allowed;
// empty, "." and ".." segments are not.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name must not be empty")
	}
	for _, seg := range strings.Split(name, "/") {
		switch seg {
		case "":
			return fmt.Errorf("name %q contains an empty path segment", name)
		case ".", "..":
			return fmt.Errorf("name %q contains a %q path segment", name, seg)
		}
	}
	return nil
}

// TagsURL returns the tag listing URL for project within repo.
func (c *Client) TagsURL(repo, project string) string {
	u := c.BaseURL.JoinPath("repositories", repo, project, "tags")
	u.RawQuery = "detail=true"
	return u.String()
}

// FetchTags issues exactly one request for the tag list of repo/project.
// There are no retries.
func (c *Client) FetchTags(ctx context.Context, repo, project string) (TagList, error) {
	if ctx == nil {
		return TagList{}, fmt.Errorf("FetchTags: nil context")
	}
	if c == nil || c.HTTP == nil || c.BaseURL == nil {
		return TagList{}, fmt.Errorf("FetchTags: nil Harbor client (use NewClient)")
	}
	if repo == "" || project == "" {
		return TagList{}, fmt.Errorf("FetchTags: repo and project are required")
	}
	if err := ValidateName(repo); err != nil {
		return TagList{}, fmt.Errorf("FetchTags: invalid repo: %w", err)
	}
	if err := ValidateName(project); err != nil {
		return TagList{}, fmt.Errorf("FetchTags: invalid project: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TagsURL(repo, project), nil)
	if err != nil {
		return TagList{}, fmt.Errorf("FetchTags: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return TagList{}, &TransportError{Project: project, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var tags []Tag
		dec := json.NewDecoder(resp.Body)
		if err := dec.Decode(&tags); err != nil {
			return TagList{}, &DecodeError{Project: project, Err: err}
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			return TagList{}, &DecodeError{Project: project, Err: errors.New("unexpected data after tag list")}
		}
		return TagList{Project: project, Tags: tags}, nil
	case http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return TagList{Project: project, Denied: true}, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return TagList{}, &UnexpectedStatusError{Project: project, StatusCode: resp.StatusCode, Body: string(body)}
	}
}
