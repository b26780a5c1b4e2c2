package harbor

import (
	"fmt"
	"net/http"
	"strings"
)

// TransportError reports that the request never produced an HTTP response
// (connection refused, DNS failure, timeout, ...).
type TransportError struct {
	Project string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch tags for %s: transport: %v", e.Project, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnexpectedStatusError reports any status other than 200 and 401.
type UnexpectedStatusError struct {
	Project    string
	StatusCode int
	// Body holds at most maxErrorBody bytes of the response body.
	Body string
}

func (e *UnexpectedStatusError) Error() string {
	msg := fmt.Sprintf("fetch tags for %s: unexpected status %d %s", e.Project, e.StatusCode, http.StatusText(e.StatusCode))
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

// DecodeError reports a 200 response whose body is not a JSON tag list.
type DecodeError struct {
	Project string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("fetch tags for %s: decode response: %v", e.Project, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
