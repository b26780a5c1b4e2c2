package engine

import (
	"context"
	"errors"
	"fmt"
	"harbortags/internal/harbor"
	"net"
	"net/http"
	"strings"
)

// presentFetchError turns a pipeline error into a one-line console message.
//
// Without verbose the message avoids echoing request URLs (which may embed
// internal hostnames); with verbose the full error chain is returned.
func presentFetchError(err error, verbose bool) string {
	if err == nil {
		return "unknown error"
	}
	if verbose {
		return err.Error()
	}

	var se *harbor.UnexpectedStatusError
	if errors.As(err, &se) {
		msg := fmt.Sprintf("Harbor API request failed (%d %s)", se.StatusCode, http.StatusText(se.StatusCode))
		if body := firstLine(se.Body); body != "" {
			msg += ": " + body
		}
		return msg
	}

	var de *harbor.DecodeError
	if errors.As(err, &de) {
		return fmt.Sprintf("Harbor API returned an unreadable tag list: %v", de.Err)
	}

	var te *harbor.TransportError
	if errors.As(err, &te) {
		var ne net.Error
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
			return "Harbor API request timed out"
		case errors.Is(err, context.Canceled):
			return "Harbor API request canceled"
		}
		if scrubbed := scrubRequestFromErrorString(te.Err.Error()); scrubbed != "" {
			return "Harbor API unreachable: " + scrubbed
		}
		return "Harbor API unreachable"
	}

	return strings.TrimSpace(err.Error())
}

// scrubRequestFromErrorString drops the leading `Get "https://...": ` that
// net/http prefixes onto client errors.
func scrubRequestFromErrorString(s string) string {
	s = strings.TrimSpace(s)
	methods := []string{"Get ", "Post ", "Put ", "Patch ", "Delete ", "Head "}
	for _, m := range methods {
		if !strings.HasPrefix(s, m) {
			continue
		}
		if i := strings.Index(s, `": `); i >= 0 {
			return strings.TrimSpace(s[i+3:])
		}
		if j := strings.Index(s, ": "); j >= 0 {
			return strings.TrimSpace(s[j+2:])
		}
		break
	}
	return s
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const maxLen = 200
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
