package rank

import (
	"fmt"
	"harbortags/internal/harbor"
	"path"
	"strings"
)

// Filter drops tags by name before ranking.
//
// Patterns use Go path.Match syntax. A pattern containing ':' is matched
// against "project:tag"; otherwise it is matched against the tag name only, so
// "v*" works across projects while "api:v*" targets one project.
// If include is non-empty a tag must match at least one include pattern; it
// must then match no exclude pattern. The input slice is not modified.
func Filter(tags []harbor.Tag, project string, include, exclude []string) []harbor.Tag {
	if len(include) == 0 && len(exclude) == 0 {
		return tags
	}

	filtered := make([]harbor.Tag, 0, len(tags))
	for _, t := range tags {
		if len(include) > 0 && !matchesAnyPattern(include, project, t.Name) {
			continue
		}
		if len(exclude) > 0 && matchesAnyPattern(exclude, project, t.Name) {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

// ValidatePatterns reports the first malformed pattern.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := path.Match(strings.TrimSpace(p), ""); err != nil {
			return &PatternError{Pattern: p, Err: err}
		}
	}
	return nil
}

type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid tag pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

func matchesAnyPattern(patterns []string, project, tag string) bool {
	for _, p := range patterns {
		if matchPattern(p, project, tag) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, project, tag string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	if strings.Contains(pattern, ":") {
		matched, _ := path.Match(pattern, project+":"+tag)
		return matched
	}
	matched, _ := path.Match(pattern, tag)
	return matched
}
