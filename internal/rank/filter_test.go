package rank

import (
	"harbortags/internal/harbor"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagNames(tags []harbor.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}

func TestFilter(t *testing.T) {
	tags := []harbor.Tag{
		{Name: "v1.0.0"},
		{Name: "v1.1.0"},
		{Name: "latest"},
		{Name: "staging-abc"},
	}

	tests := []struct {
		name    string
		project string
		include []string
		exclude []string
		want    []string
	}{
		{name: "no patterns", project: "svc", want: []string{"v1.0.0", "v1.1.0", "latest", "staging-abc"}},
		{name: "include", project: "svc", include: []string{"v*"}, want: []string{"v1.0.0", "v1.1.0"}},
		{name: "exclude", project: "svc", exclude: []string{"latest", "staging-*"}, want: []string{"v1.0.0", "v1.1.0"}},
		{name: "include then exclude", project: "svc", include: []string{"v*"}, exclude: []string{"v1.0.*"}, want: []string{"v1.1.0"}},
		{name: "project scoped include matches", project: "api", include: []string{"api:v*"}, want: []string{"v1.0.0", "v1.1.0"}},
		{name: "project scoped include other project", project: "web", include: []string{"api:v*"}, want: []string{}},
		{name: "blank pattern ignored", project: "svc", exclude: []string{"  "}, want: []string{"v1.0.0", "v1.1.0", "latest", "staging-abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tags, tt.project, tt.include, tt.exclude)
			assert.Equal(t, tt.want, tagNames(got))
		})
	}
}

func TestValidatePatterns(t *testing.T) {
	require.NoError(t, ValidatePatterns([]string{"v*", "api:release-?"}))

	err := ValidatePatterns([]string{"ok", "[bad"})
	var pe *PatternError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "[bad", pe.Pattern)
	assert.ErrorIs(t, err, path.ErrBadPattern)
}
