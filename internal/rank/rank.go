// Package rank orders a project's tags by push time and builds the labelled
// report lines. It performs no I/O.
package rank

import (
	"fmt"
	"harbortags/internal/harbor"
	"slices"
	"sort"
	"time"
)

// TimeLayout is the rendering used for push times when Options.IncludeTime is set.
const TimeLayout = "2006-01-02 15:04:05"

// NewestLabel marks the most recently pushed tag.
const NewestLabel = "newest"

type Options struct {
	// Count is the maximum number of labels to produce. 0 yields none.
	Count int

	Repo    string
	Project string

	// IncludeTime appends the push time to each label's text.
	IncludeTime bool

	// Location is the zone push times are rendered in. Defaults to time.Local.
	Location *time.Location
}

// Label is one ranked output line.
type Label struct {
	// Rank is 1-based; Rank 1 is the newest tag.
	Rank     int       `json:"rank"`
	Newest   bool      `json:"newest"`
	Repo     string    `json:"repo"`
	Project  string    `json:"project"`
	Tag      string    `json:"tag"`
	PushTime time.Time `json:"push_time"`
	Text     string    `json:"text"`
}

// Marker returns "newest" for the first entry and "No.{rank}" for the rest.
func (l Label) Marker() string {
	if l.Newest {
		return NewestLabel
	}
	return fmt.Sprintf("No.%d", l.Rank)
}

// Rank returns the top opts.Count tags by push time, newest first.
//
// Tags are stable-sorted ascending and then reversed, so tags sharing a push
// time come out in the reverse of their input order.
func Rank(tags []harbor.Tag, opts Options) []Label {
	if opts.Count <= 0 || len(tags) == 0 {
		return []Label{}
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	sorted := slices.Clone(tags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PushTime.Before(sorted[j].PushTime)
	})
	slices.Reverse(sorted)

	n := min(opts.Count, len(sorted))
	labels := make([]Label, 0, n)
	for i, tag := range sorted[:n] {
		l := Label{
			Rank:     i + 1,
			Newest:   i == 0,
			Repo:     opts.Repo,
			Project:  opts.Project,
			Tag:      tag.Name,
			PushTime: tag.PushTime,
		}
		l.Text = fmt.Sprintf("%-5s: %s/%s %s", l.Marker(), opts.Repo, opts.Project, tag.Name)
		if opts.IncludeTime {
			l.Text += "  pushed at: " + tag.PushTime.In(loc).Format(TimeLayout)
		}
		labels = append(labels, l)
	}
	return labels
}
