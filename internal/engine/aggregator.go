package engine

import (
	"harbortags/internal/rank"
)

// ProjectReport is the outcome of one project's fetch -> rank pipeline.
type ProjectReport struct {
	Project string
	Labels  []rank.Label

	// Fetched is the number of tags the registry returned, before filtering.
	Fetched int

	// Denied is set when the registry answered 401. Labels is then empty.
	Denied bool

	// Err is set when the pipeline failed. Labels is then nil.
	Err error
}

// AggregateResult holds every project's outcome once all pipelines have joined.
type AggregateResult struct {
	Repo string

	// Order lists requested projects in first-seen input order, without duplicates.
	Order []string

	// Reports holds successful (including denied) projects.
	Reports map[string]ProjectReport

	// Failures holds the error of each project whose pipeline failed.
	Failures map[string]error
}

// Denied returns the projects that answered 401, in input order.
func (r *AggregateResult) Denied() []string {
	var out []string
	for _, p := range r.Order {
		if rep, ok := r.Reports[p]; ok && rep.Denied {
			out = append(out, p)
		}
	}
	return out
}

// Failed returns the failed projects, in input order.
func (r *AggregateResult) Failed() []string {
	var out []string
	for _, p := range r.Order {
		if _, ok := r.Failures[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// TagCount is the total number of ranked labels across all reports.
func (r *AggregateResult) TagCount() int {
	n := 0
	for _, rep := range r.Reports {
		n += len(rep.Labels)
	}
	return n
}

// aggregator owns the result map. Pipelines never touch it directly; they send
// their ProjectReport to a single collector goroutine.
type aggregator struct {
	in     chan ProjectReport
	done   chan struct{}
	result *AggregateResult
}

func newAggregator(repo string, projects []string) *aggregator {
	order := make([]string, 0, len(projects))
	seen := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		order = append(order, p)
	}

	a := &aggregator{
		in:   make(chan ProjectReport),
		done: make(chan struct{}),
		result: &AggregateResult{
			Repo:     repo,
			Order:    order,
			Reports:  make(map[string]ProjectReport, len(order)),
			Failures: make(map[string]error),
		},
	}
	go a.collect()
	return a
}

func (a *aggregator) collect() {
	defer close(a.done)
	for rep := range a.in {
		// Duplicate identifiers: the last report received wins.
		if rep.Err != nil {
			delete(a.result.Reports, rep.Project)
			a.result.Failures[rep.Project] = rep.Err
			continue
		}
		delete(a.result.Failures, rep.Project)
		a.result.Reports[rep.Project] = rep
	}
}

func (a *aggregator) insert(rep ProjectReport) {
	a.in <- rep
}

// snapshot must be called once, after every insert has returned.
func (a *aggregator) snapshot() *AggregateResult {
	close(a.in)
	<-a.done
	return a.result
}
