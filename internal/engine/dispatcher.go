package engine

import (
	"context"
	"errors"
	"fmt"
	"harbortags/internal/fetcher"
	"harbortags/internal/metrics"
	"harbortags/internal/rank"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Query describes what every pipeline of a run fetches and how it ranks.
type Query struct {
	Repo        string
	Count       int
	IncludeTime bool
	Location    *time.Location
	Include     []string
	Exclude     []string
}

type Dispatcher struct {
	fetcher     *fetcher.Fetcher
	concurrency int
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
}

type DispatcherOption func(*Dispatcher)

func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithLogger(l logrus.FieldLogger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

func NewDispatcher(f *fetcher.Fetcher, concurrency int, opts ...DispatcherOption) (*Dispatcher, error) {
	if f == nil {
		return nil, errors.New("fetcher is nil")
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}
	d := &Dispatcher{fetcher: f, concurrency: concurrency, log: logrus.StandardLogger()}
	for _, apply := range opts {
		if apply != nil {
			apply(d)
		}
	}
	return d, nil
}

// Run starts one fetch -> rank pipeline per entry of projects (duplicates
// included), at most concurrency at a time, and waits for all of them.
//
// The returned AggregateResult is never nil once arguments are valid. When any
// project failed, Run also returns a *RunError naming each failure; the other
// projects' reports are complete and unaffected.
func (d *Dispatcher) Run(ctx context.Context, projects []string, q Query) (*AggregateResult, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	if d == nil || d.fetcher == nil {
		return nil, errors.New("dispatcher is not initialized (use NewDispatcher)")
	}
	if q.Repo == "" {
		return nil, errors.New("repo is required")
	}
	if q.Count < 0 {
		return nil, fmt.Errorf("count must be >= 0, got %d", q.Count)
	}

	agg := newAggregator(q.Repo, projects)

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, project := range projects {
		g.Go(func() error {
			agg.insert(d.runPipeline(ctx, project, q))
			return nil
		})
	}
	_ = g.Wait()

	res := agg.snapshot()
	if runErr := newRunError(res); runErr != nil {
		return res, runErr
	}
	return res, nil
}

func (d *Dispatcher) runPipeline(ctx context.Context, project string, q Query) (rep ProjectReport) {
	rep.Project = project
	log := d.log.WithFields(logrus.Fields{"repo": q.Repo, "project": project})

	// A bug in one pipeline must not take down the run.
	defer func() {
		if r := recover(); r != nil {
			rep = ProjectReport{Project: project, Err: fmt.Errorf("pipeline panic: %s", panicSummary(r))}
			log.WithField("panic", fmt.Sprint(r)).Error("Pipeline panicked")
		}
	}()

	start := time.Now()
	list, err := d.fetcher.Fetch(ctx, q.Repo, project)
	elapsed := time.Since(start)
	if err != nil {
		d.metrics.ObserveFetch(metrics.OutcomeFailed, elapsed)
		log.WithError(err).Debug("Fetch failed")
		rep.Err = err
		return rep
	}
	if list.Denied {
		d.metrics.ObserveFetch(metrics.OutcomeDenied, elapsed)
		log.Debug("Registry denied access (401)")
		rep.Denied = true
		rep.Labels = []rank.Label{}
		return rep
	}
	d.metrics.ObserveFetch(metrics.OutcomeOK, elapsed)

	tags := rank.Filter(list.Tags, project, q.Include, q.Exclude)
	rep.Fetched = len(list.Tags)
	rep.Labels = rank.Rank(tags, rank.Options{
		Count:       q.Count,
		Repo:        q.Repo,
		Project:     project,
		IncludeTime: q.IncludeTime,
		Location:    q.Location,
	})
	log.WithFields(logrus.Fields{
		"fetched": rep.Fetched,
		"ranked":  len(rep.Labels),
		"elapsed": elapsed.Truncate(time.Millisecond),
	}).Debug("Project ranked")
	return rep
}

// panicSummary is the first line of a recovered value. Panics re-raised by
// singleflight carry the original goroutine stack after it.
func panicSummary(r any) string {
	msg := strings.TrimSpace(fmt.Sprint(r))
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = strings.TrimSpace(msg[:i])
	}
	return msg
}
