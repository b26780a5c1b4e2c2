package engine

import (
	"context"
	"errors"
	"harbortags/internal/config"
	"harbortags/internal/fetcher"
	"harbortags/internal/harbor"
	"harbortags/internal/metrics"
	"harbortags/internal/output"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

func exitCodeForRun(fatal, partial bool) int {
	// Exit code contract:
	// 0 = clean run, every project reported (denied projects included)
	// 2 = partial failure (some projects errored)
	// 3 = fatal error (run did not start)
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	return 0
}

func setupOutputManager(cfg *config.Config, stdout io.Writer) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		cs, err := output.NewConsoleSink(stdout, output.ConsoleOptions{
			Format:   cfg.Output.Format,
			NoColor:  cfg.Output.NoColor,
			ShowTime: cfg.Query.Time,
		})
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(cs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// buildReport lays the aggregate out in first-seen input order.
func buildReport(res *AggregateResult, verbose bool) *output.Report {
	rep := &output.Report{Repo: res.Repo, Projects: make([]output.ProjectResult, 0, len(res.Order))}
	for _, p := range res.Order {
		if err, failed := res.Failures[p]; failed {
			rep.Projects = append(rep.Projects, output.ProjectResult{
				Project: p,
				Status:  output.StatusFailed,
				Error:   presentFetchError(err, verbose),
			})
			continue
		}
		pr, ok := res.Reports[p]
		if !ok {
			continue
		}
		status := output.StatusOK
		if pr.Denied {
			status = output.StatusDenied
		}
		rep.Projects = append(rep.Projects, output.ProjectResult{
			Project: p,
			Status:  status,
			Fetched: pr.Fetched,
			Tags:    pr.Labels,
		})
	}
	return rep
}

type Engine struct {
	Client  *harbor.Client
	Metrics *metrics.Metrics
	Log     logrus.FieldLogger

	// Stdout receives console and --emit output. Defaults to os.Stdout.
	Stdout io.Writer

	// dispatch is a test seam for the fan-out.
	// If nil, Engine uses the real fetcher + dispatcher.
	dispatch func(ctx context.Context, cfg *config.Config, q Query) (*AggregateResult, error)
}

func NewEngine(client *harbor.Client) *Engine {
	return &Engine{
		Client: client,
		Log:    logrus.StandardLogger(),
		Stdout: os.Stdout,
	}
}

func (e *Engine) dispatchProjects(ctx context.Context, cfg *config.Config, q Query) (*AggregateResult, error) {
	if e.dispatch != nil {
		return e.dispatch(ctx, cfg, q)
	}
	if e.Client == nil {
		return nil, errors.New("harbor client is nil")
	}

	d, err := NewDispatcher(fetcher.NewFetcher(e.Client), cfg.Runtime.Concurrency,
		WithMetrics(e.Metrics),
		WithLogger(e.Log),
	)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx, cfg.Query.Projects, q)
}

// Run fetches and ranks every configured project, writes the report to all
// configured sinks and returns the process exit code.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	log := e.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	stdout := e.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	outMgr, err := setupOutputManager(cfg, stdout)
	if err != nil {
		log.WithError(err).Error("Error creating output sinks")
		return exitCodeForRun(true, false)
	}
	defer func() {
		if err := outMgr.Close(); err != nil {
			log.WithError(err).Error("Error closing output sinks")
		}
	}()

	_ = outMgr.Write(output.Event{Type: output.EventRunStarted, Repo: cfg.Query.Repo, Projects: len(cfg.Query.Projects)})

	ctx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	q := Query{
		Repo:        cfg.Query.Repo,
		Count:       cfg.Query.Count,
		IncludeTime: cfg.Query.Time,
		Include:     cfg.Query.Include,
		Exclude:     cfg.Query.Exclude,
	}
	log.WithFields(logrus.Fields{
		"repo":        q.Repo,
		"projects":    len(cfg.Query.Projects),
		"concurrency": cfg.Runtime.Concurrency,
	}).Debug("Fetching tags")

	res, err := e.dispatchProjects(ctx, cfg, q)
	if res == nil {
		if err == nil {
			err = errors.New("dispatcher returned no result")
		}
		log.WithError(err).Error("Run did not start")
		code := exitCodeForRun(true, false)
		_ = outMgr.Write(output.Event{Type: output.EventRunFinished, Repo: q.Repo, ExitCode: code})
		return code
	}

	var runErr *RunError
	if errors.As(err, &runErr) {
		for _, f := range runErr.Failures {
			log.WithField("project", f.Project).Error(presentFetchError(f.Err, cfg.Runtime.Verbose))
		}
	} else if err != nil {
		log.WithError(err).Error("Run finished with an unexpected error")
	}
	for _, p := range res.Denied() {
		log.WithField("project", p).Warn("Access denied; credentials may be missing or lack permission")
	}

	report := buildReport(res, cfg.Runtime.Verbose)
	if err := outMgr.Write(report); err != nil {
		log.WithError(err).Error("Error writing report")
	}

	e.Metrics.SetRun(len(res.Order), res.TagCount(), time.Now())
	if cfg.Runtime.MetricsFile != "" {
		if err := e.Metrics.WriteTextfile(cfg.Runtime.MetricsFile); err != nil {
			log.WithError(err).Warn("Could not write metrics file")
		}
	}

	failed := len(res.Failed())
	code := exitCodeForRun(false, failed > 0 || (err != nil && runErr == nil))
	_ = outMgr.Write(output.Event{
		Type:     output.EventRunFinished,
		Repo:     q.Repo,
		Projects: len(res.Order),
		Failed:   failed,
		ExitCode: code,
	})
	return code
}
