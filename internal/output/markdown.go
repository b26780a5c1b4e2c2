package output

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
)

// ReportSink writes a Markdown summary of the run to a file on Close.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	report       *Report
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case *Report:
		s.report = t
	case Event:
		if t.Type == EventRunFinished {
			s.exitCode = t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	md := renderMarkdown(s.report, s.exitCode, s.haveExitCode)
	if _, err := s.file.WriteString(md); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

func renderMarkdown(r *Report, exitCode int, haveExitCode bool) string {
	var b strings.Builder
	b.WriteString("# Harbor Tag Report\n\n")
	if r == nil {
		b.WriteString("No results were produced.\n")
		return b.String()
	}

	var ok, denied, failed int
	for _, p := range r.Projects {
		switch p.Status {
		case StatusOK:
			ok++
		case StatusDenied:
			denied++
		case StatusFailed:
			failed++
		}
	}

	fmt.Fprintf(&b, "**Repository:** `%s`\n\n", r.Repo)
	fmt.Fprintf(&b, "- Projects: %d\n", len(r.Projects))
	fmt.Fprintf(&b, "- OK: %d\n", ok)
	fmt.Fprintf(&b, "- Denied: %d\n", denied)
	fmt.Fprintf(&b, "- Failed: %d\n", failed)
	if haveExitCode {
		fmt.Fprintf(&b, "- Exit code: %d\n", exitCode)
	}
	b.WriteString("\n")

	for _, p := range r.Projects {
		fmt.Fprintf(&b, "## %s\n\n", p.Project)
		switch p.Status {
		case StatusFailed:
			fmt.Fprintf(&b, "> **Failed:** %s\n\n", p.Error)
			continue
		case StatusDenied:
			b.WriteString("> Access denied. No tags are visible with the supplied credentials.\n\n")
			continue
		}
		if len(p.Tags) == 0 {
			fmt.Fprintf(&b, "No tags (%d fetched).\n\n", p.Fetched)
			continue
		}

		t := table.NewWriter()
		t.AppendHeader(table.Row{"Rank", "Tag", "Pushed (UTC)"})
		for _, l := range p.Tags {
			t.AppendRow(table.Row{l.Marker(), "`" + l.Tag + "`", l.PushTime.UTC().Format("2006-01-02 15:04:05")})
		}
		b.WriteString(t.RenderMarkdown())
		b.WriteString("\n\n")
	}
	return b.String()
}
