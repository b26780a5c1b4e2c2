package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ConsoleOptions controls how the console renders a Report.
type ConsoleOptions struct {
	Format  string // "text", "table", "json", "ndjson", "yaml"
	NoColor bool

	// ShowTime adds a push time column to the table format.
	ShowTime bool
	Location *time.Location
}

type ConsoleSink struct {
	writer io.Writer
	opts   ConsoleOptions
	mu     sync.Mutex
	report *Report // For json/yaml output on Close
}

func NewConsoleSink(w io.Writer, opts ConsoleOptions) (*ConsoleSink, error) {
	if w == nil {
		w = os.Stdout
	}
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if !ValidFormat(opts.Format, true) {
		return nil, fmt.Errorf("unsupported console format: %s", opts.Format)
	}
	return &ConsoleSink{writer: w, opts: opts}, nil
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.opts.Format {
	case FormatNDJSON:
		if err := writeNDJSON(s.writer, v); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}

	r, ok := v.(*Report)
	if !ok {
		// Lifecycle events only appear in ndjson mode.
		return nil
	}

	switch s.opts.Format {
	case FormatText:
		if err := writeText(s.writer, r, newPalette(s.opts.NoColor)); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	case FormatTable:
		if err := writeTable(s.writer, r, s.opts.ShowTime, s.opts.Location); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		s.report = r
		return nil
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report == nil {
		return nil
	}
	var err error
	switch s.opts.Format {
	case FormatJSON:
		err = writeJSON(s.writer, s.report)
	case FormatYAML:
		err = writeYAML(s.writer, s.report)
	}
	if err != nil {
		return err
	}
	return flushIfPossible(s.writer)
}
