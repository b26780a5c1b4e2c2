package output

import (
	"fmt"
	"io"
	"sync"
)

// EmitSink writes an additional structured copy of the results.
//
// Formats:
//   - json, yaml: write the aggregate Report on Close
//   - ndjson: streams Event values (one JSON object per line)
type EmitSink struct {
	writer io.Writer
	format string
	mu     sync.Mutex
	report *Report
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	if !ValidFormat(format, false) {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{writer: w, format: format}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == FormatNDJSON {
		if err := writeNDJSON(s.writer, v); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if r, ok := v.(*Report); ok {
		s.report = r
	}
	return nil
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.report == nil {
		return nil
	}
	var err error
	switch s.format {
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
