package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type FileSink struct {
	path   string
	format string
	file   *os.File
	mu     sync.Mutex
	report *Report
}

// InferFormat maps an output file extension to a structured format.
func InferFormat(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".ndjson", ".jsonl":
		return FormatNDJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("cannot infer output format from file extension %q", ext)
	}
}

func NewFileSink(path string, format string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}

	if format == "" {
		inferred, err := InferFormat(path)
		if err != nil {
			return nil, err
		}
		format = inferred
	}
	if !ValidFormat(format, false) {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &FileSink{
		path:   path,
		format: format,
		file:   f,
	}, nil
}

func (s *FileSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == FormatNDJSON {
		return writeNDJSON(s.file, v)
	}
	if r, ok := v.(*Report); ok {
		s.report = r
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.report != nil {
		switch s.format {
		case FormatJSON:
			err = writeJSON(s.file, s.report)
		case FormatYAML:
			err = writeYAML(s.file, s.report)
		}
	}

	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
