package config

import (
	"errors"
	"fmt"
	"harbortags/internal/harbor"
	"harbortags/internal/output"
	"harbortags/internal/rank"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep the CLI
	// flags in internal/cli/list.go and the env bindings in internal/cli/root.go
	// in sync.
	Registry Registry
	Query    Query
	Output   Output
	Runtime  Runtime
}

type Registry struct {
	// URL is the Harbor API base URL, e.g. https://harbor.example.com/api (see --url, HARBOR_URL).
	URL string

	// Token is a bearer token (see --token, HARBOR_TOKEN). Takes precedence over Username/Password.
	Token string

	// Username and Password enable basic auth (HARBOR_USERNAME, HARBOR_PASSWORD).
	Username string
	Password string

	// Insecure skips TLS certificate verification (see --insecure).
	Insecure bool

	// RequestTimeout bounds each HTTP request (see --request-timeout). 0 disables it.
	RequestTimeout time.Duration
}

type Query struct {
	// Repo is the repository namespace shared by every project (see --repo).
	Repo string

	// Projects lists the projects to fetch (see --names and positional args).
	// Values may be provided as repeated flags and/or comma-separated lists.
	// Duplicates are kept; they share one fetch.
	Projects []string

	// Count is the number of most recent tags reported per project (see --count).
	Count int

	// Time appends the push time to each line (see --time).
	Time bool

	// Include keeps only tags matching one of these path.Match patterns (see --include).
	// A pattern containing ':' matches PROJECT:TAG; otherwise it matches the tag name.
	Include []string

	// Exclude drops tags matching any of these patterns (see --exclude).
	Exclude []string
}

type Output struct {
	// Format controls the console format (see --format).
	// Allowed values: text, table, json, ndjson, yaml.
	Format string

	// NoColor disables ANSI colors in text output (see --no-color).
	NoColor bool

	// Emit writes an additional structured stream to stdout (see --emit).
	// Allowed values: json, ndjson, yaml.
	Emit []string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// If empty, it is inferred from the --out file extension.
	OutFormat string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Concurrency bounds how many projects are fetched at once (see --concurrency).
	// Must be >= 1.
	Concurrency int

	// Timeout is the overall deadline for the run (see --timeout). Must be > 0.
	Timeout time.Duration

	// Verbose logs every API request and reports full error chains (see --verbose).
	Verbose bool

	// LogLevel and LogFormat configure logrus (see --log-level, --log-format).
	LogLevel  string
	LogFormat string

	// MetricsFile, when set, receives a Prometheus textfile after the run (see --metrics-file).
	MetricsFile string
}

func New() *Config {
	return &Config{
		Registry: Registry{
			URL:            harbor.DefaultBaseURL,
			RequestTimeout: 30 * time.Second,
		},
		Query: Query{
			Repo:  "library",
			Count: 1,
		},
		Output: Output{
			Format: "text",
		},
		Runtime: Runtime{
			Concurrency: 5,
			Timeout:     5 * time.Minute,
			LogLevel:    "info",
			LogFormat:   "auto",
		},
	}
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Query.Projects = splitCommaList(c.Query.Projects)
	c.Query.Include = splitCommaList(c.Query.Include)
	c.Query.Exclude = splitCommaList(c.Query.Exclude)
	c.Output.Emit = splitCommaList(c.Output.Emit)

	// Registry validation
	u, err := harbor.ParseBaseURL(c.Registry.URL)
	if err != nil {
		return fmt.Errorf("invalid --url value: %w", err)
	}
	c.Registry.URL = u.String()
	if c.Registry.RequestTimeout < 0 {
		return errors.New("--request-timeout must be >= 0")
	}

	// Query validation
	c.Query.Repo = strings.Trim(strings.TrimSpace(c.Query.Repo), "/")
	if c.Query.Repo == "" {
		return errors.New("--repo must not be empty")
	}
	if err := harbor.ValidateName(c.Query.Repo); err != nil {
		return fmt.Errorf("invalid --repo value: %w", err)
	}
	if len(c.Query.Projects) == 0 {
		return errors.New("at least one project must be provided (--names or positional arguments)")
	}
	for _, p := range c.Query.Projects {
		if err := harbor.ValidateName(p); err != nil {
			return fmt.Errorf("invalid project: %w", err)
		}
	}
	if c.Query.Count < 0 {
		return errors.New("--count must be >= 0")
	}
	if err := rank.ValidatePatterns(c.Query.Include); err != nil {
		return fmt.Errorf("invalid --include value: %w", err)
	}
	if err := rank.ValidatePatterns(c.Query.Exclude); err != nil {
		return fmt.Errorf("invalid --exclude value: %w", err)
	}

	// Output validation
	c.Output.Format = normalizeEnumValue(c.Output.Format)
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	switch c.Output.Format {
	case "text", "table", "json", "ndjson", "yaml":
	default:
		return fmt.Errorf("unsupported --format: %s (must be one of: text, table, json, ndjson, yaml)", c.Output.Format)
	}

	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" && v != "yaml" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson, yaml)", v)
		}
		c.Output.Emit[i] = v
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			if filepath.Ext(c.Output.Out) == "" {
				return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
			}
			inferred, err := output.InferFormat(c.Output.Out)
			if err != nil {
				return fmt.Errorf("%w; use --out-format", err)
			}
			c.Output.OutFormat = inferred
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" && c.Output.OutFormat != "yaml" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	c.Runtime.LogLevel = normalizeEnumValue(c.Runtime.LogLevel)
	if c.Runtime.LogLevel == "" {
		c.Runtime.LogLevel = "info"
	}
	if _, err := logrus.ParseLevel(c.Runtime.LogLevel); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	c.Runtime.LogFormat = normalizeEnumValue(c.Runtime.LogFormat)
	if c.Runtime.LogFormat == "" {
		c.Runtime.LogFormat = "auto"
	}
	switch c.Runtime.LogFormat {
	case "auto", "json", "logfmt", "pretty":
	default:
		return fmt.Errorf("unsupported --log-format: %s (must be one of: auto, json, logfmt, pretty)", c.Runtime.LogFormat)
	}

	return nil
}

// Credentials returns the registry credentials in the form the harbor client expects.
func (c *Config) Credentials() harbor.Credentials {
	return harbor.Credentials{
		Token:    c.Registry.Token,
		Username: c.Registry.Username,
		Password: c.Registry.Password,
	}
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
