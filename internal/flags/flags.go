package flags

// Package flags defines canonical CLI flag names shared across the CLI and the
// environment bindings.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Query.Repo, flags.FlagRepo, "library", "...")
//	arg := "--" + flags.FlagRepo
const (
	// Registry
	FlagURL            = "url"
	FlagToken          = "token"
	FlagInsecure       = "insecure"
	FlagRequestTimeout = "request-timeout"

	// Query
	FlagRepo    = "repo"
	FlagNames   = "names"
	FlagCount   = "count"
	FlagTime    = "time"
	FlagInclude = "include"
	FlagExclude = "exclude"

	// Output
	FlagFormat    = "format"
	FlagNoColor   = "no-color"
	FlagEmit      = "emit"
	FlagOut       = "out"
	FlagOutFormat = "out-format"
	FlagReport    = "report"
	FlagNoConsole = "no-console"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
	FlagMetricsFile = "metrics-file"
	FlagVerbose     = "verbose"
	FlagLogLevel    = "log-level"
	FlagLogFormat   = "log-format"
)
