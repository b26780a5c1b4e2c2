package cli

import (
	"context"
	"fmt"
	"harbortags/internal/engine"
	"harbortags/internal/flags"
	"harbortags/internal/harbor"
	"harbortags/internal/metrics"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [PROJECT...]",
	Short: "List the most recently pushed tags of Harbor projects",
	Long: `List the most recently pushed tags of one or more Harbor projects.

Projects are given with --names (comma-separated, repeatable) and/or as
positional arguments. Every project is fetched concurrently from
{url}/repositories/{repo}/{project}/tags?detail=true with exactly one request.

For each project the newest --count tags are printed, newest first:
	newest: {repo}/{project} {tag}
	No.2 : {repo}/{project} {tag}

Projects the registry refuses with 401 are reported with no tags and a warning.
Any other failure is reported for that project only; the rest of the run
continues.

Output:
	Console output is controlled by --format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write the report as JSON, NDJSON or YAML to a file
	- --emit: write an additional structured stream to stdout (json, ndjson, yaml)
	- --report: write a Markdown summary
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line with a "type" field
	(run.started, project.result, project.failed, run.finished).

Exit codes:
	0 = every project reported (including access denied)
	2 = partial failure (some projects errored)
	3 = fatal error (run did not start)

Examples:
	harbortags list --repo demo svc
	harbortags list --names api,web --count 3 --time
	harbortags list --url https://harbor.example.com/api --names api --format table
	HARBOR_TOKEN=... harbortags list --names api --no-console --emit ndjson
`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runList(cmd, args))
	},
}

// newClient builds the Harbor client for the current configuration.
var newClient = func(ctx context.Context) (*harbor.Client, error) {
	opts, source, err := harbor.ResolveAuth(cfg.Credentials())
	if err != nil {
		return nil, err
	}
	logrus.WithField("auth", source).Debug("Resolved Harbor credentials")

	if cfg.Registry.Insecure {
		logrus.Warn("TLS certificate verification is disabled (--insecure)")
	}
	opts = append(opts,
		harbor.WithVerbose(cfg.Runtime.Verbose, logrus.StandardLogger()),
		harbor.WithInsecureSkipVerify(cfg.Registry.Insecure),
		harbor.WithTimeout(cfg.Registry.RequestTimeout),
	)
	return harbor.NewClient(ctx, cfg.Registry.URL, opts...)
}

func runList(cmd *cobra.Command, args []string) int {
	if len(args) == 0 && len(cfg.Query.Projects) == 0 {
		_ = cmd.Help()
		return 0
	}

	cfg.Query.Projects = append(cfg.Query.Projects, args...)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 3
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := newClient(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: failed to create Harbor client: %v\n", err)
		return 3
	}

	eng := engine.NewEngine(client)
	eng.Stdout = cmd.OutOrStdout()
	if cfg.Runtime.MetricsFile != "" {
		eng.Metrics = metrics.New()
	}
	return eng.Run(ctx, cfg)
}

func init() {
	rootCmd.AddCommand(listCmd)

	// Registry
	listCmd.Flags().StringVar(&cfg.Registry.Token, flags.FlagToken, "", "Bearer token (env: HARBOR_TOKEN); HARBOR_USERNAME/HARBOR_PASSWORD enable basic auth instead")
	listCmd.Flags().BoolVar(&cfg.Registry.Insecure, flags.FlagInsecure, false, "Skip TLS certificate verification")
	listCmd.Flags().DurationVar(&cfg.Registry.RequestTimeout, flags.FlagRequestTimeout, cfg.Registry.RequestTimeout, "Timeout for each API request (0 = none)")

	// Query
	listCmd.Flags().StringVar(&cfg.Query.Repo, flags.FlagRepo, cfg.Query.Repo, "Repository namespace shared by all projects (env: HARBOR_REPO)")
	listCmd.Flags().StringSliceVar(&cfg.Query.Projects, flags.FlagNames, nil, "Projects to list (repeatable; comma-separated accepted)")
	listCmd.Flags().IntVar(&cfg.Query.Count, flags.FlagCount, cfg.Query.Count, "Number of most recent tags per project")
	listCmd.Flags().BoolVar(&cfg.Query.Time, flags.FlagTime, false, "Show each tag's push time")
	listCmd.Flags().StringSliceVar(&cfg.Query.Include, flags.FlagInclude, nil, "Only rank tags matching these patterns (Go path.Match; 'project:tag' form if the pattern contains ':')")
	listCmd.Flags().StringSliceVar(&cfg.Query.Exclude, flags.FlagExclude, nil, "Never rank tags matching these patterns (same rules as --include)")

	// Output
	listCmd.Flags().StringVar(&cfg.Output.Format, flags.FlagFormat, cfg.Output.Format, "Console format: text|table|json|ndjson|yaml")
	listCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured output to stdout: json|ndjson|yaml (repeatable)")
	listCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	listCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Format for --out: json|ndjson|yaml (default: inferred from file extension)")
	listCmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	listCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")

	// Runtime
	listCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Projects fetched concurrently")
	listCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Overall timeout for the run")
	listCmd.Flags().StringVar(&cfg.Runtime.MetricsFile, flags.FlagMetricsFile, "", "Write Prometheus metrics in textfile format to this path")
}
