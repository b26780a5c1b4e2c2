package cli

import (
	"fmt"
	"harbortags/internal/config"
	"harbortags/internal/flags"
	"harbortags/internal/logging"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables read by every command,
// e.g. HARBOR_URL or HARBOR_TOKEN.
const envPrefix = "HARBOR"

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "harbortags",
	Short: "List the most recently pushed image tags of Harbor projects",
	Long: `harbortags queries a Harbor registry for the tags of one or more projects
and prints the most recently pushed ones, newest first.

Projects are fetched concurrently. A project that cannot be fetched is
reported as failed without affecting the others.

Examples:
	# Show available commands and global flags
	harbortags --help

	# Newest tag of two projects in the "library" repository
	harbortags list --names api,web

	# Three newest tags with push times
	harbortags list --repo demo --count 3 --time svc

	# Print the configured API URL
	harbortags harbor

	# Print build info
	harbortags version

Environment:
	HARBOR_URL       Harbor API base URL (same as --url)
	HARBOR_TOKEN     bearer token (same as --token)
	HARBOR_USERNAME  basic auth user
	HARBOR_PASSWORD  basic auth password`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyEnv(cmd, cfg); err != nil {
			return err
		}
		return setupLogging(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every Harbor API call and full error details)")
	rootCmd.PersistentFlags().StringVar(&cfg.Runtime.LogLevel, flags.FlagLogLevel, cfg.Runtime.LogLevel, "Log level: panic|fatal|error|warn|info|debug|trace")
	rootCmd.PersistentFlags().StringVar(&cfg.Runtime.LogFormat, flags.FlagLogFormat, cfg.Runtime.LogFormat, "Log format: auto|json|logfmt|pretty")
	rootCmd.PersistentFlags().BoolVar(&cfg.Output.NoColor, flags.FlagNoColor, false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&cfg.Registry.URL, flags.FlagURL, cfg.Registry.URL, "Harbor API base URL (env: HARBOR_URL)")
}

// newEnv returns a viper instance resolving HARBOR_* variables. Flag names map
// to variable names by upper-casing and replacing '-' with '_'.
func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// envFlags are the string flags that fall back to HARBOR_* variables when not
// given on the command line.
var envFlags = []string{
	flags.FlagURL,
	flags.FlagToken,
	flags.FlagRepo,
	flags.FlagLogLevel,
	flags.FlagLogFormat,
}

// applyEnv copies HARBOR_* values into cfg. Explicit flags win over the
// environment; the environment wins over flag defaults.
func applyEnv(cmd *cobra.Command, cfg *config.Config) error {
	v := newEnv()
	fs := cmd.Flags()
	for _, name := range envFlags {
		if err := setFromEnv(v, fs, name); err != nil {
			return err
		}
	}

	cfg.Registry.Username = v.GetString("username")
	cfg.Registry.Password = v.GetString("password")
	return nil
}

func setFromEnv(v *viper.Viper, fs *pflag.FlagSet, name string) error {
	f := fs.Lookup(name)
	if f == nil || f.Changed {
		return nil
	}
	if err := v.BindEnv(name); err != nil {
		return fmt.Errorf("bind env for --%s: %w", name, err)
	}
	if !v.IsSet(name) {
		return nil
	}
	if err := fs.Set(name, v.GetString(name)); err != nil {
		return fmt.Errorf("invalid %s_%s value: %w", envPrefix, strings.ToUpper(strings.ReplaceAll(name, "-", "_")), err)
	}
	return nil
}

func setupLogging(cfg *config.Config) error {
	if cfg.Output.NoColor {
		color.NoColor = true
	}
	return logging.Setup(logrus.StandardLogger(), logging.Options{
		Level:   cfg.Runtime.LogLevel,
		Format:  cfg.Runtime.LogFormat,
		NoColor: cfg.Output.NoColor,
		Verbose: cfg.Runtime.Verbose,
	})
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
}
