package cli

import (
	"bytes"
	"fmt"
	"harbortags/internal/config"
	"harbortags/internal/flags"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetConfig restores the package-level config the commands bind to.
func resetConfig(t *testing.T) {
	t.Helper()
	*cfg = *config.New()
	t.Cleanup(func() { *cfg = *config.New() })
}

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func newEnvTestCommand(c *config.Config) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&c.Registry.URL, flags.FlagURL, c.Registry.URL, "")
	cmd.Flags().StringVar(&c.Registry.Token, flags.FlagToken, "", "")
	cmd.Flags().StringVar(&c.Query.Repo, flags.FlagRepo, c.Query.Repo, "")
	cmd.Flags().StringVar(&c.Runtime.LogLevel, flags.FlagLogLevel, c.Runtime.LogLevel, "")
	return cmd
}

func TestApplyEnv_FillsUnsetFlags(t *testing.T) {
	t.Setenv("HARBOR_URL", "https://harbor.example.com/api")
	t.Setenv("HARBOR_TOKEN", "tok")
	t.Setenv("HARBOR_USERNAME", "robot$ci")
	t.Setenv("HARBOR_PASSWORD", "secret")
	t.Setenv("HARBOR_LOG_LEVEL", "debug")

	c := config.New()
	cmd := newEnvTestCommand(c)
	require.NoError(t, applyEnv(cmd, c))

	assert.Equal(t, "https://harbor.example.com/api", c.Registry.URL)
	assert.Equal(t, "tok", c.Registry.Token)
	assert.Equal(t, "robot$ci", c.Registry.Username)
	assert.Equal(t, "secret", c.Registry.Password)
	assert.Equal(t, "debug", c.Runtime.LogLevel)
	assert.Equal(t, "library", c.Query.Repo, "unset variables keep flag defaults")
}

func TestApplyEnv_ExplicitFlagWins(t *testing.T) {
	t.Setenv("HARBOR_URL", "https://from-env/api")
	t.Setenv("HARBOR_REPO", "env-repo")

	c := config.New()
	cmd := newEnvTestCommand(c)
	require.NoError(t, cmd.ParseFlags([]string{"--url", "https://from-flag/api"}))
	require.NoError(t, applyEnv(cmd, c))

	assert.Equal(t, "https://from-flag/api", c.Registry.URL)
	assert.Equal(t, "env-repo", c.Query.Repo)
}

func TestPrintHarbor(t *testing.T) {
	disableColor(t)

	var buf bytes.Buffer
	require.NoError(t, printHarbor(&buf, "harbor.example.com/api/"))
	assert.Equal(t,
		"Harbor API: https://harbor.example.com/api\n"+
			"Tags endpoint: https://harbor.example.com/api/repositories/{repo}/{project}/tags?detail=true\n",
		buf.String())

	require.Error(t, printHarbor(&buf, "ftp://nope"))
}

func TestHarborCommand_DefaultURL(t *testing.T) {
	resetConfig(t)
	disableColor(t)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"harbor"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Harbor API: http://localhost/api")
}

func TestVersionCommand(t *testing.T) {
	resetConfig(t)
	SetBuildInfo("1.2.3", "abc123", "2026-01-01")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "harbortags 1.2.3\ncommit: abc123\nbuilt:  2026-01-01\n", buf.String())
}

func newListTestCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{Use: "list"}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return cmd, &stdout, &stderr
}

func TestRunList_EndToEnd(t *testing.T) {
	resetConfig(t)

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/repositories/demo/svc/tags" || r.URL.Query().Get("detail") != "true" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `[
			{"name":"v1","push_time":"2024-05-01T10:00:00Z"},
			{"name":"v2","push_time":"2024-05-01T12:00:00Z"},
			{"name":"v3","push_time":"2024-05-01T11:00:00Z"}
		]`)
	}))
	t.Cleanup(server.Close)

	cfg.Registry.URL = server.URL + "/api"
	cfg.Registry.Token = "tok"
	cfg.Query.Repo = "demo"
	cfg.Query.Count = 2
	cfg.Output.NoColor = true

	cmd, stdout, stderr := newListTestCommand()
	code := runList(cmd, []string{"svc"})

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "\nsvc:\n  newest: demo/svc v2\n  No.2 : demo/svc v3\n", stdout.String())
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestRunList_MetricsFile(t *testing.T) {
	resetConfig(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	t.Cleanup(server.Close)

	cfg.Registry.URL = server.URL + "/api"
	cfg.Output.NoConsole = true
	cfg.Runtime.MetricsFile = filepath.Join(t.TempDir(), "m.prom")

	cmd, _, _ := newListTestCommand()
	require.Equal(t, 0, runList(cmd, []string{"a", "b"}))

	b, err := os.ReadFile(cfg.Runtime.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), `harbortags_fetches_total{outcome="ok"} 2`)
}

func TestRunList_InvalidConfigIsFatal(t *testing.T) {
	resetConfig(t)
	cfg.Query.Count = -1

	cmd, stdout, stderr := newListTestCommand()
	assert.Equal(t, 3, runList(cmd, []string{"svc"}))
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "--count must be >= 0")
}

func TestRunList_BadCredentialsAreFatal(t *testing.T) {
	resetConfig(t)
	cfg.Registry.Username = "robot"

	cmd, _, stderr := newListTestCommand()
	assert.Equal(t, 3, runList(cmd, []string{"svc"}))
	assert.Contains(t, stderr.String(), "failed to create Harbor client")
}

func TestRunList_NoArgsPrintsHelp(t *testing.T) {
	resetConfig(t)

	cmd, stdout, _ := newListTestCommand()
	cmd.Long = "list help text"
	assert.Equal(t, 0, runList(cmd, nil))
	assert.Contains(t, stdout.String(), "list help text")
}

func TestRunList_EnvOnlyStillPrintsHelp(t *testing.T) {
	resetConfig(t)
	t.Setenv("HARBOR_URL", "https://harbor.example.com/api")
	t.Setenv("HARBOR_REPO", "demo")

	cmd := newEnvTestCommand(cfg)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.Long = "list help text"
	require.NoError(t, applyEnv(cmd, cfg))
	require.Equal(t, "https://harbor.example.com/api", cfg.Registry.URL)

	assert.Equal(t, 0, runList(cmd, nil))
	assert.Contains(t, stdout.String(), "list help text")
	assert.Empty(t, stderr.String())
}

func TestRunList_NamesWithoutArgsRuns(t *testing.T) {
	resetConfig(t)
	cfg.Query.Projects = []string{"../x"}

	cmd, stdout, stderr := newListTestCommand()
	cmd.Long = "list help text"
	assert.Equal(t, 3, runList(cmd, nil))
	assert.NotContains(t, stdout.String(), "list help text")
	assert.Contains(t, stderr.String(), "invalid project")
}
