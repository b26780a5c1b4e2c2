package cli

import (
	"fmt"
	"harbortags/internal/harbor"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var harborCmd = &cobra.Command{
	Use:   "harbor",
	Short: "Print the Harbor API URL in use",
	Long: `Print the Harbor API base URL harbortags talks to, after applying --url and
HARBOR_URL, together with the tag listing endpoint it queries.

Examples:
	harbortags harbor
	HARBOR_URL=https://harbor.example.com/api harbortags harbor
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printHarbor(cmd.OutOrStdout(), cfg.Registry.URL)
	},
}

func printHarbor(w io.Writer, rawURL string) error {
	u, err := harbor.ParseBaseURL(rawURL)
	if err != nil {
		return fmt.Errorf("invalid --url value: %w", err)
	}

	bold := color.New(color.Bold).SprintFunc()
	if _, err := fmt.Fprintf(w, "%s %s\n", bold("Harbor API:"), u.String()); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s %s/repositories/{repo}/{project}/tags?detail=true\n", bold("Tags endpoint:"), u.String())
	return err
}

func init() {
	rootCmd.AddCommand(harborCmd)
}
