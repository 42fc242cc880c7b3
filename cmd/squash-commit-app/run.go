package main

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nathantilsley/squash-commit-app/internal/logging"
	hostfactory "github.com/nathantilsley/squash-commit-app/internal/squash/adapters/host_factory"
	linediff "github.com/nathantilsley/squash-commit-app/internal/squash/adapters/line_diff"
	"github.com/nathantilsley/squash-commit-app/internal/squash/app"
	"github.com/nathantilsley/squash-commit-app/internal/squash/domain"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var (
		token  string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "run <pull-request>",
		Short: "Rewrite the tip of one pull request now",
		Long: `Run the workflow once against a pull request, authenticating with a token.

The pull request may be given as owner/repo#123 or as its URL. The token is
read from --token, then GITHUB_TOKEN, then the gh CLI's stored credentials.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pr, err := domain.ParsePullRequestRef(args[0])
			if err != nil {
				return err
			}
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}

			token, err = resolveToken(token, cfg.APIURL)
			if err != nil {
				return err
			}
			hosts, err := hostfactory.NewTokenFactory(cmd.Context(), token, cfg.APIURL, cfg.HTTPTimeout)
			if err != nil {
				return err
			}
			host, err := hosts.ForInstallation(0)
			if err != nil {
				return err
			}

			var opts []app.Option
			if dryRun {
				opts = append(opts, app.WithDryRun())
			}
			result, err := app.NewWorkflow(host, logger, opts...).Run(cmd.Context(), pr)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), pr, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "GitHub token (or use GITHUB_TOKEN env var)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the planned commit without writing it")
	return cmd
}

// resolveToken follows flag, then GITHUB_TOKEN, then the gh CLI's stored token
// for the API host.
func resolveToken(flagValue, apiURL string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("GITHUB_TOKEN"); env != "" {
		return env, nil
	}

	host := "github.com"
	if apiURL != "" {
		u, err := url.Parse(apiURL)
		if err != nil {
			return "", fmt.Errorf("invalid api url: %w", err)
		}
		host = u.Hostname()
	}
	if token, _ := auth.TokenForHost(host); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("github token required\nProvide via --token, GITHUB_TOKEN, or `gh auth login` for %s", host)
}

func printResult(w io.Writer, pr domain.PullRequestRef, result app.Result) {
	ok := color.New(color.FgGreen).SprintFunc()
	skip := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(w, "%s: %d commit(s), head %s on %s\n",
		pr, result.Snapshot.CommitCount, result.Snapshot.HeadSHA, result.Snapshot.HeadBranch)

	switch {
	case result.Rewritten():
		fmt.Fprintf(w, "%s %s -> %s\n", ok("✓ rewritten"), result.Head.SHA, result.Created.SHA)
	case result.Reason == app.ReasonDryRun:
		fmt.Fprintf(w, "%s commit on %s with tree %s\n", skip("dry run: would write"), result.Head.SHA, result.Planned.TreeSHA)
		diff := linediff.New().ComputeDiff(
			result.Head.SHA, "squash-commit-app",
			[]byte(result.Head.Message), []byte(result.Planned.Message),
		)
		if diff != "" {
			fmt.Fprintf(w, "\n%s\n", diff)
		}
	default:
		fmt.Fprintf(w, "%s %s\n", skip("skipped:"), result.Reason)
	}
}
