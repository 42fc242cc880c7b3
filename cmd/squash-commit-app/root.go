package main

import (
	"github.com/spf13/cobra"

	"github.com/nathantilsley/squash-commit-app/internal/config"
)

type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	apiURL     string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "squash-commit-app",
		Short: "Preset squash & merge commit subjects from pull request titles",
		Long: `squash-commit-app adds an empty commit on top of single-commit pull requests.
GitHub then proposes the pull request title, not the commit message,
as the subject of a squash merge.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to a YAML config file")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&flags.apiURL, "api-url", "", "GitHub Enterprise API URL (default github.com)")

	cmd.AddCommand(newServeCmd(flags), newRunCmd(flags), newTriggerCmd())
	return cmd
}

// load reads the config file and environment, then applies flags that were
// set explicitly.
func (f *globalFlags) load() (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	cfg.LogLevel = getFlagOr(f.logLevel, cfg.LogLevel)
	cfg.LogFormat = getFlagOr(f.logFormat, cfg.LogFormat)
	cfg.APIURL = getFlagOr(f.apiURL, cfg.APIURL)
	return cfg, nil
}

func getFlagOr(flagValue, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	return fallback
}
