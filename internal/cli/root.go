package cli

import (
	"github.com/spf13/cobra"

	"github.com/badtechnologies/bpm/internal/config"
	"github.com/badtechnologies/bpm/pkg/installer"
	"github.com/badtechnologies/bpm/pkg/source"
)

// bindGlobalFlags registers the persistent flags on root. Zero values are
// placeholders; only flags the user actually set override the configuration.
func (c *CLI) bindGlobalFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.BoolVarP(&c.flags.yes, "yes", "y", false, `assume "yes" as the answer to all prompts and run non-interactively`)
	f.StringVarP(&c.flags.repo, "repo", "r", source.DefaultRepo, `repo to download from, in the format "owner/repo/branch"`)
	f.StringVar(&c.flags.execDir, "exec-dir", installer.DefaultDir, "directory package binaries are installed into")
	f.StringVar(&c.flags.baseURL, "base-url", source.DefaultBaseURL, "raw-content host serving the repo")
	f.DurationVar(&c.flags.timeout, "timeout", source.DefaultTimeout, "per-request timeout")
	f.IntVar(&c.flags.retries, "retries", 0, "extra attempts for network errors and 5xx responses")
	f.StringVar(&c.flags.configPath, "config", "", "config file (default ~/.config/bpm/config.toml)")
	f.BoolVar(&c.flags.strict, "strict", false, "exit with status 1 when any package fails")
	f.BoolVarP(&c.flags.verbose, "verbose", "v", false, "enable verbose logging")
}

// setup loads the configuration, applies flag overrides and attaches the
// logger to the command context.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if c.flags.verbose {
		c.SetLogLevel(LogDebug)
	}
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))

	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("repo") {
		cfg.Repo = c.flags.repo
	}
	if f.Changed("exec-dir") {
		cfg.ExecDir = c.flags.execDir
	}
	if f.Changed("base-url") {
		cfg.BaseURL = c.flags.baseURL
	}
	if f.Changed("timeout") {
		cfg.Timeout = config.Duration{Duration: c.flags.timeout}
	}
	if f.Changed("retries") {
		cfg.Retries = c.flags.retries
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	c.Logger.Debug("settings", "repo", cfg.Repo, "exec_dir", cfg.ExecDir, "base_url", cfg.BaseURL, "timeout", cfg.Timeout, "retries", cfg.Retries)
	c.cfg = cfg
	return nil
}
