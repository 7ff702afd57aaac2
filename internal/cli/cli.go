// Package cli implements the bpm command-line interface.
//
// bpm discovers the transitive dependencies of the requested packages from a
// package library hosted on GitHub, asks for confirmation, and installs the
// package binaries into the managed executable directory (bdsh/exec by
// default). The CLI is built using cobra and logs via charmbracelet/log.
//
// # Commands
//
//   - install: Resolve, confirm and install packages with their dependencies
//   - remove: Confirm and delete installed packages
//   - graph: Resolve packages and draw the dependency graph
//   - serve: Serve a local package library in the upstream URL layout
//   - completion: Generate shell completion scripts
//
// # Configuration
//
// Settings come from ~/.config/bpm/config.toml, a .env file, BPM_*
// environment variables and finally the global flags. See
// [github.com/badtechnologies/bpm/internal/config].
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context. User-facing output goes to stdout, logs to
// stderr.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/badtechnologies/bpm/internal/config"
	"github.com/badtechnologies/bpm/pkg/buildinfo"
	"github.com/badtechnologies/bpm/pkg/prompt"
	"github.com/badtechnologies/bpm/pkg/source"
)

// appName is the application name used for directories and display.
const appName = "bpm"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// ErrPackagesFailed is returned under --strict when at least one package
// could not be resolved, installed or removed.
var ErrPackagesFailed = errors.New("one or more packages failed")

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	flags globalFlags
	cfg   *config.Config
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	repo       string
	execDir    string
	baseURL    string
	timeout    time.Duration
	retries    int
	yes        bool
	strict     bool
	verbose    bool
}

// New creates a new CLI instance with a logger writing to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "bpm installs BadOS packages and their dependencies",
		Long: `bpm is the BadOS package manager. It discovers the dependencies of the
requested packages from a package library on GitHub, asks for confirmation,
and installs the package binaries into bdsh/exec.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	c.bindGlobalFlags(root)

	root.AddCommand(c.installCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Collaborator Factories
// =============================================================================

// newClient creates a source client from the loaded configuration. Download
// progress bars are drawn when stderr is a terminal.
func (c *CLI) newClient() *source.Client {
	opts := []source.Option{
		source.WithBaseURL(c.cfg.BaseURL),
		source.WithTimeout(c.cfg.Timeout.Duration),
	}
	if c.cfg.Retries > 0 {
		opts = append(opts, source.WithRetries(c.cfg.Retries, 0))
	}
	if isTerminal(c.Stderr) {
		opts = append(opts, source.WithProgress(downloadProgress(c.Stderr)))
	}
	return source.NewClient(opts...)
}

// confirmer returns the prompt used before changing the executable
// directory.
func (c *CLI) confirmer() prompt.Confirmer {
	if c.flags.yes {
		return prompt.Always(true)
	}
	if f, ok := c.Stdin.(*os.File); ok {
		return prompt.Auto(f, c.Stdout)
	}
	return prompt.NewLine(c.Stdin, c.Stdout)
}

// coordinates returns the configured source coordinates. The configuration
// is validated during setup, so parsing cannot fail here.
func (c *CLI) coordinates() source.Coordinates {
	coords, err := c.cfg.Coordinates()
	if err != nil {
		panic(fmt.Sprintf("unvalidated repo %q: %v", c.cfg.Repo, err))
	}
	return coords
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
