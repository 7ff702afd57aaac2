package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/badtechnologies/bpm/pkg/catalog"
	"github.com/badtechnologies/bpm/pkg/installer"
	"github.com/badtechnologies/bpm/pkg/resolver"
	"github.com/badtechnologies/bpm/pkg/source"
)

// resolveFlags controls the dependency walk for install and graph.
type resolveFlags struct {
	revisit        bool
	maxFetches     int
	showDuplicates bool
}

func (f *resolveFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.revisit, "revisit", false, "fetch every occurrence of an identifier instead of once per run (each package is still installed once)")
	cmd.Flags().IntVar(&f.maxFetches, "max-fetches", resolver.DefaultMaxFetches, "fetch limit for --revisit walks")
	cmd.Flags().BoolVar(&f.showDuplicates, "show-duplicates", false, "report identifiers that were already discovered")
}

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var rf resolveFlags

	cmd := &cobra.Command{
		Use:     "install <package>...",
		Aliases: []string{"i", "add"},
		Short:   "Install packages and their dependencies",
		Long: `Install resolves the requested packages and everything they require,
asks for confirmation, and downloads each package binary into the
executable directory. Existing binaries are overwritten.`,
		Example: `  bpm install hello
  bpm install -y -r me/bpl/dev hello world`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInstall(cmd.Context(), args, rf)
		},
	}

	rf.bind(cmd)
	return cmd
}

func (c *CLI) runInstall(ctx context.Context, ids []string, rf resolveFlags) error {
	logger := loggerFromContext(ctx)
	client := c.newClient()

	cat, resolveFailed, err := c.resolve(ctx, client, ids, rf, c.Stdout)
	if err != nil {
		return err
	}
	printNewline(c.Stdout)

	if cat.Len() == 0 {
		printWarning(c.Stdout, "No packages to install")
		return c.strictErr(resolveFailed)
	}

	ok, err := c.confirmer().Confirm(ctx, cat.Summary("Install"))
	if err != nil {
		return err
	}
	if !ok {
		logger.Debug("install declined")
		return nil
	}

	prog := newProgress(logger)
	inst := installer.New(client, installer.Options{
		Dir:    c.cfg.ExecDir,
		Out:    c.Stdout,
		Logger: logger.Debugf,
	})
	report, err := inst.Install(ctx, cat.Packages())
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Transaction %s finished", report.ID))

	printNewline(c.Stdout)
	printInstallSummary(c.Stdout, report, inst.Dir())
	return c.strictErr(resolveFailed + report.Failed())
}

// resolve prints the discovery lines for ids to w and returns the catalog
// along with the number of identifiers that failed to resolve. Hitting the
// revisit fetch limit is reported as a warning and the partial catalog is
// returned.
func (c *CLI) resolve(ctx context.Context, f resolver.Fetcher, ids []string, rf resolveFlags, w io.Writer) (*catalog.Catalog, int, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	fmt.Fprintln(w, "Discovering packages and dependencies...")
	text := resolver.NewTextReporter(w)
	text.ShowDuplicates = rf.showDuplicates
	counter := &failureCounter{Reporter: text}

	r := resolver.New(f, resolver.Options{
		Revisit:    rf.revisit,
		MaxFetches: rf.maxFetches,
		Reporter:   counter,
	})
	cat, err := r.Resolve(ctx, ids, c.coordinates())
	switch {
	case errors.Is(err, resolver.ErrFetchLimit):
		printWarning(w, "Stopped after %d fetches; the dependency graph may be incomplete", rf.maxFetches)
	case err != nil:
		return nil, 0, err
	}
	if rf.revisit {
		for _, id := range cat.IDs() {
			if n := cat.Repeats(id); n > 0 {
				printDetail(w, "%s: discovered %d times, kept once", id, n+1)
			}
		}
	}

	prog.done(fmt.Sprintf("Resolved %d package(s)", cat.Len()))
	return cat, counter.failed, nil
}

// failureCounter counts failed identifiers while forwarding every
// diagnostic.
type failureCounter struct {
	resolver.Reporter
	failed int
}

func (r *failureCounter) Failed(id string, err error) {
	r.failed++
	r.Reporter.Failed(id, err)
}

// strictErr turns per-package failures into a command error under --strict.
func (c *CLI) strictErr(failed int) error {
	if c.flags.strict && failed > 0 {
		return fmt.Errorf("%w: %d failure(s)", ErrPackagesFailed, failed)
	}
	return nil
}

func printInstallSummary(w io.Writer, r *installer.Report, dir string) {
	installed := r.Count(installer.StatusInstalled)
	if failed := r.Failed(); failed > 0 {
		printWarning(w, "Installed %d package(s), %d failed", installed, failed)
	} else {
		printSuccess(w, "Installed %d package(s) into %s", installed, StyleHighlight.Render(dir))
	}
	if skipped := r.Count(installer.StatusSkipped); skipped > 0 {
		printDetail(w, "%d package(s) have no binary", skipped)
	}
}

var _ resolver.Fetcher = (*source.Client)(nil)
