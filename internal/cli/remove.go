package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/badtechnologies/bpm/pkg/catalog"
	"github.com/badtechnologies/bpm/pkg/installer"
)

// removeCommand creates the remove command.
func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <package>...",
		Aliases: []string{"rm", "uninstall"},
		Short:   "Remove installed packages",
		Long: `Remove deletes the binaries of the named packages from the executable
directory. Dependencies are left in place.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRemove(cmd.Context(), args)
		},
	}
}

func (c *CLI) runRemove(ctx context.Context, ids []string) error {
	logger := loggerFromContext(ctx)

	ok, err := c.confirmer().Confirm(ctx, catalog.Summarize("Remove", ids))
	if err != nil {
		return err
	}
	if !ok {
		logger.Debug("remove declined")
		return nil
	}

	prog := newProgress(logger)
	inst := installer.New(nil, installer.Options{
		Dir:    c.cfg.ExecDir,
		Out:    c.Stdout,
		Logger: logger.Debugf,
	})
	report, err := inst.Remove(ctx, ids)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Transaction %s finished", report.ID))

	printNewline(c.Stdout)
	printRemoveSummary(c.Stdout, report)
	return c.strictErr(report.Failed())
}

func printRemoveSummary(w io.Writer, r *installer.Report) {
	removed := r.Count(installer.StatusRemoved)
	if failed := r.Failed(); failed > 0 {
		printWarning(w, "Removed %d package(s), %d failed", removed, failed)
	} else {
		printSuccess(w, "Removed %d package(s)", removed)
	}
	if missing := r.Count(installer.StatusNotFound); missing > 0 {
		printDetail(w, "%d package(s) were not installed", missing)
	}
}
