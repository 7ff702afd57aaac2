package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/badtechnologies/bpm/pkg/render"
)

type graphFlags struct {
	resolveFlags
	output   string
	detailed bool
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var gf graphFlags

	cmd := &cobra.Command{
		Use:   "graph <package>...",
		Short: "Draw the dependency graph of packages",
		Long: `Graph resolves the requested packages the same way install does and
draws the result. The output format follows the extension of --output:
.dot/.gv, .svg, .png or .pdf (png and pdf need rsvg-convert). Without
--output, DOT source is written to stdout.

Nothing is installed.`,
		Example: `  bpm graph hello -o hello.svg
  bpm graph hello | dot -Tpng > hello.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), args, gf)
		},
	}

	gf.bind(cmd)
	cmd.Flags().StringVarP(&gf.output, "output", "o", "", "output file (default: DOT on stdout)")
	cmd.Flags().BoolVar(&gf.detailed, "detailed", false, "show author and binary path on each node")
	return cmd
}

func (c *CLI) runGraph(ctx context.Context, ids []string, gf graphFlags) error {
	logger := loggerFromContext(ctx)

	// Discovery lines go to stderr so stdout stays valid DOT.
	cat, failed, err := c.resolve(ctx, c.newClient(), ids, gf.resolveFlags, c.Stderr)
	if err != nil {
		return err
	}
	dot := render.ToDOT(cat, render.Options{Detailed: gf.detailed})

	if gf.output == "" {
		fmt.Fprint(c.Stdout, dot)
		return c.strictErr(failed)
	}

	format := render.FormatFromPath(gf.output)
	logger.Debug("rendering graph", "format", format, "nodes", cat.Len())

	var data []byte
	if format == render.FormatDOT {
		data = []byte(dot)
	} else {
		data, err = c.renderWithSpinner(ctx, dot, format)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(gf.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", gf.output, err)
	}
	printSuccess(c.Stdout, "Graph of %d package(s) written", cat.Len())
	printFile(c.Stdout, gf.output)
	return c.strictErr(failed)
}

func (c *CLI) renderWithSpinner(ctx context.Context, dot string, format render.Format) ([]byte, error) {
	if isTerminal(c.Stderr) {
		s := newSpinner(ctx, c.Stderr, "Rendering "+string(format))
		s.Start()
		defer s.Stop()
	}
	return render.Render(ctx, dot, format)
}
