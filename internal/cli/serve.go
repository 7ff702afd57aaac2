package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/badtechnologies/bpm/pkg/registry"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		root string
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a local package library",
		Long: `Serve exposes a package library checkout in the same URL layout as the
raw GitHub host, so that other bpm instances can install from it with
--base-url. The directory must contain lib/<id>/bpl.json entries. Files are
served under the coordinates selected with --repo.

A JSON package listing is available at /api/packages?query=<text>.`,
		Example: `  bpm serve --root ./bpl --addr :8080
  bpm --base-url http://localhost:8080 install hello`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd.Context(), root, addr)
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "package library directory")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, root, addr string) error {
	logger := loggerFromContext(ctx)

	info, err := os.Stat(filepath.Join(root, "lib"))
	if err != nil || !info.IsDir() {
		printWarning(c.Stdout, "%s has no lib directory; every package will be missing", root)
	}

	srv := registry.NewServer(root, c.coordinates(), registry.WithLogger(logger))
	printInfo(c.Stdout, "Serving %s as %s on %s", StyleHighlight.Render(root), srv.Coordinates(), StyleHighlight.Render(addr))

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	logger.Debug("registry stopped")
	// A clean shutdown only happens on interrupt.
	return ctx.Err()
}
