package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	bpmerrors "github.com/badtechnologies/bpm/pkg/errors"
	"github.com/badtechnologies/bpm/pkg/observability"
	"github.com/badtechnologies/bpm/pkg/source"
)

// DefaultDir is the managed executable directory, relative to the working
// directory.
const DefaultDir = "bdsh/exec"

// FileMode is applied to every installed artifact.
const FileMode fs.FileMode = 0o755

// BinaryFetcher downloads package binaries.
type BinaryFetcher interface {
	FetchBinary(ctx context.Context, pkg *source.Package) ([]byte, error)
}

// Options configures an [Installer].
type Options struct {
	// Dir is the managed executable directory. Defaults to DefaultDir.
	Dir string
	// Out receives the progress lines. Nil discards them.
	Out io.Writer
	// Logger receives debug messages. Nil discards them.
	Logger func(format string, args ...any)
}

// WithDefaults returns a copy of o with zero fields filled in.
func (o Options) WithDefaults() Options {
	if o.Dir == "" {
		o.Dir = DefaultDir
	}
	if o.Out == nil {
		o.Out = io.Discard
	}
	if o.Logger == nil {
		o.Logger = func(string, ...any) {}
	}
	return o
}

// Installer writes package binaries into, and deletes them from, the managed
// executable directory. Artifacts are named after the package identifier,
// with no extension or version.
type Installer struct {
	fetcher BinaryFetcher
	opts    Options
}

// New creates an Installer that downloads binaries through fetcher.
func New(fetcher BinaryFetcher, opts Options) *Installer {
	return &Installer{fetcher: fetcher, opts: opts.WithDefaults()}
}

// Dir returns the managed executable directory.
func (in *Installer) Dir() string { return in.opts.Dir }

// Path returns the artifact path for id.
func (in *Installer) Path(id string) string { return filepath.Join(in.opts.Dir, id) }

// Install processes pkgs in order. Each package is independent: metadata-only
// packages are skipped, a failed download is reported and the next package
// is tried, and nothing already written is rolled back. A package listed
// twice is written twice.
//
// The returned error is non-nil only when ctx is canceled; the report then
// covers the packages processed so far.
func (in *Installer) Install(ctx context.Context, pkgs []*source.Package) (*Report, error) {
	rep := newReport()
	hooks := observability.Install()

	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		fmt.Fprintf(in.opts.Out, "Installing %s\n", pkg)

		size, err := in.install(ctx, pkg)
		if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
			return rep, ctxErr
		}
		hooks.OnInstall(ctx, rep.ID, pkg.ID, size, err)

		switch {
		case err != nil:
			in.printErr(err)
			rep.add(Outcome{ID: pkg.ID, Status: StatusFailed, Err: err})
		case size < 0:
			in.opts.Logger("%s: no binary declared, skipping", pkg.ID)
			rep.add(Outcome{ID: pkg.ID, Status: StatusSkipped})
		default:
			in.opts.Logger("%s: wrote %d bytes to %s", pkg.ID, size, in.Path(pkg.ID))
			rep.add(Outcome{ID: pkg.ID, Status: StatusInstalled, Size: size})
		}
	}
	return rep, nil
}

// install returns the number of bytes written, or -1 for a metadata-only
// package.
func (in *Installer) install(ctx context.Context, pkg *source.Package) (int, error) {
	if err := bpmerrors.ValidatePackageName(pkg.ID); err != nil {
		return 0, err
	}
	if !pkg.HasBinary() {
		return -1, nil
	}

	data, err := in.fetcher.FetchBinary(ctx, pkg)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(in.opts.Dir, 0o755); err != nil {
		return 0, bpmerrors.Wrap(bpmerrors.ErrCodeInternal, err, "create %s", in.opts.Dir)
	}
	path := in.Path(pkg.ID)
	if err := os.WriteFile(path, data, FileMode); err != nil {
		return 0, bpmerrors.Wrap(bpmerrors.ErrCodeInternal, err, "write %s", path)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, FileMode); err != nil {
		return 0, bpmerrors.Wrap(bpmerrors.ErrCodeInternal, err, "chmod %s", path)
	}
	return len(data), nil
}

// Remove deletes the artifact of each id. Missing artifacts are reported and
// skipped, which makes removal idempotent. Dependencies and dependents are
// not considered.
//
// The returned error is non-nil only when ctx is canceled.
func (in *Installer) Remove(ctx context.Context, ids []string) (*Report, error) {
	rep := newReport()
	hooks := observability.Install()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		fmt.Fprintf(in.opts.Out, "Deleting %s\n", id)

		err := in.remove(id)
		hooks.OnRemove(ctx, rep.ID, id, err)

		switch {
		case bpmerrors.Is(err, bpmerrors.ErrCodeArtifactNotFound):
			in.printErr(err)
			rep.add(Outcome{ID: id, Status: StatusNotFound, Err: err})
		case err != nil:
			in.printErr(err)
			rep.add(Outcome{ID: id, Status: StatusFailed, Err: err})
		default:
			rep.add(Outcome{ID: id, Status: StatusRemoved})
		}
	}
	return rep, nil
}

func (in *Installer) remove(id string) error {
	if err := bpmerrors.ValidatePackageName(id); err != nil {
		return err
	}
	path := in.Path(id)
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return bpmerrors.ArtifactNotFound(id)
	}
	if err != nil {
		return bpmerrors.Wrap(bpmerrors.ErrCodeInternal, err, "stat %s", path)
	}
	if info.IsDir() {
		return bpmerrors.New(bpmerrors.ErrCodeInternal, "%s is a directory", path)
	}
	if err := os.Remove(path); err != nil {
		return bpmerrors.Wrap(bpmerrors.ErrCodeInternal, err, "remove %s", path)
	}
	return nil
}

func (in *Installer) printErr(err error) {
	var e *bpmerrors.Error
	if errors.As(err, &e) && e.Cause == nil {
		fmt.Fprintf(in.opts.Out, "\t%s\n", e.Message)
		return
	}
	fmt.Fprintf(in.opts.Out, "\t%v\n", err)
}
