package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/badtechnologies/bpm/pkg/catalog"
	"github.com/badtechnologies/bpm/pkg/observability"
	"github.com/badtechnologies/bpm/pkg/source"
)

// DefaultMaxFetches bounds a revisit walk when no limit is configured.
const DefaultMaxFetches = 10000

// ErrFetchLimit is returned by [Resolver.Resolve] in revisit mode when the
// walk performed MaxFetches fetches without draining the frontier. The
// partial catalog is returned alongside it.
var ErrFetchLimit = errors.New("fetch limit reached before the dependency walk finished")

// Fetcher retrieves a package descriptor from a source.
type Fetcher interface {
	FetchPackage(ctx context.Context, id string, coords source.Coordinates) (*source.Package, error)
}

// Options configures a walk.
type Options struct {
	// Revisit fetches every occurrence of an identifier instead of only the
	// first. A dependency cycle then never drains the frontier, so the walk
	// is cut off after MaxFetches fetches. A re-fetched identifier replaces
	// its catalog entry, so the catalog, and anything installed from it,
	// still lists each identifier once; [catalog.Catalog.Repeats] counts the
	// extra fetches.
	Revisit bool

	// MaxFetches caps the number of fetches in revisit mode. Zero means
	// DefaultMaxFetches. Ignored otherwise.
	MaxFetches int

	// Reporter receives per-identifier diagnostics. Nil discards them.
	Reporter Reporter
}

// WithDefaults returns a copy of o with zero fields filled in.
func (o Options) WithDefaults() Options {
	if o.MaxFetches <= 0 {
		o.MaxFetches = DefaultMaxFetches
	}
	if o.Reporter == nil {
		o.Reporter = Discard
	}
	return o
}

// Resolver discovers the transitive dependencies of requested packages.
type Resolver struct {
	fetcher Fetcher
	opts    Options
}

// New creates a Resolver that reads descriptors through fetcher.
func New(fetcher Fetcher, opts Options) *Resolver {
	return &Resolver{fetcher: fetcher, opts: opts.WithDefaults()}
}

// Resolve walks the dependency graph of ids breadth-first, one frontier pass
// at a time, and returns every package that resolved, in discovery order.
//
// The requested identifiers form the first frontier. Each successful fetch
// adds the package to the catalog and queues its requires list for the next
// pass. A failed fetch is reported and contributes nothing further; it never
// aborts the walk. Coordinates apply to every package, requested or
// transitive.
//
// By default an identifier is fetched once; later occurrences are reported
// as duplicates, which makes cycles and diamonds terminate. See
// [Options.Revisit] for the fetch-every-occurrence walk. In either mode the
// catalog holds each identifier at most once.
//
// The only errors returned are ctx.Err() on cancellation and [ErrFetchLimit].
func (r *Resolver) Resolve(ctx context.Context, ids []string, coords source.Coordinates) (*catalog.Catalog, error) {
	w := &walk{
		ctx:     ctx,
		opts:    r.opts,
		fetcher: r.fetcher,
		coords:  coords,
		cat:     catalog.New(),
		visited: make(map[string]bool),
		hooks:   observability.Resolve(),
	}

	start := time.Now()
	err := w.run(ids)
	w.hooks.OnResolveComplete(ctx, w.cat.Len(), w.failed, time.Since(start), err)
	return w.cat, err
}

type walk struct {
	ctx     context.Context
	opts    Options
	fetcher Fetcher
	coords  source.Coordinates
	hooks   observability.ResolveHooks

	cat     *catalog.Catalog
	visited map[string]bool
	fetches int
	failed  int
}

func (w *walk) run(roots []string) error {
	frontier := roots
	for pass := 0; len(frontier) > 0; pass++ {
		var next []string
		for _, id := range frontier {
			if err := w.ctx.Err(); err != nil {
				return err
			}
			deps, err := w.process(id, pass)
			if err != nil {
				return err
			}
			next = append(next, deps...)
		}
		frontier = next
	}
	return nil
}

// process fetches id and returns the identifiers it contributes to the next
// frontier.
func (w *walk) process(id string, pass int) ([]string, error) {
	if w.visited[id] && !w.opts.Revisit {
		w.opts.Reporter.Duplicate(id)
		return nil, nil
	}
	if w.opts.Revisit && w.fetches >= w.opts.MaxFetches {
		return nil, ErrFetchLimit
	}
	w.visited[id] = true
	w.fetches++

	w.hooks.OnFetch(w.ctx, id, pass)
	start := time.Now()
	pkg, err := w.fetcher.FetchPackage(w.ctx, id, w.coords)
	w.hooks.OnFetchComplete(w.ctx, id, time.Since(start), err)

	if err != nil {
		if ctxErr := w.ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		w.failed++
		w.opts.Reporter.Failed(id, err)
		return nil, nil
	}

	w.opts.Reporter.Found(id, pkg)
	w.cat.Add(pkg)
	for _, dep := range pkg.Requires {
		w.cat.AddEdge(id, dep)
	}
	return pkg.Requires, nil
}
