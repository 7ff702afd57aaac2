// Package resolver discovers the transitive dependencies of requested
// packages.
//
// # Walk
//
// [Resolver.Resolve] expands the requested identifiers breadth-first, one
// frontier pass at a time, fetching each descriptor sequentially through a
// [Fetcher] (normally a [github.com/badtechnologies/bpm/pkg/source.Client]).
// Resolved packages are collected into a
// [github.com/badtechnologies/bpm/pkg/catalog.Catalog] in discovery order.
// The result is not topologically sorted.
//
// # Duplicates and cycles
//
// A visited set keyed on identifier ensures each package is fetched and
// expanded once. Packages reachable through several paths (diamonds) and
// dependency cycles therefore terminate.
//
// Setting [Options.Revisit] restores a walk that fetches every occurrence of
// an identifier. Such a walk re-expands shared dependencies and loops forever
// on a cycle, so it stops after [Options.MaxFetches] fetches with
// [ErrFetchLimit].
//
// # Failures
//
// Per-package failures (not found, unexpected status, malformed metadata,
// network errors) are passed to the [Reporter] and treated as a package with
// no dependencies. Only cancellation and the revisit fetch limit end a walk
// early.
//
//	r := resolver.New(client, resolver.Options{Reporter: resolver.NewTextReporter(os.Stdout)})
//	cat, err := r.Resolve(ctx, []string{"alpha"}, coords)
package resolver
