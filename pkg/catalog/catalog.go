// Package catalog accumulates the packages discovered during a single
// dependency walk.
//
// A [Catalog] maps identifiers to resolved packages. Each identifier appears
// at most once, and iteration follows insertion order so summaries list
// packages as they were discovered. A catalog is created per action, filled
// by the resolver, handed to the installer and then discarded; it is never
// persisted.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/badtechnologies/bpm/pkg/source"
)

// Edge is a declared dependency from one package to another. To may name a
// package that never resolved.
type Edge struct {
	From string
	To   string
}

// Catalog is an insertion-ordered set of resolved packages keyed by
// identifier. The zero value is not usable; call [New].
type Catalog struct {
	order   []string
	pkgs    map[string]*source.Package
	repeats map[string]int
	edges   []Edge
	seen    map[Edge]struct{}
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		pkgs:    make(map[string]*source.Package),
		repeats: make(map[string]int),
		seen:    make(map[Edge]struct{}),
	}
}

// Add records pkg under its identifier and reports whether the identifier was
// new. Adding an identifier that is already present replaces the stored
// package in place, keeping its original position, and counts a repeat.
func (c *Catalog) Add(pkg *source.Package) bool {
	if _, ok := c.pkgs[pkg.ID]; ok {
		c.pkgs[pkg.ID] = pkg
		c.repeats[pkg.ID]++
		return false
	}
	c.pkgs[pkg.ID] = pkg
	c.order = append(c.order, pkg.ID)
	return true
}

// Get returns the package stored for id.
func (c *Catalog) Get(id string) (*source.Package, bool) {
	p, ok := c.pkgs[id]
	return p, ok
}

// Has reports whether id has been added.
func (c *Catalog) Has(id string) bool {
	_, ok := c.pkgs[id]
	return ok
}

// Len returns the number of distinct identifiers.
func (c *Catalog) Len() int { return len(c.order) }

// IDs returns the identifiers in discovery order.
func (c *Catalog) IDs() []string { return slices.Clone(c.order) }

// Packages returns the packages in discovery order.
func (c *Catalog) Packages() []*source.Package {
	out := make([]*source.Package, len(c.order))
	for i, id := range c.order {
		out[i] = c.pkgs[id]
	}
	return out
}

// Repeats returns how many times id was added after its first occurrence.
func (c *Catalog) Repeats(id string) int { return c.repeats[id] }

// AddEdge records that from declares a dependency on to. Repeated edges are
// stored once.
func (c *Catalog) AddEdge(from, to string) {
	e := Edge{From: from, To: to}
	if _, ok := c.seen[e]; ok {
		return
	}
	c.seen[e] = struct{}{}
	c.edges = append(c.edges, e)
}

// Edges returns the recorded dependency edges in the order they were found.
func (c *Catalog) Edges() []Edge { return slices.Clone(c.edges) }

// Summary formats the confirmation text for verb, e.g.
// "Install 2 package(s): alpha beta".
func (c *Catalog) Summary(verb string) string {
	return Summarize(verb, c.order)
}

// Summarize formats "<verb> N package(s): a b" for an arbitrary list of
// identifiers. An empty list yields a trailing ": ".
func Summarize(verb string, ids []string) string {
	return fmt.Sprintf("%s %d package(s): %s", verb, len(ids), strings.Join(ids, " "))
}
