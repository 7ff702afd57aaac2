// Package render draws the dependency graph discovered by a resolve.
//
// [ToDOT] turns a [catalog.Catalog] into Graphviz DOT source: one box per
// resolved package, labeled with its identifier and version, and one arrow
// per declared dependency. Dependencies that never resolved are drawn as
// dashed boxes so missing packages stand out.
//
//	dot := render.ToDOT(cat, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// SVG is rendered in-process with [github.com/goccy/go-graphviz]. PDF and PNG
// are converted from SVG by the external rsvg-convert tool (librsvg).
package render
