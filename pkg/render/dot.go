package render

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/badtechnologies/bpm/pkg/catalog"
)

// Options configures graph generation.
type Options struct {
	// Detailed adds author and binary path to node labels.
	Detailed bool
}

// Format is an output format for a rendered graph.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// FormatFromPath picks the output format from a file extension. Unknown or
// missing extensions yield FormatSVG.
func FormatFromPath(path string) Format {
	switch Format(strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))) {
	case FormatDOT, "gv":
		return FormatDOT
	case FormatPNG:
		return FormatPNG
	case FormatPDF:
		return FormatPDF
	}
	return FormatSVG
}

// ToDOT converts a resolved catalog into Graphviz DOT source. Nodes follow
// discovery order; edges follow the order they were declared.
func ToDOT(cat *catalog.Catalog, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, p := range cat.Packages() {
		label := p.ID + "\n" + p.Version
		if opts.Detailed {
			label += "\n" + p.Author
			if p.Bin != "" {
				label += "\n" + p.Bin
			}
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", p.ID, label)
	}

	missing := make(map[string]bool)
	for _, e := range cat.Edges() {
		if !cat.Has(e.To) && !missing[e.To] {
			missing[e.To] = true
			fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,dashed\", fontcolor=grey40];\n", e.To, e.To)
		}
	}

	buf.WriteString("\n")
	for _, e := range cat.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// Render produces dot in the requested format.
func Render(ctx context.Context, dot string, format Format) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG, FormatPDF:
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		if format == FormatPNG {
			return ToPNG(ctx, svg, 2.0)
		}
		return ToPDF(ctx, svg)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales with its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
