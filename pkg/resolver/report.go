package resolver

import (
	"errors"
	"fmt"
	"io"

	bpmerrors "github.com/badtechnologies/bpm/pkg/errors"
	"github.com/badtechnologies/bpm/pkg/source"
)

// Reporter receives diagnostics as the walk visits identifiers.
// Diagnostics are informational; they never change the result.
type Reporter interface {
	// Found is called after id resolved to pkg.
	Found(id string, pkg *source.Package)
	// Failed is called when id could not be resolved.
	Failed(id string, err error)
	// Duplicate is called for an identifier that was already visited.
	Duplicate(id string)
}

// Discard is a Reporter that drops everything.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Found(string, *source.Package) {}
func (discard) Failed(string, error)          {}
func (discard) Duplicate(string)              {}

// TextReporter writes one tab-indented line per found or failed identifier:
//
//	alpha: found 'Alpha' v1.0
//	ghost: does not exist or could not be found
//
// Duplicates are silent unless ShowDuplicates is set.
type TextReporter struct {
	W              io.Writer
	ShowDuplicates bool
}

// NewTextReporter returns a TextReporter writing to w.
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{W: w}
}

func (r *TextReporter) Found(id string, pkg *source.Package) {
	fmt.Fprintf(r.W, "\t%s: found '%s' v%s\n", id, pkg.Name, pkg.Version)
}

// Failed prints the error's own message when it names the package, and
// prefixes the identifier otherwise. An underlying cause is appended.
func (r *TextReporter) Failed(id string, err error) {
	var e *bpmerrors.Error
	if errors.As(err, &e) && e.Package != "" {
		if e.Cause != nil {
			fmt.Fprintf(r.W, "\t%s: %v\n", e.Message, e.Cause)
			return
		}
		fmt.Fprintf(r.W, "\t%s\n", e.Message)
		return
	}
	fmt.Fprintf(r.W, "\t%s: %v\n", id, err)
}

func (r *TextReporter) Duplicate(id string) {
	if r.ShowDuplicates {
		fmt.Fprintf(r.W, "\t%s: already discovered\n", id)
	}
}
