// Package prompt asks the user to confirm an action.
//
// A [Confirmer] turns a prompt text into a yes/no decision. [Line] reads
// answers from any reader, [Terminal] captures single keypresses on an
// interactive terminal, and [Always] answers without asking, for
// non-interactive runs. [Auto] picks between Terminal and Line.
//
// Every prompter defaults to "no": an empty answer, end of input, or the
// enter key alone declines.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Suffix is appended to every prompt text.
const Suffix = "? [Y/n] "

// ErrInterrupted is returned when the user aborts a prompt with ctrl+c.
// It matches context.Canceled under errors.Is.
var ErrInterrupted = fmt.Errorf("prompt interrupted: %w", context.Canceled)

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, text string) (bool, error)
}

// Always returns a Confirmer that answers yes without prompting.
func Always(yes bool) Confirmer { return always(yes) }

type always bool

func (a always) Confirm(ctx context.Context, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return bool(a), nil
}

// Auto returns a Terminal prompter when in is an interactive terminal and a
// Line prompter otherwise.
func Auto(in *os.File, out io.Writer) Confirmer {
	if isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()) {
		return NewTerminal(in, out)
	}
	return NewLine(in, out)
}

// Line prompts on a writer and reads whole lines from a reader. Input is
// trimmed and lower-cased; "y" confirms, "n" or an empty line declines, and
// anything else repeats the prompt. End of input declines.
type Line struct {
	r   *bufio.Reader
	out io.Writer
}

// NewLine creates a Line prompter.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{r: bufio.NewReader(in), out: out}
}

// Confirm implements Confirmer.
func (l *Line) Confirm(ctx context.Context, text string) (bool, error) {
	for {
		fmt.Fprint(l.out, text+Suffix)

		line, err := l.readLine(ctx)
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		eof := err != nil

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y":
			return true, nil
		case "n":
			return false, nil
		case "":
			if eof {
				fmt.Fprintln(l.out)
			}
			return false, nil
		}
		if eof {
			fmt.Fprintln(l.out)
			return false, nil
		}
	}
}

// readLine blocks until a line arrives or ctx is done. A canceled read leaves
// its goroutine waiting on the reader.
func (l *Line) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := l.r.ReadString('\n')
		ch <- result{s, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}
