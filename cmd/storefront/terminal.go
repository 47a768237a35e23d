package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bakery/storefront/internal/platform/confirm"
	"github.com/bakery/storefront/internal/platform/feedback"
)

// termSink prints feedback messages as they are set. A printed line cannot
// be taken back, so Clear does nothing.
type termSink struct {
	w io.Writer
}

func (s termSink) Show(m feedback.Message) {
	mark := "✓"
	if m.Kind == feedback.KindFailure {
		mark = "✗"
	}
	fmt.Fprintf(s.w, "%s %s\n", mark, m.Text)
}

func (termSink) Clear() {}

// termAsker answers confirmation prompts from a line of input.
type termAsker struct {
	in  io.Reader
	out io.Writer
	yes bool
}

func (a termAsker) Ask(ctx context.Context, p confirm.Prompt) (bool, error) {
	if a.yes {
		return true, nil
	}
	fmt.Fprintf(a.out, "%s: %s [y/N] ", p.Title, p.Message)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(a.in).ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case ans := <-ch:
		if ans.err != nil && !errors.Is(ans.err, io.EOF) {
			return false, fmt.Errorf("read answer: %w", ans.err)
		}
		return isYes(ans.line), nil
	}
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...interface{}) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}
