package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/bakery/storefront/internal/platform/resource"
)

// filterFunc applies a non-text filter named on an input line.
type filterFunc func(q *resource.Query, value string)

// watch feeds input lines to s until EOF. A line "field=value" sets that
// input and any other line sets defaultField. Fields listed in filters apply
// at once; "page=N" jumps to a page and "next" or "prev" turn it; everything
// else is debounced. Page moves past either end are refused on notes.
func watch[T any](in io.Reader, notes io.Writer, s *resource.Search[T], defaultField string, filters map[string]filterFunc) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "next":
			refused(notes, s.Next, "no next page")
			continue
		case "prev", "previous":
			refused(notes, s.Previous, "no previous page")
			continue
		}

		field, value := defaultField, line
		if k, v, ok := strings.Cut(line, "="); ok {
			field, value = strings.TrimSpace(k), strings.TrimSpace(v)
		}

		if field == "page" {
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid page %q", value)
			}
			refused(notes, func() (resource.Snapshot[T], error) { return s.Goto(n) }, "no page "+value)
			continue
		}
		if apply, ok := filters[field]; ok {
			s.Filter(func(q *resource.Query) { apply(q, value) })
			continue
		}
		s.Type(field, value)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	// Waits for searches already settled, so their results print before exit.
	s.Flush()
	return nil
}

func refused[T any](notes io.Writer, move func() (resource.Snapshot[T], error), text string) {
	if _, err := move(); errors.Is(err, resource.ErrNoPage) {
		fmt.Fprintln(notes, text)
	}
}

// renderer serializes result printing; settles arrive on timer goroutines.
func renderer[T any](render func(resource.Snapshot[T])) func(resource.Snapshot[T], error) {
	var mu sync.Mutex
	return func(snap resource.Snapshot[T], err error) {
		if errors.Is(err, resource.ErrSuperseded) || errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			// Already reported on the feedback line.
			return
		}
		mu.Lock()
		defer mu.Unlock()
		render(snap)
	}
}
