package resource

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bakery/storefront/internal/platform/debounce"
)

// SearchField is the text input mapped to Query.Search; any other field name
// is sent as an extra query parameter of the same name.
const SearchField = "q"

// ErrNoPage is returned when a page move would leave the collection: before
// page one or past the last page of the current result.
var ErrNoPage = errors.New("no such page")

// Search binds debounced text inputs and immediate filters to a controller's
// List. Each settled change re-lists from page one.
type Search[T any] struct {
	ctx      context.Context
	ctrl     *Controller[T]
	inputs   *debounce.Group
	onResult func(Snapshot[T], error)

	mu    sync.Mutex
	query Query
}

// NewSearch wires text inputs to ctrl. ctx bounds every List issued from a
// settle; onResult, if set, receives each outcome.
func NewSearch[T any](ctx context.Context, ctrl *Controller[T], window time.Duration, onResult func(Snapshot[T], error), opts ...debounce.Option) *Search[T] {
	s := &Search[T]{ctx: ctx, ctrl: ctrl, onResult: onResult}
	s.inputs = debounce.NewGroup(window, s.settled, opts...)
	return s
}

// Type records raw text for field; the list is fetched once typing pauses.
func (s *Search[T]) Type(field, text string) {
	s.inputs.Set(field, text)
}

// Flush settles every pending text input now and returns once every settled
// search, including ones a timer already started, has listed and reported.
func (s *Search[T]) Flush() {
	s.inputs.Flush()
	s.inputs.Wait()
}

// Filter changes non-text filters and re-lists immediately.
func (s *Search[T]) Filter(apply func(q *Query)) (Snapshot[T], error) {
	s.mu.Lock()
	apply(&s.query)
	if s.query.Page > 0 {
		s.query.Page = 1
	}
	q := s.query
	s.mu.Unlock()
	return s.run(q)
}

// Goto re-lists the current filters at page. Once a result is known, pages
// past its last one are refused with ErrNoPage and nothing is fetched.
func (s *Search[T]) Goto(page int) (Snapshot[T], error) {
	snap := s.ctrl.Snapshot()
	if page < 1 || (snap.Status != StatusIdle && page > snap.Paging().Last(snap.Total)) {
		return snap, ErrNoPage
	}
	s.mu.Lock()
	s.query.Page = page
	q := s.query
	s.mu.Unlock()
	return s.run(q)
}

// Next lists the page after the current result, or returns ErrNoPage on
// the last one.
func (s *Search[T]) Next() (Snapshot[T], error) {
	snap := s.ctrl.Snapshot()
	if !snap.HasNext() {
		return snap, ErrNoPage
	}
	return s.Goto(snap.Paging().Page + 1)
}

// Previous lists the page before the current result, or returns ErrNoPage on
// the first one.
func (s *Search[T]) Previous() (Snapshot[T], error) {
	snap := s.ctrl.Snapshot()
	if !snap.HasPrevious() {
		return snap, ErrNoPage
	}
	return s.Goto(snap.Paging().Page - 1)
}

// Query returns the filters currently applied.
func (s *Search[T]) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.query
	q.Extra = cloneValues(q.Extra)
	return q
}

func (s *Search[T]) settled(values map[string]string) {
	s.mu.Lock()
	for field, text := range values {
		if field == SearchField {
			s.query.Search = text
			continue
		}
		if s.query.Extra == nil {
			s.query.Extra = map[string][]string{}
		}
		s.query.Extra[field] = []string{text}
	}
	if s.query.Page > 0 {
		s.query.Page = 1
	}
	q := s.query
	q.Extra = cloneValues(q.Extra)
	s.mu.Unlock()

	s.run(q)
}

func (s *Search[T]) run(q Query) (Snapshot[T], error) {
	snap, err := s.ctrl.List(s.ctx, q)
	if s.onResult != nil {
		s.onResult(snap, err)
	}
	return snap, err
}

func cloneValues(v map[string][]string) map[string][]string {
	if v == nil {
		return nil
	}
	out := make(map[string][]string, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
