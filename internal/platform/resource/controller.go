// Package resource implements the fetch, mutate, re-fetch cycle shared by
// every admin and clinic screen.
package resource

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/confirm"
	"github.com/bakery/storefront/internal/platform/feedback"
	"github.com/bakery/storefront/pkg/pagination"
)

// ErrSuperseded is returned by List when a newer List started before this one
// finished; its response was discarded.
var ErrSuperseded = errors.New("list superseded by a newer request")

// Status is the outcome of the last list fetch.
type Status int

const (
	StatusIdle Status = iota
	StatusOK
	StatusEmpty
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Snapshot is what a screen renders. On StatusError, Items still holds the
// last successful fetch.
type Snapshot[T any] struct {
	Items  []T
	Total  int
	Page   int
	Limit  int
	Status Status
	Err    error
	Query  Query
}

// Paging is the page the snapshot shows. What the backend reported wins over
// what the query asked for; pagination defaults fill whatever neither says.
func (s Snapshot[T]) Paging() pagination.Params {
	page, limit := s.Page, s.Limit
	if page == 0 {
		page = s.Query.Page
	}
	if limit == 0 {
		limit = s.Query.Limit
	}
	p := pagination.New(page, limit)
	if s.Limit > 0 {
		// Unpaginated endpoints report every item as one page, which may be
		// larger than the request cap.
		p.Limit = s.Limit
	}
	return p
}

// HasPrevious reports whether a "previous" control should be enabled.
func (s Snapshot[T]) HasPrevious() bool { return s.Paging().HasPrevious() }

// HasNext reports whether a "next" control should be enabled.
func (s Snapshot[T]) HasNext() bool { return s.Paging().HasNext(s.Total) }

// Messages are the feedback texts for one collection.
type Messages struct {
	Created      string
	Updated      string
	Deleted      string
	CreateFailed string
	UpdateFailed string
	DeleteFailed string
	ListFailed   string
}

// DefaultMessages builds generic texts around a singular noun.
func DefaultMessages(noun string) Messages {
	return Messages{
		Created:      noun + " created",
		Updated:      noun + " updated",
		Deleted:      noun + " deleted",
		CreateFailed: "could not create " + noun,
		UpdateFailed: "could not update " + noun,
		DeleteFailed: "could not delete " + noun,
		ListFailed:   "could not load " + noun + " list",
	}
}

type settings struct {
	feedback *feedback.Channel
	gate     *confirm.Gate
	logger   zerolog.Logger
	messages *Messages
	onSaved  func()
}

type Option func(*settings)

func WithFeedback(ch *feedback.Channel) Option { return func(s *settings) { s.feedback = ch } }

func WithGate(g *confirm.Gate) Option { return func(s *settings) { s.gate = g } }

func WithLogger(l zerolog.Logger) Option { return func(s *settings) { s.logger = l } }

func WithMessages(m Messages) Option { return func(s *settings) { s.messages = &m } }

// WithOnSaved registers a hook run after a successful create or update, where
// a screen resets its form and closes its editor.
func WithOnSaved(fn func()) Option { return func(s *settings) { s.onSaved = fn } }

// Controller owns the local copy of one remote collection.
type Controller[T any] struct {
	name     string
	endpoint Endpoint[T]
	fb       *feedback.Channel
	gate     *confirm.Gate
	logger   zerolog.Logger
	msgs     Messages
	onSaved  func()

	mu     sync.Mutex
	snap   Snapshot[T]
	query  Query
	gen    uint64
	cancel context.CancelFunc
}

func New[T any](name string, endpoint Endpoint[T], opts ...Option) *Controller[T] {
	s := settings{logger: zerolog.Nop()}
	for _, o := range opts {
		o(&s)
	}
	if s.gate == nil {
		s.gate = confirm.NewGate()
	}
	msgs := DefaultMessages(name)
	if s.messages != nil {
		msgs = *s.messages
	}
	return &Controller[T]{
		name:     name,
		endpoint: endpoint,
		fb:       s.feedback,
		gate:     s.gate,
		logger:   s.logger.With().Str("resource", name).Logger(),
		msgs:     msgs,
		onSaved:  s.onSaved,
	}
}

// Gate exposes the confirmation gate guarding deletes.
func (c *Controller[T]) Gate() *confirm.Gate { return c.gate }

// Snapshot returns the current local state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Items is shorthand for Snapshot().Items.
func (c *Controller[T]) Items() []T {
	return c.Snapshot().Items
}

// List fetches the collection with q. Starting a List cancels the one still
// in flight, and a response that arrives after a newer List began is dropped
// with ErrSuperseded.
func (c *Controller[T]) List(ctx context.Context, q Query) (Snapshot[T], error) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.query = q
	c.mu.Unlock()
	defer cancel()

	page, err := c.endpoint.List(ctx, q)

	c.mu.Lock()
	if gen != c.gen {
		snap := c.snap
		c.mu.Unlock()
		c.logger.Debug().Uint64("generation", gen).Msg("discarding superseded list response")
		return snap, ErrSuperseded
	}
	c.cancel = nil

	if err != nil {
		c.snap.Status = StatusError
		c.snap.Err = err
		c.snap.Query = q
		snap := c.snap
		c.mu.Unlock()

		c.logger.Warn().Err(err).Msg("list failed")
		c.fail(err, c.msgs.ListFailed)
		return snap, err
	}

	status := StatusOK
	if len(page.Items) == 0 {
		status = StatusEmpty
	}
	c.snap = Snapshot[T]{Items: page.Items, Total: page.Total, Page: page.Page, Limit: page.Limit, Status: status, Query: q}
	snap := c.snap
	c.mu.Unlock()
	return snap, nil
}

// Refresh repeats the last List query.
func (c *Controller[T]) Refresh(ctx context.Context) (Snapshot[T], error) {
	c.mu.Lock()
	q := c.query
	c.mu.Unlock()
	return c.List(ctx, q)
}

// Create posts payload and, on success, refreshes the list once.
func (c *Controller[T]) Create(ctx context.Context, payload interface{}) error {
	if err := c.endpoint.Create(ctx, payload); err != nil {
		c.logger.Warn().Err(err).Msg("create failed")
		c.fail(err, c.msgs.CreateFailed)
		return err
	}
	c.saved(ctx, c.msgs.Created)
	return nil
}

// Update sends payload for id and, on success, refreshes the list once.
func (c *Controller[T]) Update(ctx context.Context, id string, payload interface{}) error {
	if err := c.endpoint.Update(ctx, id, payload); err != nil {
		c.logger.Warn().Err(err).Str("id", id).Msg("update failed")
		c.fail(err, c.msgs.UpdateFailed)
		return err
	}
	c.saved(ctx, c.msgs.Updated)
	return nil
}

// RequestDelete arms the gate; the DELETE is only sent once the gate is
// confirmed.
func (c *Controller[T]) RequestDelete(id, title, message string) {
	c.gate.Request(title, message, func(ctx context.Context) error {
		return c.remove(ctx, id)
	})
}

func (c *Controller[T]) remove(ctx context.Context, id string) error {
	if err := c.endpoint.Delete(ctx, id); err != nil {
		c.logger.Warn().Err(err).Str("id", id).Msg("delete failed")
		c.fail(err, c.msgs.DeleteFailed)
		return err
	}
	c.refreshThen(ctx, c.msgs.Deleted)
	return nil
}

func (c *Controller[T]) saved(ctx context.Context, msg string) {
	if c.onSaved != nil {
		c.onSaved()
	}
	c.refreshThen(ctx, msg)
}

// refreshThen refetches and reports msg unless the refetch itself failed and
// already reported.
func (c *Controller[T]) refreshThen(ctx context.Context, msg string) {
	_, err := c.Refresh(ctx)
	if err != nil && !errors.Is(err, ErrSuperseded) {
		return
	}
	if c.fb != nil {
		c.fb.Success(msg)
	}
}

func (c *Controller[T]) fail(err error, fallback string) {
	if c.fb != nil {
		c.fb.Failure(apiclient.Message(err, fallback))
	}
}

// Loader fetches one collection for a screen.
type Loader func(ctx context.Context) error

// LoadAll runs every loader concurrently and returns once all have settled,
// so a screen renders once. A failing loader does not cancel the others; the
// first error is returned.
func LoadAll(ctx context.Context, loaders ...Loader) error {
	var g errgroup.Group
	for _, load := range loaders {
		load := load
		g.Go(func() error { return load(ctx) })
	}
	return g.Wait()
}
