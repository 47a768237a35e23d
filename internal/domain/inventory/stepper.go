package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/feedback"
)

var ErrNotLoaded = errors.New("inventory not loaded")

// State tracks an optimistic row against the server.
type State int

const (
	StateCommitted State = iota
	StatePending
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFailed:
		return "failed"
	default:
		return "committed"
	}
}

// Entry is one row as the stepper shows it. Quantity is what the user sees;
// Committed is the last value the server acknowledged.
type Entry struct {
	Row
	Committed int
	State     State
	Err       error

	seq uint64
}

// Stepper adjusts one product's per-location stock with optimistic updates.
// A write shows immediately, then either reconciles with the server's row or
// rolls back to the last committed quantity. It never re-lists.
type Stepper struct {
	client *apiclient.Client
	fb     *feedback.Channel
	logger zerolog.Logger

	mu        sync.Mutex
	productID string
	entries   []Entry
}

type StepperOption func(*Stepper)

func WithFeedback(ch *feedback.Channel) StepperOption { return func(s *Stepper) { s.fb = ch } }

func WithLogger(l zerolog.Logger) StepperOption { return func(s *Stepper) { s.logger = l } }

func NewStepper(client *apiclient.Client, opts ...StepperOption) *Stepper {
	s := &Stepper{client: client, logger: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load fetches productID's rows and replaces local state.
func (s *Stepper) Load(ctx context.Context, productID string) error {
	var rows []Row
	if err := s.client.Get(ctx, productInventoryPath(productID), nil, &rows); err != nil {
		if s.fb != nil {
			s.fb.Failure(apiclient.Message(err, "could not load inventory"))
		}
		return fmt.Errorf("load inventory for %s: %w", productID, err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, Entry{Row: r, Committed: r.Quantity})
	}

	s.mu.Lock()
	s.productID = productID
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// Entries returns a copy of the rows in load order.
func (s *Stepper) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Quantity is the displayed quantity at locationID; zero when no row exists.
func (s *Stepper) Quantity(locationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(locationID); i >= 0 {
		return s.entries[i].Quantity
	}
	return 0
}

// Adjust moves the quantity at locationID by delta, clamped at zero. The
// new quantity is computed from the displayed one under the same lock that
// marks the row pending, so concurrent steps all count.
func (s *Stepper) Adjust(ctx context.Context, locationID string, delta int) (Entry, error) {
	return s.write(ctx, locationID, func(cur int) int {
		if next := cur + delta; next > 0 {
			return next
		}
		return 0
	})
}

// Set writes an absolute quantity at locationID.
func (s *Stepper) Set(ctx context.Context, locationID string, qty int) (Entry, error) {
	if qty < 0 {
		return Entry{}, ErrNegativeQuantity
	}
	return s.write(ctx, locationID, func(int) int { return qty })
}

// write shows to(displayed) at locationID at once, then posts it.
func (s *Stepper) write(ctx context.Context, locationID string, to func(cur int) int) (Entry, error) {
	s.mu.Lock()
	if s.productID == "" {
		s.mu.Unlock()
		return Entry{}, ErrNotLoaded
	}
	productID := s.productID
	i := s.find(locationID)
	if i < 0 {
		s.entries = append(s.entries, Entry{Row: Row{LocationID: locationID, ProductID: productID}})
		i = len(s.entries) - 1
	}
	e := &s.entries[i]
	qty := to(e.Quantity)
	e.seq++
	seq := e.seq
	e.Quantity = qty
	e.State = StatePending
	e.Err = nil
	s.mu.Unlock()

	var row Row
	body := map[string]interface{}{"location_id": locationID, "quantity": qty}
	err := s.client.Post(ctx, productInventoryPath(productID), body, &row)

	s.mu.Lock()
	i = s.find(locationID)
	if i < 0 || s.productID != productID {
		// Reloaded for another product while the write was in flight.
		s.mu.Unlock()
		return Entry{}, err
	}
	e = &s.entries[i]
	latest := e.seq == seq
	if err != nil {
		if latest {
			e.Quantity = e.Committed
			e.State = StateFailed
			e.Err = err
		}
		out := *e
		s.mu.Unlock()

		s.logger.Warn().Err(err).
			Str("product_id", productID).
			Str("location_id", locationID).
			Int("quantity", qty).
			Msg("inventory write failed, rolled back")
		if s.fb != nil {
			s.fb.Failure(apiclient.Message(err, "could not update inventory"))
		}
		return out, err
	}

	committed := qty
	if row.LocationID != "" {
		committed = row.Quantity
	}
	e.Committed = committed
	if latest {
		e.Quantity = committed
		e.State = StateCommitted
		if row.LocationName != "" {
			e.LocationName = row.LocationName
		}
	}
	out := *e
	s.mu.Unlock()
	return out, nil
}

func (s *Stepper) find(locationID string) int {
	for i := range s.entries {
		if s.entries[i].LocationID == locationID {
			return i
		}
	}
	return -1
}
