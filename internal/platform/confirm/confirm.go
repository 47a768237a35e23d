// Package confirm gates destructive actions behind an explicit confirmation.
package confirm

import (
	"context"
	"errors"
	"sync"
)

// ErrNothingPending is returned by Confirm when no action is waiting.
var ErrNothingPending = errors.New("no action awaiting confirmation")

// Action runs once the user confirms.
type Action func(ctx context.Context) error

// Prompt is what a pending request shows the user.
type Prompt struct {
	Title   string
	Message string
}

// Gate is a two-state machine: Idle, or Pending with one prompt and action.
// A new Request replaces whatever was pending.
type Gate struct {
	mu      sync.Mutex
	pending *request
}

type request struct {
	prompt Prompt
	action Action
}

func NewGate() *Gate {
	return &Gate{}
}

// Request moves the gate to Pending.
func (g *Gate) Request(title, message string, action Action) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = &request{prompt: Prompt{Title: title, Message: message}, action: action}
}

// Pending returns the prompt waiting for an answer.
func (g *Gate) Pending() (Prompt, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return Prompt{}, false
	}
	return g.pending.prompt, true
}

// Cancel returns to Idle without running anything.
func (g *Gate) Cancel() {
	g.mu.Lock()
	g.pending = nil
	g.mu.Unlock()
}

// Confirm returns to Idle and runs the pending action exactly once.
func (g *Gate) Confirm(ctx context.Context) error {
	g.mu.Lock()
	req := g.pending
	g.pending = nil
	g.mu.Unlock()

	if req == nil {
		return ErrNothingPending
	}
	return req.action(ctx)
}

// Asker answers a prompt, for example by reading from a terminal.
type Asker interface {
	Ask(ctx context.Context, p Prompt) (bool, error)
}

// Resolve asks about the pending prompt and confirms or cancels accordingly.
// It reports whether the action ran.
func (g *Gate) Resolve(ctx context.Context, asker Asker) (bool, error) {
	p, ok := g.Pending()
	if !ok {
		return false, ErrNothingPending
	}
	yes, err := asker.Ask(ctx, p)
	if err != nil {
		g.Cancel()
		return false, err
	}
	if !yes {
		g.Cancel()
		return false, nil
	}
	return true, g.Confirm(ctx)
}
