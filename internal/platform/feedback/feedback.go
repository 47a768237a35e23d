// Package feedback is the single-slot status line shown after an action.
package feedback

import (
	"sync"
	"time"

	"github.com/bakery/storefront/internal/platform/clock"
)

// DefaultDelay is how long a message stays visible.
const DefaultDelay = 3 * time.Second

type Kind int

const (
	KindSuccess Kind = iota
	KindFailure
)

func (k Kind) String() string {
	if k == KindFailure {
		return "failure"
	}
	return "success"
}

type Message struct {
	Kind Kind
	Text string
}

// Sink renders the channel. Show and Clear are called without the channel's
// lock held, one at a time, in the order the transitions happened.
type Sink interface {
	Show(Message)
	Clear()
}

// Channel holds at most one message. A new message replaces the old one and
// restarts the single clear timer.
type Channel struct {
	mu      sync.Mutex
	clock   clock.Clock
	delay   time.Duration
	sink    Sink
	current *Message
	timer   clock.Timer
	gen     uint64

	// pending holds sink calls queued under mu; whichever caller finds
	// draining unset delivers them all.
	pending  []*Message
	draining bool
}

type Option func(*Channel)

func WithClock(c clock.Clock) Option { return func(ch *Channel) { ch.clock = c } }

func WithSink(s Sink) Option { return func(ch *Channel) { ch.sink = s } }

func New(delay time.Duration, opts ...Option) *Channel {
	if delay <= 0 {
		delay = DefaultDelay
	}
	ch := &Channel{clock: clock.Real{}, delay: delay}
	for _, o := range opts {
		o(ch)
	}
	return ch
}

func (c *Channel) Success(text string) { c.Set(Message{Kind: KindSuccess, Text: text}) }

func (c *Channel) Failure(text string) { c.Set(Message{Kind: KindFailure, Text: text}) }

// Set shows m now and schedules it to clear after the channel's delay.
func (c *Channel) Set(m Message) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	msg := m
	c.current = &msg
	c.timer = c.clock.AfterFunc(c.delay, func() { c.expire(gen) })
	c.enqueue(&msg)
	c.mu.Unlock()
	c.drain()
}

// expire clears the slot only if no newer message arrived since gen was
// issued; a Stop that lost the race with the timer lands here harmlessly.
func (c *Channel) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.current == nil {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.timer = nil
	c.enqueue(nil)
	c.mu.Unlock()
	c.drain()
}

// Clear removes the current message immediately.
func (c *Channel) Clear() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.current != nil {
		c.enqueue(nil)
	}
	c.current = nil
	c.gen++
	c.mu.Unlock()
	c.drain()
}

// enqueue records a Show, or a Clear when m is nil. Callers hold mu.
func (c *Channel) enqueue(m *Message) {
	if c.sink != nil {
		c.pending = append(c.pending, m)
	}
}

// drain delivers queued sink calls in order unless another caller already is.
// A sink that calls back into the channel only queues more work for the loop.
func (c *Channel) drain() {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	for len(c.pending) > 0 {
		m := c.pending[0]
		c.pending = c.pending[1:]
		sink := c.sink
		c.mu.Unlock()

		if m != nil {
			sink.Show(*m)
		} else {
			sink.Clear()
		}
		c.mu.Lock()
	}
	c.draining = false
	c.mu.Unlock()
}

// Current returns the visible message, if any.
func (c *Channel) Current() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Message{}, false
	}
	return *c.current, true
}
