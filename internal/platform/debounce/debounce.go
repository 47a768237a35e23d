// Package debounce delays reacting to input until it has been quiet for a
// window, so a burst of keystrokes costs one backend request.
package debounce

import (
	"sort"
	"sync"
	"time"

	"github.com/bakery/storefront/internal/platform/clock"
)

// DefaultWindow is the quiescence window used by every search box.
const DefaultWindow = 500 * time.Millisecond

type options struct {
	clock clock.Clock
}

type Option func(*options)

func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

func buildOptions(opts []Option) options {
	o := options{clock: clock.Real{}}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Value holds a raw input and its debounced counterpart. onSettle runs when
// the settled value changes, on the clock's callback goroutine.
type Value[T comparable] struct {
	mu       sync.Mutex
	clock    clock.Clock
	window   time.Duration
	raw      T
	settled  T
	timer    clock.Timer
	gen      uint64
	onSettle func(T)

	// inflight counts onSettle calls still running; idle signals zero.
	inflight int
	idle     *sync.Cond
}

func NewValue[T comparable](window time.Duration, onSettle func(T), opts ...Option) *Value[T] {
	if window <= 0 {
		window = DefaultWindow
	}
	o := buildOptions(opts)
	v := &Value[T]{clock: o.clock, window: window, onSettle: onSettle}
	v.idle = sync.NewCond(&v.mu)
	return v
}

// Set records x and restarts the quiescence window.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.raw = x
	if v.timer != nil {
		v.timer.Stop()
	}
	v.gen++
	gen := v.gen
	v.timer = v.clock.AfterFunc(v.window, func() { v.settle(gen) })
}

// Flush settles the current raw value without waiting.
func (v *Value[T]) Flush() {
	v.mu.Lock()
	if v.timer != nil {
		v.timer.Stop()
	}
	v.gen++
	gen := v.gen
	v.mu.Unlock()
	v.settle(gen)
}

// Stop drops any pending settle.
func (v *Value[T]) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.gen++
}

func (v *Value[T]) settle(gen uint64) {
	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		return
	}
	v.timer = nil
	changed := v.raw != v.settled
	v.settled = v.raw
	x := v.settled
	fn := v.onSettle
	run := changed && fn != nil
	if run {
		v.inflight++
	}
	v.mu.Unlock()

	if !run {
		return
	}
	defer func() {
		v.mu.Lock()
		v.inflight--
		if v.inflight == 0 {
			v.idle.Broadcast()
		}
		v.mu.Unlock()
	}()
	fn(x)
}

// Wait blocks until every onSettle call already started has returned. It
// must not be called from onSettle.
func (v *Value[T]) Wait() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for v.inflight > 0 {
		v.idle.Wait()
	}
}

func (v *Value[T]) Raw() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.raw
}

func (v *Value[T]) Settled() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.settled
}

// Group debounces several named text inputs independently and calls onChange
// with every settled value whenever any one of them settles to a new value.
type Group struct {
	mu       sync.Mutex
	window   time.Duration
	opts     []Option
	values   map[string]*Value[string]
	onChange func(map[string]string)
}

func NewGroup(window time.Duration, onChange func(map[string]string), opts ...Option) *Group {
	return &Group{
		window:   window,
		opts:     opts,
		values:   make(map[string]*Value[string]),
		onChange: onChange,
	}
}

// Set updates the raw value of the named input.
func (g *Group) Set(name, x string) {
	g.value(name).Set(x)
}

// Flush settles every input immediately.
func (g *Group) Flush() {
	for _, name := range g.names() {
		g.value(name).Flush()
	}
}

// Wait blocks until no input's onChange call is running.
func (g *Group) Wait() {
	for _, name := range g.names() {
		g.value(name).Wait()
	}
}

// Settled returns the settled value of every input seen so far.
func (g *Group) Settled() map[string]string {
	out := make(map[string]string)
	for _, name := range g.names() {
		out[name] = g.value(name).Settled()
	}
	return out
}

func (g *Group) value(name string) *Value[string] {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.values[name]
	if !ok {
		v = NewValue(g.window, func(string) {
			if g.onChange != nil {
				g.onChange(g.Settled())
			}
		}, g.opts...)
		g.values[name] = v
	}
	return v
}

func (g *Group) names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, 0, len(g.values))
	for n := range g.values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
