// Package event implements DOM-style events: per-node listener lists,
// synchronous dispatch in registration order, and optional bubbling.
package event

import (
	"sync"
	"time"

	"lazyimg/pkg/html"
)

// Event types dispatched by the engine.
const (
	Load   = "load"
	Error  = "error"
	Scroll = "scroll"
	Resize = "resize"
)

// MaxPropagationDepth bounds the bubbling walk so a corrupted tree with a
// parent cycle cannot hang dispatch.
const MaxPropagationDepth = 1024

type Event struct {
	Type          string
	Target        *html.Node // nil for window events
	CurrentTarget *html.Node
	Bubbles       bool
	TimeStamp     time.Time
	Detail        any
	Err           error // set on "error" events

	stopped bool
}

// New returns a non-bubbling event of the given type, like `new Event(type)`.
func New(typ string) *Event {
	return &Event{Type: typ}
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() { e.stopped = true }

// Stopped reports whether StopPropagation was called.
func (e *Event) Stopped() bool { return e.stopped }

// Listener handles a dispatched event.
type Listener func(*Event)

type registration struct {
	id int
	fn Listener
}

type key struct {
	node *html.Node
	typ  string
}

// Registry holds listeners keyed by (node, type). A nil node addresses the
// window. The zero value is not usable; use NewRegistry.
type Registry struct {
	mu        sync.Mutex
	next      int
	listeners map[key][]registration
	now       func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		listeners: make(map[key][]registration),
		now:       time.Now,
	}
}

// Add registers fn and returns a function that removes it again.
func (r *Registry) Add(node *html.Node, typ string, fn Listener) (remove func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := r.next
	k := key{node, typ}
	r.listeners[k] = append(r.listeners[k], registration{id: id, fn: fn})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		regs := r.listeners[k]
		for i, reg := range regs {
			if reg.id == id {
				r.listeners[k] = append(regs[:i:i], regs[i+1:]...)
				break
			}
		}
		if len(r.listeners[k]) == 0 {
			delete(r.listeners, k)
		}
	}
}

// Count returns the number of listeners for (node, typ).
func (r *Registry) Count(node *html.Node, typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners[key{node, typ}])
}

// Dispatch delivers ev to node's listeners and, if ev.Bubbles, to each
// ancestor's. Listeners run synchronously on the caller's goroutine.
// Listeners added during dispatch do not see the current event. Returns
// true if at least one listener ran.
func (r *Registry) Dispatch(node *html.Node, ev *Event) bool {
	ev.Target = node
	if ev.TimeStamp.IsZero() {
		ev.TimeStamp = r.now()
	}
	ran := false
	cur := node
	for depth := 0; depth < MaxPropagationDepth; depth++ {
		ev.CurrentTarget = cur
		for _, reg := range r.snapshot(cur, ev.Type) {
			reg.fn(ev)
			ran = true
		}
		if !ev.Bubbles || ev.stopped || cur == nil || cur.Parent == nil {
			break
		}
		cur = cur.Parent
	}
	return ran
}

func (r *Registry) snapshot(node *html.Node, typ string) []registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	regs := r.listeners[key{node, typ}]
	out := make([]registration, len(regs))
	copy(out, regs)
	return out
}
