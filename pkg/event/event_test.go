package event

import (
	"testing"

	"lazyimg/pkg/html"
)

func TestDispatchOrderAndRemove(t *testing.T) {
	r := NewRegistry()
	img := html.NewElement("img")

	var calls []string
	r.Add(img, "lazyload-init", func(*Event) { calls = append(calls, "first") })
	remove := r.Add(img, "lazyload-init", func(*Event) { calls = append(calls, "second") })
	r.Add(img, Load, func(*Event) { calls = append(calls, "load") })

	ev := New("lazyload-init")
	if !r.Dispatch(img, ev) {
		t.Fatal("Dispatch should report that listeners ran")
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("calls = %v", calls)
	}
	if ev.Target != img || ev.TimeStamp.IsZero() {
		t.Errorf("target/timestamp not set: %+v", ev)
	}

	remove()
	remove()
	if r.Count(img, "lazyload-init") != 1 {
		t.Errorf("Count = %d, want 1", r.Count(img, "lazyload-init"))
	}
}

func TestDispatchDoesNotBubbleByDefault(t *testing.T) {
	r := NewRegistry()
	parent := html.NewElement("div")
	child := html.NewElement("img")
	parent.AddChild(child)

	parentCalls := 0
	r.Add(parent, Load, func(*Event) { parentCalls++ })

	if r.Dispatch(child, New(Load)) {
		t.Error("no listener on child, Dispatch should return false")
	}
	if parentCalls != 0 {
		t.Error("non-bubbling event reached the parent")
	}

	ev := New(Load)
	ev.Bubbles = true
	r.Dispatch(child, ev)
	if parentCalls != 1 {
		t.Errorf("bubbling event parent calls = %d, want 1", parentCalls)
	}
	if ev.Target != child || ev.CurrentTarget != parent {
		t.Errorf("target = %v, currentTarget = %v", ev.Target, ev.CurrentTarget)
	}
}

func TestStopPropagation(t *testing.T) {
	r := NewRegistry()
	parent := html.NewElement("div")
	child := html.NewElement("img")
	parent.AddChild(child)

	r.Add(child, "x", func(e *Event) { e.StopPropagation() })
	reached := false
	r.Add(parent, "x", func(*Event) { reached = true })

	ev := New("x")
	ev.Bubbles = true
	r.Dispatch(child, ev)
	if reached || !ev.Stopped() {
		t.Error("StopPropagation should keep the event off the parent")
	}
}

func TestBubblingIsBoundedOnCycles(t *testing.T) {
	r := NewRegistry()
	a := html.NewElement("div")
	b := html.NewElement("div")
	a.Parent, b.Parent = b, a

	n := 0
	r.Add(a, "x", func(*Event) { n++ })
	ev := New("x")
	ev.Bubbles = true
	r.Dispatch(a, ev)
	if n == 0 || n > MaxPropagationDepth {
		t.Errorf("listener ran %d times", n)
	}
}

func TestListenerAddedDuringDispatchWaits(t *testing.T) {
	r := NewRegistry()
	late := 0
	r.Add(nil, Scroll, func(*Event) {
		r.Add(nil, Scroll, func(*Event) { late++ })
	})
	r.Dispatch(nil, New(Scroll))
	if late != 0 {
		t.Error("listener added during dispatch ran in the same dispatch")
	}
	r.Dispatch(nil, New(Scroll))
	if late != 1 {
		t.Errorf("late = %d, want 1", late)
	}
}
