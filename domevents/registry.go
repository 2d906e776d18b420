package domevents

import "github.com/finitefield-org/browser-tester/dom"

// Registry owns the listener Target for every node that has ever had a
// listener registered on it, and runs dispatch across the DOM tree.
type Registry struct {
	targets map[dom.Node]*Target
	hooks   TraceHooks
}

// TraceHooks lets a host (the engine) observe dispatch phase-by-phase
// and its final outcome, for its own trace-log text. OnPhase fires once
// per node the event reaches, before that node's listeners run; OnDone
// fires once Dispatch has decided its final outcome. Either field may
// be nil.
type TraceHooks struct {
	OnPhase func(ev *Event, node dom.Node)
	OnDone  func(ev *Event)
}

// SetTraceHooks installs the host's trace-log callbacks. Pass the zero
// value to detach them.
func (r *Registry) SetTraceHooks(h TraceHooks) { r.hooks = h }

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[dom.Node]*Target)}
}

func (r *Registry) targetFor(n dom.Node, create bool) *Target {
	if t, ok := r.targets[n]; ok {
		return t
	}
	if !create {
		return nil
	}
	t := NewTarget()
	r.targets[n] = t
	return t
}

// AddEventListener registers fn on n.
func (r *Registry) AddEventListener(n dom.Node, eventType string, key any, fn func(*Event), capture, once, passive bool) {
	r.targetFor(n, true).AddEventListener(eventType, key, fn, capture, once, passive)
}

// RemoveEventListener unregisters a listener previously added on n.
func (r *Registry) RemoveEventListener(n dom.Node, eventType string, key any, capture bool) {
	if t := r.targetFor(n, false); t != nil {
		t.RemoveEventListener(eventType, key, capture)
	}
}

// HasListeners reports whether n has any listener for eventType.
func (r *Registry) HasListeners(n dom.Node, eventType string) bool {
	t := r.targetFor(n, false)
	return t != nil && t.HasListeners(eventType)
}

// Dispatch runs capture, target, and (if ev.Bubbles) bubble phases for
// ev against target, invoking every matching listener found along the
// ancestor path at the moment dispatch reaches each node. It returns
// true unless a cancelable default action was prevented.
func (r *Registry) Dispatch(target dom.Node, ev *Event) bool {
	ev.Target = target

	var path []dom.Node // target's ancestors, innermost (parent) first
	for p := target.ParentNode(); !p.IsZero(); p = p.ParentNode() {
		path = append(path, p)
	}

	ev.Phase = PhaseCapturing
	for i := len(path) - 1; i >= 0; i-- {
		ev.CurrentTarget = path[i]
		r.trace(ev, path[i])
		r.invoke(path[i], ev)
		if ev.stopped {
			r.done(ev)
			return !ev.defaultPrevented
		}
	}

	ev.Phase = PhaseAtTarget
	ev.CurrentTarget = target
	r.trace(ev, target)
	r.invoke(target, ev)
	if ev.stopped || !ev.Bubbles {
		r.done(ev)
		return !ev.defaultPrevented
	}

	ev.Phase = PhaseBubbling
	for i := 0; i < len(path); i++ {
		ev.CurrentTarget = path[i]
		r.trace(ev, path[i])
		r.invoke(path[i], ev)
		if ev.stopped {
			break
		}
	}
	r.done(ev)
	return !ev.defaultPrevented
}

func (r *Registry) trace(ev *Event, node dom.Node) {
	if r.hooks.OnPhase != nil {
		r.hooks.OnPhase(ev, node)
	}
}

func (r *Registry) done(ev *Event) {
	if r.hooks.OnDone != nil {
		r.hooks.OnDone(ev)
	}
}

// invoke runs every listener on n that applies to ev.Phase, from a
// snapshot taken before any of them run. At the at-target phase every
// listener is eligible regardless of its capture flag: capture
// listeners run first, then the others, each group in insertion order.
func (r *Registry) invoke(n dom.Node, ev *Event) {
	t := r.targetFor(n, false)
	if t == nil {
		return
	}
	listeners := t.snapshot(ev.Type)
	if ev.Phase == PhaseAtTarget {
		ordered := make([]*Listener, 0, len(listeners))
		for _, l := range listeners {
			if l.capture {
				ordered = append(ordered, l)
			}
		}
		for _, l := range listeners {
			if !l.capture {
				ordered = append(ordered, l)
			}
		}
		listeners = ordered
	}
	for _, l := range listeners {
		switch ev.Phase {
		case PhaseCapturing:
			if !l.capture {
				continue
			}
		case PhaseBubbling:
			if l.capture {
				continue
			}
		}
		l.fn(ev)
		if l.once {
			t.removeByID(ev.Type, l.id)
		}
		if ev.stoppedImmediate {
			return
		}
	}
}
