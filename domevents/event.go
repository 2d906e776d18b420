// Package domevents implements DOM event dispatch: capture, target, and
// bubble phases over a fixed ancestor path, snapshot-iterated listener
// lists so add/remove during dispatch never disturbs the traversal
// already in flight, and the usual stopPropagation/
// stopImmediatePropagation/preventDefault semantics.
package domevents

import "github.com/finitefield-org/browser-tester/dom"

// Phase identifies where in dispatch an event currently is.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

// Event is a single dispatch's mutable state. Handlers read Target,
// CurrentTarget, and Phase, and call PreventDefault/StopPropagation/
// StopImmediatePropagation to influence what happens next.
type Event struct {
	Type          string
	Target        dom.Node
	CurrentTarget dom.Node
	Phase         Phase
	Bubbles       bool
	Cancelable    bool
	Composed      bool
	IsTrusted     bool
	TimeStampMs   int64
	Detail        any

	defaultPrevented bool
	stopped          bool
	stoppedImmediate bool
}

// PreventDefault marks the event so a cancelable default action (form
// submission, checkbox toggling, anchor navigation) does not run. A
// no-op if the event is not cancelable.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether PreventDefault has been called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation prevents the event from reaching any node beyond the
// current one in the dispatch path, but lets every remaining listener
// already registered on the current node still run.
func (e *Event) StopPropagation() { e.stopped = true }

// StopImmediatePropagation stops both further propagation and any
// remaining listener on the current node.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedImmediate = true
}

// PropagationStopped reports whether StopPropagation (or
// StopImmediatePropagation) has been called.
func (e *Event) PropagationStopped() bool { return e.stopped }

// ImmediatePropagationStopped reports whether StopImmediatePropagation
// has been called.
func (e *Event) ImmediatePropagationStopped() bool { return e.stoppedImmediate }
