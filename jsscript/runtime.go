package jsscript

import (
	"github.com/finitefield-org/browser-tester/dom"
	"github.com/finitefield-org/browser-tester/domevents"
	"github.com/finitefield-org/browser-tester/scheduler"
)

// Interp is the whole engine state for one document: the global
// environment, the document/event/scheduler handles a DOM script reads
// and mutates, and the mocked Collaborators a fetch/alert/prompt call
// routes through. One Interp per document, matching engine.Runtime's
// one-document-per-run model.
type Interp struct {
	global *environment

	doc    *dom.Document
	events *domevents.Registry
	sched  *scheduler.Scheduler
	collab Collaborators

	windowObj      *object
	windowDocument Value

	localStorage   map[string]string
	sessionStorage map[string]string

	lastExprValue Value
	randomState   uint64

	// ConsoleOutput, when non-nil, accumulates every console.*
	// invocation for tests/host inspection; emitConsole lazily
	// allocates the slice on first use so a caller that never touches
	// it pays nothing.
	ConsoleOutput *[]string
}

// NewInterp builds a script environment with no backing document,
// usable for evaluating plain expressions/statements against the
// builtin globals only (arithmetic, JSON, Array/String methods) — the
// DOM/event/timer/Promise bridges all require NewDOMInterp instead.
func NewInterp() *Interp {
	ip := &Interp{
		global:      newEnvironment(nil),
		randomState: defaultRandomSeed,
	}
	ip.global.isFunctionScope = true
	activeInterp = ip
	ip.installGlobals(ip.global)
	return ip
}

// NewDOMInterp wires an Interp to a live document, event registry, and
// scheduler, then installs every DOM/event/timer/FormData/
// MutationObserver/window global a script expects at top level —
// mirroring engine.Runtime.newDocument's one-time setup per document.
func NewDOMInterp(doc *dom.Document, events *domevents.Registry, sched *scheduler.Scheduler) *Interp {
	ip := &Interp{
		global:      newEnvironment(nil),
		doc:         doc,
		events:      events,
		sched:       sched,
		randomState: defaultRandomSeed,
	}
	ip.global.isFunctionScope = true
	activeInterp = ip
	ip.installGlobals(ip.global)
	ip.installWindowGlobals(ip.global)
	return ip
}
