// Package engine integrates the DOM arena, selector engine, script
// evaluator, event dispatcher, and scheduler behind the harness-facing
// Core API: named actions and assertions over a single loaded document,
// plus the mock collaborators (fetch, clipboard, dialogs, matchMedia,
// location, downloads, file inputs) the script environment calls out to.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/finitefield-org/browser-tester/cssselect"
	"github.com/finitefield-org/browser-tester/dom"
	"github.com/finitefield-org/browser-tester/domevents"
	"github.com/finitefield-org/browser-tester/htmlload"
	"github.com/finitefield-org/browser-tester/jsscript"
	"github.com/finitefield-org/browser-tester/scheduler"
)

// Runtime is one harness instance: its own document, listener registry,
// scheduler, script interpreter, and collaborator mocks. Runtimes never
// share state with each other.
type Runtime struct {
	cfg Config
	log *zap.SugaredLogger

	doc    *dom.Document
	events *domevents.Registry
	sched  *scheduler.Scheduler
	interp *jsscript.Interp
	collab *collaborators
	trc    trace

	focused dom.Node
}

// New builds a Runtime with no document loaded yet; call Load before
// running any action.
func New(opts ...Option) *Runtime {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger, _ := zap.NewProduction()
	rt := &Runtime{
		cfg:    cfg,
		log:    logger.Sugar(),
		sched:  scheduler.New(cfg.StepLimit),
		collab: nil,
	}
	rt.collab = newCollaborators(rt)
	rt.installTimerTraceHooks()
	if cfg.Seed != 0 {
		jsscript.SetRandomSeed(cfg.Seed)
	}
	rt.newDocument(cfg.BaseURL)
	return rt
}

// newDocument replaces the runtime's document, listener registry, and
// interpreter with a fresh set bound together, preserving the scheduler
// and collaborator mocks (a navigation swap keeps pending timers and
// recorded mock state; only the DOM and its listeners reset).
func (rt *Runtime) newDocument(url string) {
	rt.doc = dom.NewDocument()
	rt.doc.SetURL(url)
	rt.events = domevents.NewRegistry()
	rt.interp = jsscript.NewDOMInterp(rt.doc, rt.events, rt.sched)
	rt.interp.SetCollaborators(rt.collab)
	rt.focused = dom.Node{}
	rt.installEventTraceHooks()
}

// Load parses source as a full HTML document and runs every inline
// script (one with no "src" attribute) in document order. Scripts with
// a "src" attribute are indexed but not fetched or executed: this
// runtime never performs real network I/O.
func (rt *Runtime) Load(source, sourceName string) (err error) {
	defer rt.recoverInto(&err)
	scripts, err := htmlload.Load(rt.doc, source, sourceName)
	if err != nil {
		return err
	}
	return rt.runScripts(scripts)
}

func (rt *Runtime) runScripts(scripts []dom.Element) error {
	for _, s := range scripts {
		if s.HasAttribute("src") {
			rt.log.Debugw("skipping external script", "src", s.GetAttribute("src"))
			continue
		}
		if _, err := rt.interp.Run(s.AsNode().TextContent()); err != nil {
			return err
		}
	}
	return nil
}

// swapDocument replaces the current document with one parsed from html,
// as a location mock's "page swap" — used by the collaborators' mock
// navigation, never by a real network fetch.
func (rt *Runtime) swapDocument(url, html string) {
	rt.newDocument(url)
	if err := rt.Load(html, url); err != nil {
		rt.log.Errorw("page-mock swap failed to load", "url", url, "error", err)
	}
}

func (rt *Runtime) installTimerTraceHooks() {
	rt.sched.SetTraceHooks(scheduler.TraceHooks{
		OnSchedule: func(kind string, id int, dueAt, delayMs int64) {
			if rt.trc.timersOn {
				rt.trc.emit(fmt.Sprintf("[timer] schedule %s id=%d due_at=%d delay_ms=%d", kind, id, dueAt, delayMs))
			}
		},
		OnRun: func(id int, dueAt int64, intervalMs int64, nowMs int64) {
			rt.trc.timerRunHits++
			if rt.trc.timersOn {
				rt.trc.emit(fmt.Sprintf("[timer] run id=%d due_at=%d interval_ms=%s now_ms=%d", id, dueAt, timerKindLabel(intervalMs), nowMs))
			}
		},
	})
}

// find resolves sel to its first matching element, or a
// *SelectorNotFoundError / *cssselect.UnsupportedSelectorError.
func (rt *Runtime) find(sel string) (dom.Element, error) {
	el, err := cssselect.QueryFirst(rt.doc.AsNode(), sel)
	if err != nil {
		return dom.Element{}, err
	}
	if el.IsZero() {
		return dom.Element{}, &SelectorNotFoundError{Selector: sel}
	}
	return el, nil
}

// recoverInto turns a panic inside a Runtime method into an
// *InternalError instead of crashing the caller, by deferred use:
// defer rt.recoverInto(&err).
func (rt *Runtime) recoverInto(err *error) {
	if r := recover(); r != nil {
		rt.log.Errorw("recovered panic", "panic", r)
		*err = &InternalError{Cause: r}
	}
}

// setFocus moves document focus to el, clearing it from whatever
// element held it before.
func (rt *Runtime) setFocus(el dom.Element) {
	if !rt.focused.IsZero() {
		if prev := rt.focused.AsElement(); !prev.IsZero() {
			prev.SetFocused(false)
		}
	}
	el.SetFocused(true)
	rt.focused = el.AsNode()
}
