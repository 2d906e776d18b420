package engine

import (
	"fmt"
	"strings"

	"github.com/finitefield-org/browser-tester/dom"
	"github.com/finitefield-org/browser-tester/domevents"
)

// trace accumulates the exact ASCii trace-log lines §6.3 describes,
// independent of the zap diagnostics logger: this is a separate sink a
// test assertion reads back verbatim via take_trace_logs, not a
// human-facing debug stream.
type trace struct {
	lines        []string
	eventsOn     bool
	timersOn     bool
	timerRunHits int
}

func (t *trace) emit(line string) { t.lines = append(t.lines, line) }

// take drains and returns every buffered line.
func (t *trace) take() []string {
	out := t.lines
	t.lines = nil
	return out
}

// describeNode renders a deterministic, human-readable stand-in for a
// CSS selector identifying n: its id if it has one, else its tag name
// plus classes, else its node name lower-cased.
func describeNode(n dom.Node) string {
	if n.IsZero() {
		return "(none)"
	}
	el := n.AsElement()
	if el.IsZero() {
		return strings.ToLower(n.NodeName())
	}
	if id := el.Id(); id != "" {
		return "#" + id
	}
	desc := el.LocalName()
	for _, c := range strings.Fields(el.ClassName()) {
		desc += "." + c
	}
	return desc
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// installEventTraceHooks wires the domevents Registry's dispatch
// callbacks into the trace buffer, formatting each phase step and the
// terminal outcome line exactly as §6.3 specifies.
func (r *Runtime) installEventTraceHooks() {
	r.events.SetTraceHooks(domevents.TraceHooks{
		OnPhase: func(ev *domevents.Event, node dom.Node) {
			if !r.trc.eventsOn {
				return
			}
			phase := "target"
			switch ev.Phase {
			case domevents.PhaseCapturing:
				phase = "capture"
			case domevents.PhaseBubbling:
				phase = "bubble"
			}
			r.trc.emit(fmt.Sprintf("[event] %s target=%s current=%s phase=%s default_prevented=%s",
				ev.Type, describeNode(ev.Target), describeNode(node), phase, boolStr(ev.DefaultPrevented())))
		},
		OnDone: func(ev *domevents.Event) {
			if !r.trc.eventsOn {
				return
			}
			outcome := "completed"
			if ev.DefaultPrevented() {
				outcome = "prevented"
			}
			r.trc.emit(fmt.Sprintf("[event] done %s target=%s current=%s outcome=%s default_prevented=%s propagation_stopped=%s immediate_stopped=%s",
				ev.Type, describeNode(ev.Target), describeNode(ev.CurrentTarget), outcome,
				boolStr(ev.DefaultPrevented()), boolStr(ev.PropagationStopped()), boolStr(ev.ImmediatePropagationStopped())))
		},
	})
}

// timerKindLabel maps the scheduler's internal "none" interval marker to
// the exact literal §6.3 requires.
func timerKindLabel(intervalMs int64) string {
	if intervalMs < 0 {
		return "none"
	}
	return fmt.Sprintf("%d", intervalMs)
}
