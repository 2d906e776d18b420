package engine

import "github.com/finitefield-org/browser-tester/jsscript"

// DumpDOM serializes sel's subtree as HTML, or the whole document if
// sel is empty.
func (rt *Runtime) DumpDOM(sel string) (string, error) {
	if sel == "" {
		return rt.doc.AsNode().OuterHTML(), nil
	}
	el, err := rt.find(sel)
	if err != nil {
		return "", err
	}
	return el.AsNode().OuterHTML(), nil
}

// SetEventTraceEnabled toggles whether dispatch emits [event] trace
// lines.
func (rt *Runtime) SetEventTraceEnabled(v bool) { rt.trc.eventsOn = v }

// SetTimerTraceEnabled toggles whether the scheduler emits [timer]
// trace lines.
func (rt *Runtime) SetTimerTraceEnabled(v bool) { rt.trc.timersOn = v }

// TakeTraceLogs drains and returns every trace line buffered since the
// last call.
func (rt *Runtime) TakeTraceLogs() []string { return rt.trc.take() }

// SetRandomSeed sets the seed that jsscript gives to script
// interpreters created afterwards (a mock-navigation page swap creates
// one). The interpreter of the document already loaded keeps its
// current random state.
func (rt *Runtime) SetRandomSeed(seed uint64) { jsscript.SetRandomSeed(seed) }
