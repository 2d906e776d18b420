package domevents

import (
	"testing"

	"github.com/finitefield-org/browser-tester/dom"
)

func buildTree() (doc *dom.Document, outer, inner dom.Element) {
	doc = dom.NewDocument()
	root := doc.AsNode()
	outer = doc.CreateElement("div")
	inner = doc.CreateElement("button")
	outer.AsNode().AppendChild(inner.AsNode())
	root.AppendChild(outer.AsNode())
	return
}

func TestDispatchRunsCaptureThenBubble(t *testing.T) {
	_, outer, inner := buildTree()
	reg := NewRegistry()
	var order []string

	reg.AddEventListener(outer.AsNode(), "click", "a", func(e *Event) { order = append(order, "outer-capture") }, true, false, false)
	reg.AddEventListener(inner.AsNode(), "click", "b", func(e *Event) { order = append(order, "inner-target") }, false, false, false)
	reg.AddEventListener(outer.AsNode(), "click", "c", func(e *Event) { order = append(order, "outer-bubble") }, false, false, false)

	reg.Dispatch(inner.AsNode(), &Event{Type: "click", Bubbles: true})

	want := []string{"outer-capture", "inner-target", "outer-bubble"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestStopPropagationStopsBeforeNextNode(t *testing.T) {
	_, outer, inner := buildTree()
	reg := NewRegistry()
	called := false

	reg.AddEventListener(inner.AsNode(), "click", "a", func(e *Event) { e.StopPropagation() }, false, false, false)
	reg.AddEventListener(outer.AsNode(), "click", "b", func(e *Event) { called = true }, false, false, false)

	reg.Dispatch(inner.AsNode(), &Event{Type: "click", Bubbles: true})
	if called {
		t.Error("expected bubble phase to stop before reaching outer")
	}
}

func TestStopImmediatePropagationStopsSameNodeListeners(t *testing.T) {
	_, _, inner := buildTree()
	reg := NewRegistry()
	secondCalled := false

	reg.AddEventListener(inner.AsNode(), "click", "a", func(e *Event) { e.StopImmediatePropagation() }, false, false, false)
	reg.AddEventListener(inner.AsNode(), "click", "b", func(e *Event) { secondCalled = true }, false, false, false)

	reg.Dispatch(inner.AsNode(), &Event{Type: "click", Bubbles: true})
	if secondCalled {
		t.Error("expected stopImmediatePropagation to prevent the second listener on the same node")
	}
}

func TestOnceListenerRemovedAfterFiring(t *testing.T) {
	_, _, inner := buildTree()
	reg := NewRegistry()
	count := 0

	reg.AddEventListener(inner.AsNode(), "click", "a", func(e *Event) { count++ }, false, true, false)
	reg.Dispatch(inner.AsNode(), &Event{Type: "click", Bubbles: true})
	reg.Dispatch(inner.AsNode(), &Event{Type: "click", Bubbles: true})

	if count != 1 {
		t.Fatalf("expected a 'once' listener to fire exactly once, got %d", count)
	}
}

func TestPreventDefaultOnlyAppliesWhenCancelable(t *testing.T) {
	_, _, inner := buildTree()
	reg := NewRegistry()
	reg.AddEventListener(inner.AsNode(), "click", "a", func(e *Event) { e.PreventDefault() }, false, false, false)

	notPrevented := reg.Dispatch(inner.AsNode(), &Event{Type: "click", Bubbles: true, Cancelable: false})
	if !notPrevented {
		t.Error("expected preventDefault to have no effect on a non-cancelable event")
	}

	prevented := reg.Dispatch(inner.AsNode(), &Event{Type: "click", Bubbles: true, Cancelable: true})
	if prevented {
		t.Error("expected preventDefault to be honored on a cancelable event")
	}
}

func TestClickActivationTogglesCheckbox(t *testing.T) {
	doc := dom.NewDocument()
	cb := doc.CreateElement("input")
	cb.SetAttribute("type", "checkbox")
	doc.AsNode().AppendChild(cb.AsNode())

	reg := NewRegistry()
	var changed bool
	reg.AddEventListener(cb.AsNode(), "change", "x", func(e *Event) { changed = true }, false, false, false)

	ClickActivationBehavior(reg, cb, 0)
	if !cb.Checked() {
		t.Error("expected checkbox to become checked")
	}
	if !changed {
		t.Error("expected a change event to fire")
	}
}

func TestClickActivationSkipsDisabledElement(t *testing.T) {
	doc := dom.NewDocument()
	cb := doc.CreateElement("input")
	cb.SetAttribute("type", "checkbox")
	cb.SetDisabled(true)
	doc.AsNode().AppendChild(cb.AsNode())

	reg := NewRegistry()
	ClickActivationBehavior(reg, cb, 0)
	if cb.Checked() {
		t.Error("expected a disabled checkbox not to activate")
	}
}
