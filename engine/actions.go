package engine

import (
	"github.com/finitefield-org/browser-tester/dom"
	"github.com/finitefield-org/browser-tester/domevents"
)

// TypeText sets a text-like control's value and dispatches the "input"
// event a real keystroke sequence would produce, collapsed to one step.
func (rt *Runtime) TypeText(sel, text string) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if err != nil {
		return err
	}
	if !isTextEntryControl(el) {
		return &TypeMismatchError{Selector: sel, Expected: "text-entry control", Actual: el.LocalName()}
	}
	el.SetValue(text)
	rt.dispatch(el.AsNode(), "input", true, false)
	return nil
}

func isTextEntryControl(el dom.Element) bool {
	switch el.LocalName() {
	case "textarea":
		return true
	case "input":
		return !el.IsCheckable() && el.InputType() != "submit" && el.InputType() != "reset" &&
			el.InputType() != "button" && el.InputType() != "file" && el.InputType() != "image"
	}
	return false
}

// SetChecked sets a checkbox/radio's checked state, dispatching "input"
// then "change" if the state actually flips, matching click activation.
func (rt *Runtime) SetChecked(sel string, checked bool) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if err != nil {
		return err
	}
	if !el.IsCheckable() {
		return &TypeMismatchError{Selector: sel, Expected: "checkbox or radio", Actual: el.LocalName()}
	}
	if el.Checked() == checked {
		return nil
	}
	if checked && el.InputType() == "radio" {
		unsetSiblingRadios(rt.doc, el)
	}
	el.SetChecked(checked)
	rt.dispatch(el.AsNode(), "input", true, false)
	rt.dispatch(el.AsNode(), "change", true, false)
	return nil
}

func unsetSiblingRadios(doc *dom.Document, radio dom.Element) {
	name := radio.GetAttribute("name")
	if name == "" {
		return
	}
	for _, el := range doc.AllElements() {
		if el.LocalName() == "input" && el.InputType() == "radio" && el.GetAttribute("name") == name && !el.AsNode().Equals(radio.AsNode()) {
			el.SetChecked(false)
		}
	}
}

// Click dispatches a trusted "click" and, unless prevented, runs the
// matching default action: checkbox/radio toggle, form submission, or
// anchor navigation. A disabled element never dispatches at all.
func (rt *Runtime) Click(sel string) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if err != nil {
		return err
	}
	if el.Disabled() {
		return nil
	}
	now := rt.sched.Now()
	ev := &domevents.Event{Type: "click", Bubbles: true, Cancelable: true, IsTrusted: true, TimeStampMs: now}
	if !rt.events.Dispatch(el.AsNode(), ev) {
		return nil
	}
	res := domevents.ClickActivationBehavior(rt.events, el, now)
	if !res.SubmitForm.IsZero() {
		domevents.RequestSubmitBehavior(rt.events, res.SubmitForm.AsElement(), now)
	}
	if res.NavigateHref != "" {
		rt.collab.LocationAssign(res.NavigateHref)
	}
	return nil
}

// PressEnter dispatches "keydown" for the Enter key and, for a
// text-entry control inside a form, triggers the same implicit
// submission a real browser performs.
func (rt *Runtime) PressEnter(sel string) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if err != nil {
		return err
	}
	now := rt.sched.Now()
	ev := &domevents.Event{Type: "keydown", Bubbles: true, Cancelable: true, IsTrusted: true, TimeStampMs: now, Detail: map[string]string{"key": "Enter"}}
	if !rt.events.Dispatch(el.AsNode(), ev) {
		return nil
	}
	if isTextEntryControl(el) {
		if form := enclosingForm(el); !form.IsZero() {
			domevents.RequestSubmitBehavior(rt.events, form.AsElement(), now)
		}
	}
	return nil
}

func enclosingForm(el dom.Element) dom.Node {
	for p := el.AsNode().ParentNode(); !p.IsZero(); p = p.ParentNode() {
		if pe := p.AsElement(); !pe.IsZero() && pe.LocalName() == "form" {
			return p
		}
	}
	return dom.Node{}
}

// Focus moves document focus to sel's element, dispatching "focus".
func (rt *Runtime) Focus(sel string) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if err != nil {
		return err
	}
	rt.setFocus(el)
	rt.dispatch(el.AsNode(), "focus", false, false)
	return nil
}

// Blur removes focus from sel's element, dispatching "blur".
func (rt *Runtime) Blur(sel string) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if err != nil {
		return err
	}
	el.SetFocused(false)
	if rt.focused.Equals(el.AsNode()) {
		rt.focused = dom.Node{}
	}
	rt.dispatch(el.AsNode(), "blur", false, false)
	return nil
}

// Submit runs the user-like form submission path (§4.4.b) against
// sel's <form>: validate required fields, dispatch "submit", then its
// default action.
func (rt *Runtime) Submit(sel string) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if err != nil {
		return err
	}
	if el.LocalName() != "form" {
		return &TypeMismatchError{Selector: sel, Expected: "form", Actual: el.LocalName()}
	}
	domevents.RequestSubmitBehavior(rt.events, el, rt.sched.Now())
	return nil
}

// Dispatch fires a harness-trusted, bubbling, cancelable event of the
// given type at sel's element, for tests that need a generic trigger
// beyond the named actions above.
func (rt *Runtime) Dispatch(sel, eventName string) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if err != nil {
		return err
	}
	rt.dispatch(el.AsNode(), eventName, true, true)
	return nil
}

func (rt *Runtime) dispatch(n dom.Node, eventType string, bubbles, cancelable bool) bool {
	ev := &domevents.Event{Type: eventType, Bubbles: bubbles, Cancelable: cancelable, IsTrusted: true, TimeStampMs: rt.sched.Now()}
	return rt.events.Dispatch(n, ev)
}
