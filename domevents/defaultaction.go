package domevents

import "github.com/finitefield-org/browser-tester/dom"

// ActivationResult describes what a "click" activation behavior wants
// the caller (the engine, which owns form submission and navigation)
// to do once dispatch has run and DefaultPrevented() is false.
type ActivationResult struct {
	SubmitForm    dom.Node // zero if no form submission is triggered
	NavigateHref  string   // non-empty if an <a> activation should navigate
	ChangeFired   bool     // a "change" event was dispatched as part of activation
}

// ClickActivationBehavior applies the built-in default action for a
// click on el — checkbox/radio toggling plus its companion "input" and
// "change" events, and identifying (without performing) form
// submission or anchor navigation so the engine's Core API can carry
// those out with its own collaborator mocks. A disabled element never
// activates.
func ClickActivationBehavior(reg *Registry, el dom.Element, nowMs int64) ActivationResult {
	var res ActivationResult
	if el.Disabled() {
		return res
	}

	if el.LocalName() == "input" && el.IsCheckable() {
		if el.InputType() == "radio" {
			unsetSiblingRadios(el)
			el.SetChecked(true)
		} else {
			el.SetChecked(!el.Checked())
		}
		reg.Dispatch(el.AsNode(), &Event{Type: "input", Bubbles: true, IsTrusted: true, TimeStampMs: nowMs})
		reg.Dispatch(el.AsNode(), &Event{Type: "change", Bubbles: true, IsTrusted: true, TimeStampMs: nowMs})
		res.ChangeFired = true
	}

	if form := enclosingForm(el); !form.IsZero() && isSubmitControl(el) {
		res.SubmitForm = form
	}

	if el.LocalName() == "a" {
		if href, ok := el.GetAttributeOK("href"); ok && href != "" {
			res.NavigateHref = href
		}
	}

	return res
}

func unsetSiblingRadios(radio dom.Element) {
	form := enclosingForm(radio)
	name := radio.GetAttribute("name")
	if name == "" {
		return
	}
	var root dom.Node
	if !form.IsZero() {
		root = form
	} else {
		root = radio.AsNode().GetRootNode()
	}
	var walk func(dom.Node)
	walk = func(n dom.Node) {
		for _, c := range n.ChildNodes() {
			if ce := c.AsElement(); !ce.IsZero() {
				if ce.LocalName() == "input" && ce.InputType() == "radio" && ce.GetAttribute("name") == name {
					ce.SetChecked(false)
				}
				walk(c)
			}
		}
	}
	walk(root)
}

func enclosingForm(el dom.Element) dom.Node {
	for p := el.AsNode().ParentNode(); !p.IsZero(); p = p.ParentNode() {
		if pe := p.AsElement(); !pe.IsZero() && pe.LocalName() == "form" {
			return p
		}
	}
	return dom.Node{}
}

func isSubmitControl(el dom.Element) bool {
	if el.LocalName() == "button" {
		t := el.GetAttribute("type")
		return t == "" || t == "submit"
	}
	if el.LocalName() == "input" {
		return el.InputType() == "submit"
	}
	return false
}

// ValidateRequired walks form's submittable controls and reports the
// first one that fails simple required-field validation: an empty
// value for a text-like control, or an unchecked state for a required
// checkbox/radio. ok is true iff every required control is satisfied.
func ValidateRequired(form dom.Element) (ok bool, firstInvalid dom.Element) {
	var found dom.Element
	var walk func(dom.Node)
	walk = func(n dom.Node) {
		for _, c := range n.ChildNodes() {
			if !found.IsZero() {
				return
			}
			if el := c.AsElement(); !el.IsZero() {
				if el.Required() && controlEmpty(el) {
					found = el
					return
				}
				walk(c)
			} else {
				walk(c)
			}
		}
	}
	walk(form.AsNode())
	if !found.IsZero() {
		return false, found
	}
	return true, dom.Element{}
}

func controlEmpty(el dom.Element) bool {
	if el.LocalName() == "input" && el.IsCheckable() {
		return !el.Checked()
	}
	switch el.LocalName() {
	case "input", "textarea", "select":
		return el.Value() == ""
	}
	return false
}

// RequestSubmitBehavior implements the user-like submission path
// (§4.4.b): validate required fields (failing that, focus the first
// invalid control and dispatch nothing), else dispatch "submit" and,
// if not prevented, run its default action. dispatched reports whether
// the submit event actually fired.
func RequestSubmitBehavior(reg *Registry, form dom.Element, nowMs int64) (dispatched, defaultPrevented bool) {
	if ok, invalid := ValidateRequired(form); !ok {
		invalid.SetFocused(true)
		return false, false
	}
	ev := &Event{Type: "submit", Bubbles: true, Cancelable: true, IsTrusted: true, TimeStampMs: nowMs}
	ok := reg.Dispatch(form.AsNode(), ev)
	if ok {
		SubmitBypass(form)
	}
	return true, ev.DefaultPrevented()
}

// SubmitBypass runs submit's default action without validating or
// dispatching an event, matching form.submit()'s bypass semantics: a
// dialog-method form closes its ancestor <dialog>, everything else is
// simply marked complete (no navigation is ever performed here).
func SubmitBypass(form dom.Element) {
	if form.GetAttribute("method") == "dialog" {
		for p := form.AsNode().ParentNode(); !p.IsZero(); p = p.ParentNode() {
			if pe := p.AsElement(); !pe.IsZero() && pe.LocalName() == "dialog" {
				pe.RemoveAttribute("open")
				return
			}
		}
	}
}
