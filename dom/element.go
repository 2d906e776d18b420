package dom

import "strings"

// Element narrows a Node known to be an ElementNode.
type Element struct {
	Node
}

// IsZero reports whether this Element wraps no node.
func (e Element) IsZero() bool { return e.Node.IsZero() }

// AsNode returns the underlying Node.
func (e Element) AsNode() Node { return e.Node }

// LocalName returns the lower-cased tag name.
func (e Element) LocalName() string {
	if r := e.rec(); r != nil {
		return r.tagName
	}
	return ""
}

// TagName returns the upper-cased tag name, matching Element.tagName in
// the DOM spec for HTML documents.
func (e Element) TagName() string { return strings.ToUpper(e.LocalName()) }

// Id returns the element's id attribute.
func (e Element) Id() string { return e.GetAttribute("id") }

// SetId sets the element's id attribute.
func (e Element) SetId(id string) { e.SetAttribute("id", id) }

// ClassName returns the raw class attribute value.
func (e Element) ClassName() string { return e.GetAttribute("class") }

// SetClassName sets the class attribute.
func (e Element) SetClassName(v string) { e.SetAttribute("class", v) }

// ClassList returns a live view over the element's class attribute.
func (e Element) ClassList() *DOMTokenList { return &DOMTokenList{el: e} }

// Attributes returns the element's attributes in document order, with
// names already case-folded to lower case.
func (e Element) Attributes() []Attr {
	r := e.rec()
	if r == nil {
		return nil
	}
	out := make([]Attr, len(r.attrs))
	for i, a := range r.attrs {
		out[i] = Attr{Name: a.name, Value: a.value}
	}
	return out
}

// GetAttribute returns an attribute's value, or "" if absent.
func (e Element) GetAttribute(name string) string {
	r := e.rec()
	if r == nil {
		return ""
	}
	v, _ := r.getAttr(strings.ToLower(name))
	return v
}

// GetAttributeOK returns an attribute's value and whether it is present.
func (e Element) GetAttributeOK(name string) (string, bool) {
	r := e.rec()
	if r == nil {
		return "", false
	}
	return r.getAttr(strings.ToLower(name))
}

// HasAttribute reports whether the named attribute is present.
func (e Element) HasAttribute(name string) bool {
	_, ok := e.GetAttributeOK(name)
	return ok
}

// SetAttribute sets (or creates) an attribute. Attribute names are
// case-folded to lower case.
func (e Element) SetAttribute(name, value string) {
	r := e.rec()
	if r == nil {
		return
	}
	name = strings.ToLower(name)
	old, had := r.getAttr(name)
	r.setAttr(name, value)
	e.doc.reindexAttribute(e.Node, name, had, old)
}

// RemoveAttribute removes an attribute if present.
func (e Element) RemoveAttribute(name string) {
	r := e.rec()
	if r == nil {
		return
	}
	name = strings.ToLower(name)
	old, had := r.getAttr(name)
	if r.removeAttr(name) {
		e.doc.reindexAttribute(e.Node, name, had, old)
	}
}

// ToggleAttribute flips a boolean attribute's presence, or forces it to
// the given state when force is provided. Returns the resulting state.
func (e Element) ToggleAttribute(name string, force ...bool) bool {
	want := !e.HasAttribute(name)
	if len(force) > 0 {
		want = force[0]
	}
	if want {
		e.SetAttribute(name, "")
	} else {
		e.RemoveAttribute(name)
	}
	return want
}

// reindexAttribute updates id/class indices and fires a mutation record
// after an attribute changes. Declared on *Document so it has access to
// the index maps in arena.go.
func (d *Document) reindexAttribute(n Node, name string, had bool, old string) {
	// Only nodes already reachable from the document root carry index
	// entries; indexInsert populates them from scratch at insertion
	// time, so touching the index for a detached node here would leave
	// a stale or duplicate entry once that node is later inserted.
	if n.IsConnected() {
		switch name {
		case "id":
			if had && old != "" {
				d.idIndex[old] = removeHandle(d.idIndex[old], n.h)
				if len(d.idIndex[old]) == 0 {
					delete(d.idIndex, old)
				}
			}
			if id := n.AsElement().GetAttribute("id"); id != "" {
				d.idIndex[id] = append(d.idIndex[id], n.h)
			}
		case "class":
			if had {
				for _, c := range splitClasses(old) {
					delete(d.classIndex[c], n.h)
				}
			}
			for _, c := range splitClasses(n.AsElement().GetAttribute("class")) {
				if d.classIndex[c] == nil {
					d.classIndex[c] = make(map[Handle]bool)
				}
				d.classIndex[c][n.h] = true
			}
		}
	}
	rec := MutationRecord{Kind: MutationAttributes, Target: n, AttributeName: name}
	if had {
		rec.OldValue = old
	}
	d.notify(rec)
}

// Form-control state. These are stored as properties rather than
// attributes so that, e.g., a checkbox's live checked state can diverge
// from its original "checked" attribute exactly as the DOM spec requires.

const (
	propValue    = "value"
	propChecked  = "checked"
	propDisabled = "disabled"
	propReadOnly = "readonly"
	propRequired = "required"
	propFocused  = "focused"
	propSelected = "selected"
)

func (e Element) boolProp(key, attr string) bool {
	r := e.rec()
	if r == nil {
		return false
	}
	if v, ok := r.properties[key]; ok {
		return v == "true"
	}
	return e.HasAttribute(attr)
}

func (e Element) setBoolProp(key string, v bool) {
	r := e.rec()
	if r == nil {
		return
	}
	if v {
		r.setProp(key, "true")
	} else {
		r.setProp(key, "false")
	}
}

// Value returns the live value of a form control. Falls back to the
// "value" attribute (or text content, for textarea) until script or a
// harness action sets it explicitly.
func (e Element) Value() string {
	r := e.rec()
	if r != nil {
		if v, ok := r.properties[propValue]; ok {
			return v
		}
	}
	if e.LocalName() == "textarea" {
		return e.AsNode().TextContent()
	}
	return e.GetAttribute("value")
}

// SetValue sets the live value of a form control.
func (e Element) SetValue(v string) {
	r := e.rec()
	if r == nil {
		return
	}
	old := e.Value()
	r.setProp(propValue, v)
	e.doc.notify(MutationRecord{Kind: MutationAttributes, Target: e.Node, AttributeName: "value", OldValue: old})
}

// Checked returns the live checked state of a checkbox/radio.
func (e Element) Checked() bool { return e.boolProp(propChecked, "checked") }

// SetChecked sets the live checked state of a checkbox/radio.
func (e Element) SetChecked(v bool) { e.setBoolProp(propChecked, v) }

// Disabled returns whether the control is disabled.
func (e Element) Disabled() bool { return e.boolProp(propDisabled, "disabled") }

// SetDisabled sets the disabled state.
func (e Element) SetDisabled(v bool) {
	e.setBoolProp(propDisabled, v)
	if v {
		e.SetAttribute("disabled", "")
	} else {
		e.RemoveAttribute("disabled")
	}
}

// ReadOnly returns whether the control is read-only.
func (e Element) ReadOnly() bool { return e.boolProp(propReadOnly, "readonly") }

// Required returns whether the control is required for form validation.
func (e Element) Required() bool { return e.boolProp(propRequired, "required") }

// Focused returns whether this element currently holds document focus.
func (e Element) Focused() bool { return e.boolProp(propFocused, "") }

// SetFocused sets the focus flag directly; callers (engine.Focus/Blur)
// are responsible for clearing focus elsewhere in the document.
func (e Element) SetFocused(v bool) { e.setBoolProp(propFocused, v) }

// Selected returns whether an <option> is selected.
func (e Element) Selected() bool { return e.boolProp(propSelected, "selected") }

// SetSelected sets an <option>'s selected state.
func (e Element) SetSelected(v bool) { e.setBoolProp(propSelected, v) }

// InputType returns the lower-cased "type" attribute of an <input>,
// defaulting to "text".
func (e Element) InputType() string {
	if e.LocalName() != "input" {
		return ""
	}
	t := strings.ToLower(e.GetAttribute("type"))
	if t == "" {
		return "text"
	}
	return t
}

// IsCheckable reports whether click activation behavior should toggle
// this element's checked state (checkbox or radio input).
func (e Element) IsCheckable() bool {
	t := e.InputType()
	return t == "checkbox" || t == "radio"
}

// IsSubmittable reports whether this control participates in form
// submission (has a name, is not disabled, and is not a button-ish
// input excluded by the FormData algorithm).
func (e Element) IsSubmittable() bool {
	if e.Disabled() || e.GetAttribute("name") == "" {
		return false
	}
	switch e.LocalName() {
	case "input":
		switch e.InputType() {
		case "submit", "reset", "button", "file", "image":
			return false
		}
		return true
	case "select", "textarea":
		return true
	}
	return false
}

// FirstElementChild returns the first child that is an element.
func (e Element) FirstElementChild() Element {
	for _, c := range e.ChildNodes() {
		if c.NodeType() == ElementNode {
			return c.AsElement()
		}
	}
	return Element{}
}

// LastElementChild returns the last child that is an element.
func (e Element) LastElementChild() Element {
	cs := e.ChildNodes()
	for i := len(cs) - 1; i >= 0; i-- {
		if cs[i].NodeType() == ElementNode {
			return cs[i].AsElement()
		}
	}
	return Element{}
}

// NextElementSibling returns the next sibling that is an element.
func (e Element) NextElementSibling() Element {
	for s := e.NextSibling(); !s.IsZero(); s = s.NextSibling() {
		if s.NodeType() == ElementNode {
			return s.AsElement()
		}
	}
	return Element{}
}

// PreviousElementSibling returns the previous sibling that is an element.
func (e Element) PreviousElementSibling() Element {
	for s := e.PreviousSibling(); !s.IsZero(); s = s.PreviousSibling() {
		if s.NodeType() == ElementNode {
			return s.AsElement()
		}
	}
	return Element{}
}

// Children returns the element's element-only children, in order.
func (e Element) Children() []Element {
	var out []Element
	for _, c := range e.ChildNodes() {
		if c.NodeType() == ElementNode {
			out = append(out, c.AsElement())
		}
	}
	return out
}

// TemplateContent returns the inert content fragment of a <template>
// element, creating it on first access.
func (e Element) TemplateContent() Node {
	r := e.rec()
	if r == nil || e.LocalName() != "template" {
		return Node{}
	}
	if r.templateContent == noHandle {
		r.templateContent = e.doc.CreateDocumentFragment().h
	}
	return Node{doc: e.doc, h: r.templateContent}
}

// Attr is an ordered (name, value) attribute pair.
type Attr struct {
	Name  string
	Value string
}
