package jsscript

import (
	"strings"

	"github.com/finitefield-org/browser-tester/cssselect"
	"github.com/finitefield-org/browser-tester/dom"
	"github.com/finitefield-org/browser-tester/domevents"
)

// wrapNode builds the script-visible wrapper for a dom.Node.
// Every wrapper is a fresh *object — cheap, and it keeps the DOM tree
// itself as the single source of truth rather than caching stale copies
// on the script side.
func (ip *Interp) wrapNode(n dom.Node) Value {
	if n.IsZero() {
		return Null()
	}
	o := newObject("Node")
	o.node = n
	return Object(o)
}

func wrapElements(els []dom.Element) Value {
	out := make([]Value, len(els))
	for i, el := range els {
		o := newObject("Node")
		o.node = el.AsNode()
		out[i] = Object(o)
	}
	return Object(newArray(out))
}

// domGet resolves a property read against a DOM node wrapper. Per
// spec.md's ordering note, known method/event names are matched before
// falling through to attribute-backed generic properties, so a script
// never sees DOM surface area the document model doesn't actually
// expose.
func (ip *Interp) domGet(v Value, key string) (Value, error) {
	n := v.obj.node
	el := n.AsElement()
	isEl := !el.IsZero()

	switch key {
	case "nodeType":
		return Number(float64(n.NodeType())), nil
	case "nodeName":
		return String(n.NodeName()), nil
	case "parentNode", "parentElement":
		return ip.wrapNode(n.ParentNode()), nil
	case "childNodes":
		return wrapNodesSlice(n.ChildNodes()), nil
	case "firstChild":
		return ip.wrapNode(n.FirstChild()), nil
	case "lastChild":
		return ip.wrapNode(n.LastChild()), nil
	case "nextSibling":
		return ip.wrapNode(n.NextSibling()), nil
	case "previousSibling":
		return ip.wrapNode(n.PreviousSibling()), nil
	case "textContent":
		return String(n.TextContent()), nil
	case "isConnected":
		return Bool(n.IsConnected()), nil
	case "ownerDocument":
		return ip.windowDocument, nil
	case "appendChild":
		return ip.domMethod("appendChild", func(args []Value) (Value, error) {
			child := domNodeArg(args, 0)
			if _, err := n.AppendChild(child); err != nil {
				return Value{}, newRuntimeError("%s", err.Error())
			}
			ip.reportMutation()
			return args[0], nil
		}), nil
	case "insertBefore":
		return ip.domMethod("insertBefore", func(args []Value) (Value, error) {
			child, ref := domNodeArg(args, 0), domNodeArg(args, 1)
			if _, err := n.InsertBefore(child, ref); err != nil {
				return Value{}, newRuntimeError("%s", err.Error())
			}
			ip.reportMutation()
			return args[0], nil
		}), nil
	case "removeChild":
		return ip.domMethod("removeChild", func(args []Value) (Value, error) {
			child := domNodeArg(args, 0)
			if _, err := n.RemoveChild(child); err != nil {
				return Value{}, newRuntimeError("%s", err.Error())
			}
			ip.reportMutation()
			return args[0], nil
		}), nil
	case "replaceChild":
		return ip.domMethod("replaceChild", func(args []Value) (Value, error) {
			nw, old := domNodeArg(args, 0), domNodeArg(args, 1)
			if _, err := n.ReplaceChild(nw, old); err != nil {
				return Value{}, newRuntimeError("%s", err.Error())
			}
			ip.reportMutation()
			return args[1], nil
		}), nil
	case "remove":
		return ip.domMethod("remove", func(args []Value) (Value, error) {
			n.Remove()
			ip.reportMutation()
			return Undefined(), nil
		}), nil
	case "cloneNode":
		return ip.domMethod("cloneNode", func(args []Value) (Value, error) {
			deep := len(args) > 0 && args[0].ToBoolean()
			return ip.wrapNode(n.CloneNode(deep)), nil
		}), nil
	case "contains":
		return ip.domMethod("contains", func(args []Value) (Value, error) {
			return Bool(n.Contains(domNodeArg(args, 0))), nil
		}), nil
	case "addEventListener":
		return ip.domMethod("addEventListener", func(args []Value) (Value, error) {
			ip.addEventListener(n, args)
			return Undefined(), nil
		}), nil
	case "removeEventListener":
		return ip.domMethod("removeEventListener", func(args []Value) (Value, error) {
			eventType := arg(args, 0).String()
			capture := len(args) > 2 && optionHasCapture(args[2])
			fn := arg(args, 1)
			if fn.IsObject() {
				ip.events.RemoveEventListener(n, eventType, fn.obj, capture)
			}
			return Undefined(), nil
		}), nil
	case "dispatchEvent":
		return ip.domMethod("dispatchEvent", func(args []Value) (Value, error) {
			ev := ip.eventFromValue(arg(args, 0))
			ok := ip.events.Dispatch(n, ev)
			return Bool(ok), nil
		}), nil
	}

	if n.NodeType() == dom.DocumentNode {
		switch key {
		case "documentElement":
			return ip.wrapNode(ip.doc.DocumentElement().AsNode()), nil
		case "body":
			return ip.wrapNode(ip.doc.Body().AsNode()), nil
		case "head":
			return ip.wrapNode(ip.doc.Head().AsNode()), nil
		case "getElementById":
			return ip.domMethod("getElementById", func(args []Value) (Value, error) {
				found := ip.doc.GetElementByID(arg(args, 0).String())
				if found.IsZero() {
					return Null(), nil
				}
				return ip.wrapNode(found.AsNode()), nil
			}), nil
		case "createElement":
			return ip.domMethod("createElement", func(args []Value) (Value, error) {
				return ip.wrapNode(ip.doc.CreateElement(arg(args, 0).String()).AsNode()), nil
			}), nil
		case "createTextNode":
			return ip.domMethod("createTextNode", func(args []Value) (Value, error) {
				return ip.wrapNode(ip.doc.CreateTextNode(arg(args, 0).String())), nil
			}), nil
		case "createComment":
			return ip.domMethod("createComment", func(args []Value) (Value, error) {
				return ip.wrapNode(ip.doc.CreateComment(arg(args, 0).String())), nil
			}), nil
		case "createDocumentFragment":
			return ip.domMethod("createDocumentFragment", func(args []Value) (Value, error) {
				return ip.wrapNode(ip.doc.CreateDocumentFragment()), nil
			}), nil
		case "querySelector":
			return ip.domMethod("querySelector", func(args []Value) (Value, error) {
				found, err := cssselect.QueryFirst(n, arg(args, 0).String())
				if err != nil {
					return Value{}, newRuntimeError("%s", err.Error())
				}
				if found.IsZero() {
					return Null(), nil
				}
				return ip.wrapNode(found.AsNode()), nil
			}), nil
		case "querySelectorAll":
			return ip.domMethod("querySelectorAll", func(args []Value) (Value, error) {
				found, err := cssselect.QueryAll(n, arg(args, 0).String())
				if err != nil {
					return Value{}, newRuntimeError("%s", err.Error())
				}
				return wrapElements(found), nil
			}), nil
		}
	}

	if isEl {
		switch key {
		case "id":
			return String(el.Id()), nil
		case "className":
			return String(el.ClassName()), nil
		case "classList":
			return ip.wrapTokenList(el), nil
		case "tagName":
			return String(el.TagName()), nil
		case "value":
			return String(el.Value()), nil
		case "checked":
			return Bool(el.Checked()), nil
		case "disabled":
			return Bool(el.Disabled()), nil
		case "readOnly":
			return Bool(el.ReadOnly()), nil
		case "required":
			return Bool(el.Required()), nil
		case "selected":
			return Bool(el.Selected()), nil
		case "children":
			return wrapElements(el.Children()), nil
		case "firstElementChild":
			return ip.wrapNode(el.FirstElementChild().AsNode()), nil
		case "lastElementChild":
			return ip.wrapNode(el.LastElementChild().AsNode()), nil
		case "nextElementSibling":
			return ip.wrapNode(el.NextElementSibling().AsNode()), nil
		case "previousElementSibling":
			return ip.wrapNode(el.PreviousElementSibling().AsNode()), nil
		case "innerHTML":
			return String(n.InnerHTML()), nil
		case "outerHTML":
			return String(n.OuterHTML()), nil
		case "getAttribute":
			return ip.domMethod("getAttribute", func(args []Value) (Value, error) {
				v, ok := el.GetAttributeOK(arg(args, 0).String())
				if !ok {
					return Null(), nil
				}
				return String(v), nil
			}), nil
		case "setAttribute":
			return ip.domMethod("setAttribute", func(args []Value) (Value, error) {
				el.SetAttribute(arg(args, 0).String(), arg(args, 1).String())
				ip.reportMutation()
				return Undefined(), nil
			}), nil
		case "removeAttribute":
			return ip.domMethod("removeAttribute", func(args []Value) (Value, error) {
				el.RemoveAttribute(arg(args, 0).String())
				ip.reportMutation()
				return Undefined(), nil
			}), nil
		case "hasAttribute":
			return ip.domMethod("hasAttribute", func(args []Value) (Value, error) {
				return Bool(el.HasAttribute(arg(args, 0).String())), nil
			}), nil
		case "toggleAttribute":
			return ip.domMethod("toggleAttribute", func(args []Value) (Value, error) {
				if len(args) > 1 {
					return Bool(el.ToggleAttribute(arg(args, 0).String(), args[1].ToBoolean())), nil
				}
				return Bool(el.ToggleAttribute(arg(args, 0).String())), nil
			}), nil
		case "querySelector":
			return ip.domMethod("querySelector", func(args []Value) (Value, error) {
				found, err := cssselect.QueryFirst(n, arg(args, 0).String())
				if err != nil {
					return Value{}, newRuntimeError("%s", err.Error())
				}
				if found.IsZero() {
					return Null(), nil
				}
				return ip.wrapNode(found.AsNode()), nil
			}), nil
		case "querySelectorAll":
			return ip.domMethod("querySelectorAll", func(args []Value) (Value, error) {
				found, err := cssselect.QueryAll(n, arg(args, 0).String())
				if err != nil {
					return Value{}, newRuntimeError("%s", err.Error())
				}
				return wrapElements(found), nil
			}), nil
		case "matches":
			return ip.domMethod("matches", func(args []Value) (Value, error) {
				found, err := cssselect.QueryAll(n.ParentNode(), arg(args, 0).String())
				if err != nil {
					return Value{}, newRuntimeError("%s", err.Error())
				}
				for _, f := range found {
					if f.AsNode().Equals(n) {
						return Bool(true), nil
					}
				}
				return Bool(false), nil
			}), nil
		case "closest":
			return ip.domMethod("closest", func(args []Value) (Value, error) {
				sel := arg(args, 0).String()
				for cur := el; !cur.IsZero(); cur = cur.AsNode().ParentElement() {
					all, err := cssselect.QueryAll(cur.AsNode().ParentNode(), sel)
					if err == nil {
						for _, f := range all {
							if f.AsNode().Equals(cur.AsNode()) {
								return ip.wrapNode(cur.AsNode()), nil
							}
						}
					}
					if cur.AsNode().ParentNode().IsZero() {
						break
					}
				}
				return Null(), nil
			}), nil
		case "focus":
			return ip.domMethod("focus", func(args []Value) (Value, error) {
				el.SetFocused(true)
				return Undefined(), nil
			}), nil
		case "blur":
			return ip.domMethod("blur", func(args []Value) (Value, error) {
				el.SetFocused(false)
				return Undefined(), nil
			}), nil
		case "click":
			return ip.domMethod("click", func(args []Value) (Value, error) {
				domevents.ClickActivationBehavior(ip.events, el, ip.sched.Now())
				return Undefined(), nil
			}), nil
		case "submit":
			return ip.domMethod("submit", func(args []Value) (Value, error) {
				domevents.SubmitBypass(el)
				return Undefined(), nil
			}), nil
		case "style":
			return ip.wrapStyle(el), nil
		case "files":
			return ip.filesFor(n), nil
		}
	}

	// Fall through to attribute access for arbitrary dataset-style reads,
	// matching how script code typically probes unknown DOM properties.
	if isEl {
		if v, ok := el.GetAttributeOK(key); ok {
			return String(v), nil
		}
	}
	return v.obj.get(key), nil
}

func (ip *Interp) domMethod(name string, fn func(args []Value) (Value, error)) Value {
	return newNativeFunction(name, func(ip *Interp, this Value, args []Value) (Value, error) {
		return fn(args)
	})
}

func domNodeArg(args []Value, i int) dom.Node {
	v := arg(args, i)
	if v.IsObject() && v.obj.class == "Node" {
		return v.obj.node
	}
	return dom.Node{}
}

func wrapNodesSlice(ns []dom.Node) Value {
	out := make([]Value, len(ns))
	for i, n := range ns {
		o := newObject("Node")
		o.node = n
		out[i] = Object(o)
	}
	return Object(newArray(out))
}

// domSet resolves a property write against a DOM node wrapper, routing
// the handful of writable DOM properties to the real document model
// instead of the shadow props map every plain object uses.
func (ip *Interp) domSet(v Value, key string, val Value) error {
	n := v.obj.node
	el := n.AsElement()
	if el.IsZero() {
		if key == "textContent" {
			n.SetTextContent(val.String())
			ip.reportMutation()
			return nil
		}
		return v.obj.set(key, val)
	}
	switch key {
	case "textContent":
		n.SetTextContent(val.String())
	case "id":
		el.SetId(val.String())
	case "className":
		el.SetClassName(val.String())
	case "value":
		el.SetValue(val.String())
	case "checked":
		el.SetChecked(val.ToBoolean())
	case "disabled":
		el.SetDisabled(val.ToBoolean())
	default:
		el.SetAttribute(key, val.String())
	}
	ip.reportMutation()
	return nil
}

func (ip *Interp) reportMutation() {
	// dom.Document already fires its own OnMutation hook used by
	// MutationObserver wiring (mutationobserver.go); nothing extra is
	// needed here beyond existing as the single point scripts funnel
	// tree writes through.
}

// --- classList bridge ---

func (ip *Interp) wrapTokenList(el dom.Element) Value {
	tl := el.ClassList()
	o := newObject("Object")
	o.set("contains", newNativeFunction("contains", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Bool(tl.Contains(arg(args, 0).String())), nil
	}))
	o.set("add", newNativeFunction("add", func(ip *Interp, this Value, args []Value) (Value, error) {
		toks := make([]string, len(args))
		for i, a := range args {
			toks[i] = a.String()
		}
		tl.Add(toks...)
		ip.reportMutation()
		return Undefined(), nil
	}))
	o.set("remove", newNativeFunction("remove", func(ip *Interp, this Value, args []Value) (Value, error) {
		toks := make([]string, len(args))
		for i, a := range args {
			toks[i] = a.String()
		}
		tl.Remove(toks...)
		ip.reportMutation()
		return Undefined(), nil
	}))
	o.set("toggle", newNativeFunction("toggle", func(ip *Interp, this Value, args []Value) (Value, error) {
		if len(args) > 1 {
			return Bool(tl.Toggle(arg(args, 0).String(), args[1].ToBoolean())), nil
		}
		return Bool(tl.Toggle(arg(args, 0).String())), nil
	}))
	o.defineAccessor("length", &accessorPair{get: func(this Value) (Value, error) {
		return Number(float64(tl.Length())), nil
	}})
	return Object(o)
}

// --- inline style bridge: a minimal "cssText"-backed object, enough
// for scripts that poke element.style.display etc. ---

// wrapStyle builds a fresh style handle every access, the same way
// wrapNode never caches a node wrapper — the "style" attribute string
// is the real source of truth, so any camelCase property name is
// readable/writable through it without a fixed accessor list. The
// object is tagged with its own class so getProperty/assignMember can
// route arbitrary keys to styleGet/styleSet, the same dispatch shape
// domGet/domSet use for the "Node" class.
func (ip *Interp) wrapStyle(el dom.Element) Value {
	o := newObject("CSSStyleDeclaration")
	o.extra = el
	return Object(o)
}

func styleGet(el dom.Element, key string) Value {
	if key == "cssText" {
		return String(el.GetAttribute("style"))
	}
	return String(styleRuleValue(el, cssPropName(key)))
}

func styleSet(el dom.Element, key string, v Value) error {
	if key == "cssText" {
		el.SetAttribute("style", v.String())
		return nil
	}
	setStyleRule(el, cssPropName(key), v.String())
	return nil
}

// cssPropName converts a camelCase script-facing property (fontSize,
// backgroundColor) to its kebab-case CSS name (font-size,
// background-color), leaving a custom property (--foo) untouched.
func cssPropName(key string) string {
	if strings.HasPrefix(key, "--") {
		return key
	}
	var b strings.Builder
	for _, r := range key {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func styleRuleValue(el dom.Element, prop string) string {
	decl := el.GetAttribute("style")
	for _, rule := range strings.Split(decl, ";") {
		parts := strings.SplitN(rule, ":", 2)
		if len(parts) == 2 && strings.TrimSpace(parts[0]) == prop {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}

func setStyleRule(el dom.Element, prop, value string) {
	decl := el.GetAttribute("style")
	var rules []string
	found := false
	for _, rule := range strings.Split(decl, ";") {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		parts := strings.SplitN(rule, ":", 2)
		if len(parts) == 2 && strings.TrimSpace(parts[0]) == prop {
			rules = append(rules, prop+": "+value)
			found = true
			continue
		}
		rules = append(rules, rule)
	}
	if !found {
		rules = append(rules, prop+": "+value)
	}
	el.SetAttribute("style", strings.Join(rules, "; "))
}

func optionHasCapture(v Value) bool {
	if v.IsObject() {
		return v.obj.get("capture").ToBoolean()
	}
	return v.ToBoolean()
}
