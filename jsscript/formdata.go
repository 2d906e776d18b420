package jsscript

import "github.com/finitefield-org/browser-tester/dom"

// installFormDataCtor wires a minimal FormData, grounded on the same
// submittable-control walk domevents.ValidateRequired uses for required
// fields: named input/textarea/select descendants of the constructing
// form element, skipping unchecked checkboxes/radios the way an actual
// form submission skips them.
func installFormDataCtor(g *environment) {
	g.vars["FormData"] = newNativeFunction("FormData", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		o := newObject("FormData")
		var keys []string
		var vals []string
		if v := arg(args, 0); v.IsObject() && v.obj.class == "Node" {
			if el := v.obj.node.AsElement(); !el.IsZero() {
				keys, vals = collectFormControls(el)
			}
		}
		o.extra = &formDataEntries{keys: keys, vals: vals}
		registerFormDataMethods(o)
		return Object(o), nil
	})
}

type formDataEntries struct {
	keys []string
	vals []string
}

func collectFormControls(form dom.Element) (keys, vals []string) {
	var walk func(dom.Node)
	walk = func(n dom.Node) {
		for _, c := range n.ChildNodes() {
			el := c.AsElement()
			if el.IsZero() {
				walk(c)
				continue
			}
			name := el.GetAttribute("name")
			switch el.LocalName() {
			case "input":
				if name != "" {
					if el.IsCheckable() {
						if el.Checked() {
							v := el.GetAttribute("value")
							if v == "" {
								v = "on"
							}
							keys, vals = append(keys, name), append(vals, v)
						}
					} else {
						keys, vals = append(keys, name), append(vals, el.Value())
					}
				}
			case "textarea", "select":
				if name != "" {
					keys, vals = append(keys, name), append(vals, el.Value())
				}
			default:
				walk(c)
				continue
			}
			walk(c)
		}
	}
	walk(form.AsNode())
	return keys, vals
}

func registerFormDataMethods(o *object) {
	entries := func() *formDataEntries { return o.extra.(*formDataEntries) }
	o.set("get", newNativeFunction("get", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := entries()
		name := arg(args, 0).String()
		for i, k := range e.keys {
			if k == name {
				return String(e.vals[i]), nil
			}
		}
		return Null(), nil
	}))
	o.set("getAll", newNativeFunction("getAll", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := entries()
		name := arg(args, 0).String()
		var out []Value
		for i, k := range e.keys {
			if k == name {
				out = append(out, String(e.vals[i]))
			}
		}
		return Object(newArray(out)), nil
	}))
	o.set("has", newNativeFunction("has", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := entries()
		name := arg(args, 0).String()
		for _, k := range e.keys {
			if k == name {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	}))
	o.set("set", newNativeFunction("set", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := entries()
		name, val := arg(args, 0).String(), arg(args, 1).String()
		for i, k := range e.keys {
			if k == name {
				e.vals[i] = val
				return Undefined(), nil
			}
		}
		e.keys = append(e.keys, name)
		e.vals = append(e.vals, val)
		return Undefined(), nil
	}))
	o.set("append", newNativeFunction("append", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := entries()
		e.keys = append(e.keys, arg(args, 0).String())
		e.vals = append(e.vals, arg(args, 1).String())
		return Undefined(), nil
	}))
	o.set("delete", newNativeFunction("delete", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := entries()
		name := arg(args, 0).String()
		var nk, nv []string
		for i, k := range e.keys {
			if k != name {
				nk, nv = append(nk, k), append(nv, e.vals[i])
			}
		}
		e.keys, e.vals = nk, nv
		return Undefined(), nil
	}))
	o.set("entries", newNativeFunction("entries", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := entries()
		out := make([]Value, len(e.keys))
		for i := range e.keys {
			out[i] = Object(newArray([]Value{String(e.keys[i]), String(e.vals[i])}))
		}
		return Object(newArray(out)), nil
	}))
	o.set("forEach", newNativeFunction("forEach", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := entries()
		fn := arg(args, 0)
		for i := range e.keys {
			if _, err := callFunction(fn, Undefined(), []Value{String(e.vals[i]), String(e.keys[i])}); err != nil {
				return Value{}, err
			}
		}
		return Undefined(), nil
	}))
}
