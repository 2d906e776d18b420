package jsscript

import (
	"github.com/finitefield-org/browser-tester/dom"
	"github.com/finitefield-org/browser-tester/domevents"
)

// addEventListener registers a script callback against a DOM node. The
// callback value itself is the dedup key domevents.Target already
// requires (add the same function twice, get one listener), matching
// how a real DOM binds removeEventListener to reference identity.
func (ip *Interp) addEventListener(n dom.Node, args []Value) {
	eventType := arg(args, 0).String()
	fn := arg(args, 1)
	if !fn.IsCallable() {
		return
	}
	capture, once, passive := false, false, false
	if opt := arg(args, 2); opt.IsObject() {
		capture = opt.obj.get("capture").ToBoolean()
		once = opt.obj.get("once").ToBoolean()
		passive = opt.obj.get("passive").ToBoolean()
	} else {
		capture = opt.ToBoolean()
	}
	ip.events.AddEventListener(n, eventType, fn.obj, func(ev *domevents.Event) {
		evVal := ip.wrapEvent(ev)
		if _, err := callFunction(fn, ip.wrapNode(n), []Value{evVal}); err != nil {
			ip.reportScriptError(err)
		}
	}, capture, once, passive)
}

// wrapEvent exposes a dispatched *domevents.Event to script code as a
// plain object with the handful of methods/fields listener bodies
// actually use.
func (ip *Interp) wrapEvent(ev *domevents.Event) Value {
	o := newObject("Event")
	o.extra = ev
	o.set("type", String(ev.Type))
	o.set("bubbles", Bool(ev.Bubbles))
	o.set("cancelable", Bool(ev.Cancelable))
	o.set("composed", Bool(ev.Composed))
	o.set("isTrusted", Bool(ev.IsTrusted))
	o.set("timeStamp", Number(float64(ev.TimeStampMs)))
	o.set("detail", detailToValue(ev.Detail))
	o.set("target", ip.wrapNode(ev.Target))
	o.set("currentTarget", ip.wrapNode(ev.CurrentTarget))
	o.set("preventDefault", newNativeFunction("preventDefault", func(ip *Interp, this Value, args []Value) (Value, error) {
		ev.PreventDefault()
		return Undefined(), nil
	}))
	o.set("stopPropagation", newNativeFunction("stopPropagation", func(ip *Interp, this Value, args []Value) (Value, error) {
		ev.StopPropagation()
		return Undefined(), nil
	}))
	o.set("stopImmediatePropagation", newNativeFunction("stopImmediatePropagation", func(ip *Interp, this Value, args []Value) (Value, error) {
		ev.StopImmediatePropagation()
		return Undefined(), nil
	}))
	o.defineAccessor("defaultPrevented", &accessorPair{get: func(this Value) (Value, error) {
		return Bool(ev.DefaultPrevented()), nil
	}})
	return Object(o)
}

func detailToValue(d any) Value {
	if v, ok := d.(Value); ok {
		return v
	}
	if d == nil {
		return Undefined()
	}
	if s, ok := d.(string); ok {
		return String(s)
	}
	return Undefined()
}

// eventFromValue builds a *domevents.Event for dispatchEvent/CustomEvent
// calls originating in script — the reverse direction of wrapEvent.
func (ip *Interp) eventFromValue(v Value) *domevents.Event {
	ev := &domevents.Event{Type: "event", Bubbles: false, Cancelable: false, IsTrusted: false, TimeStampMs: ip.sched.Now()}
	if v.IsObject() {
		if existing, ok := v.obj.extra.(*domevents.Event); ok {
			return existing
		}
		ev.Type = v.obj.get("type").String()
		ev.Bubbles = v.obj.get("bubbles").ToBoolean()
		ev.Cancelable = v.obj.get("cancelable").ToBoolean()
		if d := v.obj.get("detail"); !d.IsUndefined() {
			ev.Detail = d
		}
	}
	return ev
}

func (ip *Interp) reportScriptError(err error) {
	if rerr, ok := err.(*RuntimeError); ok {
		ip.emitConsole("error", "Uncaught "+rerr.Error())
		return
	}
	ip.emitConsole("error", "Uncaught "+err.Error())
}

func (ip *Interp) installEventGlobals(g *environment) {
	eventCtor := newNativeFunction("Event", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		ev := &domevents.Event{
			Type:        arg(args, 0).String(),
			TimeStampMs: ip.sched.Now(),
		}
		if init := arg(args, 1); init.IsObject() {
			ev.Bubbles = init.obj.get("bubbles").ToBoolean()
			ev.Cancelable = init.obj.get("cancelable").ToBoolean()
		}
		return ip.wrapEvent(ev), nil
	})
	g.vars["Event"] = eventCtor
	g.vars["CustomEvent"] = newNativeFunction("CustomEvent", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		ev := &domevents.Event{
			Type:        arg(args, 0).String(),
			TimeStampMs: ip.sched.Now(),
		}
		if init := arg(args, 1); init.IsObject() {
			ev.Bubbles = init.obj.get("bubbles").ToBoolean()
			ev.Cancelable = init.obj.get("cancelable").ToBoolean()
			ev.Detail = init.obj.get("detail")
		}
		return ip.wrapEvent(ev), nil
	})
}
