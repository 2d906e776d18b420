package jsscript

type promiseStateKind int

const (
	promisePending promiseStateKind = iota
	promiseFulfilled
	promiseRejected
)

// promiseState backs every Promise object. Settling enqueues each
// attached reaction as a scheduler microtask rather than running it
// inline, matching the one real asynchrony primitive this runtime
// keeps (spec.md's "resumption is a microtask enqueue" design note).
type promiseState struct {
	state     promiseStateKind
	value     Value
	reactions []func()
}

func newPendingPromise() *object {
	o := newObject("Promise")
	o.promise = &promiseState{state: promisePending}
	return o
}

func (ip *Interp) settlePromise(o *object, state promiseStateKind, v Value) {
	p := o.promise
	if p.state != promisePending {
		return
	}
	if state == promiseFulfilled && v.IsObject() && v.obj.promise != nil {
		ip.chainPromise(v.obj, o)
		return
	}
	p.state, p.value = state, v
	reactions := p.reactions
	p.reactions = nil
	for _, r := range reactions {
		r := r
		ip.sched.QueueMicrotask(r)
	}
}

// chainPromise resolves dst once src settles, for the "resolve with
// another promise" case both the Promise constructor's resolve
// function and .then's return value must handle.
func (ip *Interp) chainPromise(src, dst *object) {
	attach := func() {
		switch src.promise.state {
		case promiseFulfilled:
			ip.settlePromise(dst, promiseFulfilled, src.promise.value)
		case promiseRejected:
			ip.settlePromise(dst, promiseRejected, src.promise.value)
		}
	}
	if src.promise.state != promisePending {
		ip.sched.QueueMicrotask(attach)
		return
	}
	src.promise.reactions = append(src.promise.reactions, attach)
}

func (ip *Interp) installPromiseGlobal(g *environment) {
	ctor := newNativeFunction("Promise", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		executor := arg(args, 0)
		o := newPendingPromise()
		resolveFn := newNativeFunction("resolve", func(ip *Interp, this Value, args []Value) (Value, error) {
			ip.settlePromise(o, promiseFulfilled, arg(args, 0))
			return Undefined(), nil
		})
		rejectFn := newNativeFunction("reject", func(ip *Interp, this Value, args []Value) (Value, error) {
			ip.settlePromise(o, promiseRejected, arg(args, 0))
			return Undefined(), nil
		})
		if executor.IsCallable() {
			if _, err := callFunction(executor, Undefined(), []Value{resolveFn, rejectFn}); err != nil {
				if rerr, ok := err.(*RuntimeError); ok {
					ip.settlePromise(o, promiseRejected, rerr.Value)
				} else {
					ip.settlePromise(o, promiseRejected, String(err.Error()))
				}
			}
		}
		registerPromiseMethods(o)
		return Object(o), nil
	})
	ctor.obj.set("resolve", newNativeFunction("resolve", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		if v.IsObject() && v.obj.promise != nil {
			return v, nil
		}
		o := newPendingPromise()
		registerPromiseMethods(o)
		ip.settlePromise(o, promiseFulfilled, v)
		return Object(o), nil
	}))
	ctor.obj.set("reject", newNativeFunction("reject", func(ip *Interp, this Value, args []Value) (Value, error) {
		o := newPendingPromise()
		registerPromiseMethods(o)
		ip.settlePromise(o, promiseRejected, arg(args, 0))
		return Object(o), nil
	}))
	ctor.obj.set("all", newNativeFunction("all", func(ip *Interp, this Value, args []Value) (Value, error) {
		items, err := ip.iterableToSlice(arg(args, 0))
		if err != nil {
			return Value{}, err
		}
		out := newPendingPromise()
		registerPromiseMethods(out)
		results := make([]Value, len(items))
		remaining := len(items)
		if remaining == 0 {
			ip.settlePromise(out, promiseFulfilled, Object(newArray(results)))
			return Object(out), nil
		}
		for i, it := range items {
			idx := i
			ip.onSettledValue(it, func(v Value) {
				results[idx] = v
				remaining--
				if remaining == 0 {
					ip.settlePromise(out, promiseFulfilled, Object(newArray(results)))
				}
			}, func(v Value) {
				ip.settlePromise(out, promiseRejected, v)
			})
		}
		return Object(out), nil
	}))
	ctor.obj.set("race", newNativeFunction("race", func(ip *Interp, this Value, args []Value) (Value, error) {
		items, err := ip.iterableToSlice(arg(args, 0))
		if err != nil {
			return Value{}, err
		}
		out := newPendingPromise()
		registerPromiseMethods(out)
		for _, it := range items {
			ip.onSettledValue(it, func(v Value) {
				ip.settlePromise(out, promiseFulfilled, v)
			}, func(v Value) {
				ip.settlePromise(out, promiseRejected, v)
			})
		}
		return Object(out), nil
	}))
	ctor.obj.set("allSettled", newNativeFunction("allSettled", func(ip *Interp, this Value, args []Value) (Value, error) {
		items, err := ip.iterableToSlice(arg(args, 0))
		if err != nil {
			return Value{}, err
		}
		out := newPendingPromise()
		registerPromiseMethods(out)
		results := make([]Value, len(items))
		remaining := len(items)
		if remaining == 0 {
			ip.settlePromise(out, promiseFulfilled, Object(newArray(results)))
			return Object(out), nil
		}
		for i, it := range items {
			idx := i
			ip.onSettledValue(it, func(v Value) {
				r := newObject("Object")
				r.set("status", String("fulfilled"))
				r.set("value", v)
				results[idx] = Object(r)
				remaining--
				if remaining == 0 {
					ip.settlePromise(out, promiseFulfilled, Object(newArray(results)))
				}
			}, func(v Value) {
				r := newObject("Object")
				r.set("status", String("rejected"))
				r.set("reason", v)
				results[idx] = Object(r)
				remaining--
				if remaining == 0 {
					ip.settlePromise(out, promiseFulfilled, Object(newArray(results)))
				}
			})
		}
		return Object(out), nil
	}))
	g.vars["Promise"] = ctor
}

// onSettledValue normalizes a Promise.all/race/allSettled element:
// a plain value resolves immediately, a thenable settles through its
// own reactions.
func (ip *Interp) onSettledValue(v Value, onFulfill, onReject func(Value)) {
	if !v.IsObject() || v.obj.promise == nil {
		onFulfill(v)
		return
	}
	p := v.obj.promise
	attach := func() {
		if p.state == promiseFulfilled {
			onFulfill(p.value)
		} else {
			onReject(p.value)
		}
	}
	if p.state != promisePending {
		ip.sched.QueueMicrotask(attach)
		return
	}
	p.reactions = append(p.reactions, attach)
}

func registerPromiseMethods(o *object) {
	o.set("then", newNativeFunction("then", func(ip *Interp, this Value, args []Value) (Value, error) {
		onFulfilled, onRejected := arg(args, 0), arg(args, 1)
		next := newPendingPromise()
		registerPromiseMethods(next)
		settleWith := func(handler Value, v Value, fallbackState promiseStateKind) {
			if !handler.IsCallable() {
				ip.settlePromise(next, fallbackState, v)
				return
			}
			r, err := callFunction(handler, Undefined(), []Value{v})
			if err != nil {
				if rerr, ok := err.(*RuntimeError); ok {
					ip.settlePromise(next, promiseRejected, rerr.Value)
				} else {
					ip.settlePromise(next, promiseRejected, String(err.Error()))
				}
				return
			}
			ip.settlePromise(next, promiseFulfilled, r)
		}
		p := o.promise
		react := func() {
			if p.state == promiseFulfilled {
				settleWith(onFulfilled, p.value, promiseFulfilled)
			} else {
				settleWith(onRejected, p.value, promiseRejected)
			}
		}
		if p.state != promisePending {
			ip.sched.QueueMicrotask(react)
		} else {
			p.reactions = append(p.reactions, react)
		}
		return Object(next), nil
	}))
	o.set("catch", newNativeFunction("catch", func(ip *Interp, this Value, args []Value) (Value, error) {
		then := o.get("then")
		return callFunction(then, Object(o), []Value{Undefined(), arg(args, 0)})
	}))
	o.set("finally", newNativeFunction("finally", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		wrap := newNativeFunction("", func(ip *Interp, this Value, args []Value) (Value, error) {
			if fn.IsCallable() {
				if _, err := callFunction(fn, Undefined(), nil); err != nil {
					return Value{}, err
				}
			}
			return arg(args, 0), nil
		})
		then := o.get("then")
		return callFunction(then, Object(o), []Value{wrap, wrap})
	}))
}

// wrapResolvedPromise implements the result of an `async function`
// call: the function's own return value (or thrown error) becomes a
// settled Promise immediately, since this runtime never truly
// suspends a function body across an await.
func (ip *Interp) wrapResolvedPromise(result Value, err error) (Value, error) {
	o := newPendingPromise()
	registerPromiseMethods(o)
	if err != nil {
		if rerr, ok := err.(*RuntimeError); ok {
			ip.settlePromise(o, promiseRejected, rerr.Value)
			return Object(o), nil
		}
		return Value{}, err
	}
	ip.settlePromise(o, promiseFulfilled, result)
	return Object(o), nil
}
