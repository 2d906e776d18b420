package jsscript

// installTimerGlobals wires setTimeout/setInterval/clearTimeout/
// clearInterval/requestAnimationFrame/queueMicrotask onto the
// scheduler, the virtual-clock event loop spec.md's design notes
// require in place of any real goroutine/time.Sleep-based timing.
func (ip *Interp) installTimerGlobals(g *environment) {
	g.vars["setTimeout"] = newNativeFunction("setTimeout", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		delay := int64(arg(args, 1).ToFloat())
		extra := append([]Value{}, args[min(2, len(args)):]...)
		id := ip.sched.SetTimeout(func() {
			if fn.IsCallable() {
				if _, err := callFunction(fn, Undefined(), extra); err != nil {
					ip.reportScriptError(err)
				}
			}
		}, delay)
		return Number(float64(id)), nil
	})
	g.vars["setInterval"] = newNativeFunction("setInterval", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		delay := int64(arg(args, 1).ToFloat())
		extra := append([]Value{}, args[min(2, len(args)):]...)
		id := ip.sched.SetInterval(func() {
			if fn.IsCallable() {
				if _, err := callFunction(fn, Undefined(), extra); err != nil {
					ip.reportScriptError(err)
				}
			}
		}, delay)
		return Number(float64(id)), nil
	})
	g.vars["clearTimeout"] = newNativeFunction("clearTimeout", func(ip *Interp, this Value, args []Value) (Value, error) {
		ip.sched.ClearTimer(int(arg(args, 0).ToFloat()))
		return Undefined(), nil
	})
	g.vars["clearInterval"] = newNativeFunction("clearInterval", func(ip *Interp, this Value, args []Value) (Value, error) {
		ip.sched.ClearTimer(int(arg(args, 0).ToFloat()))
		return Undefined(), nil
	})
	g.vars["requestAnimationFrame"] = newNativeFunction("requestAnimationFrame", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		id := ip.sched.RequestAnimationFrame(func() {
			if fn.IsCallable() {
				if _, err := callFunction(fn, Undefined(), []Value{Number(float64(ip.sched.Now()))}); err != nil {
					ip.reportScriptError(err)
				}
			}
		}, 16)
		return Number(float64(id)), nil
	})
	g.vars["cancelAnimationFrame"] = newNativeFunction("cancelAnimationFrame", func(ip *Interp, this Value, args []Value) (Value, error) {
		ip.sched.ClearTimer(int(arg(args, 0).ToFloat()))
		return Undefined(), nil
	})
	g.vars["queueMicrotask"] = newNativeFunction("queueMicrotask", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		ip.sched.QueueMicrotask(func() {
			if fn.IsCallable() {
				if _, err := callFunction(fn, Undefined(), nil); err != nil {
					ip.reportScriptError(err)
				}
			}
		})
		return Undefined(), nil
	})
}

// nextRandom is a small deterministic xorshift64 PRNG seeded through
// SetRandomSeed, used for Math.random() so assertions on scripted
// output stay reproducible across runs rather than depending on
// Go's global math/rand state.
func (ip *Interp) nextRandom() float64 {
	x := ip.randomState
	if x == 0 {
		x = 0x9E3779B97F4A7C15
	}
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	ip.randomState = x
	return float64(x>>11) / (1 << 53)
}

// defaultRandomSeed seeds every Interp created after SetRandomSeed is
// called — set before a document (and its interpreter) exists, the way
// engine.Runtime.New applies a configured seed ahead of the first
// newDocument call.
var defaultRandomSeed uint64

// SetRandomSeed fixes Math.random()'s backing PRNG for every
// interpreter subsequently constructed, for deterministic test runs.
func SetRandomSeed(seed uint64) {
	defaultRandomSeed = seed
}
