package jsscript

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// arrayProto and the other shared prototypes are built once at package
// init and linked onto the instances that use them (newArray links
// arrayProto onto every array) — the same "one shared method table, many instances" shape a real
// engine uses, rather than re-building method closures per value.
var (
	arrayProto  = newObject("Object")
	objectProto = newObject("Object")
	errorProto  = newObject("Object")
	mapProto    = newObject("Object")
	setProto    = newObject("Object")
	regexProto  = newObject("Object")
)

func init() {
	registerArrayProto()
	registerObjectProto()
	registerErrorProto()
	registerMapProto()
	registerSetProto()
	registerRegexProto()
}

// registerObjectProto installs the handful of Object.prototype members
// a script reaches for directly on a plain object literal rather than
// through the Object static namespace.
func registerObjectProto() {
	objectProto.set("hasOwnProperty", newNativeFunction("hasOwnProperty", func(ip *Interp, this Value, args []Value) (Value, error) {
		if !this.IsObject() {
			return Bool(false), nil
		}
		key := arg(args, 0).String()
		if this.obj.isArray {
			if idx, ok := arrayIndex(key); ok {
				return Bool(idx >= 0 && idx < len(this.obj.elements)), nil
			}
		}
		_, ok := this.obj.props[key]
		return Bool(ok), nil
	}))
	objectProto.set("isPrototypeOf", newNativeFunction("isPrototypeOf", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		if !this.IsObject() || !v.IsObject() {
			return Bool(false), nil
		}
		for cur := v.obj.proto; cur != nil; cur = cur.proto {
			if cur == this.obj {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	}))
	objectProto.set("toString", newNativeFunction("toString", func(ip *Interp, this Value, args []Value) (Value, error) {
		if this.IsObject() {
			return String(this.obj.toString()), nil
		}
		return String("[object Undefined]"), nil
	}))
}

// --- console / globals wired onto the environment by runtime.go ---

func (ip *Interp) installGlobals(env *environment) {
	g := env

	console := newObject("Object")
	logFn := func(label string) Value {
		return newNativeFunction(label, func(ip *Interp, this Value, args []Value) (Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = consoleFormat(a)
			}
			ip.emitConsole(label, strings.Join(parts, " "))
			return Undefined(), nil
		})
	}
	for _, lvl := range []string{"log", "info", "warn", "error", "debug"} {
		console.set(lvl, logFn(lvl))
	}
	g.vars["console"] = Object(console)

	mathObj := buildMathObject(ip)
	g.vars["Math"] = Object(mathObj)

	jsonObj := newObject("Object")
	jsonObj.set("stringify", newNativeFunction("stringify", jsonStringify))
	jsonObj.set("parse", newNativeFunction("parse", jsonParse))
	g.vars["JSON"] = Object(jsonObj)

	objectCtor := newNativeFunction("Object", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		if len(args) > 0 && args[0].IsObject() {
			return args[0], nil
		}
		return Object(newObject("Object")), nil
	})
	installObjectStatics(objectCtor.obj)
	g.vars["Object"] = objectCtor

	arrayCtor := newNativeFunction("Array", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		if len(args) == 1 && args[0].IsNumber() {
			n := int(args[0].ToFloat())
			elems := make([]Value, n)
			for i := range elems {
				elems[i] = Undefined()
			}
			return Object(newArray(elems)), nil
		}
		return Object(newArray(append([]Value{}, args...))), nil
	})
	arrayCtor.obj.set("isArray", newNativeFunction("isArray", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		return Bool(v.IsObject() && v.obj.isArray), nil
	}))
	arrayCtor.obj.set("from", newNativeFunction("from", func(ip *Interp, this Value, args []Value) (Value, error) {
		items, err := ip.iterableToSlice(arg(args, 0))
		if err != nil {
			if src := arg(args, 0); src.IsObject() && !src.obj.isArray {
				n := int(src.obj.get("length").ToFloat())
				items = nil
				for i := 0; i < n; i++ {
					items = append(items, src.obj.get(strconv.Itoa(i)))
				}
			} else {
				return Value{}, err
			}
		}
		if mapFn := arg(args, 1); mapFn.IsCallable() {
			out := make([]Value, len(items))
			for i, it := range items {
				v, err := callFunction(mapFn, Undefined(), []Value{it, Number(float64(i))})
				if err != nil {
					return Value{}, err
				}
				out[i] = v
			}
			items = out
		}
		return Object(newArray(items)), nil
	}))
	arrayCtor.obj.set("of", newNativeFunction("of", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Object(newArray(append([]Value{}, args...))), nil
	}))
	arrayCtor.obj.set("prototype", Object(arrayProto))
	g.vars["Array"] = arrayCtor

	g.vars["String"] = newNativeFunction("String", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		return String(arg(args, 0).String()), nil
	})
	numberCtor := newNativeFunction("Number", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		if len(args) == 0 {
			return Number(0), nil
		}
		return Number(arg(args, 0).ToFloat()), nil
	})
	installNumberStatics(numberCtor.obj)
	g.vars["Number"] = numberCtor

	g.vars["Boolean"] = newNativeFunction("Boolean", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		return Bool(arg(args, 0).ToBoolean()), nil
	})

	installErrorCtors(g)
	installMapSetCtors(g)
	installBigIntCtor(g)
	installDateCtor(g)
	installRegexCtor(g)
	ip.installEncodingGlobals(g)
	ip.installTimerGlobals(g)
	ip.installPromiseGlobal(g)

	g.vars["globalThis"] = Undefined() // patched to point at itself once window exists
	g.vars["undefined"] = Undefined()
	g.vars["NaN"] = Number(math.NaN())
	g.vars["Infinity"] = Number(math.Inf(1))

	g.vars["parseInt"] = newNativeFunction("parseInt", builtinParseInt)
	g.vars["parseFloat"] = newNativeFunction("parseFloat", builtinParseFloat)
	g.vars["isNaN"] = newNativeFunction("isNaN", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Bool(math.IsNaN(arg(args, 0).ToFloat())), nil
	})
	g.vars["isFinite"] = newNativeFunction("isFinite", func(ip *Interp, this Value, args []Value) (Value, error) {
		f := arg(args, 0).ToFloat()
		return Bool(!math.IsNaN(f) && !math.IsInf(f, 0)), nil
	})
	g.vars["structuredClone"] = newNativeFunction("structuredClone", func(ip *Interp, this Value, args []Value) (Value, error) {
		return deepClone(arg(args, 0), map[*object]*object{}), nil
	})
}

func (ip *Interp) emitConsole(level, msg string) {
	if ip.ConsoleOutput == nil {
		ip.ConsoleOutput = &[]string{}
	}
	*ip.ConsoleOutput = append(*ip.ConsoleOutput, level+": "+msg)
}

func consoleFormat(v Value) string {
	if v.IsString() {
		return v.s
	}
	if v.IsObject() && v.obj.isArray {
		parts := make([]string, len(v.obj.elements))
		for i, e := range v.obj.elements {
			parts[i] = consoleFormat(e)
		}
		return "[ " + strings.Join(parts, ", ") + " ]"
	}
	if v.IsObject() && v.obj.class == "Object" {
		parts := make([]string, 0, len(v.obj.keys))
		for _, k := range v.obj.ownKeys() {
			parts = append(parts, k+": "+consoleFormat(v.obj.get(k)))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	}
	return v.String()
}

// --- Math ---

func buildMathObject(ip *Interp) *object {
	m := newObject("Object")
	m.set("PI", Number(math.Pi))
	m.set("E", Number(math.E))
	m.set("LN2", Number(math.Ln2))
	m.set("LN10", Number(math.Log(10)))
	m.set("SQRT2", Number(math.Sqrt2))
	unary := func(name string, f func(float64) float64) {
		m.set(name, newNativeFunction(name, func(ip *Interp, this Value, args []Value) (Value, error) {
			return Number(f(arg(args, 0).ToFloat())), nil
		}))
	}
	unary("abs", math.Abs)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("sqrt", math.Sqrt)
	unary("cbrt", math.Cbrt)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("atan", math.Atan)
	unary("log", math.Log)
	unary("log2", math.Log2)
	unary("log10", math.Log10)
	unary("exp", math.Exp)
	unary("sign", func(f float64) float64 {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		default:
			return f
		}
	})
	unary("trunc", math.Trunc)
	m.set("round", newNativeFunction("round", func(ip *Interp, this Value, args []Value) (Value, error) {
		f := arg(args, 0).ToFloat()
		return Number(math.Floor(f + 0.5)), nil
	}))
	m.set("pow", newNativeFunction("pow", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(math.Pow(arg(args, 0).ToFloat(), arg(args, 1).ToFloat())), nil
	}))
	m.set("atan2", newNativeFunction("atan2", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(math.Atan2(arg(args, 0).ToFloat(), arg(args, 1).ToFloat())), nil
	}))
	m.set("hypot", newNativeFunction("hypot", func(ip *Interp, this Value, args []Value) (Value, error) {
		sum := 0.0
		for _, a := range args {
			f := a.ToFloat()
			sum += f * f
		}
		return Number(math.Sqrt(sum)), nil
	}))
	m.set("max", newNativeFunction("max", func(ip *Interp, this Value, args []Value) (Value, error) {
		if len(args) == 0 {
			return Number(math.Inf(-1)), nil
		}
		best := math.Inf(-1)
		for _, a := range args {
			f := a.ToFloat()
			if math.IsNaN(f) {
				return Number(math.NaN()), nil
			}
			if f > best {
				best = f
			}
		}
		return Number(best), nil
	}))
	m.set("min", newNativeFunction("min", func(ip *Interp, this Value, args []Value) (Value, error) {
		if len(args) == 0 {
			return Number(math.Inf(1)), nil
		}
		best := math.Inf(1)
		for _, a := range args {
			f := a.ToFloat()
			if math.IsNaN(f) {
				return Number(math.NaN()), nil
			}
			if f < best {
				best = f
			}
		}
		return Number(best), nil
	}))
	m.set("random", newNativeFunction("random", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Number(ip.nextRandom()), nil
	}))
	return m
}

// --- Object statics ---

func installObjectStatics(ctor *object) {
	ctor.set("keys", newNativeFunction("keys", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		var out []Value
		if v.IsObject() {
			for _, k := range v.obj.ownKeys() {
				out = append(out, String(k))
			}
		}
		return Object(newArray(out)), nil
	}))
	ctor.set("values", newNativeFunction("values", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		var out []Value
		if v.IsObject() {
			for _, k := range v.obj.ownKeys() {
				out = append(out, v.obj.get(k))
			}
		}
		return Object(newArray(out)), nil
	}))
	ctor.set("entries", newNativeFunction("entries", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		var out []Value
		if v.IsObject() {
			for _, k := range v.obj.ownKeys() {
				out = append(out, Object(newArray([]Value{String(k), v.obj.get(k)})))
			}
		}
		return Object(newArray(out)), nil
	}))
	ctor.set("assign", newNativeFunction("assign", func(ip *Interp, this Value, args []Value) (Value, error) {
		if len(args) == 0 || !args[0].IsObject() {
			return Value{}, newRuntimeError("Object.assign target must be an object")
		}
		target := args[0].obj
		for _, src := range args[1:] {
			if !src.IsObject() {
				continue
			}
			for _, k := range src.obj.ownKeys() {
				target.set(k, src.obj.get(k))
			}
		}
		return args[0], nil
	}))
	ctor.set("freeze", newNativeFunction("freeze", func(ip *Interp, this Value, args []Value) (Value, error) {
		return arg(args, 0), nil
	}))
	ctor.set("isFrozen", newNativeFunction("isFrozen", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Bool(false), nil
	}))
	ctor.set("create", newNativeFunction("create", func(ip *Interp, this Value, args []Value) (Value, error) {
		o := newObject("Object")
		if p := arg(args, 0); p.IsObject() {
			o.proto = p.obj
		}
		return Object(o), nil
	}))
	ctor.set("getPrototypeOf", newNativeFunction("getPrototypeOf", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		if v.IsObject() && v.obj.proto != nil {
			return Object(v.obj.proto), nil
		}
		return Null(), nil
	}))
	ctor.set("setPrototypeOf", newNativeFunction("setPrototypeOf", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		if v.IsObject() {
			if p := arg(args, 1); p.IsObject() {
				v.obj.proto = p.obj
			} else {
				v.obj.proto = nil
			}
		}
		return v, nil
	}))
	ctor.set("defineProperty", newNativeFunction("defineProperty", func(ip *Interp, this Value, args []Value) (Value, error) {
		target := arg(args, 0)
		key := arg(args, 1).String()
		desc := arg(args, 2)
		if !target.IsObject() || !desc.IsObject() {
			return target, nil
		}
		get := desc.obj.get("get")
		set := desc.obj.get("set")
		if get.IsCallable() || set.IsCallable() {
			ap := &accessorPair{}
			if get.IsCallable() {
				ap.get = func(this Value) (Value, error) { return callFunction(get, this, nil) }
			}
			if set.IsCallable() {
				ap.set = func(this Value, v Value) error { _, err := callFunction(set, this, []Value{v}); return err }
			}
			target.obj.defineAccessor(key, ap)
		} else {
			target.obj.set(key, desc.obj.get("value"))
		}
		return target, nil
	}))
	ctor.set("fromEntries", newNativeFunction("fromEntries", func(ip *Interp, this Value, args []Value) (Value, error) {
		items, err := ip.iterableToSlice(arg(args, 0))
		if err != nil {
			return Value{}, err
		}
		o := newObject("Object")
		for _, it := range items {
			if it.IsObject() && it.obj.isArray && len(it.obj.elements) >= 2 {
				o.set(it.obj.elements[0].String(), it.obj.elements[1])
			}
		}
		return Object(o), nil
	}))
}

func installNumberStatics(ctor *object) {
	ctor.set("isInteger", newNativeFunction("isInteger", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		return Bool(v.IsNumber() && v.n == math.Trunc(v.n) && !math.IsInf(v.n, 0)), nil
	}))
	ctor.set("isFinite", newNativeFunction("isFinite", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		return Bool(v.IsNumber() && !math.IsNaN(v.n) && !math.IsInf(v.n, 0)), nil
	}))
	ctor.set("isNaN", newNativeFunction("isNaN", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		return Bool(v.IsNumber() && math.IsNaN(v.n)), nil
	}))
	ctor.set("parseFloat", newNativeFunction("parseFloat", builtinParseFloat))
	ctor.set("parseInt", newNativeFunction("parseInt", builtinParseInt))
	ctor.set("MAX_SAFE_INTEGER", Number(9007199254740991))
	ctor.set("MIN_SAFE_INTEGER", Number(-9007199254740991))
	ctor.set("EPSILON", Number(2.220446049250313e-16))
	ctor.set("POSITIVE_INFINITY", Number(math.Inf(1)))
	ctor.set("NEGATIVE_INFINITY", Number(math.Inf(-1)))
	ctor.set("NaN", Number(math.NaN()))
}

func builtinParseInt(ip *Interp, this Value, args []Value) (Value, error) {
	s := strings.TrimSpace(arg(args, 0).String())
	base := 10
	if b := arg(args, 1); !b.IsUndefined() {
		base = int(b.ToFloat())
		if base == 0 {
			base = 10
		}
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if (base == 16 || base == 10) && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		s = s[2:]
		base = 16
	}
	end := 0
	for end < len(s) && isDigitInBase(s[end], base) {
		end++
	}
	if end == 0 {
		return Number(math.NaN()), nil
	}
	n, err := strconv.ParseInt(s[:end], base, 64)
	if err != nil {
		return Number(math.NaN()), nil
	}
	if neg {
		n = -n
	}
	return Number(float64(n)), nil
}

func isDigitInBase(c byte, base int) bool {
	var v int
	switch {
	case c >= '0' && c <= '9':
		v = int(c - '0')
	case c >= 'a' && c <= 'z':
		v = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		v = int(c-'A') + 10
	default:
		return false
	}
	return v < base
}

func builtinParseFloat(ip *Interp, this Value, args []Value) (Value, error) {
	s := strings.TrimSpace(arg(args, 0).String())
	end := 0
	seenDot, seenExp := false, false
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !seenDot && !seenExp {
			seenDot = true
			end++
			continue
		}
		if (c == '+' || c == '-') && end == 0 {
			end++
			continue
		}
		if (c == 'e' || c == 'E') && !seenExp && end > 0 {
			seenExp = true
			end++
			if end < len(s) && (s[end] == '+' || s[end] == '-') {
				end++
			}
			continue
		}
		break
	}
	if end == 0 {
		return Number(math.NaN()), nil
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return Number(math.NaN()), nil
	}
	return Number(f), nil
}

// --- Array.prototype ---

func registerArrayProto() {
	ap := arrayProto
	m := func(name string, fn func(ip *Interp, this Value, args []Value) (Value, error)) {
		ap.set(name, newNativeFunction(name, fn))
	}
	m("push", func(ip *Interp, this Value, args []Value) (Value, error) {
		this.obj.elements = append(this.obj.elements, args...)
		return Number(float64(len(this.obj.elements))), nil
	})
	m("pop", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := this.obj.elements
		if len(e) == 0 {
			return Undefined(), nil
		}
		v := e[len(e)-1]
		this.obj.elements = e[:len(e)-1]
		return v, nil
	})
	m("shift", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := this.obj.elements
		if len(e) == 0 {
			return Undefined(), nil
		}
		v := e[0]
		this.obj.elements = e[1:]
		return v, nil
	})
	m("unshift", func(ip *Interp, this Value, args []Value) (Value, error) {
		this.obj.elements = append(append([]Value{}, args...), this.obj.elements...)
		return Number(float64(len(this.obj.elements))), nil
	})
	m("slice", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := this.obj.elements
		start, end := sliceBounds(len(e), args)
		return Object(newArray(append([]Value{}, e[start:end]...))), nil
	})
	m("splice", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := this.obj.elements
		n := len(e)
		start := clampIndex(int(arg(args, 0).ToFloat()), n)
		delCount := n - start
		if len(args) > 1 {
			delCount = int(arg(args, 1).ToFloat())
			if delCount < 0 {
				delCount = 0
			}
			if start+delCount > n {
				delCount = n - start
			}
		}
		removed := append([]Value{}, e[start:start+delCount]...)
		rest := append([]Value{}, e[start+delCount:]...)
		head := append([]Value{}, e[:start]...)
		var insert []Value
		if len(args) > 2 {
			insert = args[2:]
		}
		this.obj.elements = append(append(head, insert...), rest...)
		return Object(newArray(removed)), nil
	})
	m("concat", func(ip *Interp, this Value, args []Value) (Value, error) {
		out := append([]Value{}, this.obj.elements...)
		for _, a := range args {
			if a.IsObject() && a.obj.isArray {
				out = append(out, a.obj.elements...)
			} else {
				out = append(out, a)
			}
		}
		return Object(newArray(out)), nil
	})
	m("join", func(ip *Interp, this Value, args []Value) (Value, error) {
		sep := ","
		if s := arg(args, 0); !s.IsUndefined() {
			sep = s.String()
		}
		parts := make([]string, len(this.obj.elements))
		for i, e := range this.obj.elements {
			if e.IsNullish() {
				parts[i] = ""
			} else {
				parts[i] = e.String()
			}
		}
		return String(strings.Join(parts, sep)), nil
	})
	m("reverse", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := this.obj.elements
		for i, j := 0, len(e)-1; i < j; i, j = i+1, j-1 {
			e[i], e[j] = e[j], e[i]
		}
		return this, nil
	})
	m("indexOf", func(ip *Interp, this Value, args []Value) (Value, error) {
		target := arg(args, 0)
		for i, e := range this.obj.elements {
			if StrictEquals(e, target) {
				return Number(float64(i)), nil
			}
		}
		return Number(-1), nil
	})
	m("lastIndexOf", func(ip *Interp, this Value, args []Value) (Value, error) {
		target := arg(args, 0)
		for i := len(this.obj.elements) - 1; i >= 0; i-- {
			if StrictEquals(this.obj.elements[i], target) {
				return Number(float64(i)), nil
			}
		}
		return Number(-1), nil
	})
	m("includes", func(ip *Interp, this Value, args []Value) (Value, error) {
		target := arg(args, 0)
		for _, e := range this.obj.elements {
			if StrictEquals(e, target) || (target.IsNumber() && math.IsNaN(target.n) && e.IsNumber() && math.IsNaN(e.n)) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	})
	m("find", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		for i, e := range this.obj.elements {
			r, err := callFunction(fn, arg(args, 1), []Value{e, Number(float64(i)), this})
			if err != nil {
				return Value{}, err
			}
			if r.ToBoolean() {
				return e, nil
			}
		}
		return Undefined(), nil
	})
	m("findIndex", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		for i, e := range this.obj.elements {
			r, err := callFunction(fn, arg(args, 1), []Value{e, Number(float64(i)), this})
			if err != nil {
				return Value{}, err
			}
			if r.ToBoolean() {
				return Number(float64(i)), nil
			}
		}
		return Number(-1), nil
	})
	m("map", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		out := make([]Value, len(this.obj.elements))
		for i, e := range this.obj.elements {
			r, err := callFunction(fn, arg(args, 1), []Value{e, Number(float64(i)), this})
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return Object(newArray(out)), nil
	})
	m("filter", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		var out []Value
		for i, e := range this.obj.elements {
			r, err := callFunction(fn, arg(args, 1), []Value{e, Number(float64(i)), this})
			if err != nil {
				return Value{}, err
			}
			if r.ToBoolean() {
				out = append(out, e)
			}
		}
		return Object(newArray(out)), nil
	})
	m("forEach", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		for i, e := range this.obj.elements {
			if _, err := callFunction(fn, arg(args, 1), []Value{e, Number(float64(i)), this}); err != nil {
				return Value{}, err
			}
		}
		return Undefined(), nil
	})
	m("some", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		for i, e := range this.obj.elements {
			r, err := callFunction(fn, arg(args, 1), []Value{e, Number(float64(i)), this})
			if err != nil {
				return Value{}, err
			}
			if r.ToBoolean() {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	})
	m("every", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		for i, e := range this.obj.elements {
			r, err := callFunction(fn, arg(args, 1), []Value{e, Number(float64(i)), this})
			if err != nil {
				return Value{}, err
			}
			if !r.ToBoolean() {
				return Bool(false), nil
			}
		}
		return Bool(true), nil
	})
	m("reduce", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		e := this.obj.elements
		var acc Value
		start := 0
		if len(args) > 1 {
			acc = args[1]
		} else {
			if len(e) == 0 {
				return Value{}, newRuntimeError("Reduce of empty array with no initial value")
			}
			acc = e[0]
			start = 1
		}
		for i := start; i < len(e); i++ {
			r, err := callFunction(fn, Undefined(), []Value{acc, e[i], Number(float64(i)), this})
			if err != nil {
				return Value{}, err
			}
			acc = r
		}
		return acc, nil
	})
	m("sort", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		e := this.obj.elements
		var sortErr error
		sort.SliceStable(e, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			if fn.IsCallable() {
				r, err := callFunction(fn, Undefined(), []Value{e[i], e[j]})
				if err != nil {
					sortErr = err
					return false
				}
				return r.ToFloat() < 0
			}
			return e[i].String() < e[j].String()
		})
		return this, sortErr
	})
	m("flat", func(ip *Interp, this Value, args []Value) (Value, error) {
		depth := 1
		if d := arg(args, 0); !d.IsUndefined() {
			depth = int(d.ToFloat())
		}
		return Object(newArray(flattenValues(this.obj.elements, depth))), nil
	})
	m("flatMap", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		var out []Value
		for i, e := range this.obj.elements {
			r, err := callFunction(fn, Undefined(), []Value{e, Number(float64(i)), this})
			if err != nil {
				return Value{}, err
			}
			out = append(out, r)
		}
		return Object(newArray(flattenValues(out, 1))), nil
	})
	m("fill", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		start, end := sliceBounds(len(this.obj.elements), args[min(1, len(args)):])
		for i := start; i < end; i++ {
			this.obj.elements[i] = v
		}
		return this, nil
	})
	m("keys", func(ip *Interp, this Value, args []Value) (Value, error) {
		idx := make([]Value, len(this.obj.elements))
		for i := range idx {
			idx[i] = Number(float64(i))
		}
		return Object(newArray(idx)), nil
	})
	m("values", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Object(newArray(append([]Value{}, this.obj.elements...))), nil
	})
	m("entries", func(ip *Interp, this Value, args []Value) (Value, error) {
		out := make([]Value, len(this.obj.elements))
		for i, e := range this.obj.elements {
			out[i] = Object(newArray([]Value{Number(float64(i)), e}))
		}
		return Object(newArray(out)), nil
	})
	m("at", func(ip *Interp, this Value, args []Value) (Value, error) {
		e := this.obj.elements
		i := int(arg(args, 0).ToFloat())
		if i < 0 {
			i += len(e)
		}
		if i < 0 || i >= len(e) {
			return Undefined(), nil
		}
		return e[i], nil
	})
	m("toString", func(ip *Interp, this Value, args []Value) (Value, error) {
		return String(this.obj.toString()), nil
	})
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func flattenValues(vs []Value, depth int) []Value {
	var out []Value
	for _, v := range vs {
		if depth > 0 && v.IsObject() && v.obj.isArray {
			out = append(out, flattenValues(v.obj.elements, depth-1)...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

func sliceBounds(n int, args []Value) (int, int) {
	start, end := 0, n
	if len(args) > 0 && !args[0].IsUndefined() {
		start = clampIndex(int(args[0].ToFloat()), n)
	}
	if len(args) > 1 && !args[1].IsUndefined() {
		end = clampIndex(int(args[1].ToFloat()), n)
	}
	if end < start {
		end = start
	}
	return start, end
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// --- Error constructors ---

// newErrorValue builds an Error-family instance the same way the
// Error/TypeError/RangeError/SyntaxError constructors below do, for
// internal failures (newRuntimeError) that need a catchable object
// rather than a bare Go error.
func newErrorValue(kind, msg string) Value {
	o := newObject(kind)
	o.proto = errorProto
	o.set("name", String(kind))
	o.set("message", String(msg))
	o.set("stack", String(kind+": "+msg))
	return Object(o)
}

func registerErrorProto() {
	errorProto.set("toString", newNativeFunction("toString", func(ip *Interp, this Value, args []Value) (Value, error) {
		return String(this.obj.toString()), nil
	}))
	errorProto.set("name", String("Error"))
	errorProto.set("message", String(""))
}

func installErrorCtors(g *environment) {
	for _, name := range []string{"Error", "TypeError", "RangeError", "SyntaxError"} {
		name := name
		ctor := newNativeFunction(name, func(ip *Interp, this Value, args []Value) (Value, error) {
			args, isNew := isConstructCall(args)
			o := newObject(name)
			o.proto = errorProto
			o.set("name", String(name))
			o.set("message", String(arg(args, 0).String()))
			o.set("stack", String(name+": "+arg(args, 0).String()))
			if isNew {
				return Object(o), nil
			}
			return Object(o), nil
		})
		ctor.obj.set("prototype", Object(errorProto))
		g.vars[name] = ctor
	}
}

// --- Map / Set ---

func registerMapProto() {
	findKey := func(o *object, key Value) int {
		for i, k := range o.mapKeys {
			if StrictEquals(k, key) {
				return i
			}
		}
		return -1
	}
	mapProto.set("get", newNativeFunction("get", func(ip *Interp, this Value, args []Value) (Value, error) {
		if i := findKey(this.obj, arg(args, 0)); i >= 0 {
			return this.obj.mapVals[i], nil
		}
		return Undefined(), nil
	}))
	mapProto.set("set", newNativeFunction("set", func(ip *Interp, this Value, args []Value) (Value, error) {
		k, v := arg(args, 0), arg(args, 1)
		if i := findKey(this.obj, k); i >= 0 {
			this.obj.mapVals[i] = v
		} else {
			this.obj.mapKeys = append(this.obj.mapKeys, k)
			this.obj.mapVals = append(this.obj.mapVals, v)
		}
		return this, nil
	}))
	mapProto.set("has", newNativeFunction("has", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Bool(findKey(this.obj, arg(args, 0)) >= 0), nil
	}))
	mapProto.set("delete", newNativeFunction("delete", func(ip *Interp, this Value, args []Value) (Value, error) {
		i := findKey(this.obj, arg(args, 0))
		if i < 0 {
			return Bool(false), nil
		}
		this.obj.mapKeys = append(this.obj.mapKeys[:i], this.obj.mapKeys[i+1:]...)
		this.obj.mapVals = append(this.obj.mapVals[:i], this.obj.mapVals[i+1:]...)
		return Bool(true), nil
	}))
	mapProto.set("clear", newNativeFunction("clear", func(ip *Interp, this Value, args []Value) (Value, error) {
		this.obj.mapKeys = nil
		this.obj.mapVals = nil
		return Undefined(), nil
	}))
	mapProto.set("forEach", newNativeFunction("forEach", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		for i, k := range this.obj.mapKeys {
			if _, err := callFunction(fn, Undefined(), []Value{this.obj.mapVals[i], k, this}); err != nil {
				return Value{}, err
			}
		}
		return Undefined(), nil
	}))
	mapProto.set("keys", newNativeFunction("keys", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Object(newArray(append([]Value{}, this.obj.mapKeys...))), nil
	}))
	mapProto.set("values", newNativeFunction("values", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Object(newArray(append([]Value{}, this.obj.mapVals...))), nil
	}))
	mapProto.defineAccessor("size", &accessorPair{get: func(this Value) (Value, error) {
		return Number(float64(len(this.obj.mapKeys))), nil
	}})
}

func registerSetProto() {
	has := func(o *object, v Value) int {
		for i, e := range o.mapVals {
			if StrictEquals(e, v) {
				return i
			}
		}
		return -1
	}
	setProto.set("add", newNativeFunction("add", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		if has(this.obj, v) < 0 {
			this.obj.mapVals = append(this.obj.mapVals, v)
		}
		return this, nil
	}))
	setProto.set("has", newNativeFunction("has", func(ip *Interp, this Value, args []Value) (Value, error) {
		return Bool(has(this.obj, arg(args, 0)) >= 0), nil
	}))
	setProto.set("delete", newNativeFunction("delete", func(ip *Interp, this Value, args []Value) (Value, error) {
		i := has(this.obj, arg(args, 0))
		if i < 0 {
			return Bool(false), nil
		}
		this.obj.mapVals = append(this.obj.mapVals[:i], this.obj.mapVals[i+1:]...)
		return Bool(true), nil
	}))
	setProto.set("clear", newNativeFunction("clear", func(ip *Interp, this Value, args []Value) (Value, error) {
		this.obj.mapVals = nil
		return Undefined(), nil
	}))
	setProto.set("forEach", newNativeFunction("forEach", func(ip *Interp, this Value, args []Value) (Value, error) {
		fn := arg(args, 0)
		for _, v := range this.obj.mapVals {
			if _, err := callFunction(fn, Undefined(), []Value{v, v, this}); err != nil {
				return Value{}, err
			}
		}
		return Undefined(), nil
	}))
	setProto.defineAccessor("size", &accessorPair{get: func(this Value) (Value, error) {
		return Number(float64(len(this.obj.mapVals))), nil
	}})
}

func installMapSetCtors(g *environment) {
	g.vars["Map"] = newNativeFunction("Map", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		o := newObject("Map")
		o.proto = mapProto
		if len(args) > 0 {
			items, err := ip.iterableToSlice(args[0])
			if err != nil {
				return Value{}, err
			}
			for _, it := range items {
				if it.IsObject() && it.obj.isArray && len(it.obj.elements) >= 2 {
					o.mapKeys = append(o.mapKeys, it.obj.elements[0])
					o.mapVals = append(o.mapVals, it.obj.elements[1])
				}
			}
		}
		return Object(o), nil
	})
	g.vars["Set"] = newNativeFunction("Set", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		o := newObject("Set")
		o.proto = setProto
		if len(args) > 0 {
			items, err := ip.iterableToSlice(args[0])
			if err != nil {
				return Value{}, err
			}
			for _, it := range items {
				dup := false
				for _, e := range o.mapVals {
					if StrictEquals(e, it) {
						dup = true
						break
					}
				}
				if !dup {
					o.mapVals = append(o.mapVals, it)
				}
			}
		}
		return Object(o), nil
	})
}

// --- RegExp ---

func newRegexObject(pattern, flags string) *object {
	o := newObject("RegExp")
	o.proto = regexProto
	o.rePattern, o.reFlags = pattern, flags
	o.set("source", String(pattern))
	o.set("flags", String(flags))
	o.set("global", Bool(strings.Contains(flags, "g")))
	o.set("lastIndex", Number(0))
	return o
}

func registerRegexProto() {
	regexProto.set("test", newNativeFunction("test", func(ip *Interp, this Value, args []Value) (Value, error) {
		re, err := compileJSRegex(this.obj.rePattern, this.obj.reFlags)
		if err != nil {
			return Bool(false), nil
		}
		return Bool(re.MatchString(arg(args, 0).String())), nil
	}))
	regexProto.set("exec", newNativeFunction("exec", func(ip *Interp, this Value, args []Value) (Value, error) {
		re, err := compileJSRegex(this.obj.rePattern, this.obj.reFlags)
		if err != nil {
			return Null(), nil
		}
		s := arg(args, 0).String()
		m := re.FindStringSubmatchIndex(s)
		if m == nil {
			return Null(), nil
		}
		var groups []Value
		for i := 0; i < len(m); i += 2 {
			if m[i] < 0 {
				groups = append(groups, Undefined())
			} else {
				groups = append(groups, String(s[m[i]:m[i+1]]))
			}
		}
		res := newArray(groups)
		res.set("index", Number(float64(m[0])))
		res.set("input", String(s))
		return Object(res), nil
	}))
	regexProto.set("toString", newNativeFunction("toString", func(ip *Interp, this Value, args []Value) (Value, error) {
		return String(this.obj.toString()), nil
	}))
}

func installRegexCtor(g *environment) {
	g.vars["RegExp"] = newNativeFunction("RegExp", func(ip *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		pattern := arg(args, 0).String()
		if p := arg(args, 0); p.IsObject() && p.obj.class == "RegExp" {
			pattern = p.obj.rePattern
		}
		flags := arg(args, 1).String()
		return Object(newRegexObject(pattern, flags)), nil
	})
}

// --- JSON ---

func jsonStringify(ip *Interp, this Value, args []Value) (Value, error) {
	v := arg(args, 0)
	indent := ""
	if ind := arg(args, 2); ind.IsNumber() {
		indent = strings.Repeat(" ", int(ind.ToFloat()))
	} else if ind.IsString() {
		indent = ind.s
	}
	var sb strings.Builder
	if !jsonWrite(&sb, v, indent, "") {
		return Undefined(), nil
	}
	return String(sb.String()), nil
}

func jsonWrite(sb *strings.Builder, v Value, indent, cur string) bool {
	if v.IsObject() && v.obj.get("toJSON").IsCallable() {
		r, err := callFunction(v.obj.get("toJSON"), v, nil)
		if err == nil {
			v = r
		}
	}
	switch {
	case v.IsUndefined(), v.IsCallable():
		return false
	case v.IsNull():
		sb.WriteString("null")
	case v.kind == kindBool:
		sb.WriteString(v.String())
	case v.IsNumber():
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			sb.WriteString("null")
		} else {
			sb.WriteString(v.String())
		}
	case v.IsString():
		sb.WriteString(jsonQuote(v.s))
	case v.IsObject() && v.obj.isArray:
		sb.WriteByte('[')
		nextCur := cur + indent
		for i, e := range v.obj.elements {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeIndentNL(sb, indent, nextCur)
			if !jsonWrite(sb, e, indent, nextCur) {
				sb.WriteString("null")
			}
		}
		if len(v.obj.elements) > 0 {
			writeIndentNL(sb, indent, cur)
		}
		sb.WriteByte(']')
	case v.IsObject():
		sb.WriteByte('{')
		nextCur := cur + indent
		first := true
		for _, k := range v.obj.ownKeys() {
			var tmp strings.Builder
			if !jsonWrite(&tmp, v.obj.get(k), indent, nextCur) {
				continue
			}
			if !first {
				sb.WriteByte(',')
			}
			first = false
			writeIndentNL(sb, indent, nextCur)
			sb.WriteString(jsonQuote(k))
			sb.WriteByte(':')
			if indent != "" {
				sb.WriteByte(' ')
			}
			sb.WriteString(tmp.String())
		}
		if !first {
			writeIndentNL(sb, indent, cur)
		}
		sb.WriteByte('}')
	default:
		return false
	}
	return true
}

func writeIndentNL(sb *strings.Builder, indent, cur string) {
	if indent == "" {
		return
	}
	sb.WriteByte('\n')
	sb.WriteString(cur)
}

func jsonQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func jsonParse(ip *Interp, this Value, args []Value) (Value, error) {
	p := &jsonParser{s: arg(args, 0).String()}
	p.skipWS()
	v, err := p.parseValue()
	if err != nil {
		return Value{}, newRuntimeError("%s", err.Error())
	}
	return v, nil
}

type jsonParser struct {
	s   string
	pos int
}

func (p *jsonParser) skipWS() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) parseValue() (Value, error) {
	p.skipWS()
	if p.pos >= len(p.s) {
		return Value{}, fmt.Errorf("unexpected end of JSON input")
	}
	switch c := p.s[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		return String(s), err
	case c == 't':
		p.pos += 4
		return Bool(true), nil
	case c == 'f':
		p.pos += 5
		return Bool(false), nil
	case c == 'n':
		p.pos += 4
		return Null(), nil
	default:
		start := p.pos
		for p.pos < len(p.s) && strings.ContainsRune("-+.eE0123456789", rune(p.s[p.pos])) {
			p.pos++
		}
		f, err := strconv.ParseFloat(p.s[start:p.pos], 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid JSON number")
		}
		return Number(f), nil
	}
}

func (p *jsonParser) parseObject() (Value, error) {
	p.pos++
	o := newObject("Object")
	p.skipWS()
	if p.pos < len(p.s) && p.s[p.pos] == '}' {
		p.pos++
		return Object(o), nil
	}
	for {
		p.skipWS()
		key, err := p.parseString()
		if err != nil {
			return Value{}, err
		}
		p.skipWS()
		if p.pos >= len(p.s) || p.s[p.pos] != ':' {
			return Value{}, fmt.Errorf("expected ':' in JSON object")
		}
		p.pos++
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		o.set(key, v)
		p.skipWS()
		if p.pos < len(p.s) && p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		break
	}
	p.skipWS()
	if p.pos >= len(p.s) || p.s[p.pos] != '}' {
		return Value{}, fmt.Errorf("expected '}' in JSON object")
	}
	p.pos++
	return Object(o), nil
}

func (p *jsonParser) parseArray() (Value, error) {
	p.pos++
	var elems []Value
	p.skipWS()
	if p.pos < len(p.s) && p.s[p.pos] == ']' {
		p.pos++
		return Object(newArray(elems)), nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
		p.skipWS()
		if p.pos < len(p.s) && p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		break
	}
	p.skipWS()
	if p.pos >= len(p.s) || p.s[p.pos] != ']' {
		return Value{}, fmt.Errorf("expected ']' in JSON array")
	}
	p.pos++
	return Object(newArray(elems)), nil
}

func (p *jsonParser) parseString() (string, error) {
	if p.pos >= len(p.s) || p.s[p.pos] != '"' {
		return "", fmt.Errorf("expected string in JSON")
	}
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '"' {
			p.pos++
			return sb.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.s) {
				break
			}
			switch p.s[p.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case '/':
				sb.WriteByte('/')
			case 'u':
				h := p.s[p.pos+1 : p.pos+5]
				n, _ := strconv.ParseInt(h, 16, 32)
				sb.WriteRune(rune(n))
				p.pos += 4
			}
			p.pos++
			continue
		}
		sb.WriteByte(c)
		p.pos++
	}
	return "", fmt.Errorf("unterminated string in JSON")
}

// --- deep clone (structuredClone) ---

func deepClone(v Value, seen map[*object]*object) Value {
	if !v.IsObject() {
		return v
	}
	if cloned, ok := seen[v.obj]; ok {
		return Object(cloned)
	}
	if v.obj.isArray {
		out := newArray(nil)
		seen[v.obj] = out
		for _, e := range v.obj.elements {
			out.elements = append(out.elements, deepClone(e, seen))
		}
		return Object(out)
	}
	out := newObject(v.obj.class)
	seen[v.obj] = out
	for _, k := range v.obj.ownKeys() {
		out.set(k, deepClone(v.obj.get(k), seen))
	}
	return Object(out)
}
