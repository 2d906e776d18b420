package jsscript

import (
	"math"
	"math/big"

	"github.com/finitefield-org/browser-tester/dom"
)

func (ip *Interp) evalExpr(env *environment, e Expr) (Value, error) {
	switch x := e.(type) {
	case *NumberLit:
		return Number(x.Value), nil
	case *BigIntLit:
		i := new(big.Int)
		i.SetString(trimBigIntSuffix(x.Text), 0)
		return BigInt(i), nil
	case *StringLit:
		return String(x.Value), nil
	case *BoolLit:
		return Bool(x.Value), nil
	case *NullLit:
		return Null(), nil
	case *ThisExpr:
		if v, ok := env.lookup("this"); ok {
			return v, nil
		}
		return Undefined(), nil
	case *Ident:
		if x.Name == "undefined" {
			return Undefined(), nil
		}
		if v, ok := env.lookup(x.Name); ok {
			return v, nil
		}
		return Value{}, newRuntimeError("%s is not defined", x.Name)
	case *TemplateLit:
		return ip.evalTemplate(env, x)
	case *RegexLit:
		return Object(newRegexObject(x.Pattern, x.Flags)), nil
	case *ArrayLit:
		return ip.evalArrayLit(env, x)
	case *ObjectLit:
		return ip.evalObjectLit(env, x)
	case *FuncLit:
		return ip.makeFunction(x, env), nil
	case *SpreadExpr:
		return ip.evalExpr(env, x.X)
	case *MemberExpr, *CallExpr, *NewExpr:
		v, _, err := ip.evalChain(env, e)
		return v, err
	case *UnaryExpr:
		return ip.evalUnary(env, x)
	case *UpdateExpr:
		return ip.evalUpdate(env, x)
	case *BinaryExpr:
		return ip.evalBinary(env, x)
	case *LogicalExpr:
		return ip.evalLogical(env, x)
	case *AssignExpr:
		return ip.evalAssign(env, x)
	case *CondExpr:
		t, err := ip.evalExpr(env, x.Test)
		if err != nil {
			return Value{}, err
		}
		if t.ToBoolean() {
			return ip.evalExpr(env, x.Cons)
		}
		return ip.evalExpr(env, x.Alt)
	case *SeqExpr:
		var v Value
		for _, sub := range x.Exprs {
			var err error
			v, err = ip.evalExpr(env, sub)
			if err != nil {
				return Value{}, err
			}
		}
		return v, nil
	case *YieldExpr:
		return ip.evalYield(env, x)
	case *AwaitExpr:
		return ip.evalAwait(env, x)
	}
	return Value{}, newRuntimeError("unsupported expression %T", e)
}

func trimBigIntSuffix(s string) string {
	if len(s) > 0 && s[len(s)-1] == 'n' {
		return s[:len(s)-1]
	}
	return s
}

func (ip *Interp) evalTemplate(env *environment, t *TemplateLit) (Value, error) {
	out := t.Quasis[0]
	for i, ex := range t.Exprs {
		v, err := ip.evalExpr(env, ex)
		if err != nil {
			return Value{}, err
		}
		out += v.String()
		out += t.Quasis[i+1]
	}
	return String(out), nil
}

func (ip *Interp) evalArrayLit(env *environment, a *ArrayLit) (Value, error) {
	var elems []Value
	for _, el := range a.Elements {
		if el == nil {
			elems = append(elems, Undefined())
			continue
		}
		if sp, ok := el.(*SpreadExpr); ok {
			v, err := ip.evalExpr(env, sp.X)
			if err != nil {
				return Value{}, err
			}
			items, err := ip.iterableToSlice(v)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, items...)
			continue
		}
		v, err := ip.evalExpr(env, el)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
	return Object(newArray(elems)), nil
}

func (ip *Interp) evalObjectLit(env *environment, ol *ObjectLit) (Value, error) {
	o := newObject("Object")
	o.proto = objectProto
	for _, p := range ol.Props {
		if p.Spread {
			v, err := ip.evalExpr(env, p.Value)
			if err != nil {
				return Value{}, err
			}
			if v.IsObject() {
				for _, k := range v.obj.ownKeys() {
					o.set(k, v.obj.get(k))
				}
			}
			continue
		}
		key, err := ip.propKeyName(env, p.Key, p.Computed)
		if err != nil {
			return Value{}, err
		}
		switch p.Kind {
		case "get":
			fnLit := p.Value.(*FuncLit)
			fnv := ip.makeFunction(fnLit, env)
			ap := o.accessors[key]
			if ap == nil {
				ap = &accessorPair{}
			}
			ap.get = func(this Value) (Value, error) { return callFunction(fnv, this, nil) }
			o.defineAccessor(key, ap)
		case "set":
			fnLit := p.Value.(*FuncLit)
			fnv := ip.makeFunction(fnLit, env)
			ap := o.accessors[key]
			if ap == nil {
				ap = &accessorPair{}
			}
			ap.set = func(this Value, v Value) error { _, err := callFunction(fnv, this, []Value{v}); return err }
			o.defineAccessor(key, ap)
		default:
			v, err := ip.evalExpr(env, p.Value)
			if err != nil {
				return Value{}, err
			}
			o.set(key, v)
		}
	}
	return Object(o), nil
}

// --- member/call chains with optional-chaining short-circuit ---

func (ip *Interp) evalChain(env *environment, e Expr) (Value, bool, error) {
	switch x := e.(type) {
	case *MemberExpr:
		objVal, short, err := ip.evalChain(env, x.Obj)
		if err != nil || short {
			return Value{}, short, err
		}
		if x.Optional && objVal.IsNullish() {
			return Undefined(), true, nil
		}
		key, err := ip.propKeyName(env, x.Prop, x.Computed)
		if err != nil {
			return Value{}, false, err
		}
		if objVal.IsNullish() {
			return Value{}, false, newRuntimeError("Cannot read properties of %s (reading '%s')", objVal.String(), key)
		}
		v, err := ip.getProperty(objVal, key)
		return v, false, err
	case *CallExpr:
		var thisVal Value
		var calleeVal Value
		var short bool
		var err error
		if me, ok := x.Callee.(*MemberExpr); ok {
			thisVal, short, err = ip.evalChain(env, me.Obj)
			if err != nil || short {
				return Value{}, short, err
			}
			if me.Optional && thisVal.IsNullish() {
				return Undefined(), true, nil
			}
			key, kerr := ip.propKeyName(env, me.Prop, me.Computed)
			if kerr != nil {
				return Value{}, false, kerr
			}
			if thisVal.IsNullish() {
				return Value{}, false, newRuntimeError("Cannot read properties of %s (reading '%s')", thisVal.String(), key)
			}
			calleeVal, err = ip.getProperty(thisVal, key)
			if err != nil {
				return Value{}, false, err
			}
		} else {
			calleeVal, short, err = ip.evalChain(env, x.Callee)
			if err != nil || short {
				return Value{}, short, err
			}
			thisVal = Undefined()
		}
		if x.Optional && calleeVal.IsNullish() {
			return Undefined(), true, nil
		}
		args, err := ip.evalArgs(env, x.Args)
		if err != nil {
			return Value{}, false, err
		}
		if !calleeVal.IsCallable() {
			return Value{}, false, newRuntimeError("%s is not a function", describeCallee(x.Callee))
		}
		v, err := callFunction(calleeVal, thisVal, args)
		return v, false, err
	case *NewExpr:
		calleeVal, err := ip.evalExpr(env, x.Callee)
		if err != nil {
			return Value{}, false, err
		}
		args, err := ip.evalArgs(env, x.Args)
		if err != nil {
			return Value{}, false, err
		}
		v, err := ip.construct(calleeVal, args)
		return v, false, err
	default:
		v, err := ip.evalExpr(env, e)
		return v, false, err
	}
}

func describeCallee(e Expr) string {
	switch c := e.(type) {
	case *Ident:
		return c.Name
	case *MemberExpr:
		if id, ok := c.Prop.(*Ident); ok {
			return id.Name
		}
	}
	return "value"
}

func (ip *Interp) evalArgs(env *environment, argExprs []Expr) ([]Value, error) {
	var args []Value
	for _, a := range argExprs {
		if sp, ok := a.(*SpreadExpr); ok {
			v, err := ip.evalExpr(env, sp.X)
			if err != nil {
				return nil, err
			}
			items, err := ip.iterableToSlice(v)
			if err != nil {
				return nil, err
			}
			args = append(args, items...)
			continue
		}
		v, err := ip.evalExpr(env, a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// getProperty resolves property access for every primitive/object
// shape the language exposes, routing DOM-wrapper reads through
// domGet so spec.md's §9 ordering note — event/method-chain resolution
// before generic property fallthrough — is a concrete branch here
// rather than left to a host object model.
func (ip *Interp) getProperty(v Value, key string) (Value, error) {
	if v.IsString() {
		return stringProperty(v.s, key), nil
	}
	if v.IsNumber() || v.IsBool() {
		return ip.boxedPrimitiveMethod(v, key), nil
	}
	if v.IsBigInt() {
		return bigIntProperty(v, key), nil
	}
	if !v.IsObject() {
		return Undefined(), nil
	}
	if v.obj.class == "Node" {
		return ip.domGet(v, key)
	}
	if v.obj.class == "CSSStyleDeclaration" {
		return styleGet(v.obj.extra.(dom.Element), key), nil
	}
	return v.obj.get(key), nil
}

func (v Value) IsBool() bool { return v.kind == kindBool }

// --- operators ---

func (ip *Interp) evalUnary(env *environment, u *UnaryExpr) (Value, error) {
	if u.Op == "delete" {
		if me, ok := u.X.(*MemberExpr); ok {
			objVal, err := ip.evalExpr(env, me.Obj)
			if err != nil {
				return Value{}, err
			}
			key, err := ip.propKeyName(env, me.Prop, me.Computed)
			if err != nil {
				return Value{}, err
			}
			if objVal.IsObject() {
				objVal.obj.delete(key)
			}
			return Bool(true), nil
		}
		return Bool(true), nil
	}
	if u.Op == "typeof" {
		if id, ok := u.X.(*Ident); ok {
			if _, found := env.lookup(id.Name); !found && id.Name != "undefined" {
				return String("undefined"), nil
			}
		}
		v, err := ip.evalExpr(env, u.X)
		if err != nil {
			return Value{}, err
		}
		return String(v.TypeOf()), nil
	}
	v, err := ip.evalExpr(env, u.X)
	if err != nil {
		return Value{}, err
	}
	switch u.Op {
	case "void":
		return Undefined(), nil
	case "!":
		return Bool(!v.ToBoolean()), nil
	case "-":
		if v.IsBigInt() {
			return BigInt(new(big.Int).Neg(v.big)), nil
		}
		return Number(-v.ToFloat()), nil
	case "+":
		return Number(v.ToFloat()), nil
	case "~":
		return Number(float64(^toInt32(v.ToFloat()))), nil
	}
	return Value{}, newRuntimeError("unsupported unary operator %q", u.Op)
}

func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(f)))
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return uint32(int64(f))
}

func (ip *Interp) evalUpdate(env *environment, u *UpdateExpr) (Value, error) {
	old, err := ip.evalExpr(env, u.X)
	if err != nil {
		return Value{}, err
	}
	var nv Value
	if old.IsBigInt() {
		delta := big.NewInt(1)
		if u.Op == "--" {
			delta = big.NewInt(-1)
		}
		nv = BigInt(new(big.Int).Add(old.big, delta))
	} else {
		delta := 1.0
		if u.Op == "--" {
			delta = -1.0
		}
		nv = Number(old.ToFloat() + delta)
	}
	if err := ip.assignTo(env, u.X, nv); err != nil {
		return Value{}, err
	}
	if u.Prefix {
		return nv, nil
	}
	if old.IsBigInt() || old.IsNumber() {
		return old, nil
	}
	return Number(old.ToFloat()), nil
}

func (ip *Interp) evalBinary(env *environment, b *BinaryExpr) (Value, error) {
	l, err := ip.evalExpr(env, b.L)
	if err != nil {
		return Value{}, err
	}
	r, err := ip.evalExpr(env, b.R)
	if err != nil {
		return Value{}, err
	}
	return applyBinaryOp(ip, b.Op, l, r)
}

func applyBinaryOp(ip *Interp, op string, l, r Value) (Value, error) {
	switch op {
	case "+":
		if l.IsString() || r.IsString() {
			return String(l.String() + r.String()), nil
		}
		if l.IsObject() || r.IsObject() {
			lp, rp := l, r
			if l.IsObject() {
				lp = l.toPrimitive()
			}
			if r.IsObject() {
				rp = r.toPrimitive()
			}
			if lp.IsString() || rp.IsString() {
				return String(lp.String() + rp.String()), nil
			}
			return Number(lp.ToFloat() + rp.ToFloat()), nil
		}
		if l.IsBigInt() && r.IsBigInt() {
			return BigInt(new(big.Int).Add(l.big, r.big)), nil
		}
		return Number(l.ToFloat() + r.ToFloat()), nil
	case "-":
		if l.IsBigInt() && r.IsBigInt() {
			return BigInt(new(big.Int).Sub(l.big, r.big)), nil
		}
		return Number(l.ToFloat() - r.ToFloat()), nil
	case "*":
		if l.IsBigInt() && r.IsBigInt() {
			return BigInt(new(big.Int).Mul(l.big, r.big)), nil
		}
		return Number(l.ToFloat() * r.ToFloat()), nil
	case "/":
		if l.IsBigInt() && r.IsBigInt() {
			if r.big.Sign() == 0 {
				return Value{}, newRuntimeError("Division by zero")
			}
			return BigInt(new(big.Int).Quo(l.big, r.big)), nil
		}
		return Number(l.ToFloat() / r.ToFloat()), nil
	case "%":
		if l.IsBigInt() && r.IsBigInt() {
			return BigInt(new(big.Int).Rem(l.big, r.big)), nil
		}
		return Number(math.Mod(l.ToFloat(), r.ToFloat())), nil
	case "**":
		if l.IsBigInt() && r.IsBigInt() {
			return BigInt(new(big.Int).Exp(l.big, r.big, nil)), nil
		}
		return Number(math.Pow(l.ToFloat(), r.ToFloat())), nil
	case "==":
		return Bool(LooseEquals(l, r)), nil
	case "!=":
		return Bool(!LooseEquals(l, r)), nil
	case "===":
		return Bool(StrictEquals(l, r)), nil
	case "!==":
		return Bool(!StrictEquals(l, r)), nil
	case "<", ">", "<=", ">=":
		return compareValues(op, l, r), nil
	case "&":
		return Number(float64(toInt32(l.ToFloat()) & toInt32(r.ToFloat()))), nil
	case "|":
		return Number(float64(toInt32(l.ToFloat()) | toInt32(r.ToFloat()))), nil
	case "^":
		return Number(float64(toInt32(l.ToFloat()) ^ toInt32(r.ToFloat()))), nil
	case "<<":
		return Number(float64(toInt32(l.ToFloat()) << (toUint32(r.ToFloat()) & 31))), nil
	case ">>":
		return Number(float64(toInt32(l.ToFloat()) >> (toUint32(r.ToFloat()) & 31))), nil
	case ">>>":
		return Number(float64(toUint32(l.ToFloat()) >> (toUint32(r.ToFloat()) & 31))), nil
	case "instanceof":
		return Bool(instanceOf(l, r)), nil
	case "in":
		if !r.IsObject() {
			return Value{}, newRuntimeError("Cannot use 'in' operator on a non-object")
		}
		return Bool(r.obj.has(l.String())), nil
	}
	return Value{}, newRuntimeError("unsupported binary operator %q", op)
}

func compareValues(op string, l, r Value) Value {
	if l.IsString() && r.IsString() {
		switch op {
		case "<":
			return Bool(l.s < r.s)
		case ">":
			return Bool(l.s > r.s)
		case "<=":
			return Bool(l.s <= r.s)
		default:
			return Bool(l.s >= r.s)
		}
	}
	lf, rf := l.ToFloat(), r.ToFloat()
	if math.IsNaN(lf) || math.IsNaN(rf) {
		return Bool(false)
	}
	switch op {
	case "<":
		return Bool(lf < rf)
	case ">":
		return Bool(lf > rf)
	case "<=":
		return Bool(lf <= rf)
	default:
		return Bool(lf >= rf)
	}
}

func instanceOf(l, r Value) bool {
	if !l.IsObject() || !r.IsObject() || r.obj.call == nil {
		return false
	}
	proto := l.obj.proto
	target := r.obj.get("prototype")
	for proto != nil {
		if target.IsObject() && proto == target.obj {
			return true
		}
		proto = proto.proto
	}
	return l.obj.class == r.obj.call.name
}

func (ip *Interp) evalLogical(env *environment, l *LogicalExpr) (Value, error) {
	left, err := ip.evalExpr(env, l.L)
	if err != nil {
		return Value{}, err
	}
	switch l.Op {
	case "&&":
		if !left.ToBoolean() {
			return left, nil
		}
	case "||":
		if left.ToBoolean() {
			return left, nil
		}
	case "??":
		if !left.IsNullish() {
			return left, nil
		}
	}
	return ip.evalExpr(env, l.R)
}

func (ip *Interp) evalAssign(env *environment, a *AssignExpr) (Value, error) {
	if a.Op == "=" {
		v, err := ip.evalExpr(env, a.Value)
		if err != nil {
			return Value{}, err
		}
		if err := ip.assignTo(env, a.Target, v); err != nil {
			return Value{}, err
		}
		return v, nil
	}
	if a.Op == "&&=" || a.Op == "||=" || a.Op == "??=" {
		cur, err := ip.evalExpr(env, a.Target)
		if err != nil {
			return Value{}, err
		}
		skip := (a.Op == "&&=" && !cur.ToBoolean()) ||
			(a.Op == "||=" && cur.ToBoolean()) ||
			(a.Op == "??=" && !cur.IsNullish())
		if skip {
			return cur, nil
		}
		v, err := ip.evalExpr(env, a.Value)
		if err != nil {
			return Value{}, err
		}
		if err := ip.assignTo(env, a.Target, v); err != nil {
			return Value{}, err
		}
		return v, nil
	}
	cur, err := ip.evalExpr(env, a.Target)
	if err != nil {
		return Value{}, err
	}
	rhs, err := ip.evalExpr(env, a.Value)
	if err != nil {
		return Value{}, err
	}
	op := a.Op[:len(a.Op)-1]
	nv, err := applyBinaryOp(ip, op, cur, rhs)
	if err != nil {
		return Value{}, err
	}
	if err := ip.assignTo(env, a.Target, nv); err != nil {
		return Value{}, err
	}
	return nv, nil
}

func (ip *Interp) assignTo(env *environment, target Expr, v Value) error {
	switch t := target.(type) {
	case *Ident:
		return env.assign(t.Name, v)
	case *MemberExpr:
		return ip.assignMember(env, t, v)
	case *ArrayLit, *ObjectLit:
		return ip.bindPattern(env, target, v, false, false)
	}
	return newRuntimeError("invalid assignment target")
}

func (ip *Interp) assignMember(env *environment, me *MemberExpr, v Value) error {
	objVal, err := ip.evalExpr(env, me.Obj)
	if err != nil {
		return err
	}
	key, err := ip.propKeyName(env, me.Prop, me.Computed)
	if err != nil {
		return err
	}
	if !objVal.IsObject() {
		return newRuntimeError("Cannot set properties of %s", objVal.String())
	}
	if objVal.obj.class == "Node" {
		return ip.domSet(objVal, key, v)
	}
	if objVal.obj.class == "CSSStyleDeclaration" {
		return styleSet(objVal.obj.extra.(dom.Element), key, v)
	}
	return objVal.obj.set(key, v)
}

func (ip *Interp) evalYield(env *environment, y *YieldExpr) (Value, error) {
	var v Value = Undefined()
	if y.X != nil {
		var err error
		v, err = ip.evalExpr(env, y.X)
		if err != nil {
			return Value{}, err
		}
	}
	sink := findYieldSink(env)
	if sink == nil {
		return Undefined(), nil
	}
	if y.Delegate {
		items, err := ip.iterableToSlice(v)
		if err != nil {
			return Value{}, err
		}
		*sink = append(*sink, items...)
		return Undefined(), nil
	}
	*sink = append(*sink, v)
	return Undefined(), nil
}

func findYieldSink(env *environment) *[]Value {
	for cur := env; cur != nil; cur = cur.parent {
		if cur.yieldCollector != nil {
			return cur.yieldCollector
		}
		if cur.isFunctionScope {
			return nil
		}
	}
	return nil
}

// evalAwait does not suspend execution — it drains the scheduler (the
// microtask queue, and anything that unblocks it) synchronously until
// the awaited Promise settles, per spec.md's "no host threading
// primitives" design note. A non-Promise operand passes through
// unchanged, matching real await semantics for already-resolved values.
func (ip *Interp) evalAwait(env *environment, a *AwaitExpr) (Value, error) {
	v, err := ip.evalExpr(env, a.X)
	if err != nil {
		return Value{}, err
	}
	if !v.IsObject() || v.obj.promise == nil {
		return v, nil
	}
	p := v.obj.promise
	for i := 0; i < 10_000 && p.state == promisePending; i++ {
		_ = ip.sched.Flush()
		if p.state != promisePending {
			break
		}
		if !ip.sched.RunNextTimer() {
			break
		}
	}
	switch p.state {
	case promiseFulfilled:
		return p.value, nil
	case promiseRejected:
		return Value{}, throwError(p.value)
	default:
		return Undefined(), nil
	}
}
