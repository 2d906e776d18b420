package jsscript

// ctrlKind tags a statement-level completion: everything but
// ctrlNormal aborts the enclosing block/loop/function the way
// break/continue/return do in real JS. Thrown exceptions travel as Go
// errors (*RuntimeError) instead, so try/catch can use a plain `if err
// != nil` rather than threading a fifth completion kind through every
// statement case.
type ctrlKind int

const (
	ctrlNormal ctrlKind = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

type completion struct {
	kind  ctrlKind
	label string
	value Value
}

var normalCompletion = completion{kind: ctrlNormal}

// Run parses and evaluates source as a top-level program, returning
// the value of its last expression statement (mirroring how the
// REPL-ish callers in engine/actions.go use a script's result).
func (ip *Interp) Run(source string) (Value, error) {
	prog, err := Parse(source)
	if err != nil {
		return Value{}, err
	}
	ip.hoistVars(ip.global, prog.Body)
	ip.lastExprValue = Undefined()
	for _, st := range prog.Body {
		c, err := ip.execStmt(ip.global, st)
		if err != nil {
			return Value{}, err
		}
		if c.kind == ctrlReturn {
			return c.value, nil
		}
	}
	return ip.lastExprValue, nil
}

// execStmt evaluates one statement, threading hoisting-free lexical
// scope through env. lastExprValue is updated so Run can report the
// value of a bare expression statement, matching spec.md's "script
// evaluation yields the value of its final expression" note.
func (ip *Interp) execStmt(env *environment, st Stmt) (completion, error) {
	switch s := st.(type) {
	case *EmptyStmt:
		return normalCompletion, nil
	case *BlockStmt:
		return ip.execBlock(newEnvironment(env), s.Body)
	case *ExprStmt:
		v, err := ip.evalExpr(env, s.X)
		if err != nil {
			return completion{}, err
		}
		ip.lastExprValue = v
		return normalCompletion, nil
	case *VarDecl:
		return normalCompletion, ip.execVarDecl(env, s)
	case *IfStmt:
		t, err := ip.evalExpr(env, s.Test)
		if err != nil {
			return completion{}, err
		}
		if t.ToBoolean() {
			return ip.execStmt(env, s.Cons)
		}
		if s.Alt != nil {
			return ip.execStmt(env, s.Alt)
		}
		return normalCompletion, nil
	case *WhileStmt:
		return ip.execWhile(env, s, "")
	case *DoWhileStmt:
		return ip.execDoWhile(env, s, "")
	case *ForStmt:
		return ip.execFor(env, s, "")
	case *ForInStmt:
		return ip.execForIn(env, s, "")
	case *BreakStmt:
		return completion{kind: ctrlBreak, label: s.Label}, nil
	case *ContinueStmt:
		return completion{kind: ctrlContinue, label: s.Label}, nil
	case *ReturnStmt:
		if s.Value == nil {
			return completion{kind: ctrlReturn, value: Undefined()}, nil
		}
		v, err := ip.evalExpr(env, s.Value)
		if err != nil {
			return completion{}, err
		}
		return completion{kind: ctrlReturn, value: v}, nil
	case *ThrowStmt:
		v, err := ip.evalExpr(env, s.Value)
		if err != nil {
			return completion{}, err
		}
		return completion{}, throwError(v)
	case *TryStmt:
		return ip.execTry(env, s)
	case *FuncDecl:
		fn := ip.makeFunction(s.Fn, env)
		env.vars[s.Name] = fn
		return normalCompletion, nil
	case *LabeledStmt:
		return ip.execLabeled(env, s)
	}
	return completion{}, newRuntimeError("unsupported statement %T", st)
}

func (ip *Interp) execLabeled(env *environment, s *LabeledStmt) (completion, error) {
	var c completion
	var err error
	switch b := s.Body.(type) {
	case *WhileStmt:
		c, err = ip.execWhile(env, b, s.Label)
	case *DoWhileStmt:
		c, err = ip.execDoWhile(env, b, s.Label)
	case *ForStmt:
		c, err = ip.execFor(env, b, s.Label)
	case *ForInStmt:
		c, err = ip.execForIn(env, b, s.Label)
	default:
		c, err = ip.execStmt(env, s.Body)
	}
	if err != nil {
		return completion{}, err
	}
	if c.kind == ctrlBreak && c.label == s.Label {
		return normalCompletion, nil
	}
	return c, nil
}

func (ip *Interp) execBlock(env *environment, stmts []Stmt) (completion, error) {
	ip.hoistVars(env, stmts)
	for _, st := range stmts {
		c, err := ip.execStmt(env, st)
		if err != nil {
			return completion{}, err
		}
		if c.kind != ctrlNormal {
			return c, nil
		}
	}
	return normalCompletion, nil
}

// hoistVars pre-declares every `var` name in stmts (and nested
// non-function blocks) as undefined in the nearest function/global
// scope, matching JS's hoisting-before-execution so a forward
// reference to a var sees undefined rather than failing to resolve.
func (ip *Interp) hoistVars(env *environment, stmts []Stmt) {
	target := env.hoistTarget()
	var walk func(Stmt)
	walk = func(st Stmt) {
		switch s := st.(type) {
		case *VarDecl:
			if s.Kind == "var" {
				for _, d := range s.Decls {
					declareBindingNames(d.Target, func(name string) {
						if _, ok := target.vars[name]; !ok {
							target.vars[name] = Undefined()
						}
					})
				}
			}
		case *BlockStmt:
			for _, st2 := range s.Body {
				walk(st2)
			}
		case *IfStmt:
			walk(s.Cons)
			if s.Alt != nil {
				walk(s.Alt)
			}
		case *WhileStmt:
			walk(s.Body)
		case *DoWhileStmt:
			walk(s.Body)
		case *ForStmt:
			if s.Init != nil {
				walk(s.Init)
			}
			walk(s.Body)
		case *ForInStmt:
			walk(s.Body)
		case *TryStmt:
			walk(s.Block)
			if s.Catch != nil {
				walk(s.Catch.Body)
			}
			if s.Finally != nil {
				walk(s.Finally)
			}
		case *LabeledStmt:
			walk(s.Body)
		}
	}
	for _, st := range stmts {
		walk(st)
	}
}

func declareBindingNames(target Expr, emit func(string)) {
	switch t := target.(type) {
	case *Ident:
		emit(t.Name)
	case *ArrayLit:
		for _, el := range t.Elements {
			if el == nil {
				continue
			}
			if sp, ok := el.(*SpreadExpr); ok {
				declareBindingNames(sp.X, emit)
				continue
			}
			if ae, ok := el.(*AssignExpr); ok {
				declareBindingNames(ae.Target, emit)
				continue
			}
			declareBindingNames(el, emit)
		}
	case *ObjectLit:
		for _, p := range t.Props {
			if p.Spread {
				declareBindingNames(p.Value, emit)
				continue
			}
			if ae, ok := p.Value.(*AssignExpr); ok {
				declareBindingNames(ae.Target, emit)
				continue
			}
			declareBindingNames(p.Value, emit)
		}
	}
}

func (ip *Interp) execVarDecl(env *environment, d *VarDecl) error {
	for _, decl := range d.Decls {
		var v Value = Undefined()
		if decl.Init != nil {
			var err error
			v, err = ip.evalExpr(env, decl.Init)
			if err != nil {
				return err
			}
		}
		target := env
		if d.Kind == "var" {
			target = env.hoistTarget()
		}
		if err := ip.bindPattern(target, decl.Target, v, true, d.Kind == "const"); err != nil {
			return err
		}
	}
	return nil
}

// bindPattern declares (declare=true) or assigns (declare=false) a
// value against an identifier or array/object destructuring pattern.
func (ip *Interp) bindPattern(env *environment, target Expr, v Value, declare, isConst bool) error {
	switch t := target.(type) {
	case *Ident:
		if declare {
			return env.declare(t.Name, v, isConst)
		}
		return env.assign(t.Name, v)
	case *ArrayLit:
		return ip.bindArrayPattern(env, t, v, declare, isConst)
	case *ObjectLit:
		return ip.bindObjectPattern(env, t, v, declare, isConst)
	case *MemberExpr:
		if declare {
			return newRuntimeError("invalid destructuring target")
		}
		return ip.assignMember(env, t, v)
	}
	return newRuntimeError("invalid binding target")
}

func (ip *Interp) bindArrayPattern(env *environment, pat *ArrayLit, v Value, declare, isConst bool) error {
	items, err := ip.iterableToSlice(v)
	if err != nil {
		return err
	}
	for i, el := range pat.Elements {
		if el == nil {
			continue
		}
		if sp, ok := el.(*SpreadExpr); ok {
			rest := []Value{}
			if i < len(items) {
				rest = append(rest, items[i:]...)
			}
			if err := ip.bindPattern(env, sp.X, Object(newArray(rest)), declare, isConst); err != nil {
				return err
			}
			break
		}
		var elVal Value = Undefined()
		if i < len(items) {
			elVal = items[i]
		}
		target := el
		if ae, ok := el.(*AssignExpr); ok {
			target = ae.Target
			if elVal.IsUndefined() {
				dv, err := ip.evalExpr(env, ae.Value)
				if err != nil {
					return err
				}
				elVal = dv
			}
		}
		if err := ip.bindPattern(env, target, elVal, declare, isConst); err != nil {
			return err
		}
	}
	return nil
}

func (ip *Interp) bindObjectPattern(env *environment, pat *ObjectLit, v Value, declare, isConst bool) error {
	if v.IsNullish() {
		return newRuntimeError("Cannot destructure '%s' as it is %s", v.String(), v.String())
	}
	used := map[string]bool{}
	for _, p := range pat.Props {
		if p.Spread {
			rest := newObject("Object")
			if v.IsObject() {
				for _, k := range v.obj.ownKeys() {
					if !used[k] {
						rest.set(k, v.obj.get(k))
					}
				}
			}
			if err := ip.bindPattern(env, p.Value, Object(rest), declare, isConst); err != nil {
				return err
			}
			continue
		}
		key, err := ip.propKeyName(env, p.Key, p.Computed)
		if err != nil {
			return err
		}
		used[key] = true
		var propVal Value = Undefined()
		if v.IsObject() {
			propVal = v.obj.get(key)
		} else if v.IsString() && key == "length" {
			propVal = Number(float64(len(v.s)))
		}
		target := p.Value
		if ae, ok := p.Value.(*AssignExpr); ok {
			target = ae.Target
			if propVal.IsUndefined() {
				dv, err := ip.evalExpr(env, ae.Value)
				if err != nil {
					return err
				}
				propVal = dv
			}
		}
		if err := ip.bindPattern(env, target, propVal, declare, isConst); err != nil {
			return err
		}
	}
	return nil
}

func (ip *Interp) propKeyName(env *environment, key Expr, computed bool) (string, error) {
	if computed {
		v, err := ip.evalExpr(env, key)
		if err != nil {
			return "", err
		}
		return v.String(), nil
	}
	switch k := key.(type) {
	case *Ident:
		return k.Name, nil
	case *StringLit:
		return k.Value, nil
	}
	return "", newRuntimeError("invalid property key")
}

// --- loops ---

func (ip *Interp) execWhile(env *environment, ws *WhileStmt, label string) (completion, error) {
	for {
		t, err := ip.evalExpr(env, ws.Test)
		if err != nil {
			return completion{}, err
		}
		if !t.ToBoolean() {
			return normalCompletion, nil
		}
		c, err := ip.execStmt(env, ws.Body)
		if err != nil {
			return completion{}, err
		}
		if stop, out, oerr := loopSignal(c, label); stop {
			return out, oerr
		}
	}
}

func (ip *Interp) execDoWhile(env *environment, ws *DoWhileStmt, label string) (completion, error) {
	for {
		c, err := ip.execStmt(env, ws.Body)
		if err != nil {
			return completion{}, err
		}
		if stop, out, oerr := loopSignal(c, label); stop {
			return out, oerr
		}
		t, err := ip.evalExpr(env, ws.Test)
		if err != nil {
			return completion{}, err
		}
		if !t.ToBoolean() {
			return normalCompletion, nil
		}
	}
}

func (ip *Interp) execFor(env *environment, fs *ForStmt, label string) (completion, error) {
	loopEnv := newEnvironment(env)
	if fs.Init != nil {
		if _, err := ip.execStmt(loopEnv, fs.Init); err != nil {
			return completion{}, err
		}
	}
	for {
		if fs.Test != nil {
			t, err := ip.evalExpr(loopEnv, fs.Test)
			if err != nil {
				return completion{}, err
			}
			if !t.ToBoolean() {
				return normalCompletion, nil
			}
		}
		c, err := ip.execStmt(loopEnv, fs.Body)
		if err != nil {
			return completion{}, err
		}
		if stop, out, oerr := loopSignal(c, label); stop {
			return out, oerr
		}
		if fs.Update != nil {
			if _, err := ip.evalExpr(loopEnv, fs.Update); err != nil {
				return completion{}, err
			}
		}
	}
}

func (ip *Interp) execForIn(env *environment, fs *ForInStmt, label string) (completion, error) {
	obj, err := ip.evalExpr(env, fs.Object)
	if err != nil {
		return completion{}, err
	}
	var iterVals []Value
	if fs.Kind == "of" {
		iterVals, err = ip.iterableToSlice(obj)
		if err != nil {
			return completion{}, err
		}
	} else {
		if obj.IsObject() {
			for _, k := range obj.obj.ownKeys() {
				iterVals = append(iterVals, String(k))
			}
		}
	}
	for _, iv := range iterVals {
		iterEnv := newEnvironment(env)
		if fs.DeclKind != "" {
			if err := ip.bindPattern(iterEnv, fs.Target, iv, true, fs.DeclKind == "const"); err != nil {
				return completion{}, err
			}
		} else {
			if err := ip.bindPattern(iterEnv, fs.Target, iv, false, false); err != nil {
				return completion{}, err
			}
		}
		c, err := ip.execStmt(iterEnv, fs.Body)
		if err != nil {
			return completion{}, err
		}
		if stop, out, oerr := loopSignal(c, label); stop {
			return out, oerr
		}
	}
	return normalCompletion, nil
}

// loopSignal interprets a loop body's completion: (stop, result, err)
// where stop tells the loop to return result/err to its own caller
// instead of continuing to iterate.
func loopSignal(c completion, label string) (bool, completion, error) {
	switch c.kind {
	case ctrlNormal:
		return false, completion{}, nil
	case ctrlContinue:
		if c.label == "" || c.label == label {
			return false, completion{}, nil
		}
		return true, c, nil
	case ctrlBreak:
		if c.label == "" || c.label == label {
			return true, normalCompletion, nil
		}
		return true, c, nil
	default: // ctrlReturn
		return true, c, nil
	}
}

// iterableToSlice materializes an array, string, Set, Map, or
// iterator-shaped object (one with a callable `next`) into a []Value —
// used by for-of, spread, and destructuring, all of which need the
// full sequence up front in this tree-walking evaluator.
func (ip *Interp) iterableToSlice(v Value) ([]Value, error) {
	if v.IsString() {
		out := make([]Value, 0, len(v.s))
		for _, r := range v.s {
			out = append(out, String(string(r)))
		}
		return out, nil
	}
	if !v.IsObject() {
		return nil, newRuntimeError("%s is not iterable", v.TypeOf())
	}
	o := v.obj
	if o.isArray {
		return append([]Value{}, o.elements...), nil
	}
	if o.class == "Set" {
		return append([]Value{}, o.mapVals...), nil
	}
	if o.class == "Map" {
		out := make([]Value, len(o.mapKeys))
		for i := range o.mapKeys {
			out[i] = Object(newArray([]Value{o.mapKeys[i], o.mapVals[i]}))
		}
		return out, nil
	}
	if nextFn := o.get("next"); nextFn.IsCallable() {
		var out []Value
		for i := 0; i < 1_000_000; i++ {
			r, err := callFunction(nextFn, v, nil)
			if err != nil {
				return nil, err
			}
			if !r.IsObject() {
				break
			}
			if r.obj.get("done").ToBoolean() {
				break
			}
			out = append(out, r.obj.get("value"))
		}
		return out, nil
	}
	if symIter := o.get("Symbol.iterator"); symIter.IsCallable() {
		iter, err := callFunction(symIter, v, nil)
		if err != nil {
			return nil, err
		}
		return ip.iterableToSlice(iter)
	}
	return nil, newRuntimeError("value is not iterable")
}

func (ip *Interp) execTry(env *environment, ts *TryStmt) (completion, error) {
	c, err := ip.execBlock(newEnvironment(env), ts.Block.Body)
	if err != nil {
		if rerr, ok := err.(*RuntimeError); ok && ts.Catch != nil {
			catchEnv := newEnvironment(env)
			if ts.Catch.Param != nil {
				if err := ip.bindPattern(catchEnv, ts.Catch.Param, rerr.Value, true, false); err != nil {
					return completion{}, err
				}
			}
			c, err = ip.execBlock(catchEnv, ts.Catch.Body.Body)
		}
	}
	if ts.Finally != nil {
		fc, ferr := ip.execBlock(newEnvironment(env), ts.Finally.Body)
		if ferr != nil {
			return completion{}, ferr
		}
		if fc.kind != ctrlNormal {
			return fc, nil
		}
	}
	return c, err
}
