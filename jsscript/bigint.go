package jsscript

import "math/big"

// installBigIntCtor wires the global BigInt() conversion function.
// Literal BigInts (123n) are produced directly by the parser/evaluator
// (eval_expr.go's BigIntLit case); this is only the explicit-call form.
func installBigIntCtor(g *environment) {
	g.vars["BigInt"] = newNativeFunction("BigInt", func(ip *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		if v.IsBigInt() {
			return v, nil
		}
		if v.IsString() {
			i := new(big.Int)
			if _, ok := i.SetString(v.s, 10); !ok {
				return Value{}, newRuntimeError("Cannot convert %s to a BigInt", v.s)
			}
			return BigInt(i), nil
		}
		f := v.ToFloat()
		if f != float64(int64(f)) {
			return Value{}, newRuntimeError("The number %s cannot be converted to a BigInt because it is not an integer", v.String())
		}
		return BigInt(big.NewInt(int64(f))), nil
	})
}

// bigIntProperty resolves BigInt.prototype methods against a raw
// kindBigInt Value, the same never-boxed treatment stringProperty and
// boxedPrimitiveMethod give strings/numbers/booleans.
func bigIntProperty(v Value, key string) Value {
	switch key {
	case "toString":
		return newNativeFunction("toString", func(ip *Interp, this Value, args []Value) (Value, error) {
			if base := arg(args, 0); !base.IsUndefined() {
				return String(v.big.Text(int(base.ToFloat()))), nil
			}
			return String(v.big.String()), nil
		})
	case "valueOf":
		return newNativeFunction("valueOf", func(ip *Interp, this Value, args []Value) (Value, error) {
			return v, nil
		})
	case "toLocaleString":
		return newNativeFunction("toLocaleString", func(ip *Interp, this Value, args []Value) (Value, error) {
			return String(v.big.String()), nil
		})
	}
	return Undefined()
}
