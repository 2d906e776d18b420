package jsscript

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/finitefield-org/browser-tester/dom"
)

// valueKind discriminates the small set of primitive shapes a Value can
// hold. Objects (including arrays, functions, and DOM wrappers) all
// share kindObject and carry their real distinction in (*object).class.
type valueKind int

const (
	kindUndefined valueKind = iota
	kindNull
	kindBool
	kindNumber
	kindString
	kindBigInt
	kindObject
)

// Value is a tagged union, not an interface, matching the flat
// host-object style spec.md's data model calls for and avoiding a
// boxed-interface allocation for every number or string a script
// touches.
type Value struct {
	kind valueKind
	b    bool
	n    float64
	s    string
	big  *big.Int
	obj  *object
}

func Undefined() Value          { return Value{kind: kindUndefined} }
func Null() Value               { return Value{kind: kindNull} }
func Bool(b bool) Value         { return Value{kind: kindBool, b: b} }
func Number(n float64) Value    { return Value{kind: kindNumber, n: n} }
func String(s string) Value     { return Value{kind: kindString, s: s} }
func BigInt(i *big.Int) Value   { return Value{kind: kindBigInt, big: i} }
func Object(o *object) Value    { return Value{kind: kindObject, obj: o} }

func (v Value) IsUndefined() bool { return v.kind == kindUndefined }
func (v Value) IsNull() bool      { return v.kind == kindNull }
func (v Value) IsNullish() bool   { return v.kind == kindUndefined || v.kind == kindNull }
func (v Value) IsObject() bool    { return v.kind == kindObject }
func (v Value) IsString() bool    { return v.kind == kindString }
func (v Value) IsNumber() bool    { return v.kind == kindNumber }
func (v Value) IsBigInt() bool    { return v.kind == kindBigInt }
func (v Value) IsCallable() bool  { return v.kind == kindObject && v.obj != nil && v.obj.call != nil }

func (v Value) Object() *object { return v.obj }

// ToBoolean applies JS's ToBoolean abstract operation: falsy is
// undefined, null, false, 0, NaN, "" — everything else, including
// every object, is truthy.
func (v Value) ToBoolean() bool {
	switch v.kind {
	case kindUndefined, kindNull:
		return false
	case kindBool:
		return v.b
	case kindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case kindString:
		return v.s != ""
	case kindBigInt:
		return v.big.Sign() != 0
	default:
		return true
	}
}

// ToFloat applies ToNumber, stopping at float64 (the engine's only
// numeric type besides BigInt).
func (v Value) ToFloat() float64 {
	switch v.kind {
	case kindUndefined:
		return math.NaN()
	case kindNull:
		return 0
	case kindBool:
		if v.b {
			return 1
		}
		return 0
	case kindNumber:
		return v.n
	case kindBigInt:
		f, _ := new(big.Float).SetInt(v.big).Float64()
		return f
	case kindString:
		s := strings.TrimSpace(v.s)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		if v.obj != nil {
			return v.toPrimitive().ToFloat()
		}
		return math.NaN()
	}
}

// ToInteger truncates ToFloat toward zero, per spec.md's data model
// note that array indices and loop bounds are plain Go ints.
func (v Value) ToInteger() int {
	f := v.ToFloat()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

// String applies ToString for display and string-concatenation use.
func (v Value) String() string {
	switch v.kind {
	case kindUndefined:
		return "undefined"
	case kindNull:
		return "null"
	case kindBool:
		if v.b {
			return "true"
		}
		return "false"
	case kindNumber:
		return formatJSNumber(v.n)
	case kindBigInt:
		return v.big.String()
	case kindString:
		return v.s
	case kindObject:
		return v.obj.toString()
	}
	return ""
}

func formatJSNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if n == 0 {
		return "0"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// toPrimitive is the hinted ToPrimitive used by ToFloat/ToString when
// applied to an object: prefer a numeric Date/BigInt-style valueOf,
// fall back to the object's display string.
func (v Value) toPrimitive() Value {
	if v.obj == nil {
		return v
	}
	if vo := v.obj.get("valueOf"); vo.IsCallable() {
		if r, err := callFunction(vo, v, nil); err == nil && !r.IsObject() {
			return r
		}
	}
	return String(v.obj.toString())
}

// TypeOf implements the `typeof` operator.
func (v Value) TypeOf() string {
	switch v.kind {
	case kindUndefined:
		return "undefined"
	case kindNull:
		return "object"
	case kindBool:
		return "boolean"
	case kindNumber:
		return "number"
	case kindBigInt:
		return "bigint"
	case kindString:
		return "string"
	case kindObject:
		if v.obj.call != nil {
			return "function"
		}
		return "object"
	}
	return "undefined"
}

// object is the single representation behind every non-primitive
// value: plain objects, arrays, functions, DOM wrappers, Promises,
// Dates, RegExps, and Errors are all an *object* distinguished by
// class, rather than separate Go types — mirroring how the teacher's
// DOM layer represents every node kind through one dom.Node core.
type object struct {
	class string // "Object", "Array", "Function", "Date", "RegExp", "Error", "Promise", "Map", "Set", "Node", "FormData", ...

	props   map[string]Value
	keys    []string // insertion order, for for-in/Object.keys
	proto   *object

	// accessors holds get/set closures for computed properties (DOM
	// binding properties like element.textContent, and object-literal
	// get/set pairs) — checked before the flat props map on both read
	// and write.
	accessors map[string]*accessorPair

	// array
	isArray  bool
	elements []Value

	// function
	call     *funcData

	// DOM
	node dom.Node

	// Date
	timestamp float64

	// RegExp
	rePattern, reFlags string

	// Promise
	promise *promiseState

	// Map/Set
	mapKeys []Value
	mapVals []Value

	// Error-ish: original thrown message already lives in props["message"]
	extra any // free slot for host-specific payloads (FormData entries, MutationObserver state, AbortController signal, ...)
}

type accessorPair struct {
	get func(this Value) (Value, error)
	set func(this Value, v Value) error
}

type funcData struct {
	name    string
	decl    *FuncLit // nil for native functions
	closure *environment
	this    Value // bound `this` for arrow functions and .bind()
	boundArgs []Value
	native  func(interp *Interp, this Value, args []Value) (Value, error)
	isClass bool
}

func newObject(class string) *object {
	return &object{class: class, props: map[string]Value{}}
}

func newArray(elems []Value) *object {
	o := newObject("Array")
	o.isArray = true
	o.elements = elems
	o.proto = arrayProto
	return o
}

// get reads a property: an array's length and index keys first, then,
// at each level of the prototype chain, accessors before own props.
func (o *object) get(key string) Value {
	if o.isArray {
		if key == "length" {
			return Number(float64(len(o.elements)))
		}
		if idx, ok := arrayIndex(key); ok {
			if idx >= 0 && idx < len(o.elements) {
				return o.elements[idx]
			}
			return Undefined()
		}
	}
	for cur := o; cur != nil; cur = cur.proto {
		if cur.accessors != nil {
			if ap, ok := cur.accessors[key]; ok && ap.get != nil {
				v, err := ap.get(Object(o))
				if err != nil {
					return Undefined()
				}
				return v
			}
		}
		if v, ok := cur.props[key]; ok {
			return v
		}
	}
	return Undefined()
}

func (o *object) set(key string, v Value) error {
	if o.isArray {
		if key == "length" {
			n := int(v.ToFloat())
			if n < 0 {
				return newRuntimeError("invalid array length")
			}
			if n < len(o.elements) {
				o.elements = o.elements[:n]
			} else {
				for len(o.elements) < n {
					o.elements = append(o.elements, Undefined())
				}
			}
			return nil
		}
		if idx, ok := arrayIndex(key); ok {
			for idx >= len(o.elements) {
				o.elements = append(o.elements, Undefined())
			}
			o.elements[idx] = v
			return nil
		}
	}
	for cur := o; cur != nil; cur = cur.proto {
		if cur.accessors != nil {
			if ap, ok := cur.accessors[key]; ok {
				if ap.set == nil {
					return nil
				}
				return ap.set(Object(o), v)
			}
		}
	}
	if _, exists := o.props[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.props[key] = v
	return nil
}

// has implements the `in` operator's existence check, walking the
// prototype chain the same way get does (unlike hasOwnProperty, which
// stops at the instance's own properties).
func (o *object) has(key string) bool {
	if o.isArray {
		if key == "length" {
			return true
		}
		if idx, ok := arrayIndex(key); ok {
			return idx >= 0 && idx < len(o.elements)
		}
	}
	for cur := o; cur != nil; cur = cur.proto {
		if cur.accessors != nil {
			if _, ok := cur.accessors[key]; ok {
				return true
			}
		}
		if _, ok := cur.props[key]; ok {
			return true
		}
	}
	return false
}

func (o *object) defineAccessor(key string, ap *accessorPair) {
	if o.accessors == nil {
		o.accessors = map[string]*accessorPair{}
	}
	o.accessors[key] = ap
}

func (o *object) delete(key string) {
	if o.isArray {
		if idx, ok := arrayIndex(key); ok && idx >= 0 && idx < len(o.elements) {
			o.elements[idx] = Undefined()
			return
		}
	}
	if _, ok := o.props[key]; ok {
		delete(o.props, key)
		for i, k := range o.keys {
			if k == key {
				o.keys = append(o.keys[:i], o.keys[i+1:]...)
				break
			}
		}
	}
}

func (o *object) ownKeys() []string {
	if o.isArray {
		out := make([]string, len(o.elements))
		for i := range o.elements {
			out[i] = strconv.Itoa(i)
		}
		return out
	}
	return append([]string{}, o.keys...)
}

func arrayIndex(key string) (int, bool) {
	if key == "" {
		return 0, false
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (o *object) toString() string {
	switch o.class {
	case "Array":
		parts := make([]string, len(o.elements))
		for i, e := range o.elements {
			if e.IsNullish() {
				parts[i] = ""
			} else {
				parts[i] = e.String()
			}
		}
		return strings.Join(parts, ",")
	case "Function":
		name := ""
		if o.call != nil {
			name = o.call.name
		}
		return fmt.Sprintf("function %s() { [native or script code] }", name)
	case "Error", "TypeError", "RangeError":
		name := o.get("name").String()
		msg := o.get("message").String()
		if msg == "" {
			return name
		}
		return name + ": " + msg
	case "Date":
		return formatDate(o.timestamp)
	case "RegExp":
		return "/" + o.rePattern + "/" + o.reFlags
	case "Node":
		if !o.node.IsZero() {
			return "[object Node]"
		}
	}
	if o.class == "Object" {
		return "[object Object]"
	}
	return "[object " + o.class + "]"
}

// sortedKeys is a small helper used by JSON.stringify and console
// formatting to produce deterministic key order when callers want
// alphabetical rather than insertion order.
func sortedKeys(o *object) []string {
	ks := o.ownKeys()
	sort.Strings(ks)
	return ks
}

// StrictEquals implements the `===` operator: same type and same
// value, with object equality by identity.
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case kindUndefined, kindNull:
		return true
	case kindBool:
		return a.b == b.b
	case kindNumber:
		return a.n == b.n
	case kindString:
		return a.s == b.s
	case kindBigInt:
		return a.big.Cmp(b.big) == 0
	case kindObject:
		return a.obj == b.obj
	}
	return false
}

// LooseEquals implements `==`, including the handful of coercions
// spec.md's subset exercises: null/undefined unify, numbers coerce
// against strings and booleans, objects coerce via ToPrimitive.
func LooseEquals(a, b Value) bool {
	if a.kind == b.kind {
		return StrictEquals(a, b)
	}
	if a.IsNullish() && b.IsNullish() {
		return true
	}
	if a.IsNullish() || b.IsNullish() {
		return false
	}
	if a.kind == kindObject && b.kind != kindObject {
		return LooseEquals(a.toPrimitive(), b)
	}
	if b.kind == kindObject && a.kind != kindObject {
		return LooseEquals(a, b.toPrimitive())
	}
	if a.kind == kindBigInt || b.kind == kindBigInt {
		return a.ToFloat() == b.ToFloat()
	}
	return a.ToFloat() == b.ToFloat()
}
