package jsscript

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
)

// compileJSRegex is a best-effort translation of a JS regex pattern
// into Go's RE2 engine: RE2 has no backreferences or lookaround, a
// limitation this runtime accepts (documented in DESIGN.md) since the
// example corpus carries no third-party JS-compatible regex engine
// once the host-engine wrapper it came bundled with was removed.
func compileJSRegex(pattern, flags string) (*regexp.Regexp, error) {
	goFlags := ""
	if strings.Contains(flags, "i") {
		goFlags += "i"
	}
	if strings.Contains(flags, "s") {
		goFlags += "s"
	}
	if strings.Contains(flags, "m") {
		goFlags += "m"
	}
	p := pattern
	if goFlags != "" {
		p = "(?" + goFlags + ")" + p
	}
	return regexp.Compile(p)
}

// stringProperty resolves a property read against a primitive string,
// covering indexing, length, and the String.prototype methods scripts
// use most: the primitive itself never gets boxed into an *object, so
// every method closes over s directly.
func stringProperty(s string, key string) Value {
	runes := []rune(s)
	if key == "length" {
		return Number(float64(len(utf16.Encode(runes))))
	}
	if idx, err := strconv.Atoi(key); err == nil {
		if idx >= 0 && idx < len(runes) {
			return String(string(runes[idx]))
		}
		return Undefined()
	}
	switch key {
	case "charAt":
		return newNativeFunction("charAt", func(ip *Interp, this Value, args []Value) (Value, error) {
			i := int(arg(args, 0).ToFloat())
			if i < 0 || i >= len(runes) {
				return String(""), nil
			}
			return String(string(runes[i])), nil
		})
	case "charCodeAt", "codePointAt":
		return newNativeFunction(key, func(ip *Interp, this Value, args []Value) (Value, error) {
			i := int(arg(args, 0).ToFloat())
			if i < 0 || i >= len(runes) {
				return Number(0), nil
			}
			return Number(float64(runes[i])), nil
		})
	case "indexOf":
		return newNativeFunction("indexOf", func(ip *Interp, this Value, args []Value) (Value, error) {
			return Number(float64(strings.Index(s, arg(args, 0).String()))), nil
		})
	case "lastIndexOf":
		return newNativeFunction("lastIndexOf", func(ip *Interp, this Value, args []Value) (Value, error) {
			return Number(float64(strings.LastIndex(s, arg(args, 0).String()))), nil
		})
	case "includes":
		return newNativeFunction("includes", func(ip *Interp, this Value, args []Value) (Value, error) {
			return Bool(strings.Contains(s, arg(args, 0).String())), nil
		})
	case "startsWith":
		return newNativeFunction("startsWith", func(ip *Interp, this Value, args []Value) (Value, error) {
			return Bool(strings.HasPrefix(s, arg(args, 0).String())), nil
		})
	case "endsWith":
		return newNativeFunction("endsWith", func(ip *Interp, this Value, args []Value) (Value, error) {
			return Bool(strings.HasSuffix(s, arg(args, 0).String())), nil
		})
	case "slice":
		return newNativeFunction("slice", func(ip *Interp, this Value, args []Value) (Value, error) {
			start, end := sliceBounds(len(runes), args)
			return String(string(runes[start:end])), nil
		})
	case "substring":
		return newNativeFunction("substring", func(ip *Interp, this Value, args []Value) (Value, error) {
			n := len(runes)
			a, b := clampNonNeg(int(arg(args, 0).ToFloat()), n), n
			if len(args) > 1 && !args[1].IsUndefined() {
				b = clampNonNeg(int(args[1].ToFloat()), n)
			}
			if a > b {
				a, b = b, a
			}
			return String(string(runes[a:b])), nil
		})
	case "toUpperCase", "toLocaleUpperCase":
		return newNativeFunction("toUpperCase", func(ip *Interp, this Value, args []Value) (Value, error) {
			return String(strings.ToUpper(s)), nil
		})
	case "toLowerCase", "toLocaleLowerCase":
		return newNativeFunction("toLowerCase", func(ip *Interp, this Value, args []Value) (Value, error) {
			return String(strings.ToLower(s)), nil
		})
	case "trim":
		return newNativeFunction("trim", func(ip *Interp, this Value, args []Value) (Value, error) {
			return String(strings.TrimSpace(s)), nil
		})
	case "trimStart":
		return newNativeFunction("trimStart", func(ip *Interp, this Value, args []Value) (Value, error) {
			return String(strings.TrimLeft(s, " \t\n\r")), nil
		})
	case "trimEnd":
		return newNativeFunction("trimEnd", func(ip *Interp, this Value, args []Value) (Value, error) {
			return String(strings.TrimRight(s, " \t\n\r")), nil
		})
	case "split":
		return newNativeFunction("split", func(ip *Interp, this Value, args []Value) (Value, error) {
			sepArg := arg(args, 0)
			if sepArg.IsUndefined() {
				return Object(newArray([]Value{String(s)})), nil
			}
			var parts []string
			if sepArg.IsObject() && sepArg.obj.class == "RegExp" {
				re, err := compileJSRegex(sepArg.obj.rePattern, sepArg.obj.reFlags)
				if err != nil {
					return Value{}, newRuntimeError("%s", err.Error())
				}
				parts = re.Split(s, -1)
			} else {
				sep := sepArg.String()
				if sep == "" {
					for _, r := range runes {
						parts = append(parts, string(r))
					}
				} else {
					parts = strings.Split(s, sep)
				}
			}
			out := make([]Value, len(parts))
			for i, p := range parts {
				out[i] = String(p)
			}
			return Object(newArray(out)), nil
		})
	case "replace", "replaceAll":
		all := key == "replaceAll"
		return newNativeFunction(key, func(ip *Interp, this Value, args []Value) (Value, error) {
			return stringReplace(ip, s, arg(args, 0), arg(args, 1), all)
		})
	case "repeat":
		return newNativeFunction("repeat", func(ip *Interp, this Value, args []Value) (Value, error) {
			n := int(arg(args, 0).ToFloat())
			if n < 0 {
				return Value{}, newRuntimeError("Invalid count value")
			}
			return String(strings.Repeat(s, n)), nil
		})
	case "padStart":
		return newNativeFunction("padStart", func(ip *Interp, this Value, args []Value) (Value, error) {
			return String(padString(s, args, true)), nil
		})
	case "padEnd":
		return newNativeFunction("padEnd", func(ip *Interp, this Value, args []Value) (Value, error) {
			return String(padString(s, args, false)), nil
		})
	case "concat":
		return newNativeFunction("concat", func(ip *Interp, this Value, args []Value) (Value, error) {
			out := s
			for _, a := range args {
				out += a.String()
			}
			return String(out), nil
		})
	case "at":
		return newNativeFunction("at", func(ip *Interp, this Value, args []Value) (Value, error) {
			i := int(arg(args, 0).ToFloat())
			if i < 0 {
				i += len(runes)
			}
			if i < 0 || i >= len(runes) {
				return Undefined(), nil
			}
			return String(string(runes[i])), nil
		})
	case "match":
		return newNativeFunction("match", func(ip *Interp, this Value, args []Value) (Value, error) {
			return stringMatch(s, arg(args, 0))
		})
	case "toString", "valueOf":
		return newNativeFunction(key, func(ip *Interp, this Value, args []Value) (Value, error) {
			return String(s), nil
		})
	}
	return Undefined()
}

func clampNonNeg(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func padString(s string, args []Value, start bool) string {
	target := int(arg(args, 0).ToFloat())
	pad := " "
	if p := arg(args, 1); !p.IsUndefined() {
		pad = p.String()
	}
	if pad == "" || len([]rune(s)) >= target {
		return s
	}
	need := target - len([]rune(s))
	var sb strings.Builder
	for sb.Len() < need {
		sb.WriteString(pad)
	}
	padding := string([]rune(sb.String())[:need])
	if start {
		return padding + s
	}
	return s + padding
}

func stringReplace(ip *Interp, s string, pattern, replacement Value, all bool) (Value, error) {
	replace := func(match string) string {
		if replacement.IsCallable() {
			r, err := callFunction(replacement, Undefined(), []Value{String(match)})
			if err == nil {
				return r.String()
			}
		}
		return replacement.String()
	}
	if pattern.IsObject() && pattern.obj.class == "RegExp" {
		re, err := compileJSRegex(pattern.obj.rePattern, pattern.obj.reFlags)
		if err != nil {
			return Value{}, newRuntimeError("%s", err.Error())
		}
		global := all || strings.Contains(pattern.obj.reFlags, "g")
		count := 0
		out := re.ReplaceAllStringFunc(s, func(m string) string {
			if !global && count > 0 {
				return m
			}
			count++
			return replace(m)
		})
		return String(out), nil
	}
	old := pattern.String()
	if all {
		return String(strings.ReplaceAll(s, old, replace(old))), nil
	}
	idx := strings.Index(s, old)
	if idx < 0 {
		return String(s), nil
	}
	return String(s[:idx] + replace(old) + s[idx+len(old):]), nil
}

func stringMatch(s string, pattern Value) (Value, error) {
	var re *regexp.Regexp
	var err error
	global := false
	if pattern.IsObject() && pattern.obj.class == "RegExp" {
		re, err = compileJSRegex(pattern.obj.rePattern, pattern.obj.reFlags)
		global = strings.Contains(pattern.obj.reFlags, "g")
	} else {
		re, err = compileJSRegex(pattern.String(), "")
	}
	if err != nil {
		return Value{}, newRuntimeError("%s", err.Error())
	}
	if global {
		ms := re.FindAllString(s, -1)
		if ms == nil {
			return Null(), nil
		}
		out := make([]Value, len(ms))
		for i, m := range ms {
			out[i] = String(m)
		}
		return Object(newArray(out)), nil
	}
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
}

// boxedPrimitiveMethod resolves Number.prototype/Boolean.prototype
// methods against a raw number/bool Value — these never get boxed
// into an *object either, matching how stringProperty treats strings.
func (ip *Interp) boxedPrimitiveMethod(v Value, key string) Value {
	if v.IsNumber() {
		switch key {
		case "toFixed":
			return newNativeFunction("toFixed", func(ip *Interp, this Value, args []Value) (Value, error) {
				digits := int(arg(args, 0).ToFloat())
				return String(strconv.FormatFloat(v.n, 'f', digits, 64)), nil
			})
		case "toString":
			return newNativeFunction("toString", func(ip *Interp, this Value, args []Value) (Value, error) {
				if base := arg(args, 0); !base.IsUndefined() {
					return String(strconv.FormatInt(int64(v.n), int(base.ToFloat()))), nil
				}
				return String(v.String()), nil
			})
		case "toPrecision":
			return newNativeFunction("toPrecision", func(ip *Interp, this Value, args []Value) (Value, error) {
				prec := int(arg(args, 0).ToFloat())
				return String(strconv.FormatFloat(v.n, 'g', prec, 64)), nil
			})
		case "valueOf":
			return newNativeFunction("valueOf", func(ip *Interp, this Value, args []Value) (Value, error) {
				return v, nil
			})
		}
	}
	if key == "toString" || key == "valueOf" {
		return newNativeFunction(key, func(ip *Interp, this Value, args []Value) (Value, error) {
			return v, nil
		})
	}
	return Undefined()
}
