package jsscript

import (
	"encoding/base64"
	"net/url"
	"strings"
)

// installEncodingGlobals wires the URI/base64 text-encoding globals a
// DOM script commonly reaches for (query-string building, storing
// binary-ish payloads in data attributes), grounded in the standard
// library since the corpus's example repos don't carry a dedicated
// encoding dependency for this narrow a concern.
func (ip *Interp) installEncodingGlobals(g *environment) {
	g.vars["encodeURIComponent"] = newNativeFunction("encodeURIComponent", func(ip *Interp, this Value, args []Value) (Value, error) {
		return String(url.QueryEscape(arg(args, 0).String())), nil
	})
	g.vars["decodeURIComponent"] = newNativeFunction("decodeURIComponent", func(ip *Interp, this Value, args []Value) (Value, error) {
		s, err := url.QueryUnescape(arg(args, 0).String())
		if err != nil {
			return Value{}, newRuntimeError("URI malformed")
		}
		return String(s), nil
	})
	g.vars["encodeURI"] = newNativeFunction("encodeURI", func(ip *Interp, this Value, args []Value) (Value, error) {
		s := arg(args, 0).String()
		var sb strings.Builder
		for _, r := range s {
			if strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789;,/?:@&=+$-_.!~*'()#", r) {
				sb.WriteRune(r)
			} else {
				sb.WriteString(url.QueryEscape(string(r)))
			}
		}
		return String(sb.String()), nil
	})
	g.vars["decodeURI"] = newNativeFunction("decodeURI", func(ip *Interp, this Value, args []Value) (Value, error) {
		s, err := url.QueryUnescape(arg(args, 0).String())
		if err != nil {
			return Value{}, newRuntimeError("URI malformed")
		}
		return String(s), nil
	})
	g.vars["btoa"] = newNativeFunction("btoa", func(ip *Interp, this Value, args []Value) (Value, error) {
		return String(base64.StdEncoding.EncodeToString([]byte(arg(args, 0).String()))), nil
	})
	g.vars["atob"] = newNativeFunction("atob", func(ip *Interp, this Value, args []Value) (Value, error) {
		b, err := base64.StdEncoding.DecodeString(arg(args, 0).String())
		if err != nil {
			return Value{}, newRuntimeError("The string to be decoded is not correctly encoded")
		}
		return String(string(b)), nil
	})
}
