package jsscript

import "github.com/finitefield-org/browser-tester/dom"

// installWindowGlobals wires `window`, `document`, `self`, `navigator`,
// `location`, `localStorage`/`sessionStorage`, and the collaborator-
// backed globals (fetch, alert/confirm/prompt, matchMedia) a DOM script
// expects at top level. `window`/`globalThis`/`self` are one shared
// Window object, separate from the global environment: it carries
// document, console, navigator, location and addEventListener, but
// global variable declarations do not appear as its properties, and
// properties set on it do not become global variables.
func (ip *Interp) installWindowGlobals(g *environment) {
	ip.windowDocument = ip.wrapNode(ip.doc.AsNode())
	g.vars["document"] = ip.windowDocument

	windowObj := newObject("Window")
	g.vars["window"] = Object(windowObj)
	g.vars["self"] = Object(windowObj)
	g.vars["globalThis"] = Object(windowObj)
	ip.windowObj = windowObj

	windowObj.set("document", ip.windowDocument)
	windowObj.set("console", g.vars["console"])
	windowObj.set("addEventListener", newNativeFunction("addEventListener", func(ip *Interp, this Value, args []Value) (Value, error) {
		ip.addEventListener(ip.doc.AsNode(), args)
		return Undefined(), nil
	}))

	navigatorObj := newObject("Object")
	navigatorObj.set("userAgent", String("BrowserTester/1.0"))
	navigatorObj.set("language", String("en-US"))
	navigatorObj.set("clipboard", ip.buildClipboardObject())
	g.vars["navigator"] = Object(navigatorObj)
	windowObj.set("navigator", Object(navigatorObj))

	g.vars["location"] = ip.buildLocationObject()
	windowObj.set("location", g.vars["location"])

	g.vars["localStorage"] = ip.buildStorageObject(&ip.localStorage)
	g.vars["sessionStorage"] = ip.buildStorageObject(&ip.sessionStorage)

	g.vars["fetch"] = newNativeFunction("fetch", func(ip *Interp, this Value, args []Value) (Value, error) {
		if ip.collab == nil {
			return Value{}, newRuntimeError("fetch is not available")
		}
		url := arg(args, 0).String()
		init := arg(args, 1)
		status, body, headers := ip.collab.Fetch(url, init)
		resp := newObject("Object")
		resp.set("ok", Bool(status >= 200 && status < 300))
		resp.set("status", Number(float64(status)))
		resp.set("statusText", String(httpStatusText(status)))
		hdrObj := newObject("Object")
		for k, v := range headers {
			hdrObj.set(k, String(v))
		}
		resp.set("headers", Object(hdrObj))
		resp.set("text", newNativeFunction("text", func(ip *Interp, this Value, args []Value) (Value, error) {
			return ip.wrapResolvedPromise(String(body), nil)
		}))
		resp.set("json", newNativeFunction("json", func(ip *Interp, this Value, args []Value) (Value, error) {
			v, err := jsonParse(ip, this, []Value{String(body)})
			if err != nil {
				return ip.wrapResolvedPromise(Value{}, err)
			}
			return ip.wrapResolvedPromise(v, nil)
		}))
		return ip.wrapResolvedPromise(Object(resp), nil)
	})

	g.vars["alert"] = newNativeFunction("alert", func(ip *Interp, this Value, args []Value) (Value, error) {
		if ip.collab != nil {
			ip.collab.Alert(arg(args, 0).String())
		}
		return Undefined(), nil
	})
	g.vars["confirm"] = newNativeFunction("confirm", func(ip *Interp, this Value, args []Value) (Value, error) {
		if ip.collab == nil {
			return Bool(false), nil
		}
		return Bool(ip.collab.Confirm(arg(args, 0).String())), nil
	})
	g.vars["prompt"] = newNativeFunction("prompt", func(ip *Interp, this Value, args []Value) (Value, error) {
		if ip.collab == nil {
			return Null(), nil
		}
		v, ok := ip.collab.Prompt(arg(args, 0).String(), arg(args, 1).String())
		if !ok {
			return Null(), nil
		}
		return String(v), nil
	})
	g.vars["matchMedia"] = newNativeFunction("matchMedia", func(ip *Interp, this Value, args []Value) (Value, error) {
		query := arg(args, 0).String()
		matches := false
		if ip.collab != nil {
			matches, _ = ip.collab.MatchMedia(query)
		}
		o := newObject("Object")
		o.set("matches", Bool(matches))
		o.set("media", String(query))
		o.set("addEventListener", newNativeFunction("addEventListener", func(ip *Interp, this Value, args []Value) (Value, error) {
			return Undefined(), nil
		}))
		return Object(o), nil
	})

	installFormDataCtor(g)
	ip.installMutationObserver(g)
	ip.installEventGlobals(g)
}

func (ip *Interp) buildClipboardObject() Value {
	o := newObject("Object")
	o.set("readText", newNativeFunction("readText", func(ip *Interp, this Value, args []Value) (Value, error) {
		if ip.collab == nil {
			return ip.wrapResolvedPromise(String(""), nil)
		}
		return ip.wrapResolvedPromise(String(ip.collab.ClipboardRead()), nil)
	}))
	o.set("writeText", newNativeFunction("writeText", func(ip *Interp, this Value, args []Value) (Value, error) {
		if ip.collab != nil {
			ip.collab.ClipboardWrite(arg(args, 0).String())
		}
		return ip.wrapResolvedPromise(Undefined(), nil)
	}))
	return Object(o)
}

func (ip *Interp) buildLocationObject() Value {
	o := newObject("Object")
	o.defineAccessor("href", &accessorPair{
		get: func(this Value) (Value, error) {
			if ip.collab != nil {
				return String(ip.collab.CurrentURL()), nil
			}
			return String(ip.doc.URL()), nil
		},
		set: func(this Value, v Value) error {
			if ip.collab != nil {
				ip.collab.LocationAssign(v.String())
			}
			return nil
		},
	})
	o.set("assign", newNativeFunction("assign", func(ip *Interp, this Value, args []Value) (Value, error) {
		if ip.collab != nil {
			ip.collab.LocationAssign(arg(args, 0).String())
		}
		return Undefined(), nil
	}))
	o.set("replace", newNativeFunction("replace", func(ip *Interp, this Value, args []Value) (Value, error) {
		if ip.collab != nil {
			ip.collab.LocationReplace(arg(args, 0).String())
		}
		return Undefined(), nil
	}))
	o.set("reload", newNativeFunction("reload", func(ip *Interp, this Value, args []Value) (Value, error) {
		if ip.collab != nil {
			ip.collab.LocationReload()
		}
		return Undefined(), nil
	}))
	o.set("toString", newNativeFunction("toString", func(ip *Interp, this Value, args []Value) (Value, error) {
		if ip.collab != nil {
			return String(ip.collab.CurrentURL()), nil
		}
		return String(ip.doc.URL()), nil
	}))
	return Object(o)
}

// buildStorageObject exposes a map[string]string as a minimal
// localStorage/sessionStorage — in-memory only and scoped to this
// Interp, matching how a fresh document/runtime never shares storage
// with another.
func (ip *Interp) buildStorageObject(store *map[string]string) Value {
	if *store == nil {
		*store = map[string]string{}
	}
	o := newObject("Object")
	o.set("getItem", newNativeFunction("getItem", func(ip *Interp, this Value, args []Value) (Value, error) {
		if v, ok := (*store)[arg(args, 0).String()]; ok {
			return String(v), nil
		}
		return Null(), nil
	}))
	o.set("setItem", newNativeFunction("setItem", func(ip *Interp, this Value, args []Value) (Value, error) {
		(*store)[arg(args, 0).String()] = arg(args, 1).String()
		return Undefined(), nil
	}))
	o.set("removeItem", newNativeFunction("removeItem", func(ip *Interp, this Value, args []Value) (Value, error) {
		delete(*store, arg(args, 0).String())
		return Undefined(), nil
	}))
	o.set("clear", newNativeFunction("clear", func(ip *Interp, this Value, args []Value) (Value, error) {
		for k := range *store {
			delete(*store, k)
		}
		return Undefined(), nil
	}))
	o.defineAccessor("length", &accessorPair{get: func(this Value) (Value, error) {
		return Number(float64(len(*store))), nil
	}})
	return Object(o)
}

func httpStatusText(status int) string {
	switch status {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	default:
		return ""
	}
}

// filesFor builds the .files FileList Value for a file input element,
// read by domGet when asked for that property.
func (ip *Interp) filesFor(n dom.Node) Value {
	var metas []FileMeta
	if ip.collab != nil {
		metas = ip.collab.FilesFor(n)
	}
	items := make([]Value, len(metas))
	for i, m := range metas {
		fo := newObject("File")
		fo.set("name", String(m.Name))
		fo.set("size", Number(float64(m.Size)))
		fo.set("type", String(m.Type))
		fo.set("lastModified", Number(float64(m.LastModified)))
		fo.extra = m.Content
		fo.set("text", newNativeFunction("text", func(ip *Interp, this Value, args []Value) (Value, error) {
			return ip.wrapResolvedPromise(String(string(m.Content)), nil)
		}))
		items[i] = Object(fo)
	}
	list := newArray(items)
	list.class = "FileList"
	return Object(list)
}
