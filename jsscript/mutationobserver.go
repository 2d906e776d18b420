package jsscript

import "github.com/finitefield-org/browser-tester/dom"

// installMutationObserver exposes a minimal MutationObserver backed by
// dom.Document's OnMutation hook. Only one observer callback chain is
// supported per document (matching dom.Document.OnMutation's single
// hook), which is enough for the scripting scenarios this runtime
// targets: scripts that react to their own DOM writes, not independent
// observer trees.
func (ip *Interp) installMutationObserver(g *environment) {
	g.vars["MutationObserver"] = newNativeFunction("MutationObserver", func(interp *Interp, this Value, args []Value) (Value, error) {
		args, _ = isConstructCall(args)
		cb := arg(args, 0)
		o := newObject("MutationObserver")
		var observing bool
		var pending []dom.MutationRecord

		o.set("observe", newNativeFunction("observe", func(ip *Interp, this Value, args []Value) (Value, error) {
			if observing {
				return Undefined(), nil
			}
			observing = true
			ip.doc.OnMutation(func(rec dom.MutationRecord) {
				if !observing {
					return
				}
				pending = append(pending, rec)
				ip.sched.QueueMicrotask(func() {
					if len(pending) == 0 || !cb.IsCallable() {
						return
					}
					batch := pending
					pending = nil
					records := make([]Value, len(batch))
					for i, r := range batch {
						records[i] = mutationRecordValue(ip, r)
					}
					if _, err := callFunction(cb, Undefined(), []Value{Object(newArray(records)), Object(o)}); err != nil {
						ip.reportScriptError(err)
					}
				})
			})
			return Undefined(), nil
		}))
		o.set("disconnect", newNativeFunction("disconnect", func(ip *Interp, this Value, args []Value) (Value, error) {
			observing = false
			pending = nil
			return Undefined(), nil
		}))
		o.set("takeRecords", newNativeFunction("takeRecords", func(ip *Interp, this Value, args []Value) (Value, error) {
			batch := pending
			pending = nil
			records := make([]Value, len(batch))
			for i, r := range batch {
				records[i] = mutationRecordValue(ip, r)
			}
			return Object(newArray(records)), nil
		}))
		return Object(o), nil
	})
}

func mutationRecordValue(ip *Interp, r dom.MutationRecord) Value {
	o := newObject("Object")
	switch r.Kind {
	case dom.MutationChildList:
		o.set("type", String("childList"))
	case dom.MutationAttributes:
		o.set("type", String("attributes"))
	case dom.MutationCharacterData:
		o.set("type", String("characterData"))
	}
	o.set("target", ip.wrapNode(r.Target))
	o.set("addedNodes", wrapNodesSlice(r.AddedNodes))
	o.set("removedNodes", wrapNodesSlice(r.RemovedNodes))
	o.set("attributeName", nullableString(r.AttributeName))
	o.set("oldValue", nullableString(r.OldValue))
	o.set("previousSibling", ip.wrapNode(r.PreviousSib))
	o.set("nextSibling", ip.wrapNode(r.NextSib))
	return Object(o)
}

func nullableString(s string) Value {
	if s == "" {
		return Null()
	}
	return String(s)
}
