package engine

import "github.com/finitefield-org/browser-tester/jsscript"

// SeedFetchResponse registers the canned response the mock fetch
// returns for the exact URL url.
func (rt *Runtime) SeedFetchResponse(url string, status int, body string, headers map[string]string) {
	rt.collab.fetchResponses[url] = fetchResponse{status: status, body: body, headers: headers}
}

// FetchCalls lists every fetch() call the mock has recorded, in order.
func (rt *Runtime) FetchCalls() []FetchCall { return rt.collab.fetchCalls }

// SetClipboard seeds the clipboard's current contents.
func (rt *Runtime) SetClipboard(s string) { rt.collab.clipboard = s }

// Clipboard returns the clipboard's current contents.
func (rt *Runtime) Clipboard() string { return rt.collab.clipboard }

// SeedConfirm queues one response confirm() will return, FIFO; once
// exhausted, confirm() falls back to the default set by
// SetConfirmDefault.
func (rt *Runtime) SeedConfirm(resp bool) {
	rt.collab.confirmResponses = append(rt.collab.confirmResponses, resp)
}

// SetConfirmDefault sets what confirm() returns once every seeded
// response has been consumed.
func (rt *Runtime) SetConfirmDefault(v bool) { rt.collab.confirmDefault = v }

// SeedPrompt queues one response prompt() will return, FIFO; once
// exhausted, prompt() returns its caller-supplied default value.
func (rt *Runtime) SeedPrompt(resp string) {
	rt.collab.promptResponses = append(rt.collab.promptResponses, resp)
	rt.collab.havePromptResp = append(rt.collab.havePromptResp, true)
}

// DialogMessages lists every alert/confirm/prompt message raised, in
// call order, prefixed with its kind (e.g. "confirm: are you sure?").
func (rt *Runtime) DialogMessages() []string {
	out := make([]string, len(rt.collab.dialogLog))
	for i, d := range rt.collab.dialogLog {
		out[i] = d.Kind + ": " + d.Message
	}
	return out
}

// SetMatchMedia seeds the boolean matchMedia(query) returns for an
// exact query string.
func (rt *Runtime) SetMatchMedia(query string, matches bool) { rt.collab.mediaResponses[query] = matches }

// SetMatchMediaDefault sets what matchMedia returns for any query not
// seeded individually.
func (rt *Runtime) SetMatchMediaDefault(v bool) { rt.collab.mediaDefault = v }

// NavigationRecords lists every location change the mock has recorded,
// in order.
func (rt *Runtime) NavigationRecords() []NavigationRecord { return rt.collab.navigations }

// DownloadArtifacts lists every download the mock has captured, in
// order.
func (rt *Runtime) DownloadArtifacts() []DownloadArtifact { return rt.collab.downloads }

// RegisterPage maps url to the HTML the location mock should load when
// a navigation targets it, simulating a multi-page app without any
// real network fetch.
func (rt *Runtime) RegisterPage(url, html string) { rt.collab.pages[url] = html }

// SeedFiles attaches metas as sel's file-input selection, then fires
// "input" and "change" as a real file picker selection would. An empty
// metas slice instead fires "cancel" without mutating the control's
// current selection (§6.2: a no-change file dialog fires cancel).
func (rt *Runtime) SeedFiles(sel string, metas []jsscript.FileMeta) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		rt.dispatch(el.AsNode(), "cancel", false, false)
		return nil
	}
	rt.collab.files[el.AsNode()] = metas
	rt.dispatch(el.AsNode(), "input", true, false)
	rt.dispatch(el.AsNode(), "change", true, false)
	return nil
}
