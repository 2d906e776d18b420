package engine

import (
	"github.com/google/uuid"

	"github.com/finitefield-org/browser-tester/dom"
	"github.com/finitefield-org/browser-tester/jsscript"
)

// FetchCall records one fetch() invocation against the mock, for later
// retrieval by a harness assertion.
type FetchCall struct {
	URL  string
	Init jsscript.Value
}

type fetchResponse struct {
	status  int
	body    string
	headers map[string]string
}

// NavigationRecord captures one location change, real or href-driven,
// without performing any actual navigation.
type NavigationRecord struct {
	Kind string // "assign", "replace", "reload", "href"
	From string
	To   string
}

// DownloadArtifact is what a harness-visible "<a download>.click()"
// produces instead of writing to a real filesystem.
type DownloadArtifact struct {
	ID       string
	Filename string
	MimeType string
	Data     []byte
}

type dialogCall struct {
	Kind    string
	Message string
}

// collaborators is the engine's mock implementation of
// jsscript.Collaborators (§6.2): fetch, clipboard, dialogs, matchMedia,
// location navigation, a download sink, and file-input seeding. All
// state lives here, not in any package-level variable, so independent
// Runtimes never share a mock.
type collaborators struct {
	rt *Runtime

	fetchResponses map[string]fetchResponse
	fetchCalls     []FetchCall

	clipboard string

	dialogLog        []dialogCall
	confirmResponses []bool
	confirmDefault   bool
	promptResponses  []string
	havePromptResp   []bool

	mediaResponses map[string]bool
	mediaDefault   bool

	navigations []NavigationRecord
	downloads   []DownloadArtifact
	pages       map[string]string

	files map[dom.Node][]jsscript.FileMeta
}

func newCollaborators(rt *Runtime) *collaborators {
	return &collaborators{
		rt:             rt,
		fetchResponses: make(map[string]fetchResponse),
		mediaResponses: make(map[string]bool),
		pages:          make(map[string]string),
		files:          make(map[dom.Node][]jsscript.FileMeta),
	}
}

func (c *collaborators) Fetch(url string, init jsscript.Value) (int, string, map[string]string) {
	c.fetchCalls = append(c.fetchCalls, FetchCall{URL: url, Init: init})
	if resp, ok := c.fetchResponses[url]; ok {
		return resp.status, resp.body, resp.headers
	}
	return 404, "", nil
}

func (c *collaborators) ClipboardRead() string     { return c.clipboard }
func (c *collaborators) ClipboardWrite(s string)   { c.clipboard = s }

func (c *collaborators) Alert(message string) {
	c.dialogLog = append(c.dialogLog, dialogCall{Kind: "alert", Message: message})
}

func (c *collaborators) Confirm(message string) bool {
	c.dialogLog = append(c.dialogLog, dialogCall{Kind: "confirm", Message: message})
	if len(c.confirmResponses) > 0 {
		r := c.confirmResponses[0]
		c.confirmResponses = c.confirmResponses[1:]
		return r
	}
	return c.confirmDefault
}

func (c *collaborators) Prompt(message, defaultValue string) (string, bool) {
	c.dialogLog = append(c.dialogLog, dialogCall{Kind: "prompt", Message: message})
	if len(c.promptResponses) > 0 {
		r := c.promptResponses[0]
		had := c.havePromptResp[0]
		c.promptResponses = c.promptResponses[1:]
		c.havePromptResp = c.havePromptResp[1:]
		return r, had
	}
	return defaultValue, true
}

func (c *collaborators) MatchMedia(query string) (bool, string) {
	if m, ok := c.mediaResponses[query]; ok {
		return m, query
	}
	return c.mediaDefault, query
}

func (c *collaborators) LocationAssign(url string) { c.navigate("assign", url) }
func (c *collaborators) LocationReplace(url string) { c.navigate("replace", url) }
func (c *collaborators) LocationReload() {
	cur := c.CurrentURL()
	c.navigations = append(c.navigations, NavigationRecord{Kind: "reload", From: cur, To: cur})
}

func (c *collaborators) navigate(kind, url string) {
	from := c.CurrentURL()
	c.navigations = append(c.navigations, NavigationRecord{Kind: kind, From: from, To: url})
	if html, ok := c.pages[url]; ok {
		c.rt.swapDocument(url, html)
	}
}

func (c *collaborators) CurrentURL() string { return c.rt.doc.URL() }

func (c *collaborators) DownloadArtifact(filename, mimeType string, data []byte) {
	c.downloads = append(c.downloads, DownloadArtifact{
		ID:       uuid.NewString(),
		Filename: filename,
		MimeType: mimeType,
		Data:     data,
	})
}

func (c *collaborators) FilesFor(n dom.Node) []jsscript.FileMeta {
	return c.files[n]
}
