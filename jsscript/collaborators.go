package jsscript

import "github.com/finitefield-org/browser-tester/dom"

// FileMeta describes one file attached to an <input type="file"> by
// SeedFiles, exposed to scripts as a File object through the input's
// .files FileList.
type FileMeta struct {
	Name         string
	Size         int64
	Type         string
	LastModified int64
	Content      []byte
}

// Collaborators is everything a script can observe or trigger outside
// the DOM/scheduler/event-dispatch core: network fetches, the
// clipboard, the three native dialogs, matchMedia, location navigation,
// a download sink, and file-input metadata. The engine supplies a mock
// implementation; nothing here performs real I/O.
type Collaborators interface {
	Fetch(url string, init Value) (status int, body string, headers map[string]string)

	ClipboardRead() string
	ClipboardWrite(s string)

	Alert(message string)
	Confirm(message string) bool
	Prompt(message, defaultValue string) (value string, ok bool)

	MatchMedia(query string) (matches bool, query2 string)

	LocationAssign(url string)
	LocationReplace(url string)
	LocationReload()
	CurrentURL() string

	DownloadArtifact(filename, mimeType string, data []byte)

	FilesFor(n dom.Node) []FileMeta
}

// SetCollaborators installs the host's mock implementation. Every
// fetch/clipboard/dialog/location/download builtin the window object
// exposes routes through this interface rather than touching any real
// network, clipboard, or filesystem API.
func (ip *Interp) SetCollaborators(c Collaborators) {
	ip.collab = c
}
