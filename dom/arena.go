package dom

// Handle addresses a node within a Document's arena. The zero Handle
// never refers to a live node; Document.root is always non-zero once a
// document has been created via NewDocument.
//
// Handles are never reused and never dangle while the owning Document is
// alive: removing a node only unlinks it from its parent's children and
// clears the index entries that reference it, it does not free the
// arena slot.
type Handle uint32

const noHandle Handle = 0

// attrPair is one ordered, case-folded attribute entry.
type attrPair struct {
	name  string // already lower-cased
	value string
}

// record is the arena entry for one node. Only the fields relevant to
// the node's kind are populated.
type record struct {
	kind     NodeType
	parent   Handle
	children []Handle

	// Element fields.
	tagName    string // lower-cased local name
	attrs      []attrPair
	properties map[string]string // value, checked, disabled, readonly, required, focused, selected

	// Text/Comment fields.
	text string

	// Template elements carry an inert content fragment handle.
	templateContent Handle

	removed bool // unlinked from the tree, but the handle stays valid
}

func (r *record) attrIndex(name string) int {
	for i := range r.attrs {
		if r.attrs[i].name == name {
			return i
		}
	}
	return -1
}

func (r *record) getAttr(name string) (string, bool) {
	if i := r.attrIndex(name); i >= 0 {
		return r.attrs[i].value, true
	}
	return "", false
}

func (r *record) setAttr(name, value string) {
	if i := r.attrIndex(name); i >= 0 {
		r.attrs[i].value = value
		return
	}
	r.attrs = append(r.attrs, attrPair{name: name, value: value})
}

func (r *record) removeAttr(name string) bool {
	if i := r.attrIndex(name); i >= 0 {
		r.attrs = append(r.attrs[:i], r.attrs[i+1:]...)
		return true
	}
	return false
}

func (r *record) prop(key string) string {
	return r.properties[key]
}

func (r *record) setProp(key, value string) {
	if r.properties == nil {
		r.properties = make(map[string]string)
	}
	r.properties[key] = value
}

// Document owns the arena for an entire DOM tree, plus the secondary
// indices that must stay in sync with current id/class attributes
// across every mutation.
type Document struct {
	records []record
	root    Handle

	idIndex    map[string][]Handle
	classIndex map[string]map[Handle]bool

	url          string
	characterSet string

	mutationHook func(MutationRecord)
}

// NewDocument creates an empty document containing only its document
// root node (handle 1); callers populate it via CreateElement et al.
func NewDocument() *Document {
	d := &Document{
		idIndex:      make(map[string][]Handle),
		classIndex:   make(map[string]map[Handle]bool),
		url:          "about:blank",
		characterSet: "UTF-8",
	}
	d.records = append(d.records, record{}) // index 0 is the invalid handle
	d.root = d.alloc(record{kind: DocumentNode})
	return d
}

func (d *Document) alloc(r record) Handle {
	d.records = append(d.records, r)
	return Handle(len(d.records) - 1)
}

func (d *Document) rec(h Handle) *record {
	if h == noHandle || int(h) >= len(d.records) {
		return nil
	}
	return &d.records[h]
}

// Root returns the document's root node.
func (d *Document) Root() Node { return Node{doc: d, h: d.root} }

// URL returns the document's URL (defaults to "about:blank").
func (d *Document) URL() string { return d.url }

// SetURL sets the document's URL.
func (d *Document) SetURL(u string) { d.url = u }

// CharacterSet returns the document's character encoding.
func (d *Document) CharacterSet() string { return d.characterSet }

// OnMutation installs a callback invoked for every structural or
// character-data mutation. Only one hook is supported at a time; the
// jsscript package wires its MutationObserver dispatch through it.
func (d *Document) OnMutation(fn func(MutationRecord)) { d.mutationHook = fn }

func (d *Document) notify(rec MutationRecord) {
	if d.mutationHook != nil {
		d.mutationHook(rec)
	}
}

// indexInsert adds h (and, if it is an element, its descendants) to the
// id/class indices. Called after structural insertion.
func (d *Document) indexInsert(h Handle) {
	d.walkPreOrder(h, func(n Handle) {
		r := d.rec(n)
		if r == nil || r.kind != ElementNode {
			return
		}
		if id, ok := r.getAttr("id"); ok && id != "" {
			d.idIndex[id] = append(d.idIndex[id], n)
		}
		if cls, ok := r.getAttr("class"); ok {
			for _, c := range splitClasses(cls) {
				if d.classIndex[c] == nil {
					d.classIndex[c] = make(map[Handle]bool)
				}
				d.classIndex[c][n] = true
			}
		}
	})
}

// indexRemove drops h and all of its descendants from the id/class
// indices.
func (d *Document) indexRemove(h Handle) {
	d.walkPreOrder(h, func(n Handle) {
		r := d.rec(n)
		if r == nil || r.kind != ElementNode {
			return
		}
		if id, ok := r.getAttr("id"); ok && id != "" {
			d.idIndex[id] = removeHandle(d.idIndex[id], n)
			if len(d.idIndex[id]) == 0 {
				delete(d.idIndex, id)
			}
		}
		if cls, ok := r.getAttr("class"); ok {
			for _, c := range splitClasses(cls) {
				delete(d.classIndex[c], n)
			}
		}
	})
}

func (d *Document) walkPreOrder(h Handle, fn func(Handle)) {
	if h == noHandle {
		return
	}
	fn(h)
	r := d.rec(h)
	if r == nil {
		return
	}
	for _, c := range r.children {
		d.walkPreOrder(c, fn)
	}
}

func removeHandle(hs []Handle, target Handle) []Handle {
	out := hs[:0]
	for _, h := range hs {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}

func splitClasses(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// GetElementByID returns the head of id_index[id], or the zero Node if
// absent. Duplicate ids are preserved in insertion order; this always
// returns the first.
func (d *Document) GetElementByID(id string) Element {
	hs := d.idIndex[id]
	if len(hs) == 0 {
		return Element{}
	}
	return Element{Node{doc: d, h: hs[0]}}
}
