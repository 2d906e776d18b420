package dom

import "strings"

// AsNode returns the Document's root node as a plain Node, for APIs
// (cssselect, the event dispatcher) that operate over Node rather than
// *Document.
func (d *Document) AsNode() Node { return Node{doc: d, h: d.root} }

// CreateElement creates a detached element with the given tag name.
// Tag names are case-folded to lower case per the HTML data model.
func (d *Document) CreateElement(tagName string) Element {
	h := d.alloc(record{kind: ElementNode, tagName: strings.ToLower(tagName)})
	return Element{Node{doc: d, h: h}}
}

// CreateTextNode creates a detached text node.
func (d *Document) CreateTextNode(data string) Node {
	h := d.alloc(record{kind: TextNode, text: data})
	return Node{doc: d, h: h}
}

// CreateComment creates a detached comment node.
func (d *Document) CreateComment(data string) Node {
	h := d.alloc(record{kind: CommentNode, text: data})
	return Node{doc: d, h: h}
}

// CreateDocumentFragment creates a detached, parentless container node
// used to batch-insert groups of nodes (and to hold <template> content).
func (d *Document) CreateDocumentFragment() Node {
	h := d.alloc(record{kind: DocumentFragmentNode})
	return Node{doc: d, h: h}
}

// DocumentElement returns the root <html> element, if present.
func (d *Document) DocumentElement() Element {
	for _, c := range d.AsNode().ChildNodes() {
		if c.NodeType() == ElementNode {
			return c.AsElement()
		}
	}
	return Element{}
}

// Head returns the document's <head> element, if present.
func (d *Document) Head() Element { return d.firstDescendantByTag("head") }

// Body returns the document's <body> element, if present.
func (d *Document) Body() Element { return d.firstDescendantByTag("body") }

func (d *Document) firstDescendantByTag(tag string) Element {
	var found Element
	var walk func(Node)
	walk = func(n Node) {
		if !found.IsZero() {
			return
		}
		for _, c := range n.ChildNodes() {
			if c.NodeType() == ElementNode && c.AsElement().LocalName() == tag {
				found = c.AsElement()
				return
			}
			walk(c)
			if !found.IsZero() {
				return
			}
		}
	}
	walk(d.AsNode())
	return found
}

// AllElements returns every element in the document, in pre-order. Used
// by selector matching fallbacks and by DumpDOM.
func (d *Document) AllElements() []Element {
	var out []Element
	var walk func(Node)
	walk = func(n Node) {
		for _, c := range n.ChildNodes() {
			if c.NodeType() == ElementNode {
				out = append(out, c.AsElement())
			}
			walk(c)
		}
	}
	walk(d.AsNode())
	return out
}
