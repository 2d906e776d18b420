package dom

import "strings"

// Node is a lightweight handle into a Document's arena. It is cheap to
// copy and compare; closures built by the script evaluator capture Nodes
// by value rather than holding any owning reference.
type Node struct {
	doc *Document
	h   Handle
}

// IsZero reports whether this Node is the zero value (no underlying node).
func (n Node) IsZero() bool { return n.doc == nil || n.h == noHandle }

// Equals reports whether two Nodes address the same arena entry.
func (n Node) Equals(other Node) bool { return n.doc == other.doc && n.h == other.h }

// Document returns the owning Document.
func (n Node) Document() *Document { return n.doc }

// Handle exposes the raw arena handle, for callers (the script bridge,
// the event dispatcher) that need a hashable node identity.
func (n Node) Handle() Handle { return n.h }

func (n Node) rec() *record {
	if n.doc == nil {
		return nil
	}
	return n.doc.rec(n.h)
}

// NodeType returns the type of the node.
func (n Node) NodeType() NodeType {
	if r := n.rec(); r != nil {
		return r.kind
	}
	return 0
}

// NodeName returns the DOM nodeName for this node.
func (n Node) NodeName() string {
	r := n.rec()
	if r == nil {
		return ""
	}
	switch r.kind {
	case ElementNode:
		return strings.ToUpper(r.tagName)
	case TextNode:
		return "#text"
	case CommentNode:
		return "#comment"
	case DocumentNode:
		return "#document"
	case DocumentFragmentNode:
		return "#document-fragment"
	}
	return ""
}

// ParentNode returns the parent of this node, or the zero Node.
func (n Node) ParentNode() Node {
	r := n.rec()
	if r == nil || r.parent == noHandle {
		return Node{}
	}
	return Node{doc: n.doc, h: r.parent}
}

// ParentElement returns the parent Element, or the zero Element if the
// parent is missing or not an element.
func (n Node) ParentElement() Element {
	p := n.ParentNode()
	if p.IsZero() || p.NodeType() != ElementNode {
		return Element{}
	}
	return Element{p}
}

// ChildNodes returns the ordered list of this node's children.
func (n Node) ChildNodes() []Node {
	r := n.rec()
	if r == nil {
		return nil
	}
	out := make([]Node, len(r.children))
	for i, c := range r.children {
		out[i] = Node{doc: n.doc, h: c}
	}
	return out
}

// HasChildNodes reports whether this node has any children.
func (n Node) HasChildNodes() bool {
	r := n.rec()
	return r != nil && len(r.children) > 0
}

// FirstChild returns the first child, or the zero Node.
func (n Node) FirstChild() Node {
	r := n.rec()
	if r == nil || len(r.children) == 0 {
		return Node{}
	}
	return Node{doc: n.doc, h: r.children[0]}
}

// LastChild returns the last child, or the zero Node.
func (n Node) LastChild() Node {
	r := n.rec()
	if r == nil || len(r.children) == 0 {
		return Node{}
	}
	return Node{doc: n.doc, h: r.children[len(r.children)-1]}
}

// PreviousSibling returns the preceding sibling, or the zero Node.
func (n Node) PreviousSibling() Node {
	p := n.ParentNode()
	if p.IsZero() {
		return Node{}
	}
	pr := p.rec()
	for i, c := range pr.children {
		if c == n.h {
			if i == 0 {
				return Node{}
			}
			return Node{doc: n.doc, h: pr.children[i-1]}
		}
	}
	return Node{}
}

// NextSibling returns the following sibling, or the zero Node.
func (n Node) NextSibling() Node {
	p := n.ParentNode()
	if p.IsZero() {
		return Node{}
	}
	pr := p.rec()
	for i, c := range pr.children {
		if c == n.h {
			if i == len(pr.children)-1 {
				return Node{}
			}
			return Node{doc: n.doc, h: pr.children[i+1]}
		}
	}
	return Node{}
}

// IsConnected reports whether the node's root is the document: nodes
// reachable from the document root via ancestor links are attached,
// everything else is detached.
func (n Node) IsConnected() bool {
	root := n.GetRootNode()
	return !root.IsZero() && root.NodeType() == DocumentNode
}

// GetRootNode walks to the top of the tree containing this node.
func (n Node) GetRootNode() Node {
	cur := n
	for {
		p := cur.ParentNode()
		if p.IsZero() {
			return cur
		}
		cur = p
	}
}

// Contains reports whether other is this node or a descendant of it.
func (n Node) Contains(other Node) bool {
	if other.IsZero() {
		return false
	}
	for cur := other; !cur.IsZero(); cur = cur.ParentNode() {
		if cur.Equals(n) {
			return true
		}
	}
	return false
}

// TextContent returns the concatenated text of this node's text-node
// descendants (or its own value, for Text/Comment nodes).
func (n Node) TextContent() string {
	r := n.rec()
	if r == nil {
		return ""
	}
	switch r.kind {
	case DocumentNode:
		return ""
	case TextNode, CommentNode:
		return r.text
	default:
		var sb strings.Builder
		n.collectText(&sb)
		return sb.String()
	}
}

func (n Node) collectText(sb *strings.Builder) {
	r := n.rec()
	if r == nil {
		return
	}
	for _, ch := range r.children {
		c := Node{doc: n.doc, h: ch}
		switch c.NodeType() {
		case TextNode:
			sb.WriteString(c.rec().text)
		case ElementNode, DocumentFragmentNode:
			c.collectText(sb)
		}
	}
}

// SetTextContent replaces this node's children with a single text node
// (or sets the raw value, for Text/Comment nodes).
func (n Node) SetTextContent(value string) {
	r := n.rec()
	if r == nil {
		return
	}
	switch r.kind {
	case DocumentNode:
		return
	case TextNode, CommentNode:
		old := r.text
		r.text = value
		n.doc.notify(MutationRecord{Kind: MutationCharacterData, Target: n, OldValue: old})
	default:
		removed := n.ChildNodes()
		for _, c := range removed {
			n.RemoveChild(c)
		}
		if value != "" {
			n.AppendChild(n.doc.CreateTextNode(value))
		}
	}
}

// AppendChild appends child to the end of n's children list.
func (n Node) AppendChild(child Node) (Node, error) {
	return n.InsertBefore(child, Node{})
}

// InsertBefore inserts child before ref (or at the end, if ref is zero).
func (n Node) InsertBefore(child, ref Node) (Node, error) {
	if err := n.validateInsertion(child, ref); err != nil {
		return Node{}, err
	}

	if !child.ParentNode().IsZero() {
		child.ParentNode().RemoveChild(child)
	}

	nr := n.rec()
	cr := child.rec()
	cr.parent = n.h

	var prevSib, nextSib Node
	if ref.IsZero() {
		if len(nr.children) > 0 {
			prevSib = Node{doc: n.doc, h: nr.children[len(nr.children)-1]}
		}
		nr.children = append(nr.children, child.h)
	} else {
		idx := -1
		for i, c := range nr.children {
			if c == ref.h {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Node{}, ErrNotFound("the reference node is not a child of this node")
		}
		if idx > 0 {
			prevSib = Node{doc: n.doc, h: nr.children[idx-1]}
		}
		nextSib = ref
		nr.children = append(nr.children, noHandle)
		copy(nr.children[idx+1:], nr.children[idx:])
		nr.children[idx] = child.h
	}

	if n.IsConnected() {
		n.doc.indexInsert(child.h)
	}
	n.doc.notify(MutationRecord{
		Kind:       MutationChildList,
		Target:     n,
		AddedNodes: []Node{child},
		PreviousSib: prevSib,
		NextSib:    nextSib,
	})
	return child, nil
}

func (n Node) validateInsertion(child, ref Node) error {
	r := n.rec()
	if r == nil || (r.kind != DocumentNode && r.kind != ElementNode && r.kind != DocumentFragmentNode) {
		return ErrHierarchyRequest("the operation would yield an incorrect node tree")
	}
	for cur := n; !cur.IsZero(); cur = cur.ParentNode() {
		if cur.Equals(child) {
			return ErrHierarchyRequest("the new child contains the parent")
		}
	}
	if !ref.IsZero() {
		if ref.ParentNode().h != n.h {
			return ErrNotFound("the reference node is not a child of this node")
		}
	}
	cr := child.rec()
	if cr == nil {
		return ErrHierarchyRequest("the node to insert does not exist")
	}
	if r.kind == DocumentNode && cr.kind == TextNode {
		return ErrHierarchyRequest("cannot insert a text node as a direct child of Document")
	}
	return nil
}

// RemoveChild unlinks child from n's children list.
func (n Node) RemoveChild(child Node) (Node, error) {
	nr := n.rec()
	if nr == nil {
		return Node{}, ErrNotFound("parent does not exist")
	}
	idx := -1
	for i, c := range nr.children {
		if c == child.h {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Node{}, ErrNotFound("the node to remove is not a child of this node")
	}

	var prevSib, nextSib Node
	if idx > 0 {
		prevSib = Node{doc: n.doc, h: nr.children[idx-1]}
	}
	if idx < len(nr.children)-1 {
		nextSib = Node{doc: n.doc, h: nr.children[idx+1]}
	}

	nr.children = append(nr.children[:idx], nr.children[idx+1:]...)
	cr := child.rec()
	cr.parent = noHandle
	n.doc.indexRemove(child.h)
	n.doc.notify(MutationRecord{
		Kind:         MutationChildList,
		Target:       n,
		RemovedNodes: []Node{child},
		PreviousSib:  prevSib,
		NextSib:      nextSib,
	})
	return child, nil
}

// ReplaceChild replaces oldChild with newChild at the same position.
func (n Node) ReplaceChild(newChild, oldChild Node) (Node, error) {
	nr := n.rec()
	if nr == nil {
		return Node{}, ErrNotFound("parent does not exist")
	}
	idx := -1
	for i, c := range nr.children {
		if c == oldChild.h {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Node{}, ErrNotFound("the node to replace is not a child of this node")
	}
	next := oldChild.NextSibling()
	if _, err := n.RemoveChild(oldChild); err != nil {
		return Node{}, err
	}
	if _, err := n.InsertBefore(newChild, next); err != nil {
		return Node{}, err
	}
	return oldChild, nil
}

// Remove detaches this node from its parent, if any.
func (n Node) Remove() {
	if p := n.ParentNode(); !p.IsZero() {
		p.RemoveChild(n)
	}
}

// CloneNode copies this node; if deep is true its descendants are also
// cloned.
func (n Node) CloneNode(deep bool) Node {
	r := n.rec()
	if r == nil {
		return Node{}
	}
	clone := record{kind: r.kind, tagName: r.tagName, text: r.text}
	clone.attrs = append(clone.attrs, r.attrs...)
	if r.properties != nil {
		clone.properties = make(map[string]string, len(r.properties))
		for k, v := range r.properties {
			clone.properties[k] = v
		}
	}
	h := n.doc.alloc(clone)
	out := Node{doc: n.doc, h: h}
	if deep {
		for _, c := range n.ChildNodes() {
			out.AppendChild(c.CloneNode(true))
		}
	}
	return out
}

// AsElement narrows this node to an Element view (zero Element if this
// node is not an ElementNode).
func (n Node) AsElement() Element {
	if n.NodeType() != ElementNode {
		return Element{}
	}
	return Element{n}
}
