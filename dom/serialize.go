package dom

import (
	"html"
	"strings"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// IsVoidElement reports whether tag never has children or a closing tag.
func IsVoidElement(tag string) bool { return voidElements[strings.ToLower(tag)] }

// InnerHTML serializes this node's children as an HTML fragment.
func (n Node) InnerHTML() string {
	var sb strings.Builder
	for _, c := range n.ChildNodes() {
		serializeNode(c, &sb)
	}
	return sb.String()
}

// OuterHTML serializes this node (and, for elements, its children) as
// an HTML fragment.
func (n Node) OuterHTML() string {
	var sb strings.Builder
	serializeNode(n, &sb)
	return sb.String()
}

func serializeNode(n Node, sb *strings.Builder) {
	switch n.NodeType() {
	case TextNode:
		sb.WriteString(html.EscapeString(n.rec().text))
	case CommentNode:
		sb.WriteString("<!--")
		sb.WriteString(n.rec().text)
		sb.WriteString("-->")
	case ElementNode:
		el := n.AsElement()
		tag := el.LocalName()
		sb.WriteString("<")
		sb.WriteString(tag)
		for _, a := range el.Attributes() {
			sb.WriteString(" ")
			sb.WriteString(a.Name)
			sb.WriteString(`="`)
			sb.WriteString(html.EscapeString(a.Value))
			sb.WriteString(`"`)
		}
		sb.WriteString(">")
		if IsVoidElement(tag) {
			return
		}
		for _, c := range n.ChildNodes() {
			serializeNode(c, sb)
		}
		sb.WriteString("</")
		sb.WriteString(tag)
		sb.WriteString(">")
	case DocumentFragmentNode, DocumentNode:
		for _, c := range n.ChildNodes() {
			serializeNode(c, sb)
		}
	}
}

// Snippet returns up to maxLen characters of this node's OuterHTML,
// for use in assertion-failure diagnostics.
func (n Node) Snippet(maxLen int) string {
	s := n.OuterHTML()
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}
