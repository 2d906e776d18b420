// Package htmlload builds a dom.Document arena from an HTML source
// string, using golang.org/x/net/html as the underlying tokenizer and
// tree-construction engine.
package htmlload

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/finitefield-org/browser-tester/dom"
)

// Load parses source as a full HTML document into doc, which must be
// freshly created (its root must have no children yet). It returns, in
// document order, every <script> element with no "src" attribute so the
// caller can decide when to execute them; script elements with "src"
// are returned too, with the attribute set, so the caller can decide
// how to resolve and fetch them.
func Load(doc *dom.Document, source, sourceName string) ([]dom.Element, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, &ParseError{Source: sourceName, Err: err}
	}
	var scripts []dom.Element
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		convertInto(doc, doc.AsNode(), c, &scripts)
	}
	return scripts, nil
}

// LoadFragment parses source as an HTML fragment in the context of an
// element named contextTag (e.g. "div", "template", "tbody") and
// returns the resulting nodes wrapped in a fresh, parentless document
// fragment. It never collects script elements: fragments produced for
// innerHTML assignment must not be executed.
func LoadFragment(doc *dom.Document, contextTag, source string) (dom.Node, error) {
	contextNode := &html.Node{
		Type:     html.ElementNode,
		Data:     contextTag,
		DataAtom: atom.Lookup([]byte(contextTag)),
	}
	nodes, err := html.ParseFragment(strings.NewReader(source), contextNode)
	if err != nil {
		return dom.Node{}, &ParseError{Source: "innerHTML", Err: err}
	}
	frag := doc.CreateDocumentFragment()
	var discard []dom.Element
	for _, n := range nodes {
		convertInto(doc, frag, n, &discard)
	}
	return frag, nil
}

func convertInto(doc *dom.Document, parent dom.Node, n *html.Node, scripts *[]dom.Element) {
	switch n.Type {
	case html.DoctypeNode, html.ErrorNode:
		return // quirks-mode doctype details are outside this runtime's scope
	case html.CommentNode:
		parent.AppendChild(doc.CreateComment(n.Data))
		return
	case html.TextNode:
		parent.AppendChild(doc.CreateTextNode(n.Data))
		return
	case html.ElementNode:
		el := doc.CreateElement(n.Data)
		parent.AppendChild(el.AsNode())
		for _, a := range n.Attr {
			el.SetAttribute(a.Key, a.Val)
		}
		if el.LocalName() == "script" {
			*scripts = append(*scripts, el)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			convertInto(doc, el.AsNode(), c, scripts)
		}
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			convertInto(doc, parent, c, scripts)
		}
	}
}
