package cssselect

import (
	"testing"

	"github.com/finitefield-org/browser-tester/dom"
)

func buildDoc() *dom.Document {
	doc := dom.NewDocument()
	root := doc.AsNode()
	html := doc.CreateElement("html")
	body := doc.CreateElement("body")
	ul := doc.CreateElement("ul")
	ul.SetAttribute("class", "list main")

	for i := 0; i < 3; i++ {
		li := doc.CreateElement("li")
		if i == 1 {
			li.SetAttribute("id", "middle")
			li.SetAttribute("class", "item active")
		} else {
			li.SetAttribute("class", "item")
		}
		ul.AsNode().AppendChild(li.AsNode())
	}

	input := doc.CreateElement("input")
	input.SetAttribute("type", "checkbox")
	input.SetAttribute("checked", "")
	input.SetAttribute("disabled", "")

	body.AsNode().AppendChild(ul.AsNode())
	body.AsNode().AppendChild(input.AsNode())
	html.AsNode().AppendChild(body.AsNode())
	root.AppendChild(html.AsNode())
	return doc
}

func TestQueryAllTypeAndClass(t *testing.T) {
	doc := buildDoc()
	els, err := QueryAll(doc.AsNode(), "li.item")
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(els) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(els))
	}
}

func TestQueryFirstIDFastPath(t *testing.T) {
	doc := buildDoc()
	el, err := QueryFirst(doc.AsNode(), "#middle")
	if err != nil {
		t.Fatalf("QueryFirst: %v", err)
	}
	if el.IsZero() || el.Id() != "middle" {
		t.Fatalf("expected element with id 'middle', got %+v", el)
	}
}

func TestDescendantAndChildCombinators(t *testing.T) {
	doc := buildDoc()
	els, err := QueryAll(doc.AsNode(), "body ul > li.active")
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(els) != 1 {
		t.Fatalf("expected 1 match, got %d", len(els))
	}
}

func TestNthChild(t *testing.T) {
	doc := buildDoc()
	els, err := QueryAll(doc.AsNode(), "li:nth-child(2)")
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(els) != 1 || els[0].Id() != "middle" {
		t.Fatalf("expected the middle li, got %+v", els)
	}
}

func TestNotPseudoClass(t *testing.T) {
	doc := buildDoc()
	els, err := QueryAll(doc.AsNode(), "li:not(.active)")
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(els) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(els))
	}
}

func TestCheckedAndDisabledPseudoClasses(t *testing.T) {
	doc := buildDoc()
	els, err := QueryAll(doc.AsNode(), "input:checked:disabled")
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(els) != 1 {
		t.Fatalf("expected 1 match, got %d", len(els))
	}
}

func TestUnsupportedSelectorIsReported(t *testing.T) {
	doc := buildDoc()
	_, err := QueryAll(doc.AsNode(), "li::before")
	if err == nil {
		t.Fatal("expected an error for a pseudo-element selector")
	}
	if _, ok := err.(*UnsupportedSelectorError); !ok {
		t.Fatalf("expected *UnsupportedSelectorError, got %T: %v", err, err)
	}
}

func TestSyntaxErrorOnMalformedSelector(t *testing.T) {
	doc := buildDoc()
	_, err := QueryAll(doc.AsNode(), "li[")
	if err == nil {
		t.Fatal("expected a syntax error")
	}
}

func TestAttributeOperators(t *testing.T) {
	doc := buildDoc()
	els, err := QueryAll(doc.AsNode(), "[class^=\"item\"]")
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(els) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(els))
	}
}

func buildHasDoc() *dom.Document {
	doc := dom.NewDocument()
	body := doc.CreateElement("body")
	doc.AsNode().AppendChild(body.AsNode())

	fig := doc.CreateElement("figure")
	img := doc.CreateElement("img")
	fig.AsNode().AppendChild(img.AsNode())
	body.AsNode().AppendChild(fig.AsNode())

	label := doc.CreateElement("label")
	p := doc.CreateElement("p")
	label.AsNode().AppendChild(p.AsNode())
	body.AsNode().AppendChild(label.AsNode())

	marker := doc.CreateElement("div")
	marker.SetAttribute("class", "x")
	siblingHost := doc.CreateElement("section")
	body.AsNode().AppendChild(siblingHost.AsNode())
	body.AsNode().AppendChild(marker.AsNode())

	return doc
}

func TestHasWithChildCombinator(t *testing.T) {
	doc := buildHasDoc()
	els, err := QueryAll(doc.AsNode(), "figure:has(> img)")
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(els) != 1 {
		t.Fatalf("expected 1 match, got %d", len(els))
	}
}

func TestHasWithAdjacentSiblingCombinator(t *testing.T) {
	doc := buildHasDoc()
	els, err := QueryAll(doc.AsNode(), "section:has(+ .x)")
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(els) != 1 {
		t.Fatalf("expected 1 match, got %d", len(els))
	}
}

func TestHasWithGeneralSiblingCombinator(t *testing.T) {
	doc := buildHasDoc()
	els, err := QueryAll(doc.AsNode(), "figure:has(~ .x)")
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(els) != 1 {
		t.Fatalf("expected 1 match, got %d", len(els))
	}
}

func TestHasWithoutCombinatorStillMatchesDescendant(t *testing.T) {
	doc := buildHasDoc()
	els, err := QueryAll(doc.AsNode(), "label:has(p)")
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(els) != 1 {
		t.Fatalf("expected 1 match, got %d", len(els))
	}
}
