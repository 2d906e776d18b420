package dom

import "testing"

func TestNewDocumentRoot(t *testing.T) {
	doc := NewDocument()
	if doc.AsNode().NodeType() != DocumentNode {
		t.Fatalf("expected DocumentNode, got %v", doc.AsNode().NodeType())
	}
}

func TestCreateElementAndAppend(t *testing.T) {
	doc := NewDocument()
	div := doc.CreateElement("DIV")
	if div.LocalName() != "div" {
		t.Errorf("expected local name 'div', got %q", div.LocalName())
	}
	if div.TagName() != "DIV" {
		t.Errorf("expected tag name 'DIV', got %q", div.TagName())
	}
	if _, err := doc.AsNode().AppendChild(div.AsNode()); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}
	if !div.AsNode().IsConnected() {
		t.Error("expected element to be connected after append to document")
	}
}

func TestIdIndexDuplicates(t *testing.T) {
	doc := NewDocument()
	root := doc.AsNode()
	a := doc.CreateElement("span")
	a.SetId("x")
	b := doc.CreateElement("span")
	b.SetId("x")
	root.AppendChild(a.AsNode())
	root.AppendChild(b.AsNode())

	found := doc.GetElementByID("x")
	if !found.Equals(a.AsNode()) {
		t.Error("expected GetElementByID to return the first matching element")
	}

	root.RemoveChild(a.AsNode())
	found = doc.GetElementByID("x")
	if !found.Equals(b.AsNode()) {
		t.Error("expected GetElementByID to fall back to the remaining duplicate")
	}
}

func TestRemoveChildClearsDescendantIndices(t *testing.T) {
	doc := NewDocument()
	root := doc.AsNode()
	outer := doc.CreateElement("div")
	inner := doc.CreateElement("span")
	inner.SetId("inner")
	outer.AsNode().AppendChild(inner.AsNode())
	root.AppendChild(outer.AsNode())

	if doc.GetElementByID("inner").IsZero() {
		t.Fatal("expected inner element to be indexed")
	}

	root.RemoveChild(outer.AsNode())
	if !doc.GetElementByID("inner").IsZero() {
		t.Error("expected descendant index entry to be removed with its ancestor")
	}
}

func TestSetTextContentReplacesChildren(t *testing.T) {
	doc := NewDocument()
	p := doc.CreateElement("p")
	p.AsNode().AppendChild(doc.CreateTextNode("old"))
	p.AsNode().SetTextContent("new")
	if got := p.AsNode().TextContent(); got != "new" {
		t.Errorf("expected TextContent 'new', got %q", got)
	}
}

func TestCloneNodeDeep(t *testing.T) {
	doc := NewDocument()
	outer := doc.CreateElement("div")
	outer.SetAttribute("class", "box")
	inner := doc.CreateTextNode("hi")
	outer.AsNode().AppendChild(inner)

	clone := outer.AsNode().CloneNode(true)
	if clone.AsElement().GetAttribute("class") != "box" {
		t.Error("expected cloned attribute to survive")
	}
	if clone.TextContent() != "hi" {
		t.Error("expected deep clone to copy descendants")
	}
	clone.AsElement().SetAttribute("class", "changed")
	if outer.GetAttribute("class") != "box" {
		t.Error("clone mutation should not affect original")
	}
}

func TestCheckedAndValueAreLiveProperties(t *testing.T) {
	doc := NewDocument()
	cb := doc.CreateElement("input")
	cb.SetAttribute("type", "checkbox")
	cb.SetAttribute("checked", "")
	if !cb.Checked() {
		t.Error("expected checked attribute to seed the live checked property")
	}
	cb.SetChecked(false)
	if cb.Checked() {
		t.Error("expected SetChecked(false) to override the attribute")
	}
	if cb.GetAttribute("checked") != "" {
		t.Error("expected the checked attribute to be left untouched by SetChecked")
	}
}

func TestContainsAndGetRootNode(t *testing.T) {
	doc := NewDocument()
	root := doc.AsNode()
	outer := doc.CreateElement("div")
	inner := doc.CreateElement("span")
	outer.AsNode().AppendChild(inner.AsNode())
	root.AppendChild(outer.AsNode())

	if !outer.AsNode().Contains(inner.AsNode()) {
		t.Error("expected outer to contain inner")
	}
	if !inner.AsNode().GetRootNode().Equals(root) {
		t.Error("expected GetRootNode to reach the document root")
	}

	detached := doc.CreateElement("i")
	if detached.AsNode().IsConnected() {
		t.Error("detached node should not be connected")
	}
}
