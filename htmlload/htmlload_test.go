package htmlload

import (
	"strings"
	"testing"

	"github.com/finitefield-org/browser-tester/dom"
)

func TestLoadBuildsTreeAndCollectsScripts(t *testing.T) {
	doc := dom.NewDocument()
	src := `<!doctype html><html><head><title>hi</title>
<script>console.log("a < b");</script>
</head><body><p id="greeting">Hello</p><script src="app.js"></script></body></html>`

	scripts, err := Load(doc, src, "fixture.html")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(scripts) != 2 {
		t.Fatalf("expected 2 script elements, got %d", len(scripts))
	}
	if scripts[1].GetAttribute("src") != "app.js" {
		t.Errorf("expected second script to carry its src attribute")
	}

	inline := scripts[0].AsNode().TextContent()
	if !strings.Contains(inline, "a < b") {
		t.Errorf("expected inline script text to preserve '<' unescaped, got %q", inline)
	}

	greeting := doc.GetElementByID("greeting")
	if greeting.IsZero() || greeting.AsNode().TextContent() != "Hello" {
		t.Errorf("expected #greeting element with text 'Hello', got %+v", greeting)
	}

	if doc.Head().IsZero() || doc.Body().IsZero() {
		t.Error("expected both head and body to be discovered")
	}
}

func TestLoadFragmentDoesNotCollectScripts(t *testing.T) {
	doc := dom.NewDocument()
	frag, err := LoadFragment(doc, "div", `<span>x</span><script>evil()</script>`)
	if err != nil {
		t.Fatalf("LoadFragment: %v", err)
	}
	children := frag.ChildNodes()
	if len(children) != 2 {
		t.Fatalf("expected 2 fragment children, got %d", len(children))
	}
	if children[1].AsElement().LocalName() != "script" {
		t.Errorf("expected the script element to still be present in the fragment tree")
	}
}
