package engine

const snippetLen = 200

// AssertText fails unless sel's text content equals want exactly.
func (rt *Runtime) AssertText(sel, want string) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if err != nil {
		return err
	}
	got := el.AsNode().TextContent()
	if got != want {
		return &AssertionError{Kind: "assert_text", Selector: sel, Expected: want, Actual: got, Snippet: el.AsNode().Snippet(snippetLen)}
	}
	return nil
}

// AssertValue fails unless sel's current value equals want exactly.
func (rt *Runtime) AssertValue(sel, want string) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if err != nil {
		return err
	}
	got := el.Value()
	if got != want {
		return &AssertionError{Kind: "assert_value", Selector: sel, Expected: want, Actual: got, Snippet: el.AsNode().Snippet(snippetLen)}
	}
	return nil
}

// AssertChecked fails unless sel's checked state equals want.
func (rt *Runtime) AssertChecked(sel string, want bool) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if err != nil {
		return err
	}
	got := el.Checked()
	if got != want {
		return &AssertionError{Kind: "assert_checked", Selector: sel, Expected: boolStr(want), Actual: boolStr(got), Snippet: el.AsNode().Snippet(snippetLen)}
	}
	return nil
}

// AssertExists fails unless sel resolves to at least one element. Unlike
// the other assertions, a missing element is the failure itself rather
// than a SelectorNotFoundError, since non-existence is the thing under
// test.
func (rt *Runtime) AssertExists(sel string) (err error) {
	defer rt.recoverInto(&err)
	el, err := rt.find(sel)
	if _, ok := err.(*SelectorNotFoundError); ok {
		return &AssertionError{Kind: "assert_exists", Selector: sel, Expected: "exists", Actual: "not found", Snippet: rt.doc.AsNode().Snippet(snippetLen)}
	}
	if err != nil {
		return err
	}
	_ = el
	return nil
}
