package cssselect

import "github.com/finitefield-org/browser-tester/dom"

// QueryAll parses selector and returns every matching descendant of
// root, in document order. A single selector whose last compound is
// id-only is fast-pathed through the document's id index; everything
// else falls back to a pre-order scan.
func QueryAll(root dom.Node, selector string) ([]dom.Element, error) {
	list, err := ParseSelectorList(selector)
	if err != nil {
		return nil, err
	}

	var out []dom.Element
	for _, el := range candidateElements(root, list) {
		if !el.AsNode().Equals(root) && root.Contains(el.AsNode()) && list.Match(el) {
			out = append(out, el)
		}
	}
	return out, nil
}

// QueryFirst parses selector and returns the first matching descendant
// of root in document order, or the zero Element if none match.
func QueryFirst(root dom.Node, selector string) (dom.Element, error) {
	all, err := QueryAll(root, selector)
	if err != nil {
		return dom.Element{}, err
	}
	if len(all) == 0 {
		return dom.Element{}, nil
	}
	return all[0], nil
}

// candidateElements narrows the search space when possible. A single
// selector whose last compound names an id with no other simple
// selectors can resolve directly through GetElementByID; otherwise
// every element in the document is a candidate and matchComplex does
// the filtering.
func candidateElements(root dom.Node, list *SelectorList) []dom.Element {
	doc := root.Document()
	if doc == nil {
		return nil
	}
	if len(list.Selectors) == 1 {
		cs := list.Selectors[0]
		last := cs.Compounds[len(cs.Compounds)-1]
		if isIDOnly(last) {
			el := doc.GetElementByID(last.ID)
			if el.IsZero() {
				return nil
			}
			return []dom.Element{el}
		}
	}
	return doc.AllElements()
}

func isIDOnly(c *CompoundSelector) bool {
	return c.ID != "" && c.Type == nil && !c.Universal && len(c.Classes) == 0 && len(c.Attrs) == 0 && len(c.PseudoClasses) == 0
}
