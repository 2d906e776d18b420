package cssselect

import (
	"strings"

	"github.com/finitefield-org/browser-tester/dom"
)

// Match reports whether el matches any selector in the list.
func (list *SelectorList) Match(el dom.Element) bool {
	for _, cs := range list.Selectors {
		if matchComplex(cs, el) {
			return true
		}
	}
	return false
}

// matchComplex walks a complex selector right to left: the rightmost
// compound must match the subject element, then each combinator is
// resolved by walking ancestors/siblings of the element it most
// recently matched.
func matchComplex(cs *ComplexSelector, el dom.Element) bool {
	if len(cs.Compounds) == 0 {
		return false
	}
	i := len(cs.Compounds) - 1
	if !matchCompound(cs.Compounds[i], el) {
		return false
	}
	current := el
	for i > 0 {
		comb := cs.Combinators[i-1]
		i--
		switch comb {
		case CombinatorDescendant:
			matched := false
			for anc := current.AsNode().ParentElement(); !anc.IsZero(); anc = anc.AsNode().ParentElement() {
				if matchCompound(cs.Compounds[i], anc) {
					current = anc
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		case CombinatorChild:
			parent := current.AsNode().ParentElement()
			if parent.IsZero() || !matchCompound(cs.Compounds[i], parent) {
				return false
			}
			current = parent
		case CombinatorAdjacentSibling:
			prev := current.PreviousElementSibling()
			if prev.IsZero() || !matchCompound(cs.Compounds[i], prev) {
				return false
			}
			current = prev
		case CombinatorGeneralSibling:
			matched := false
			for prev := current.PreviousElementSibling(); !prev.IsZero(); prev = prev.PreviousElementSibling() {
				if matchCompound(cs.Compounds[i], prev) {
					current = prev
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}
	return true
}

func matchCompound(c *CompoundSelector, el dom.Element) bool {
	if c.Type != nil && !strings.EqualFold(el.LocalName(), c.Type.LocalName) {
		return false
	}
	if c.ID != "" && el.Id() != c.ID {
		return false
	}
	for _, class := range c.Classes {
		if !el.ClassList().Contains(class) {
			return false
		}
	}
	for _, attr := range c.Attrs {
		if !matchAttribute(attr, el) {
			return false
		}
	}
	for _, pc := range c.PseudoClasses {
		if !matchPseudoClass(pc, el) {
			return false
		}
	}
	return true
}

func matchAttribute(m *AttributeMatcher, el dom.Element) bool {
	val, ok := el.GetAttributeOK(m.Name)
	if !ok {
		return false
	}
	if m.Op == AttrExists {
		return true
	}
	want := m.Value
	if m.CaseInsensitive {
		val = strings.ToLower(val)
		want = strings.ToLower(want)
	}
	switch m.Op {
	case AttrEquals:
		return val == want
	case AttrIncludes:
		for _, tok := range strings.Fields(val) {
			if m.CaseInsensitive {
				tok = strings.ToLower(tok)
			}
			if tok == want {
				return true
			}
		}
		return false
	case AttrDashMatch:
		return val == want || strings.HasPrefix(val, want+"-")
	case AttrPrefix:
		return want != "" && strings.HasPrefix(val, want)
	case AttrSuffix:
		return want != "" && strings.HasSuffix(val, want)
	case AttrSubstring:
		return want != "" && strings.Contains(val, want)
	}
	return false
}

func matchPseudoClass(pc *PseudoClassSelector, el dom.Element) bool {
	switch pc.Name {
	case "root":
		parent := el.AsNode().ParentNode()
		return !parent.IsZero() && parent.NodeType() == dom.DocumentNode
	case "empty":
		return !el.AsNode().HasChildNodes()
	case "first-child":
		return el.PreviousElementSibling().IsZero()
	case "last-child":
		return el.NextElementSibling().IsZero()
	case "only-child":
		return el.PreviousElementSibling().IsZero() && el.NextElementSibling().IsZero()
	case "first-of-type":
		tag := el.LocalName()
		for prev := el.PreviousElementSibling(); !prev.IsZero(); prev = prev.PreviousElementSibling() {
			if prev.LocalName() == tag {
				return false
			}
		}
		return true
	case "last-of-type":
		tag := el.LocalName()
		for next := el.NextElementSibling(); !next.IsZero(); next = next.NextElementSibling() {
			if next.LocalName() == tag {
				return false
			}
		}
		return true
	case "only-of-type":
		tag := el.LocalName()
		for prev := el.PreviousElementSibling(); !prev.IsZero(); prev = prev.PreviousElementSibling() {
			if prev.LocalName() == tag {
				return false
			}
		}
		for next := el.NextElementSibling(); !next.IsZero(); next = next.NextElementSibling() {
			if next.LocalName() == tag {
				return false
			}
		}
		return true
	case "nth-child":
		return matchNth(pc.AnB, el, false, false)
	case "nth-last-child":
		return matchNth(pc.AnB, el, true, false)
	case "nth-of-type":
		return matchNth(pc.AnB, el, false, true)
	case "nth-last-of-type":
		return matchNth(pc.AnB, el, true, true)
	case "not":
		for _, cs := range pc.Nested {
			if matchComplex(cs, el) {
				return false
			}
		}
		return true
	case "is", "where":
		for _, cs := range pc.Nested {
			if matchComplex(cs, el) {
				return true
			}
		}
		return false
	case "has":
		for _, cs := range pc.Nested {
			if matchesHasRelative(el, cs) {
				return true
			}
		}
		return false
	case "checked":
		return el.Checked()
	case "disabled":
		return el.Disabled()
	case "enabled":
		return isFormElement(el) && !el.Disabled()
	case "required":
		return el.Required()
	case "focus":
		return el.Focused()
	}
	return false
}

func isFormElement(el dom.Element) bool {
	switch el.LocalName() {
	case "input", "select", "textarea", "button", "option", "fieldset":
		return true
	}
	return false
}

func hasMatchingDescendant(el dom.Element, cs *ComplexSelector) bool {
	for _, child := range el.AsNode().ChildNodes() {
		ce := child.AsElement()
		if !ce.IsZero() {
			if matchComplex(cs, ce) || hasMatchingDescendant(ce, cs) {
				return true
			}
		}
	}
	return false
}

// matchesHasRelative resolves a single ":has()" argument against the
// anchor element per its relative combinator: an implicit leading
// combinator (no glyph) searches descendants as before; an explicit
// ">" / "+" / "~" restricts the search to children, the immediate next
// sibling, or later siblings respectively.
func matchesHasRelative(el dom.Element, cs *ComplexSelector) bool {
	if cs.LeadingCombinator == nil {
		return hasMatchingDescendant(el, cs)
	}
	switch *cs.LeadingCombinator {
	case CombinatorChild:
		for _, child := range el.AsNode().ChildNodes() {
			ce := child.AsElement()
			if !ce.IsZero() && matchComplex(cs, ce) {
				return true
			}
		}
	case CombinatorAdjacentSibling:
		next := el.NextElementSibling()
		if !next.IsZero() && matchComplex(cs, next) {
			return true
		}
	case CombinatorGeneralSibling:
		for next := el.NextElementSibling(); !next.IsZero(); next = next.NextElementSibling() {
			if matchComplex(cs, next) {
				return true
			}
		}
	}
	return false
}

// matchNth implements :nth-child and its siblings against the An+B
// micro-syntax: an element at 1-based position pos matches when
// pos == A*n + B for some integer n >= 0.
func matchNth(anb *AnPlusB, el dom.Element, fromLast, ofType bool) bool {
	if anb == nil {
		return false
	}
	pos := 1
	tag := el.LocalName()
	if fromLast {
		for next := el.NextElementSibling(); !next.IsZero(); next = next.NextElementSibling() {
			if !ofType || next.LocalName() == tag {
				pos++
			}
		}
	} else {
		for prev := el.PreviousElementSibling(); !prev.IsZero(); prev = prev.PreviousElementSibling() {
			if !ofType || prev.LocalName() == tag {
				pos++
			}
		}
	}
	if anb.A == 0 {
		return pos == anb.B
	}
	diff := pos - anb.B
	if anb.A > 0 {
		return diff >= 0 && diff%anb.A == 0
	}
	return diff <= 0 && diff%anb.A == 0
}
