package dom

import "strings"

// DOMTokenList is a live view over an element's class attribute.
type DOMTokenList struct {
	el Element
}

// Contains reports whether token is present.
func (l *DOMTokenList) Contains(token string) bool {
	for _, t := range splitClasses(l.el.ClassName()) {
		if t == token {
			return true
		}
	}
	return false
}

// Add appends tokens that are not already present.
func (l *DOMTokenList) Add(tokens ...string) {
	cur := splitClasses(l.el.ClassName())
	for _, t := range tokens {
		found := false
		for _, c := range cur {
			if c == t {
				found = true
				break
			}
		}
		if !found {
			cur = append(cur, t)
		}
	}
	l.el.SetClassName(strings.Join(cur, " "))
}

// Remove deletes tokens if present.
func (l *DOMTokenList) Remove(tokens ...string) {
	cur := splitClasses(l.el.ClassName())
	out := cur[:0]
	for _, c := range cur {
		drop := false
		for _, t := range tokens {
			if c == t {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, c)
		}
	}
	l.el.SetClassName(strings.Join(out, " "))
}

// Toggle flips a single token's presence, honoring an optional force
// argument, and returns the resulting state.
func (l *DOMTokenList) Toggle(token string, force ...bool) bool {
	present := l.Contains(token)
	want := !present
	if len(force) > 0 {
		want = force[0]
	}
	if want && !present {
		l.Add(token)
	} else if !want && present {
		l.Remove(token)
	}
	return want
}

// Length returns the number of tokens.
func (l *DOMTokenList) Length() int { return len(splitClasses(l.el.ClassName())) }

// Item returns the token at index i, or "".
func (l *DOMTokenList) Item(i int) string {
	tokens := splitClasses(l.el.ClassName())
	if i < 0 || i >= len(tokens) {
		return ""
	}
	return tokens[i]
}

// Values returns all tokens in order.
func (l *DOMTokenList) Values() []string { return splitClasses(l.el.ClassName()) }
