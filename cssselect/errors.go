package cssselect

import "fmt"

// UnsupportedSelectorError reports selector syntax that is syntactically
// plausible but outside the supported grammar subset. Callers must never
// treat this as a zero-match result.
type UnsupportedSelectorError struct {
	Selector string
	Reason   string
}

func (e *UnsupportedSelectorError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("UnsupportedSelector: %q (%s)", e.Selector, e.Reason)
	}
	return fmt.Sprintf("UnsupportedSelector: %q", e.Selector)
}

// SyntaxError reports a malformed selector string.
type SyntaxError struct {
	Selector string
	Reason   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("selector syntax error in %q: %s", e.Selector, e.Reason)
}
