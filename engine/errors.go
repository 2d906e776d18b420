package engine

import "fmt"

// SelectorNotFoundError reports that an action or assertion targeted a
// selector with no matching element.
type SelectorNotFoundError struct {
	Selector string
}

func (e *SelectorNotFoundError) Error() string {
	return fmt.Sprintf("SelectorNotFound: %q", e.Selector)
}

// TypeMismatchError reports an action applied to an element of the
// wrong kind, e.g. set_checked on a text input.
type TypeMismatchError struct {
	Selector, Expected, Actual string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("TypeMismatch: selector=%q expected=%s actual=%s", e.Selector, e.Expected, e.Actual)
}

// AssertionError reports an assertion whose actual value did not match
// the expected one. Snippet holds up to 200 characters of HTML around
// the target, per the Core API's exact failure format.
type AssertionError struct {
	Kind               string
	Selector           string
	Expected, Actual   string
	Snippet            string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("AssertionFailed: %s\n  selector : %s\n  expected : %s\n  actual   : %s\n  snippet  : %s",
		e.Kind, e.Selector, e.Expected, e.Actual, e.Snippet)
}

// TimerLimitError reports that a scheduler passthrough exceeded its
// configured step budget. Wraps the scheduler package's own diagnostic.
type TimerLimitError struct {
	NowMs           int64
	DueLimit        *int64
	PendingTasks    int
	NextTaskSummary string
}

func (e *TimerLimitError) Error() string {
	due := "none"
	if e.DueLimit != nil {
		due = fmt.Sprintf("%d", *e.DueLimit)
	}
	return fmt.Sprintf("TimerStepLimitExceeded: now_ms=%d due_limit=%s pending_tasks=%d next_task=%s",
		e.NowMs, due, e.PendingTasks, e.NextTaskSummary)
}

// InternalError wraps a recovered panic, so a harness call never
// crashes its caller.
type InternalError struct {
	Cause any
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Cause)
}
