package dom

// MutationKind identifies the category of a DOM mutation, matching the
// subset of MutationObserver record types this runtime needs.
type MutationKind int

const (
	MutationChildList MutationKind = iota
	MutationAttributes
	MutationCharacterData
)

// MutationRecord describes one observable DOM change. It intentionally
// mirrors a small slice of the MutationObserver spec: enough for
// exposing a minimal MutationObserver built-in to scripts (see
// jsscript), not the full MutationObserver API surface.
type MutationRecord struct {
	Kind           MutationKind
	Target         Node
	AddedNodes     []Node
	RemovedNodes   []Node
	AttributeName  string
	OldValue       string
	PreviousSib    Node
	NextSib        Node
}
