package cssselect

// Combinator describes how two adjacent compound selectors in a complex
// selector relate to each other.
type Combinator int

const (
	// CombinatorDescendant separates compounds with whitespace ("a b").
	CombinatorDescendant Combinator = iota
	// CombinatorChild is the ">" combinator.
	CombinatorChild
	// CombinatorAdjacentSibling is the "+" combinator.
	CombinatorAdjacentSibling
	// CombinatorGeneralSibling is the "~" combinator.
	CombinatorGeneralSibling
)

// SelectorList is a comma-separated group of complex selectors; an
// element matches the list if it matches any member.
type SelectorList struct {
	Selectors []*ComplexSelector
}

// ComplexSelector is a sequence of compound selectors joined by
// combinators, read left to right in source order ("div.card > p").
type ComplexSelector struct {
	Compounds   []*CompoundSelector
	Combinators []Combinator // len(Combinators) == len(Compounds)-1

	// LeadingCombinator is set only for a relative selector parsed as a
	// ":has()" argument that opens with an explicit combinator glyph
	// ("> img", "+ p", "~ .x"), recording how the argument relates to
	// the anchor element :has() is evaluated against. Nil means the
	// ordinary implicit-descendant relation.
	LeadingCombinator *Combinator
}

// CompoundSelector is a run of simple selectors with no separator
// between them ("div.card#main[data-open]").
type CompoundSelector struct {
	Universal     bool // an explicit "*"
	Type          *TypeSelector
	ID            string
	Classes       []string
	Attrs         []*AttributeMatcher
	PseudoClasses []*PseudoClassSelector
}

// TypeSelector matches an element by its lower-cased local name.
type TypeSelector struct {
	LocalName string
}

// AttributeOperator identifies one of the supported attribute-value
// comparison forms.
type AttributeOperator int

const (
	AttrExists    AttributeOperator = iota // [name]
	AttrEquals                             // [name=value]
	AttrIncludes                           // [name~=value] (space-separated token match)
	AttrDashMatch                          // [name|=value] (exact or hyphen-prefixed)
	AttrPrefix                             // [name^=value]
	AttrSuffix                             // [name$=value]
	AttrSubstring                          // [name*=value]
)

// AttributeMatcher is one bracketed attribute condition.
type AttributeMatcher struct {
	Name            string
	Op              AttributeOperator
	Value           string
	CaseInsensitive bool
}

// AnPlusB is the An+B micro-syntax used by :nth-child and its relatives.
// An element at 1-based position p among its matched siblings matches
// when p == A*n + B for some non-negative integer n.
type AnPlusB struct {
	A, B int
}

// PseudoClassSelector is a ":name" or ":name(argument)" condition.
type PseudoClassSelector struct {
	Name string

	// Populated for :not, :is, :where, :has.
	Nested []*ComplexSelector

	// Populated for :nth-child, :nth-last-child, :nth-of-type,
	// :nth-last-of-type.
	AnB *AnPlusB
}

// supportedSimplePseudoClasses are pseudo-classes with no argument.
var supportedSimplePseudoClasses = map[string]bool{
	"first-child":  true,
	"last-child":   true,
	"only-child":   true,
	"first-of-type": true,
	"last-of-type":  true,
	"only-of-type":  true,
	"checked":       true,
	"disabled":      true,
	"enabled":       true,
	"required":      true,
	"focus":         true,
	"empty":         true,
	"root":          true,
}

// supportedFunctionalPseudoClasses take a parenthesized argument.
var supportedFunctionalPseudoClasses = map[string]bool{
	"not":               true,
	"is":                true,
	"where":             true,
	"has":               true,
	"nth-child":         true,
	"nth-last-child":    true,
	"nth-of-type":       true,
	"nth-last-of-type":  true,
}
