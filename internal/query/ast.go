// Package query implements the parsed-query AST: prefixes, the graph-pattern
// tree with its tagged operations (OPTIONAL/UNION/SUBQUERY/TRANS_PATH),
// aggregate alias projections, and the pre-order id assignment walk.
package query

import "github.com/aleksaelezovic/qlgo/internal/path"

// Prefix is a short-name-to-IRI declaration, e.g. foaf -> <http://xmlns.com/foaf/0.1/>.
type Prefix struct {
	Short string
	IRI   string
}

// qlPrefixShort/qlPrefixIRI form the implicit built-in prefix; it never overrides an explicitly
// declared prefix of the same short name (§4.2, §6 "Reserved identifiers").
const qlPrefixShort = "ql"
const qlPrefixIRI = "<QLever-internal-function/>"

// FilterType tags the comparison a Filter performs.
type FilterType int

const (
	FilterEQ FilterType = iota
	FilterNE
	FilterLT
	FilterLE
	FilterGT
	FilterGE
	FilterLangMatches
	FilterPrefix
	FilterRegex
)

// Filter is a single FILTER clause: (lhs, rhs, type, regexIgnoreCase).
type Filter struct {
	LHS             string
	RHS             string
	Type            FilterType
	RegexIgnoreCase bool
}

// Triple is a triple pattern whose predicate is a property path.
type Triple struct {
	Subject   string
	Predicate *path.Path
	Object    string
}

// GraphPatternOperation is the tagged variant attached to a GraphPattern's
// Children list. Implementations are OptionalOp, UnionOp, SubqueryOp, and
// TransPathOp; the marker method keeps this a closed Go sum type rather than
// an untyped union (Design Notes, GraphPatternOperation).
type GraphPatternOperation interface {
	graphPatternOperation()
}

// OptionalOp is an OPTIONAL{ child } graph pattern operation.
type OptionalOp struct {
	Child *GraphPattern
}

func (*OptionalOp) graphPatternOperation() {}

// UnionOp is a UNION{ left, right } graph pattern operation.
type UnionOp struct {
	Left  *GraphPattern
	Right *GraphPattern
}

func (*UnionOp) graphPatternOperation() {}

// SubqueryOp embeds an independent ParsedQuery with its own prefix and id namespace.
type SubqueryOp struct {
	Query *ParsedQuery
}

func (*SubqueryOp) graphPatternOperation() {}

// TransPathOp is a TRANS_PATH{ left, right, min, max, inner } placeholder;
// the optimizer lowers it into a physical transitive-path operator.
type TransPathOp struct {
	Left  string
	Right string
	Min   int
	Max   int
	Inner *GraphPattern
}

func (*TransPathOp) graphPatternOperation() {}

// GraphPattern is (triples, filters, optional, children, id).
type GraphPattern struct {
	Triples  []Triple
	Filters  []Filter
	Optional bool
	Children []GraphPatternOperation
	ID       int
}

// Alias records a parsed (EXPR AS ?out) projection item.
type Alias struct {
	InVar       string
	OutVar      string
	Function    string
	IsAggregate bool
}

// OrderKey is a single ORDER BY entry.
type OrderKey struct {
	Key  string
	Desc bool
}

// ParsedQuery is the root AST container.
type ParsedQuery struct {
	Prefixes []Prefix

	// SelectItems holds the raw projection tokens as written by the query
	// text, before ParseAliases has classified each into a plain variable
	// or an aggregate alias.
	SelectItems []string
	Projection  []string
	Aliases     []Alias

	Root *GraphPattern

	OrderKeys []OrderKey
	Limit     string
	TextLimit string
	Offset    string
	Distinct  bool
	Reduced   bool
}

// New builds an empty ParsedQuery with a fresh root GraphPattern.
func New() *ParsedQuery {
	return &ParsedQuery{Root: &GraphPattern{}}
}

// PrefixMap returns the effective short-name -> IRI map: declared prefixes
// plus the implicit "ql" prefix, which never overrides an explicit "ql"
// declaration.
func (q *ParsedQuery) PrefixMap() map[string]string {
	m := make(map[string]string, len(q.Prefixes)+1)
	for _, p := range q.Prefixes {
		m[p.Short] = p.IRI
	}
	if _, declared := m[qlPrefixShort]; !declared {
		m[qlPrefixShort] = qlPrefixIRI
	}
	return m
}
