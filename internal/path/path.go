// Package path implements PropertyPath: the tree of path operators a SPARQL
// triple's predicate position may hold, together with nullability analysis
// and a canonical printable form.
package path

import (
	"strconv"
	"strings"

	"github.com/aleksaelezovic/qlgo/pkg/errs"
)

// Operator tags the kind of a PropertyPath node.
type Operator int

const (
	IRI Operator = iota
	SEQUENCE
	ALTERNATIVE
	INVERSE
	TRANSITIVE
	TRANSITIVE_MIN
	TRANSITIVE_MAX
)

func (op Operator) String() string {
	switch op {
	case IRI:
		return "IRI"
	case SEQUENCE:
		return "SEQUENCE"
	case ALTERNATIVE:
		return "ALTERNATIVE"
	case INVERSE:
		return "INVERSE"
	case TRANSITIVE:
		return "TRANSITIVE"
	case TRANSITIVE_MIN:
		return "TRANSITIVE_MIN"
	case TRANSITIVE_MAX:
		return "TRANSITIVE_MAX"
	default:
		return "UNKNOWN"
	}
}

// Path is a node in a property-path tree.
//
// Arity by op: 0 for IRI, 1 for INVERSE and the transitive variants, 2 for
// SEQUENCE and ALTERNATIVE. Limit is only meaningful on the transitive
// variants: the min bound for TRANSITIVE_MIN, the max bound for
// TRANSITIVE_MAX, unused (zero) for plain TRANSITIVE.
type Path struct {
	Op       Operator
	Limit    uint16
	IRI      string
	Children []*Path
}

// NewIRI builds a leaf path over a single predicate IRI.
func NewIRI(iri string) *Path {
	return &Path{Op: IRI, IRI: iri}
}

// NewSequence builds A/B.
func NewSequence(a, b *Path) *Path {
	return &Path{Op: SEQUENCE, Children: []*Path{a, b}}
}

// NewAlternative builds A|B.
func NewAlternative(a, b *Path) *Path {
	return &Path{Op: ALTERNATIVE, Children: []*Path{a, b}}
}

// NewInverse builds ^A.
func NewInverse(a *Path) *Path {
	return &Path{Op: INVERSE, Children: []*Path{a}}
}

// NewTransitive builds A*.
func NewTransitive(a *Path) *Path {
	return &Path{Op: TRANSITIVE, Children: []*Path{a}}
}

// NewTransitiveMin builds A+ with an explicit minimum length.
func NewTransitiveMin(a *Path, min uint16) *Path {
	return &Path{Op: TRANSITIVE_MIN, Limit: min, Children: []*Path{a}}
}

// NewTransitiveMax builds A? (limit==1) or a bounded A*K.
func NewTransitiveMax(a *Path, max uint16) *Path {
	return &Path{Op: TRANSITIVE_MAX, Limit: max, Children: []*Path{a}}
}

// CanBeNull reports whether the path admits an empty (zero-length) match.
//
// True iff: the node is TRANSITIVE; the node is TRANSITIVE_MAX; the node is
// TRANSITIVE_MIN with Limit == 0; or the node has children and all of them
// are nullable. Leaves (IRI) are never nullable.
func (p *Path) CanBeNull() bool {
	switch p.Op {
	case TRANSITIVE, TRANSITIVE_MAX:
		return true
	case TRANSITIVE_MIN:
		return p.Limit == 0
	case IRI:
		return false
	default:
		if len(p.Children) == 0 {
			return false
		}
		for _, c := range p.Children {
			if !c.CanBeNull() {
				return false
			}
		}
		return true
	}
}

// CanHaveArbitraryLength reports whether the path is one of the transitive
// variants — the shapes the optimizer must lower into a transitive-path
// physical operator rather than a plain scan.
func (p *Path) CanHaveArbitraryLength() bool {
	switch p.Op {
	case TRANSITIVE, TRANSITIVE_MIN, TRANSITIVE_MAX:
		return true
	default:
		return false
	}
}

// Bounds returns the [min, max] length bound implied by a transitive
// variant. For TRANSITIVE, min=1 (QLever's `*` convention for path existence
// excludes the caller-level zero-length case, which is handled separately
// via CanBeNull) and max is unbounded (represented as -1). For
// TRANSITIVE_MIN, min=Limit, max unbounded. For TRANSITIVE_MAX, min=0,
// max=Limit. Panics (CheckFailed) if called on a non-transitive op.
func (p *Path) Bounds() (min int, max int) {
	switch p.Op {
	case TRANSITIVE:
		return 1, -1
	case TRANSITIVE_MIN:
		return int(p.Limit), -1
	case TRANSITIVE_MAX:
		return 0, int(p.Limit)
	default:
		panic(errs.New(errs.CodeQueryCheckFailed, "Bounds called on non-transitive PropertyPath",
			errs.Field("op", p.Op.String())))
	}
}

// String renders the canonical printable form described in the property-path
// grammar. Missing children print the literal diagnostic token "missing".
func (p *Path) String() string {
	var b strings.Builder
	p.write(&b)
	return b.String()
}

func (p *Path) write(b *strings.Builder) {
	if p == nil {
		b.WriteString("missing")
		return
	}
	switch p.Op {
	case IRI:
		b.WriteString(p.IRI)
	case SEQUENCE:
		b.WriteByte('(')
		p.child(0).write(b)
		b.WriteString(")/(")
		p.child(1).write(b)
		b.WriteByte(')')
	case ALTERNATIVE:
		b.WriteByte('(')
		p.child(0).write(b)
		b.WriteString(")|(")
		p.child(1).write(b)
		b.WriteByte(')')
	case INVERSE:
		b.WriteString("^(")
		p.child(0).write(b)
		b.WriteByte(')')
	case TRANSITIVE:
		b.WriteByte('(')
		p.child(0).write(b)
		b.WriteString(")*")
	case TRANSITIVE_MIN:
		b.WriteByte('(')
		p.child(0).write(b)
		b.WriteString(")+")
	case TRANSITIVE_MAX:
		b.WriteByte('(')
		p.child(0).write(b)
		b.WriteByte(')')
		if p.Limit == 1 {
			b.WriteByte('?')
		} else {
			b.WriteByte('*')
			b.WriteString(strconv.Itoa(int(p.Limit)))
		}
	default:
		b.WriteString("missing")
	}
}

func (p *Path) child(i int) *Path {
	if i >= len(p.Children) {
		return nil
	}
	return p.Children[i]
}
