package query

import (
	"context"
	"strings"

	"github.com/aleksaelezovic/qlgo/internal/path"
	"github.com/aleksaelezovic/qlgo/pkg/errs"
)

// inContextMarker is matched as a plain substring of a predicate IRI, not an
// exact IRI comparison. Fragile by design (Design Notes, "Open question:
// in-context predicate detection") — preserved literally rather than
// tightened into a stricter rule.
const inContextMarker = "in-context"

// ExpandPrefixes walks the graph-pattern tree depth-first, expanding every
// triple's subject/predicate/object and every filter's two sides against the
// query's prefix map. Sub-selects inherit the outer prefix list by copy and
// then expand recursively against their own root.
func (q *ParsedQuery) ExpandPrefixes(ctx context.Context) error {
	return q.expandPrefixesWith(ctx, q.PrefixMap())
}

func (q *ParsedQuery) expandPrefixesWith(ctx context.Context, prefixMap map[string]string) error {
	return expandGraphPattern(ctx, q.Root, prefixMap)
}

func expandGraphPattern(ctx context.Context, gp *GraphPattern, prefixMap map[string]string) error {
	if gp == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range gp.Triples {
		if err := expandTriple(&gp.Triples[i], prefixMap); err != nil {
			return err
		}
	}
	for i := range gp.Filters {
		f := &gp.Filters[i]
		lhs, err := expandTerm(f.LHS, prefixMap)
		if err != nil {
			return err
		}
		rhs, err := expandTerm(f.RHS, prefixMap)
		if err != nil {
			return err
		}
		f.LHS, f.RHS = lhs, rhs
	}

	for _, child := range gp.Children {
		switch c := child.(type) {
		case *OptionalOp:
			if err := expandGraphPattern(ctx, c.Child, prefixMap); err != nil {
				return err
			}
		case *UnionOp:
			if err := expandGraphPattern(ctx, c.Left, prefixMap); err != nil {
				return err
			}
			if err := expandGraphPattern(ctx, c.Right, prefixMap); err != nil {
				return err
			}
		case *TransPathOp:
			left, err := expandTerm(c.Left, prefixMap)
			if err != nil {
				return err
			}
			right, err := expandTerm(c.Right, prefixMap)
			if err != nil {
				return err
			}
			c.Left, c.Right = left, right
			if err := expandGraphPattern(ctx, c.Inner, prefixMap); err != nil {
				return err
			}
		case *SubqueryOp:
			// Sub-selects inherit the outer prefix list by assignment
			// (a copy, never a shared reference) then expand on their own
			// root with their own independent id namespace.
			c.Query.Prefixes = append([]Prefix(nil), prefixesFromMap(prefixMap)...)
			if err := c.Query.ExpandPrefixes(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func prefixesFromMap(m map[string]string) []Prefix {
	out := make([]Prefix, 0, len(m))
	for short, iri := range m {
		if short == qlPrefixShort && iri == qlPrefixIRI {
			continue
		}
		out = append(out, Prefix{Short: short, IRI: iri})
	}
	return out
}

func expandTriple(t *Triple, prefixMap map[string]string) error {
	subject, err := expandTerm(t.Subject, prefixMap)
	if err != nil {
		return err
	}
	t.Subject = subject

	if err := expandPath(t.Predicate, prefixMap); err != nil {
		return err
	}

	if predicateIsInContext(t.Predicate) {
		tokens := strings.Split(t.Object, " ")
		for i, tok := range tokens {
			expanded, err := expandTerm(tok, prefixMap)
			if err != nil {
				return err
			}
			tokens[i] = expanded
		}
		t.Object = strings.Join(tokens, " ")
		return nil
	}

	object, err := expandTerm(t.Object, prefixMap)
	if err != nil {
		return err
	}
	t.Object = object
	return nil
}

// predicateIsInContext reports whether the predicate's single leaf IRI (if
// the path is a plain IRI leaf) contains the in-context marker substring.
func predicateIsInContext(p *path.Path) bool {
	if p == nil || p.Op != path.IRI {
		return false
	}
	return strings.Contains(p.IRI, inContextMarker)
}

// expandPath expands every IRI leaf reachable from p, recursing through
// sequence/alternative/inverse/transitive structure.
func expandPath(p *path.Path, prefixMap map[string]string) error {
	if p == nil {
		return nil
	}
	if p.Op == path.IRI {
		expanded, err := expandTerm(p.IRI, prefixMap)
		if err != nil {
			return err
		}
		p.IRI = expanded
		return nil
	}
	for _, c := range p.Children {
		if err := expandPath(c, prefixMap); err != nil {
			return err
		}
	}
	return nil
}

// expandTerm implements the single-term expansion algorithm of §4.2.
func expandTerm(item string, prefixMap map[string]string) (string, error) {
	if item == "" || strings.HasPrefix(item, "?") || strings.HasPrefix(item, "<") {
		return item, nil
	}

	langtag := ""
	hasLang := false
	if strings.HasPrefix(item, "@") {
		rest := item[1:]
		secondAt := strings.Index(rest, "@")
		if secondAt == -1 {
			return "", errs.New(errs.CodeQueryParseInvalid,
				"missing closing '@' in language-tagged term",
				errs.Field("fragment", item))
		}
		langtag = rest[:secondAt]
		item = rest[secondAt+1:]
		hasLang = true
	}

	searchStart := 0
	if dtPos := strings.Index(item, "^^"); dtPos != -1 {
		searchStart = dtPos + 2
	}

	if colonRel := strings.Index(item[searchStart:], ":"); colonRel != -1 {
		colonPos := searchStart + colonRel
		prefix := item[searchStart:colonPos]
		if iri, ok := prefixMap[prefix]; ok {
			local := item[colonPos+1:]
			base := strings.TrimSuffix(iri, ">")
			item = item[:searchStart] + base + local + ">"
		}
	}

	if hasLang {
		inner := strings.TrimSuffix(strings.TrimPrefix(item, "<"), ">")
		item = "<QLever-internal-function/langtag/" + langtag + "/" + inner + ">"
	}

	return item, nil
}
