package parser

import (
	"testing"

	"github.com/aleksaelezovic/qlgo/internal/path"
)

func TestParseTriplePatternPropertyPath(t *testing.T) {
	cases := []struct {
		name      string
		query     string
		wantPath  string // path.Path.String(), "" means no PropertyPath (plain predicate)
		wantIRI   string // set only when wantPath is ""
	}{
		{
			name:    "plain iri predicate has no property path",
			query:   `SELECT ?o WHERE { ?s <http://example.org/p> ?o }`,
			wantIRI: "http://example.org/p",
		},
		{
			name:     "sequence",
			query:    `SELECT ?o WHERE { ?s <http://example.org/a>/<http://example.org/b> ?o }`,
			wantPath: "(http://example.org/a)/(http://example.org/b)",
		},
		{
			name:     "alternative",
			query:    `SELECT ?o WHERE { ?s <http://example.org/a>|<http://example.org/b> ?o }`,
			wantPath: "(http://example.org/a)|(http://example.org/b)",
		},
		{
			name:     "inverse",
			query:    `SELECT ?o WHERE { ?s ^<http://example.org/a> ?o }`,
			wantPath: "^(http://example.org/a)",
		},
		{
			name:     "zero_or_more",
			query:    `SELECT ?o WHERE { ?s <http://example.org/a>* ?o }`,
			wantPath: "(http://example.org/a)*",
		},
		{
			name:     "one_or_more",
			query:    `SELECT ?o WHERE { ?s <http://example.org/a>+ ?o }`,
			wantPath: "(http://example.org/a)+",
		},
		{
			name:     "zero_or_one",
			query:    `SELECT ?o WHERE { ?s <http://example.org/a>? ?o }`,
			wantPath: "(http://example.org/a)?",
		},
		{
			name:     "grouped_transitive_sequence",
			query:    `SELECT ?o WHERE { ?s (<http://example.org/a>/<http://example.org/b>)* ?o }`,
			wantPath: "((http://example.org/a)/(http://example.org/b))*",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := NewParser(c.query)
			query, err := p.Parse()
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if query.Select == nil || query.Select.Where == nil || len(query.Select.Where.Patterns) != 1 {
				t.Fatalf("expected exactly one triple pattern, got %+v", query.Select)
			}
			tp := query.Select.Where.Patterns[0]

			if c.wantPath == "" {
				if tp.PropertyPath != nil {
					t.Fatalf("expected no PropertyPath, got %s", tp.PropertyPath.String())
				}
				if tp.Predicate.Term == nil {
					t.Fatalf("expected a bound predicate term")
				}
				if got := tp.Predicate.Term.String(); got != "<"+c.wantIRI+">" {
					t.Errorf("predicate = %s, want <%s>", got, c.wantIRI)
				}
				return
			}

			if tp.PropertyPath == nil {
				t.Fatalf("expected a PropertyPath for %q", c.query)
			}
			if got := tp.PropertyPath.String(); got != c.wantPath {
				t.Errorf("PropertyPath.String() = %q, want %q", got, c.wantPath)
			}
		})
	}
}

func TestParsePredicatePathVariableIsNotAPath(t *testing.T) {
	p := NewParser(`SELECT ?o WHERE { ?s ?p ?o }`)
	query, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	tp := query.Select.Where.Patterns[0]
	if tp.PropertyPath != nil {
		t.Fatalf("expected no PropertyPath for a variable predicate")
	}
	if !tp.Predicate.IsVariable() || tp.Predicate.Variable.Name != "p" {
		t.Fatalf("expected predicate variable ?p, got %+v", tp.Predicate)
	}
}

func TestParsePredicatePathTransitiveBounds(t *testing.T) {
	p := NewParser(`SELECT ?o WHERE { ?s <http://example.org/a>+ ?o }`)
	query, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	pp := query.Select.Where.Patterns[0].PropertyPath
	if pp.Op != path.TRANSITIVE_MIN {
		t.Fatalf("expected TRANSITIVE_MIN, got %v", pp.Op)
	}
	min, max := pp.Bounds()
	if min != 1 || max != -1 {
		t.Errorf("Bounds() = (%d, %d), want (1, -1)", min, max)
	}
}
