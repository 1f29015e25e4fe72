package query

import (
	"context"
	"testing"

	"github.com/aleksaelezovic/qlgo/internal/path"
)

func TestExpandPrefixesS1(t *testing.T) {
	q := New()
	q.Prefixes = []Prefix{{Short: "foaf", IRI: "<http://xmlns.com/foaf/0.1/>"}}
	q.Root.Triples = []Triple{{
		Subject:   "?x",
		Predicate: path.NewIRI("foaf:knows"),
		Object:    "?y",
	}}

	if err := q.ExpandPrefixes(context.Background()); err != nil {
		t.Fatalf("ExpandPrefixes: %v", err)
	}

	got := q.Root.Triples[0]
	if got.Subject != "?x" || got.Object != "?y" {
		t.Fatalf("variables must be left untouched, got %+v", got)
	}
	want := "<http://xmlns.com/foaf/0.1/knows>"
	if got.Predicate.IRI != want {
		t.Errorf("predicate = %q, want %q", got.Predicate.IRI, want)
	}
}

func TestExpandPrefixesS2LangTag(t *testing.T) {
	q := New()
	q.Prefixes = []Prefix{{Short: "rdfs", IRI: "<http://www.w3.org/2000/01/rdf-schema#>"}}
	q.Root.Triples = []Triple{{
		Subject:   "?x",
		Predicate: path.NewIRI("@en@rdfs:label"),
		Object:    "?y",
	}}

	if err := q.ExpandPrefixes(context.Background()); err != nil {
		t.Fatalf("ExpandPrefixes: %v", err)
	}

	want := "<QLever-internal-function/langtag/en/http://www.w3.org/2000/01/rdf-schema#label>"
	if got := q.Root.Triples[0].Predicate.IRI; got != want {
		t.Errorf("predicate = %q, want %q", got, want)
	}
}

func TestExpandPrefixesDatatypeAfterValue(t *testing.T) {
	q := New()
	q.Prefixes = []Prefix{{Short: "xsd", IRI: "<http://www.w3.org/2001/XMLSchema#>"}}
	q.Root.Triples = []Triple{{
		Subject:   "?x",
		Predicate: path.NewIRI("<http://example.org/age>"),
		Object:    `"42"^^xsd:int`,
	}}

	if err := q.ExpandPrefixes(context.Background()); err != nil {
		t.Fatalf("ExpandPrefixes: %v", err)
	}

	want := `"42"^^<http://www.w3.org/2001/XMLSchema#int>`
	if got := q.Root.Triples[0].Object; got != want {
		t.Errorf("object = %q, want %q", got, want)
	}
}

func TestExpandPrefixesMissingSecondAt(t *testing.T) {
	q := New()
	q.Root.Triples = []Triple{{Subject: "?x", Predicate: path.NewIRI("@en"), Object: "?y"}}
	if err := q.ExpandPrefixes(context.Background()); err == nil {
		t.Fatal("expected ParseError for missing closing '@'")
	}
}

func TestExpandPrefixesInContextObject(t *testing.T) {
	q := New()
	q.Prefixes = []Prefix{{Short: "ex", IRI: "<http://example.org/>"}}
	q.Root.Triples = []Triple{{
		Subject:   "?x",
		Predicate: path.NewIRI("<http://example.org/in-context>"),
		Object:    "ex:a ex:b",
	}}
	if err := q.ExpandPrefixes(context.Background()); err != nil {
		t.Fatalf("ExpandPrefixes: %v", err)
	}
	want := "<http://example.org/a> <http://example.org/b>"
	if got := q.Root.Triples[0].Object; got != want {
		t.Errorf("object = %q, want %q", got, want)
	}
}

func TestExpandPrefixesSubqueryIndependentCopy(t *testing.T) {
	q := New()
	q.Prefixes = []Prefix{{Short: "foaf", IRI: "<http://xmlns.com/foaf/0.1/>"}}
	inner := &GraphPattern{Triples: []Triple{{
		Subject:   "?x",
		Predicate: path.NewIRI("foaf:knows"),
		Object:    "?y",
	}}}
	sub := &SubqueryOp{Query: &ParsedQuery{Root: inner}}
	q.Root.Children = []GraphPatternOperation{sub}

	if err := q.ExpandPrefixes(context.Background()); err != nil {
		t.Fatalf("ExpandPrefixes: %v", err)
	}
	if len(sub.Query.Prefixes) == 0 {
		t.Fatal("subquery must inherit a copy of the outer prefix list")
	}
	want := "<http://xmlns.com/foaf/0.1/knows>"
	if got := inner.Triples[0].Predicate.IRI; got != want {
		t.Errorf("subquery predicate = %q, want %q", got, want)
	}
}

func TestParseAliasesS3(t *testing.T) {
	q := New()
	q.SelectItems = []string{"?x", "(COUNT(?x) as ?n)"}
	if err := q.ParseAliases(); err != nil {
		t.Fatalf("ParseAliases: %v", err)
	}
	if len(q.Aliases) != 1 {
		t.Fatalf("expected 1 alias, got %d", len(q.Aliases))
	}
	a := q.Aliases[0]
	if a.InVar != "?x" || a.OutVar != "?n" || a.Function != "COUNT(?x) as ?n" || !a.IsAggregate {
		t.Errorf("unexpected alias: %+v", a)
	}
	if len(q.Projection) != 2 || q.Projection[0] != "?x" || q.Projection[1] != "?n" {
		t.Errorf("unexpected projection: %v", q.Projection)
	}
}

func TestParseAliasesDistinct(t *testing.T) {
	q := New()
	q.SelectItems = []string{"(COUNT(DISTINCT ?x) as ?n)"}
	if err := q.ParseAliases(); err != nil {
		t.Fatalf("ParseAliases: %v", err)
	}
	if q.Aliases[0].InVar != "?x" {
		t.Errorf("InVar = %q, want ?x", q.Aliases[0].InVar)
	}
}

func TestParseAliasesDuplicateConflict(t *testing.T) {
	q := New()
	q.SelectItems = []string{"(COUNT(?x) as ?n)", "(SUM(?x) as ?n)"}
	if err := q.ParseAliases(); err == nil {
		t.Fatal("expected ParseError for conflicting duplicate alias")
	}
}

func TestParseAliasesDuplicateTolerated(t *testing.T) {
	q := New()
	q.SelectItems = []string{"(COUNT(?x) as ?n)", "(COUNT(?x) as ?n)"}
	if err := q.ParseAliases(); err != nil {
		t.Fatalf("identical duplicate alias must be tolerated: %v", err)
	}
	if len(q.Aliases) != 1 {
		t.Errorf("expected deduplicated alias list of length 1, got %d", len(q.Aliases))
	}
}

func TestRecomputeIdsDeterministic(t *testing.T) {
	build := func() *GraphPattern {
		inner := &GraphPattern{}
		return &GraphPattern{Children: []GraphPatternOperation{
			&OptionalOp{Child: inner},
		}}
	}
	q1 := &ParsedQuery{Root: build()}
	q2 := &ParsedQuery{Root: build()}
	q1.RecomputeIds()
	q2.RecomputeIds()

	opt1 := q1.Root.Children[0].(*OptionalOp)
	opt2 := q2.Root.Children[0].(*OptionalOp)
	if q1.Root.ID != q2.Root.ID || opt1.Child.ID != opt2.Child.ID {
		t.Fatal("structurally equal trees must receive identical ids")
	}
}

func TestRecomputeIdsSubqueryIndependentCounter(t *testing.T) {
	inner := &GraphPattern{}
	sub := &SubqueryOp{Query: &ParsedQuery{Root: inner}}
	q := &ParsedQuery{Root: &GraphPattern{
		Children: []GraphPatternOperation{
			&OptionalOp{Child: &GraphPattern{}},
			sub,
		},
	}}
	q.RecomputeIds()

	if inner.ID != 0 {
		t.Errorf("subquery root should start its own counter at 0, got %d", inner.ID)
	}
}
