package optimizer

import (
	"testing"

	"github.com/aleksaelezovic/qlgo/internal/path"
	"github.com/aleksaelezovic/qlgo/internal/sparql/parser"
	"github.com/aleksaelezovic/qlgo/pkg/rdf"
)

func mustVar(name string) parser.TermOrVariable {
	return parser.TermOrVariable{Variable: &parser.Variable{Name: name}}
}

func TestOptimizeTriplePatternPlainIRI(t *testing.T) {
	o := NewOptimizer(nil)
	pat := &parser.TriplePattern{
		Subject:   mustVar("s"),
		Predicate: parser.TermOrVariable{Term: rdf.NewNamedNode("http://example.org/p")},
		Object:    mustVar("o"),
	}
	plan, err := o.optimizeTriplePattern(pat)
	if err != nil {
		t.Fatalf("optimizeTriplePattern() error = %v", err)
	}
	scan, ok := plan.(*ScanPlan)
	if !ok {
		t.Fatalf("expected *ScanPlan, got %T", plan)
	}
	if scan.Pattern != pat {
		t.Errorf("expected ScanPlan to wrap the original pattern unchanged")
	}
}

func TestOptimizePathSequenceProducesJoin(t *testing.T) {
	o := NewOptimizer(nil)
	p := path.NewSequence(path.NewIRI("http://example.org/a"), path.NewIRI("http://example.org/b"))

	plan, err := o.optimizePath(mustVar("s"), p, mustVar("o"))
	if err != nil {
		t.Fatalf("optimizePath() error = %v", err)
	}
	join, ok := plan.(*JoinPlan)
	if !ok {
		t.Fatalf("expected *JoinPlan, got %T", plan)
	}
	if _, ok := join.Left.(*ScanPlan); !ok {
		t.Errorf("expected left side to be a *ScanPlan, got %T", join.Left)
	}
	if _, ok := join.Right.(*ScanPlan); !ok {
		t.Errorf("expected right side to be a *ScanPlan, got %T", join.Right)
	}
}

func TestOptimizePathAlternativeProducesUnion(t *testing.T) {
	o := NewOptimizer(nil)
	p := path.NewAlternative(path.NewIRI("http://example.org/a"), path.NewIRI("http://example.org/b"))

	plan, err := o.optimizePath(mustVar("s"), p, mustVar("o"))
	if err != nil {
		t.Fatalf("optimizePath() error = %v", err)
	}
	if _, ok := plan.(*UnionPlan); !ok {
		t.Fatalf("expected *UnionPlan, got %T", plan)
	}
}

func TestOptimizePathInverseSwapsSubjectObject(t *testing.T) {
	o := NewOptimizer(nil)
	p := path.NewInverse(path.NewIRI("http://example.org/a"))

	plan, err := o.optimizePath(mustVar("s"), p, mustVar("o"))
	if err != nil {
		t.Fatalf("optimizePath() error = %v", err)
	}
	scan, ok := plan.(*ScanPlan)
	if !ok {
		t.Fatalf("expected *ScanPlan, got %T", plan)
	}
	if !scan.Pattern.Subject.IsVariable() || scan.Pattern.Subject.Variable.Name != "o" {
		t.Errorf("expected inverted scan subject to be ?o, got %+v", scan.Pattern.Subject)
	}
	if !scan.Pattern.Object.IsVariable() || scan.Pattern.Object.Variable.Name != "s" {
		t.Errorf("expected inverted scan object to be ?s, got %+v", scan.Pattern.Object)
	}
}

func TestOptimizePathTransitiveZeroLengthOverride(t *testing.T) {
	o := NewOptimizer(nil)
	p := path.NewTransitive(path.NewIRI("http://example.org/a"))

	plan, err := o.optimizePath(mustVar("s"), p, mustVar("o"))
	if err != nil {
		t.Fatalf("optimizePath() error = %v", err)
	}
	tp, ok := plan.(*TransitivePathPlan)
	if !ok {
		t.Fatalf("expected *TransitivePathPlan, got %T", plan)
	}
	if tp.MinDist != 0 {
		t.Errorf("expected MinDist overridden to 0 for A*, got %d", tp.MinDist)
	}
	if tp.MaxDist != -1 {
		t.Errorf("expected unbounded MaxDist, got %d", tp.MaxDist)
	}
	if tp.BaseIRI != "http://example.org/a" || tp.Inverse {
		t.Errorf("unexpected base %q inverse=%v", tp.BaseIRI, tp.Inverse)
	}
}

func TestOptimizePathTransitiveMinKeepsFloor(t *testing.T) {
	o := NewOptimizer(nil)
	p := path.NewTransitiveMin(path.NewIRI("http://example.org/a"), 1)

	plan, err := o.optimizePath(mustVar("s"), p, mustVar("o"))
	if err != nil {
		t.Fatalf("optimizePath() error = %v", err)
	}
	tp := plan.(*TransitivePathPlan)
	if tp.MinDist != 1 {
		t.Errorf("expected MinDist 1 for A+, got %d", tp.MinDist)
	}
}

func TestOptimizePathTransitiveInverseBase(t *testing.T) {
	o := NewOptimizer(nil)
	p := path.NewTransitive(path.NewInverse(path.NewIRI("http://example.org/a")))

	plan, err := o.optimizePath(mustVar("s"), p, mustVar("o"))
	if err != nil {
		t.Fatalf("optimizePath() error = %v", err)
	}
	tp := plan.(*TransitivePathPlan)
	if !tp.Inverse {
		t.Errorf("expected Inverse=true for ^<a>*")
	}
	if tp.BaseIRI != "http://example.org/a" {
		t.Errorf("unexpected base %q", tp.BaseIRI)
	}
}

func TestOptimizePathTransitiveRejectsSequenceBase(t *testing.T) {
	o := NewOptimizer(nil)
	seq := path.NewSequence(path.NewIRI("http://example.org/a"), path.NewIRI("http://example.org/b"))
	p := path.NewTransitive(seq)

	_, err := o.optimizePath(mustVar("s"), p, mustVar("o"))
	if err == nil {
		t.Fatalf("expected an error for a sequence base under a transitive modifier")
	}
}

func TestFreshPathVariableIsUnique(t *testing.T) {
	o := NewOptimizer(nil)
	a := o.freshPathVariable()
	b := o.freshPathVariable()
	if a.Name == b.Name {
		t.Errorf("expected distinct synthetic variable names, got %q twice", a.Name)
	}
}
