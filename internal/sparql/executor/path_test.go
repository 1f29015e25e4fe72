package executor_test

import (
	"testing"

	"github.com/aleksaelezovic/qlgo/internal/sparql/executor"
	"github.com/aleksaelezovic/qlgo/internal/sparql/optimizer"
	"github.com/aleksaelezovic/qlgo/internal/sparql/parser"
	"github.com/aleksaelezovic/qlgo/internal/store"
	"github.com/aleksaelezovic/qlgo/internal/storage"
	"github.com/aleksaelezovic/qlgo/pkg/rdf"
)

// newTestExecutor seeds a small chain a->b->c->d linked by foaf:knows and
// returns an executor over it.
func newTestExecutor(t *testing.T) *executor.Executor {
	t.Helper()
	tmpDir := t.TempDir()
	backend, err := storage.NewBadgerStorage(tmpDir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	tripleStore := store.NewTripleStore(backend)

	knows := "http://xmlns.com/foaf/0.1/knows"
	quads := []*rdf.Quad{
		rdf.NewQuad(rdf.NewNamedNode("http://example.org/a"), rdf.NewNamedNode(knows), rdf.NewNamedNode("http://example.org/b"), rdf.NewDefaultGraph()),
		rdf.NewQuad(rdf.NewNamedNode("http://example.org/b"), rdf.NewNamedNode(knows), rdf.NewNamedNode("http://example.org/c"), rdf.NewDefaultGraph()),
		rdf.NewQuad(rdf.NewNamedNode("http://example.org/c"), rdf.NewNamedNode(knows), rdf.NewNamedNode("http://example.org/d"), rdf.NewDefaultGraph()),
	}
	if err := tripleStore.InsertQuadsBatch(quads); err != nil {
		t.Fatalf("failed to batch insert: %v", err)
	}

	return executor.NewExecutor(tripleStore)
}

func runSelect(t *testing.T, exec *executor.Executor, query string) *executor.SelectResult {
	t.Helper()
	p := parser.NewParser(query)
	parsed, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opt := optimizer.NewOptimizer(nil)
	optimized, err := opt.Optimize(parsed)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	result, err := exec.Execute(optimized)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	sel, ok := result.(*executor.SelectResult)
	if !ok {
		t.Fatalf("expected *SelectResult, got %T", result)
	}
	return sel
}

func bindingObjects(t *testing.T, result *executor.SelectResult) map[string]bool {
	t.Helper()
	got := make(map[string]bool)
	for _, b := range result.Bindings {
		term, ok := b.Vars["o"]
		if !ok {
			t.Fatalf("binding missing ?o: %+v", b.Vars)
		}
		got[term.String()] = true
	}
	return got
}

func TestTransitivePathPlus(t *testing.T) {
	exec := newTestExecutor(t)
	result := runSelect(t, exec, `SELECT ?o WHERE { <http://example.org/a> <http://xmlns.com/foaf/0.1/knows>+ ?o }`)

	got := bindingObjects(t, result)
	want := []string{"http://example.org/b", "http://example.org/c", "http://example.org/d"}
	if len(got) != len(want) {
		t.Fatalf("got %d bindings, want %d: %v", len(got), len(want), got)
	}
	for _, w := range want {
		if !got["<"+w+">"] {
			t.Errorf("missing expected reachable node <%s> in %v", w, got)
		}
	}
}

func TestTransitivePathStarIncludesZeroLength(t *testing.T) {
	exec := newTestExecutor(t)
	result := runSelect(t, exec, `SELECT ?o WHERE { <http://example.org/a> <http://xmlns.com/foaf/0.1/knows>* ?o }`)

	got := bindingObjects(t, result)
	if !got["<http://example.org/a>"] {
		t.Errorf("expected A* to include the zero-length self-match <http://example.org/a>, got %v", got)
	}
	want := []string{"http://example.org/a", "http://example.org/b", "http://example.org/c", "http://example.org/d"}
	if len(got) != len(want) {
		t.Fatalf("got %d bindings, want %d: %v", len(got), len(want), got)
	}
}

func TestTransitivePathInverse(t *testing.T) {
	exec := newTestExecutor(t)
	result := runSelect(t, exec, `SELECT ?o WHERE { <http://example.org/d> ^<http://xmlns.com/foaf/0.1/knows>+ ?o }`)

	got := bindingObjects(t, result)
	want := []string{"http://example.org/a", "http://example.org/b", "http://example.org/c"}
	if len(got) != len(want) {
		t.Fatalf("got %d bindings, want %d: %v", len(got), len(want), got)
	}
	for _, w := range want {
		if !got["<"+w+">"] {
			t.Errorf("missing expected node <%s> in %v", w, got)
		}
	}
}
