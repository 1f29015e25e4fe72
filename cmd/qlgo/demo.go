package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/qlgo/internal/sparql/executor"
	"github.com/aleksaelezovic/qlgo/internal/sparql/optimizer"
	"github.com/aleksaelezovic/qlgo/internal/sparql/parser"
	"github.com/aleksaelezovic/qlgo/internal/storage"
	"github.com/aleksaelezovic/qlgo/internal/store"
	"github.com/aleksaelezovic/qlgo/pkg/errs"
	"github.com/aleksaelezovic/qlgo/pkg/rdf"
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Load sample data and run a demo query",
		RunE:  runDemo,
	}
}

func runDemo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Opening database at: %s\n", cfg.Storage.Dir)
	backend, err := storage.NewBadgerStorage(cfg.Storage.Dir)
	if err != nil {
		return errs.Wrap(err, errs.CodeStoreFailure, "opening storage")
	}
	defer backend.Close()

	tripleStore := store.NewTripleStore(backend)

	alice := rdf.NewNamedNode("http://example.org/alice")
	bob := rdf.NewNamedNode("http://example.org/bob")
	carol := rdf.NewNamedNode("http://example.org/carol")

	knows := rdf.NewNamedNode("http://xmlns.com/foaf/0.1/knows")
	name := rdf.NewNamedNode("http://xmlns.com/foaf/0.1/name")
	age := rdf.NewNamedNode("http://xmlns.com/foaf/0.1/age")

	triples := []*rdf.Triple{
		rdf.NewTriple(alice, name, rdf.NewLiteral("Alice")),
		rdf.NewTriple(alice, age, rdf.NewIntegerLiteral(30)),
		rdf.NewTriple(alice, knows, bob),
		rdf.NewTriple(bob, name, rdf.NewLiteral("Bob")),
		rdf.NewTriple(bob, age, rdf.NewIntegerLiteral(25)),
		rdf.NewTriple(bob, knows, carol),
		rdf.NewTriple(carol, name, rdf.NewLiteral("Carol")),
		rdf.NewTriple(carol, age, rdf.NewIntegerLiteral(28)),
	}

	fmt.Fprintln(out, "Inserting sample triples...")
	for _, triple := range triples {
		if err := tripleStore.InsertTriple(triple); err != nil {
			return errs.Wrap(err, errs.CodeStoreFailure, "inserting triple")
		}
	}

	count, err := tripleStore.Count()
	if err != nil {
		return errs.Wrap(err, errs.CodeStoreFailure, "counting triples")
	}
	fmt.Fprintf(out, "Total triples stored: %d\n\n", count)

	query := `
		SELECT ?person ?name ?age
		WHERE {
			?person <http://xmlns.com/foaf/0.1/name> ?name .
			?person <http://xmlns.com/foaf/0.1/age> ?age .
		}
	`
	fmt.Fprintf(out, "Query:\n%s\n", query)

	result, err := runSPARQL(tripleStore, query)
	if err != nil {
		return err
	}

	printResult(out, result)
	return nil
}

func runSPARQL(tripleStore *store.TripleStore, sparqlQuery string) (executor.QueryResult, error) {
	p := parser.NewParser(sparqlQuery)
	parsedQuery, err := p.Parse()
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeQueryParseInvalid, "parsing query")
	}

	count, err := tripleStore.Count()
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreFailure, "counting triples")
	}

	opt := optimizer.NewOptimizer(&optimizer.Statistics{TotalTriples: count})
	plan, err := opt.Optimize(parsedQuery)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeQueryCheckFailed, "optimizing query")
	}

	exec := executor.NewExecutor(tripleStore)
	result, err := exec.Execute(plan)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreFailure, "executing query")
	}
	return result, nil
}

func printResult(out io.Writer, result executor.QueryResult) {
	switch r := result.(type) {
	case *executor.SelectResult:
		for _, binding := range r.Bindings {
			for _, v := range r.Variables {
				if term, ok := binding.Vars[v.Name]; ok {
					fmt.Fprintf(out, "  %s = %s\n", v.Name, formatTerm(term))
				}
			}
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "Found %d results\n", len(r.Bindings))
	case *executor.AskResult:
		fmt.Fprintf(out, "Result: %t\n", r.Result)
	}
}

func formatTerm(term rdf.Term) string {
	switch t := term.(type) {
	case *rdf.NamedNode:
		iri := t.IRI
		for i := len(iri) - 1; i >= 0; i-- {
			if iri[i] == '/' || iri[i] == '#' {
				return iri[i+1:]
			}
		}
		return iri
	case *rdf.Literal:
		return t.Value
	default:
		return term.String()
	}
}
