package store

import (
	"fmt"

	"github.com/aleksaelezovic/qlgo/internal/storage"
	"github.com/aleksaelezovic/qlgo/internal/vocab"
	"github.com/aleksaelezovic/qlgo/pkg/rdf"
)

// Pattern represents a triple or quad pattern with optional variables
type Pattern struct {
	Subject   interface{} // rdf.Term or Variable
	Predicate interface{} // rdf.Term or Variable
	Object    interface{} // rdf.Term or Variable
	Graph     interface{} // rdf.Term or Variable (nil means any graph)
}

// Variable represents a SPARQL variable
type Variable struct {
	Name string
}

// NewVariable creates a new variable
func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

func (v *Variable) String() string {
	return "?" + v.Name
}

// Binding represents a variable binding
type Binding struct {
	Vars   map[string]rdf.Term
	values map[string]vocab.ID // internal resolved ids
}

// NewBinding creates a new empty binding
func NewBinding() *Binding {
	return &Binding{
		Vars:   make(map[string]rdf.Term),
		values: make(map[string]vocab.ID),
	}
}

// Clone creates a copy of the binding
func (b *Binding) Clone() *Binding {
	newBinding := NewBinding()
	for k, v := range b.Vars {
		newBinding.Vars[k] = v
	}
	for k, v := range b.values {
		newBinding.values[k] = v
	}
	return newBinding
}

// QuadIterator iterates over quads matching a pattern
type QuadIterator interface {
	Next() bool
	Quad() (*rdf.Quad, error)
	Close() error
}

// BindingIterator iterates over variable bindings
type BindingIterator interface {
	Next() bool
	Binding() *Binding
	Close() error
}

// Query executes a pattern match and returns matching quads
func (s *TripleStore) Query(pattern *Pattern) (QuadIterator, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}

	// Select the best index based on bound positions
	table, keyPattern := s.selectIndex(pattern)

	// Build the prefix for scanning
	prefix, complete, err := s.buildScanPrefix(pattern, keyPattern)
	if err != nil {
		txn.Rollback()
		return nil, err
	}
	if !complete {
		// A bound term doesn't exist in the vocabulary yet, so it can't
		// match anything on disk.
		txn.Rollback()
		return &emptyQuadIterator{}, nil
	}

	it, err := txn.Scan(table, prefix, nil)
	if err != nil {
		txn.Rollback()
		return nil, err
	}

	return &quadIterator{
		store:      s,
		txn:        txn,
		it:         it,
		pattern:    pattern,
		keyPattern: keyPattern,
	}, nil
}

// selectIndex chooses the best index based on which positions are bound
func (s *TripleStore) selectIndex(pattern *Pattern) (storage.Table, []int) {
	sBound := !isVariable(pattern.Subject)
	pBound := !isVariable(pattern.Predicate)
	oBound := !isVariable(pattern.Object)
	gBound := pattern.Graph != nil && !isVariable(pattern.Graph)

	// If graph is not specified or is a variable, prefer default graph indexes
	if !gBound {
		// Default graph indexes (SPO, POS, OSP)
		if sBound && pBound {
			return storage.TableSPO, []int{0, 1, 2} // S, P, O
		}
		if pBound && oBound {
			return storage.TablePOS, []int{1, 2, 0} // P, O, S
		}
		if oBound && sBound {
			return storage.TableOSP, []int{2, 0, 1} // O, S, P
		}
		if sBound {
			return storage.TableSPO, []int{0, 1, 2} // S, P, O
		}
		if pBound {
			return storage.TablePOS, []int{1, 2, 0} // P, O, S
		}
		if oBound {
			return storage.TableOSP, []int{2, 0, 1} // O, S, P
		}
		// No variables bound, use SPO
		return storage.TableSPO, []int{0, 1, 2}
	}

	// Named graph indexes (SPOG, POSG, OSPG, GSPO, GPOS, GOSP)
	if gBound && sBound && pBound {
		return storage.TableGSPO, []int{3, 0, 1, 2} // G, S, P, O
	}
	if gBound && pBound && oBound {
		return storage.TableGPOS, []int{3, 1, 2, 0} // G, P, O, S
	}
	if gBound && oBound && sBound {
		return storage.TableGOSP, []int{3, 2, 0, 1} // G, O, S, P
	}
	if gBound && sBound {
		return storage.TableGSPO, []int{3, 0, 1, 2} // G, S, P, O
	}
	if gBound && pBound {
		return storage.TableGPOS, []int{3, 1, 2, 0} // G, P, O, S
	}
	if gBound && oBound {
		return storage.TableGOSP, []int{3, 2, 0, 1} // G, O, S, P
	}
	if gBound {
		return storage.TableGSPO, []int{3, 0, 1, 2} // G, S, P, O
	}

	// Fallback to SPOG for mixed queries
	return storage.TableSPOG, []int{0, 1, 2, 3}
}

// buildScanPrefix builds a key prefix for scanning based on bound
// positions, resolving each bound term to its vocabulary id. The second
// return value is false if a bound term has no id yet — the pattern can
// then match nothing and the caller should skip the scan entirely rather
// than mint a fresh id for a read-only lookup.
func (s *TripleStore) buildScanPrefix(pattern *Pattern, keyPattern []int) ([]byte, bool, error) {
	// Map pattern positions: 0=S, 1=P, 2=O, 3=G
	positions := make([]interface{}, 4)
	positions[0] = pattern.Subject
	positions[1] = pattern.Predicate
	positions[2] = pattern.Object
	if pattern.Graph != nil {
		positions[3] = pattern.Graph
	} else {
		positions[3] = rdf.NewDefaultGraph()
	}

	var ids []vocab.ID
	for _, idx := range keyPattern {
		if idx >= len(positions) {
			break
		}

		term := positions[idx]
		if isVariable(term) {
			break
		}

		id, ok := s.lookupTerm(term.(rdf.Term))
		if !ok {
			return nil, false, nil
		}
		ids = append(ids, id)
	}

	return encodeIDKey(ids...), true, nil
}

// isVariable checks if a value is a variable
func isVariable(v interface{}) bool {
	_, ok := v.(*Variable)
	return ok
}

// emptyQuadIterator answers a pattern whose bound term has no vocabulary
// id — it can't match anything, so the scan is skipped entirely.
type emptyQuadIterator struct{}

func (emptyQuadIterator) Next() bool              { return false }
func (emptyQuadIterator) Quad() (*rdf.Quad, error) { return nil, fmt.Errorf("no current key") }
func (emptyQuadIterator) Close() error            { return nil }

// quadIterator implements QuadIterator
type quadIterator struct {
	store      *TripleStore
	txn        storage.Transaction
	it         storage.Iterator
	pattern    *Pattern
	keyPattern []int
	closed     bool
}

func (qi *quadIterator) Next() bool {
	if qi.closed {
		return false
	}
	return qi.it.Next()
}

func (qi *quadIterator) Quad() (*rdf.Quad, error) {
	if qi.closed {
		return nil, fmt.Errorf("iterator closed")
	}

	key := qi.it.Key()
	if key == nil {
		return nil, fmt.Errorf("no current key")
	}

	if len(key) < len(qi.keyPattern)*idSize {
		return nil, fmt.Errorf("invalid key length: %d", len(key))
	}

	ids := make([]vocab.ID, len(qi.keyPattern))
	for i := range qi.keyPattern {
		ids[i] = decodeIDKey(key[i*idSize : (i+1)*idSize])
	}

	// Map back to S, P, O, G positions
	positions := make([]vocab.ID, 4)
	for i, idx := range qi.keyPattern {
		positions[idx] = ids[i]
	}

	subject, err := qi.store.decodeID(positions[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode subject: %w", err)
	}

	predicate, err := qi.store.decodeID(positions[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode predicate: %w", err)
	}

	object, err := qi.store.decodeID(positions[2])
	if err != nil {
		return nil, fmt.Errorf("failed to decode object: %w", err)
	}

	var graph rdf.Term
	if len(qi.keyPattern) > 3 {
		graph, err = qi.store.decodeID(positions[3])
		if err != nil {
			return nil, fmt.Errorf("failed to decode graph: %w", err)
		}
	} else {
		graph = rdf.NewDefaultGraph()
	}

	return &rdf.Quad{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		Graph:     graph,
	}, nil
}

func (qi *quadIterator) Close() error {
	if qi.closed {
		return nil
	}
	qi.closed = true
	qi.it.Close()
	return qi.txn.Rollback()
}

// decodeID resolves a dense vocabulary id back to the rdf.Term it names.
func (s *TripleStore) decodeID(id vocab.ID) (rdf.Term, error) {
	word, ok := s.vocab.At(id)
	if !ok {
		return nil, fmt.Errorf("id %d not found in vocabulary", id)
	}
	return vocab.ParseWord(word)
}
