package store

import (
	"encoding/binary"
	"fmt"

	"github.com/aleksaelezovic/qlgo/internal/storage"
	"github.com/aleksaelezovic/qlgo/internal/vocab"
	"github.com/aleksaelezovic/qlgo/pkg/rdf"
)

// idSize is the width of a dense vocabulary id once it's serialized into an
// index key (§4.6): a plain big-endian uint64, replacing the old 17-byte
// type-tagged content hash.
const idSize = 8

// TripleStore manages the RDF triplestore with 9 indexes, all keyed by
// dense vocabulary ids (C3) rather than content hashes.
type TripleStore struct {
	storage storage.Storage
	vocab   *vocab.Vocabulary
}

// NewTripleStore creates a new triplestore, rehydrating its term
// vocabulary from any words a previous process already persisted under
// storage.TableVocab.
func NewTripleStore(backend storage.Storage) *TripleStore {
	s := &TripleStore{
		storage: backend,
		vocab:   vocab.New(false),
	}
	_ = s.loadVocab()
	return s
}

// loadVocab replays storage.TableVocab in key (== id) order into the
// in-memory vocabulary, so ids assigned in a prior process remain valid.
func (s *TripleStore) loadVocab() error {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	it, err := txn.Scan(storage.TableVocab, nil, nil)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		value, err := it.Value()
		if err != nil {
			return err
		}
		word, err := decodeVocabRecord(value)
		if err != nil {
			return err
		}
		s.vocab.GetOrCreateID(word) // replay order matches the ids these words were originally assigned
	}
	return nil
}

// Close closes the triplestore
func (s *TripleStore) Close() error {
	return s.storage.Close()
}

// InsertQuad inserts a quad into the store
func (s *TripleStore) InsertQuad(quad *rdf.Quad) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	if err := s.insertQuadInTxn(txn, quad); err != nil {
		return err
	}

	return txn.Commit()
}

// InsertQuadsBatch inserts many quads in a single transaction.
func (s *TripleStore) InsertQuadsBatch(quads []*rdf.Quad) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	for _, quad := range quads {
		if err := s.insertQuadInTxn(txn, quad); err != nil {
			return err
		}
	}

	return txn.Commit()
}

// DeleteQuadsBatch deletes many quads in a single transaction.
func (s *TripleStore) DeleteQuadsBatch(quads []*rdf.Quad) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	for _, quad := range quads {
		if err := s.deleteQuadInTxn(txn, quad); err != nil {
			return err
		}
	}

	return txn.Commit()
}

// InsertTriple inserts a triple into the default graph
func (s *TripleStore) InsertTriple(triple *rdf.Triple) error {
	quad := &rdf.Quad{
		Subject:   triple.Subject,
		Predicate: triple.Predicate,
		Object:    triple.Object,
		Graph:     rdf.NewDefaultGraph(),
	}
	return s.InsertQuad(quad)
}

// resolveTerm resolves term to its dense vocabulary id (§4.6), persisting
// the word under storage.TableVocab the first time it's seen so a later
// process can rehydrate the same id via loadVocab.
func (s *TripleStore) resolveTerm(txn storage.Transaction, term rdf.Term) (vocab.ID, error) {
	word, err := vocab.TermWord(term)
	if err != nil {
		return vocab.NoID, err
	}
	id, isNew := s.vocab.GetOrCreateID(word)
	if isNew {
		if err := txn.Set(storage.TableVocab, encodeIDKey(id), encodeVocabRecord(word)); err != nil {
			return vocab.NoID, err
		}
	}
	return id, nil
}

// insertQuadInTxn inserts a quad within an existing transaction
func (s *TripleStore) insertQuadInTxn(txn storage.Transaction, quad *rdf.Quad) error {
	subjID, err := s.resolveTerm(txn, quad.Subject)
	if err != nil {
		return fmt.Errorf("failed to resolve subject: %w", err)
	}
	predID, err := s.resolveTerm(txn, quad.Predicate)
	if err != nil {
		return fmt.Errorf("failed to resolve predicate: %w", err)
	}
	objID, err := s.resolveTerm(txn, quad.Object)
	if err != nil {
		return fmt.Errorf("failed to resolve object: %w", err)
	}
	graphID, err := s.resolveTerm(txn, quad.Graph)
	if err != nil {
		return fmt.Errorf("failed to resolve graph: %w", err)
	}

	emptyValue := []byte{}
	isDefaultGraph := quad.Graph.Type() == rdf.TermTypeDefaultGraph

	if isDefaultGraph {
		if err := txn.Set(storage.TableSPO, encodeIDKey(subjID, predID, objID), emptyValue); err != nil {
			return err
		}
		if err := txn.Set(storage.TablePOS, encodeIDKey(predID, objID, subjID), emptyValue); err != nil {
			return err
		}
		if err := txn.Set(storage.TableOSP, encodeIDKey(objID, subjID, predID), emptyValue); err != nil {
			return err
		}
	}

	// Insert into named graph indexes (6 permutations) — these also serve
	// as a backup for default-graph queries that bind the graph position.
	if err := txn.Set(storage.TableSPOG, encodeIDKey(subjID, predID, objID, graphID), emptyValue); err != nil {
		return err
	}
	if err := txn.Set(storage.TablePOSG, encodeIDKey(predID, objID, subjID, graphID), emptyValue); err != nil {
		return err
	}
	if err := txn.Set(storage.TableOSPG, encodeIDKey(objID, subjID, predID, graphID), emptyValue); err != nil {
		return err
	}
	if err := txn.Set(storage.TableGSPO, encodeIDKey(graphID, subjID, predID, objID), emptyValue); err != nil {
		return err
	}
	if err := txn.Set(storage.TableGPOS, encodeIDKey(graphID, predID, objID, subjID), emptyValue); err != nil {
		return err
	}
	if err := txn.Set(storage.TableGOSP, encodeIDKey(graphID, objID, subjID, predID), emptyValue); err != nil {
		return err
	}

	if !isDefaultGraph {
		if err := txn.Set(storage.TableGraphs, encodeIDKey(graphID), emptyValue); err != nil {
			return err
		}
	}

	return nil
}

// DeleteQuad deletes a quad from the store
func (s *TripleStore) DeleteQuad(quad *rdf.Quad) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	if err := s.deleteQuadInTxn(txn, quad); err != nil {
		return err
	}

	return txn.Commit()
}

// DeleteTriple deletes a triple from the default graph
func (s *TripleStore) DeleteTriple(triple *rdf.Triple) error {
	quad := &rdf.Quad{
		Subject:   triple.Subject,
		Predicate: triple.Predicate,
		Object:    triple.Object,
		Graph:     rdf.NewDefaultGraph(),
	}
	return s.DeleteQuad(quad)
}

// deleteQuadInTxn deletes a quad within an existing transaction. A term
// that doesn't already exist in the vocabulary can't be part of any
// stored quad, so deleteQuadInTxn never needs to mint a new id — it
// treats an unresolved term as simply absent.
func (s *TripleStore) deleteQuadInTxn(txn storage.Transaction, quad *rdf.Quad) error {
	subjID, subjOK := s.lookupTerm(quad.Subject)
	predID, predOK := s.lookupTerm(quad.Predicate)
	objID, objOK := s.lookupTerm(quad.Object)
	graphID, graphOK := s.lookupTerm(quad.Graph)
	if !subjOK || !predOK || !objOK || !graphOK {
		return nil
	}

	isDefaultGraph := quad.Graph.Type() == rdf.TermTypeDefaultGraph

	if isDefaultGraph {
		if err := txn.Delete(storage.TableSPO, encodeIDKey(subjID, predID, objID)); err != nil {
			return err
		}
		if err := txn.Delete(storage.TablePOS, encodeIDKey(predID, objID, subjID)); err != nil {
			return err
		}
		if err := txn.Delete(storage.TableOSP, encodeIDKey(objID, subjID, predID)); err != nil {
			return err
		}
	}

	if err := txn.Delete(storage.TableSPOG, encodeIDKey(subjID, predID, objID, graphID)); err != nil {
		return err
	}
	if err := txn.Delete(storage.TablePOSG, encodeIDKey(predID, objID, subjID, graphID)); err != nil {
		return err
	}
	if err := txn.Delete(storage.TableOSPG, encodeIDKey(objID, subjID, predID, graphID)); err != nil {
		return err
	}
	if err := txn.Delete(storage.TableGSPO, encodeIDKey(graphID, subjID, predID, objID)); err != nil {
		return err
	}
	if err := txn.Delete(storage.TableGPOS, encodeIDKey(graphID, predID, objID, subjID)); err != nil {
		return err
	}
	if err := txn.Delete(storage.TableGOSP, encodeIDKey(graphID, objID, subjID, predID)); err != nil {
		return err
	}

	// Note: we don't remove from the graphs table or the vocabulary
	// itself, as they may be referenced by other quads (no garbage
	// collection).

	return nil
}

// lookupTerm resolves term to its existing id without minting a new one.
// It uses PeekID rather than GetID: this vocabulary is grown exclusively
// via GetOrCreateID's insertion-ordered append, not BuildFromWords' sorted
// batch, so GetID's binary search would look in the wrong place.
func (s *TripleStore) lookupTerm(term rdf.Term) (vocab.ID, bool) {
	word, err := vocab.TermWord(term)
	if err != nil {
		return vocab.NoID, false
	}
	return s.vocab.PeekID(word)
}

// ContainsQuad checks if a quad exists in the store
func (s *TripleStore) ContainsQuad(quad *rdf.Quad) (bool, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	subjID, subjOK := s.lookupTerm(quad.Subject)
	predID, predOK := s.lookupTerm(quad.Predicate)
	objID, objOK := s.lookupTerm(quad.Object)
	graphID, graphOK := s.lookupTerm(quad.Graph)
	if !subjOK || !predOK || !objOK || !graphOK {
		return false, nil
	}

	key := encodeIDKey(subjID, predID, objID, graphID)
	_, err = txn.Get(storage.TableSPOG, key)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// Count returns the approximate number of quads in the store
func (s *TripleStore) Count() (int64, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	it, err := txn.Scan(storage.TableSPOG, nil, nil)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := int64(0)
	for it.Next() {
		count++
	}

	return count, nil
}

// encodeIDKey packs one or more vocabulary ids into a big-endian byte
// string, preserving the lexicographic ordering plain uint64 comparison
// gives each index's scan prefix.
func encodeIDKey(ids ...vocab.ID) []byte {
	buf := make([]byte, len(ids)*idSize)
	for i, id := range ids {
		binary.BigEndian.PutUint64(buf[i*idSize:], uint64(id))
	}
	return buf
}

func decodeIDKey(buf []byte) vocab.ID {
	return vocab.ID(binary.BigEndian.Uint64(buf))
}

// encodeVocabRecord follows the §6 on-disk record shape: a u32
// length-prefixed UTF-8 payload followed by a reserved, always-zero u64.
func encodeVocabRecord(word string) []byte {
	buf := make([]byte, 4+len(word)+8)
	binary.BigEndian.PutUint32(buf, uint32(len(word))) // #nosec G115 - word lengths never approach 2^32
	copy(buf[4:], word)
	return buf
}

func decodeVocabRecord(record []byte) (string, error) {
	if len(record) < 4 {
		return "", fmt.Errorf("vocab record too short: %d bytes", len(record))
	}
	n := binary.BigEndian.Uint32(record)
	if uint64(4+n+8) > uint64(len(record)) {
		return "", fmt.Errorf("vocab record length %d exceeds record size %d", n, len(record))
	}
	return string(record[4 : 4+n]), nil
}
