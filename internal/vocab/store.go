package vocab

import (
	"encoding/binary"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/aleksaelezovic/qlgo/pkg/errs"
)

// Record key prefixes within the badger handle, following the teacher's own
// badger-backed storage idiom (internal/storage/badger.go) but scoped to the
// vocabulary's own key space rather than the triple-store's Table enum.
const (
	internalWordPrefix byte = 'w'
	externalWordPrefix byte = 'e'
)

// recordKey builds the on-disk key for word id under the given prefix: the
// single prefix byte followed by the id in big-endian order, so that a
// prefix scan over badger's own byte-lexicographic key order yields records
// in collation order (§6, "Vocabulary on-disk format").
func recordKey(prefix byte, id ID) []byte {
	key := make([]byte, 9)
	key[0] = prefix
	binary.BigEndian.PutUint64(key[1:], uint64(id))
	return key
}

// encodeRecord lays out a word as `u32 length | payload | u64 reserved-zero`,
// the exact record shape specified in §6.
func encodeRecord(word string) []byte {
	buf := make([]byte, 4+len(word)+8)
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(word)))
	copy(buf[4:4+len(word)], word)
	return buf
}

func decodeRecord(buf []byte) (string, error) {
	if len(buf) < 12 {
		return "", errs.New(errs.CodeVocabCheckFailed, "vocabulary record shorter than its fixed header")
	}
	length := binary.BigEndian.Uint32(buf[0:4])
	if int(4+length+8) != len(buf) {
		return "", errs.New(errs.CodeVocabCheckFailed, "vocabulary record length field does not match record size")
	}
	return string(buf[4 : 4+length]), nil
}

// Persist writes the internal and external word stores to db, one badger
// transaction per store, keyed by id so that on-disk order matches
// collation order.
func (v *Vocabulary) Persist(db *badger.DB) error {
	if err := persistWords(db, internalWordPrefix, v.words); err != nil {
		return err
	}
	return persistWords(db, externalWordPrefix, v.external)
}

func persistWords(db *badger.DB, prefix byte, words []string) error {
	return db.Update(func(txn *badger.Txn) error {
		for i, w := range words {
			if err := txn.Set(recordKey(prefix, ID(i)), encodeRecord(w)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load replaces v's in-memory word stores with the contents persisted in db.
// Comparator/compression/externalization configuration is unaffected —
// those are configuration, not part of the persisted vocabulary (§6).
func (v *Vocabulary) Load(db *badger.DB) error {
	words, err := loadWords(db, internalWordPrefix)
	if err != nil {
		return err
	}
	external, err := loadWords(db, externalWordPrefix)
	if err != nil {
		return err
	}
	v.words = words
	v.external = external
	return nil
}

func loadWords(db *badger.DB, prefix byte) ([]string, error) {
	var out []string
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{prefix}
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte{prefix}); it.ValidForPrefix([]byte{prefix}); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				word, err := decodeRecord(val)
				if err != nil {
					return err
				}
				out = append(out, word)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
