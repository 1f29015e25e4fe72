// Package vocab implements the sorted, dense-id term dictionary: collation,
// id assignment, range lookups for comparison filters, prefix compression,
// and a secondary externalized store for rarely-referenced literals.
package vocab

import (
	"math"
	"sort"
	"strings"

	"github.com/aleksaelezovic/qlgo/pkg/errs"
)

// ID is the dense integer identifier assigned to a vocabulary term.
type ID uint64

// NoID is the reserved sentinel for "absent" — it must round-trip through
// GetID/At as absent and is never a valid position.
const NoID ID = math.MaxUint64

// IdRange is an inclusive [First, Last] pair over ID.
type IdRange struct {
	First ID
	Last  ID
}

// defaultInternalizeLangs is the default internalize-langs list (§4.3).
var defaultInternalizeLangs = []string{"en"}

// Vocabulary is the sorted term dictionary described in §4.3. It supports
// two distinct usage modes, never mixed on the same instance: the batch
// mode (BuildFromWords), which sorts a whole word list at once and is the
// one the order-id-correspondence invariant (§8 #1) is stated against, and
// the live growth mode (GetOrCreateID), which assigns dense but merely
// insertion-ordered ids one word at a time — the mode a running term store
// (§4.6) actually needs, since it cannot afford to have ids already handed
// out to committed index entries shift underneath it every time a new word
// sorts earlier than an existing one.
type Vocabulary struct {
	comparator Comparator
	ignoreCase bool

	words    []string // internal store, sorted under comparator, id == index
	external []string // external store, sorted under comparator, id == internalCount+index

	growth         map[string]ID // live-mode word -> id index, nil until first GetOrCreateID
	growthExternal map[string]ID

	prefixCodebook      []string
	externalizePrefixes []string
	internalizeLangs    map[string]bool
}

// New builds an empty Vocabulary with the given collation mode and the
// default internalize-langs list {"en"}.
func New(ignoreCase bool) *Vocabulary {
	v := &Vocabulary{ignoreCase: ignoreCase}
	if ignoreCase {
		v.comparator = CaseInsensitiveComparator{}
	} else {
		v.comparator = PlainComparator{}
	}
	v.internalizeLangs = make(map[string]bool, len(defaultInternalizeLangs))
	for _, l := range defaultInternalizeLangs {
		v.internalizeLangs[l] = true
	}
	return v
}

// SetExternalizePrefixes configures the "externalize" prefix list (§4.3).
func (v *Vocabulary) SetExternalizePrefixes(prefixes []string) {
	v.externalizePrefixes = append([]string(nil), prefixes...)
}

// SetInternalizeLangs configures the "internalize" language-tag list,
// replacing the default {"en"}.
func (v *Vocabulary) SetInternalizeLangs(langs []string) {
	v.internalizeLangs = make(map[string]bool, len(langs))
	for _, l := range langs {
		v.internalizeLangs[l] = true
	}
}

// SetPrefixCodebook installs the compression codebook. The codebook may hold
// at most 128 entries (§4.3); exceeding that is a CheckFailed, not a
// recoverable condition, since it can only arise from a programming error in
// the index builder.
func (v *Vocabulary) SetPrefixCodebook(prefixes []string) error {
	if len(prefixes) > 128 {
		return errs.New(errs.CodeVocabCheckFailed,
			"prefix codebook exceeds the 128-entry limit",
			errs.Field("size", len(prefixes)))
	}
	v.prefixCodebook = append([]string(nil), prefixes...)
	return nil
}

// Clear empties both the main store and the external-literals store but
// preserves compression and comparator settings (§4.3).
func (v *Vocabulary) Clear() {
	v.words = nil
	v.external = nil
}

// Len returns the number of internal (non-externalized) words.
func (v *Vocabulary) Len() int { return len(v.words) }

// ExternalLen returns the number of externalized words.
func (v *Vocabulary) ExternalLen() int { return len(v.external) }

// shouldExternalize implements the externalization policy of §4.3: a word
// is externalized iff it begins with a declared externalize prefix, or it is
// a literal whose langtag is set and not in the internalize-langs list.
func (v *Vocabulary) shouldExternalize(word string) bool {
	for _, p := range v.externalizePrefixes {
		if strings.HasPrefix(word, p) {
			return true
		}
	}
	if isLit, _, suffix := ExtractComparable(word); isLit && strings.HasPrefix(suffix, "@") {
		if !v.internalizeLangs[suffix[1:]] {
			return true
		}
	}
	return false
}

// BuildFromWords sorts words under the active comparator, partitions them
// into internal and externalized sets per the externalization policy, and
// assigns dense ids by sorted position. Because ids equal array positions,
// this is the single place the order-id-correspondence invariant (§8 #1) is
// established.
func (v *Vocabulary) BuildFromWords(words []string) error {
	internal := make([]string, 0, len(words))
	external := make([]string, 0)
	for _, w := range words {
		if v.shouldExternalize(w) {
			external = append(external, w)
		} else {
			internal = append(internal, w)
		}
	}
	v.words = sortDedup(internal, v.comparator)
	v.external = sortDedup(external, v.comparator)
	return nil
}

func sortDedup(words []string, cmp Comparator) []string {
	sort.Slice(words, func(i, j int) bool { return cmp.Less(words[i], words[j]) })
	out := words[:0:0]
	for i, w := range words {
		if i == 0 || w != words[i-1] {
			out = append(out, w)
		}
	}
	return out
}

// GetOrCreateID returns word's existing id, or appends it and returns a
// freshly assigned one (§4.6 "build-time insertion path"). Ids handed out
// by this method never change once assigned — a later call can only grow
// the vocabulary by appending, never by inserting in sorted position — so
// a caller that persists an id (e.g. a triple store's index entries) can
// rely on it remaining valid for the lifetime of this Vocabulary. The
// second return value reports whether word was newly assigned, which lets
// a caller persist only the words it hasn't seen before.
//
// This trades the order-id-correspondence invariant for write stability:
// ids from this method are dense but reflect insertion order, not
// collation order. Range-lookup queries (ValueIdForLT etc.) are answered
// against a BuildFromWords-built Vocabulary instead; do not call
// GetOrCreateID and BuildFromWords on the same instance.
func (v *Vocabulary) GetOrCreateID(word string) (ID, bool) {
	if v.shouldExternalize(word) {
		if id, ok := v.growthExternal[word]; ok {
			return id, false
		}
		id := ID(len(v.words) + len(v.external))
		v.external = append(v.external, word)
		if v.growthExternal == nil {
			v.growthExternal = make(map[string]ID)
		}
		v.growthExternal[word] = id
		return id, true
	}

	if id, ok := v.growth[word]; ok {
		return id, false
	}
	id := ID(len(v.words))
	v.words = append(v.words, word)
	if v.growth == nil {
		v.growth = make(map[string]ID)
	}
	v.growth[word] = id
	return id, true
}

// PeekID looks up word against a GetOrCreateID-grown vocabulary without
// creating it on a miss. It consults the growth/growthExternal maps rather
// than GetID's binary search, which assumes a BuildFromWords-sorted slice —
// an assumption GetOrCreateID's insertion-ordered append does not satisfy.
func (v *Vocabulary) PeekID(word string) (ID, bool) {
	if v.shouldExternalize(word) {
		id, ok := v.growthExternal[word]
		return id, ok
	}
	id, ok := v.growth[word]
	return id, ok
}

// GetID looks up word and returns its dense id, or (NoID, false) if absent.
// Externalized words are looked up in the external store and offset by the
// internal word count (§4.3 "get_id"). This performs a binary search and is
// only valid against a BuildFromWords-built vocabulary; for a vocabulary
// grown live via GetOrCreateID, use PeekID instead.
func (v *Vocabulary) GetID(word string) (ID, bool) {
	if v.shouldExternalize(word) {
		pos, found := v.search(v.external, word)
		if !found {
			return NoID, false
		}
		return ID(len(v.words) + pos), true
	}
	pos, found := v.search(v.words, word)
	if !found {
		return NoID, false
	}
	return ID(pos), true
}

// At materializes the term stored at id, or ("", false) if id is out of
// range or NoID.
func (v *Vocabulary) At(id ID) (string, bool) {
	if id == NoID {
		return "", false
	}
	n := uint64(len(v.words))
	if uint64(id) < n {
		return v.words[id], true
	}
	extIdx := uint64(id) - n
	if extIdx < uint64(len(v.external)) {
		return v.external[extIdx], true
	}
	return "", false
}

func (v *Vocabulary) search(words []string, word string) (int, bool) {
	pos := v.lowerBound(words, word)
	if pos < len(words) && words[pos] == word {
		return pos, true
	}
	return 0, false
}

// lowerBound returns the first index i such that !(words[i] < word), i.e.
// the first position at which word could be inserted without violating
// order.
func (v *Vocabulary) lowerBound(words []string, word string) int {
	return sort.Search(len(words), func(i int) bool {
		return !v.comparator.Less(words[i], word)
	})
}

// upperBound returns the first index i such that word < words[i].
func (v *Vocabulary) upperBound(words []string, word string) int {
	return sort.Search(len(words), func(i int) bool {
		return v.comparator.Less(word, words[i])
	})
}

// ValueIdForLT returns lower_bound(w): the id such that a forward scan
// i < ValueIdForLT(w) yields exactly the internal words strictly less than w.
func (v *Vocabulary) ValueIdForLT(w string) ID {
	return ID(v.lowerBound(v.words, w))
}

// ValueIdForGE returns lower_bound(w): the id such that a forward scan
// i >= ValueIdForGE(w) yields exactly the internal words >= w.
func (v *Vocabulary) ValueIdForGE(w string) ID {
	return ID(v.lowerBound(v.words, w))
}

// ValueIdForLE returns lower_bound(w), decremented by one when that position
// is non-zero and does not hold w itself. GT mirrors this exactly (§4.3);
// the returned id is meaningful only in conjunction with the operator it was
// computed for (Design Notes, "Open question: range-lookup index returned
// on miss").
func (v *Vocabulary) ValueIdForLE(w string) ID {
	return v.leOrGtBound(w)
}

// ValueIdForGT mirrors ValueIdForLE exactly, per §4.3.
func (v *Vocabulary) ValueIdForGT(w string) ID {
	return v.leOrGtBound(w)
}

func (v *Vocabulary) leOrGtBound(w string) ID {
	lb := v.lowerBound(v.words, w)
	if lb != 0 && (lb >= len(v.words) || v.words[lb] != w) {
		lb--
	}
	return ID(lb)
}

// PrefixChar marks a full-text prefix-search term, e.g. "comp*".
const PrefixChar = '*'

// IdRangeForFullTextPrefix returns the inclusive id range of all internal
// words beginning with the stem of word (word must end in PrefixChar).
// Success requires both endpoints' terms to actually begin with the stem and
// first <= last (§4.3).
func (v *Vocabulary) IdRangeForFullTextPrefix(word string) (IdRange, bool) {
	if len(word) == 0 || word[len(word)-1] != PrefixChar {
		return IdRange{}, false
	}
	stem := word[:len(word)-1]

	first := v.lowerBound(v.words, stem)
	last := first
	for last < len(v.words) && strings.HasPrefix(v.words[last], stem) {
		last++
	}
	last--

	if first > last {
		return IdRange{}, false
	}
	if !strings.HasPrefix(v.words[first], stem) || !strings.HasPrefix(v.words[last], stem) {
		return IdRange{}, false
	}
	return IdRange{First: ID(first), Last: ID(last)}, true
}
