package vocab

import (
	"strings"
	"testing"
)

func TestOrderIdCorrespondence(t *testing.T) {
	v := New(false)
	words := []string{"dog", "ant", "cat", "bee"}
	if err := v.BuildFromWords(words); err != nil {
		t.Fatalf("BuildFromWords: %v", err)
	}
	for a := 0; a < v.Len(); a++ {
		for b := 0; b < v.Len(); b++ {
			idA, idB := ID(a), ID(b)
			wa, _ := v.At(idA)
			wb, _ := v.At(idB)
			if (idA < idB) != (wa < wb) {
				t.Fatalf("order-id correspondence violated for %q (id %d) vs %q (id %d)", wa, idA, wb, idB)
			}
		}
	}
}

func TestRangeLookupS5(t *testing.T) {
	v := New(false)
	if err := v.BuildFromWords([]string{"ant", "bee", "cat", "dog"}); err != nil {
		t.Fatalf("BuildFromWords: %v", err)
	}

	if got := v.ValueIdForLT("cat"); got != 2 {
		t.Errorf("ValueIdForLT(cat) = %d, want 2", got)
	}
	if got := v.ValueIdForLE("cat"); got != 2 {
		t.Errorf("ValueIdForLE(cat) = %d, want 2", got)
	}
	if got := v.ValueIdForGT("cat"); got != 2 {
		t.Errorf("ValueIdForGT(cat) = %d, want 2", got)
	}
	if got := v.ValueIdForGE("cat"); got != 2 {
		t.Errorf("ValueIdForGE(cat) = %d, want 2", got)
	}

	if got := v.ValueIdForLT("bat"); got != 1 {
		t.Errorf("ValueIdForLT(bat) = %d, want 1", got)
	}
	if got := v.ValueIdForLE("bat"); got != 0 {
		t.Errorf("ValueIdForLE(bat) = %d, want 0", got)
	}
	if got := v.ValueIdForGT("bat"); got != 0 {
		t.Errorf("ValueIdForGT(bat) = %d, want 0", got)
	}
	if got := v.ValueIdForGE("bat"); got != 1 {
		t.Errorf("ValueIdForGE(bat) = %d, want 1", got)
	}
}

func TestCaseInsensitiveCollationS4(t *testing.T) {
	v := New(true)
	// Keep the @de literal internal so all five words take part in the order.
	v.SetInternalizeLangs([]string{"en", "de"})
	words := []string{`"banana"@en`, `"Apple"`, `<http://a>`, `"apple"@de`, `"apple"@en`}
	if err := v.BuildFromWords(words); err != nil {
		t.Fatalf("BuildFromWords: %v", err)
	}
	want := []string{`<http://a>`, `"Apple"`, `"apple"@de`, `"apple"@en`, `"banana"@en`}
	if v.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", v.Len(), len(want))
	}
	for i, w := range want {
		got, ok := v.At(ID(i))
		if !ok || got != w {
			t.Errorf("At(%d) = %q, ok=%v; want %q", i, got, ok, w)
		}
	}
}

func TestGetIdNotFound(t *testing.T) {
	v := New(false)
	if err := v.BuildFromWords([]string{"ant", "bee"}); err != nil {
		t.Fatalf("BuildFromWords: %v", err)
	}
	if _, ok := v.GetID("zzz"); ok {
		t.Error("expected GetID to report absent for a word not in the vocabulary")
	}
	if id, _ := v.GetID("zzz"); id != NoID {
		t.Errorf("absent lookup should still satisfy the NoID sentinel convention")
	}
}

func TestExternalizationS8(t *testing.T) {
	v := New(false)
	if err := v.BuildFromWords([]string{"a", "b", `"long text"@fr`, `"hello"@en`}); err != nil {
		t.Fatalf("BuildFromWords: %v", err)
	}
	if v.ExternalLen() != 1 {
		t.Fatalf("ExternalLen() = %d, want 1", v.ExternalLen())
	}
	id, ok := v.GetID(`"long text"@fr`)
	if !ok {
		t.Fatal("expected externalized literal to be found")
	}
	if uint64(id) < uint64(v.Len()) {
		t.Errorf("externalized id %d should be >= internal count %d", id, v.Len())
	}
	got, ok := v.At(id)
	if !ok || got != `"long text"@fr` {
		t.Errorf("At(%d) = %q, ok=%v; want round-trip of the externalized literal", id, got, ok)
	}
}

func TestPrefixCompressRoundTrip(t *testing.T) {
	v := New(false)
	if err := v.SetPrefixCodebook([]string{"<http://xmlns.com/foaf/0.1/"}); err != nil {
		t.Fatalf("SetPrefixCodebook: %v", err)
	}
	word := "<http://xmlns.com/foaf/0.1/knows>"
	encoded := v.Compress(word)
	decoded, err := v.Expand(encoded)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if decoded != word {
		t.Errorf("round trip = %q, want %q", decoded, word)
	}
}

func TestPrefixCompressNoMatch(t *testing.T) {
	v := New(false)
	word := "plain"
	encoded := v.Compress(word)
	decoded, err := v.Expand(encoded)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if decoded != word {
		t.Errorf("round trip = %q, want %q", decoded, word)
	}
}

func TestIdRangeForFullTextPrefix(t *testing.T) {
	v := New(false)
	if err := v.BuildFromWords([]string{"cat", "company", "computer", "dog"}); err != nil {
		t.Fatalf("BuildFromWords: %v", err)
	}
	rng, ok := v.IdRangeForFullTextPrefix("comp*")
	if !ok {
		t.Fatal("expected a successful prefix range")
	}
	if rng.First != 1 || rng.Last != 2 {
		t.Errorf("range = [%d,%d], want [1,2]", rng.First, rng.Last)
	}

	if _, ok := v.IdRangeForFullTextPrefix("zzz*"); ok {
		t.Error("expected no range for an unmatched prefix")
	}
}

func TestExternalizeLiteralsFromTextFile(t *testing.T) {
	v := New(false)
	if err := v.BuildFromWords([]string{"a"}); err != nil {
		t.Fatalf("BuildFromWords: %v", err)
	}
	r := strings.NewReader("\"zzz\"@fr\n\"aaa\"@fr\n")
	if err := v.ExternalizeLiteralsFromTextFile(r); err != nil {
		t.Fatalf("ExternalizeLiteralsFromTextFile: %v", err)
	}
	if v.ExternalLen() != 2 {
		t.Fatalf("ExternalLen() = %d, want 2", v.ExternalLen())
	}
	first, _ := v.At(ID(v.Len()))
	if first != `"aaa"@fr` {
		t.Errorf("first externalized word = %q, want sorted order to start with aaa", first)
	}
}
