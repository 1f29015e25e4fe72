package path

import "testing"

func TestString(t *testing.T) {
	foaf := NewIRI("<http://xmlns.com/foaf/0.1/knows>")
	cases := []struct {
		name string
		p    *Path
		want string
	}{
		{"iri", foaf, "<http://xmlns.com/foaf/0.1/knows>"},
		{"sequence", NewSequence(NewIRI("a"), NewIRI("b")), "(a)/(b)"},
		{"alternative", NewAlternative(NewIRI("a"), NewIRI("b")), "(a)|(b)"},
		{"inverse", NewInverse(NewIRI("a")), "^(a)"},
		{"transitive", NewTransitive(NewIRI("a")), "(a)*"},
		{"transitive_min", NewTransitiveMin(NewIRI("a"), 3), "(a)+"},
		{"transitive_max_optional", NewTransitiveMax(NewIRI("a"), 1), "(a)?"},
		{"transitive_max_bounded", NewTransitiveMax(NewIRI("a"), 5), "(a)*5"},
		{"missing_child", &Path{Op: INVERSE}, "^(missing)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.p.String(); got != c.want {
				t.Errorf("String() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestCanBeNull(t *testing.T) {
	iri := NewIRI("a")
	cases := []struct {
		name string
		p    *Path
		want bool
	}{
		{"iri_leaf", iri, false},
		{"transitive_star", NewTransitive(iri), true},
		{"transitive_max", NewTransitiveMax(iri, 5), true},
		{"transitive_min_zero", NewTransitiveMin(iri, 0), true},
		{"transitive_min_nonzero", NewTransitiveMin(iri, 1), false},
		{"sequence_both_nullable", NewSequence(NewTransitive(iri), NewTransitive(iri)), true},
		{"sequence_one_non_nullable", NewSequence(NewTransitive(iri), iri), false},
		{"inverse_of_non_nullable", NewInverse(iri), false},
		{"inverse_of_nullable", NewInverse(NewTransitive(iri)), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.p.CanBeNull(); got != c.want {
				t.Errorf("CanBeNull() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	iri := NewIRI("a")
	cases := []struct {
		name    string
		p       *Path
		wantMin int
		wantMax int
	}{
		{"star", NewTransitive(iri), 1, -1},
		{"plus", NewTransitiveMin(iri, 3), 3, -1},
		{"bounded", NewTransitiveMax(iri, 5), 0, 5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			min, max := c.p.Bounds()
			if min != c.wantMin || max != c.wantMax {
				t.Errorf("Bounds() = (%d, %d), want (%d, %d)", min, max, c.wantMin, c.wantMax)
			}
		})
	}
}

func TestBoundsPanicsOnNonTransitive(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for Bounds() on a non-transitive op")
		}
	}()
	NewIRI("a").Bounds()
}
