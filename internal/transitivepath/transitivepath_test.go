package transitivepath

import (
	"context"
	"sort"
	"testing"
)

func sub1() *SliceTable {
	return &SliceTable{W: 2, Rows: [][]ID{
		{1, 2}, {2, 3}, {3, 4}, {2, 5},
	}}
}

func pairSet(rows [][]ID) map[[2]ID]bool {
	out := make(map[[2]ID]bool, len(rows))
	for _, r := range rows {
		out[[2]ID{r[0], r[1]}] = true
	}
	return out
}

func TestTransitivePathS6(t *testing.T) {
	tp := New(sub1(), 0, 1, Var(), Var(), 1, 2)
	result, err := tp.ComputeResult(context.Background())
	if err != nil {
		t.Fatalf("ComputeResult: %v", err)
	}
	got := pairSet(result.Rows)
	want := pairSet([][]ID{
		{1, 2}, {2, 3}, {2, 5}, {3, 4}, {1, 3}, {1, 5}, {2, 4},
	})
	if len(got) != len(want) {
		t.Fatalf("got %d pairs, want %d: %v", len(got), len(want), got)
	}
	for p := range want {
		if !got[p] {
			t.Errorf("missing expected pair %v", p)
		}
	}
}

func TestTransitivePathS6ZeroLength(t *testing.T) {
	tp := New(sub1(), 0, 1, Var(), Var(), 0, 2)
	result, err := tp.ComputeResult(context.Background())
	if err != nil {
		t.Fatalf("ComputeResult: %v", err)
	}
	got := pairSet(result.Rows)
	for _, x := range []ID{1, 2, 3, 4, 5} {
		if !got[[2]ID{x, x}] {
			t.Errorf("missing zero-length pair (%d,%d)", x, x)
		}
	}
}

func TestTransitivePathEmptySubPositiveMin(t *testing.T) {
	tp := New(&SliceTable{W: 2}, 0, 1, Var(), Var(), 1, 2)
	result, err := tp.ComputeResult(context.Background())
	if err != nil {
		t.Fatalf("ComputeResult: %v", err)
	}
	if len(result.Rows) != 0 {
		t.Errorf("expected empty result for empty sub with minDist > 0, got %v", result.Rows)
	}
}

func TestTransitivePathConstantEndpoint(t *testing.T) {
	tp := New(sub1(), 0, 1, Const(2), Var(), 1, 2)
	result, err := tp.ComputeResult(context.Background())
	if err != nil {
		t.Fatalf("ComputeResult: %v", err)
	}
	got := pairSet(result.Rows)
	want := pairSet([][]ID{{2, 3}, {2, 5}, {2, 4}})
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBindLeftSideThenRightSide(t *testing.T) {
	left := &SliceTable{W: 1, Rows: [][]ID{{1}}}
	tp := New(sub1(), 0, 1, Var(), Var(), 1, 2)

	bound, err := tp.BindLeftSide(left, 0)
	if err != nil {
		t.Fatalf("BindLeftSide: %v", err)
	}
	if !bound.IsBound() {
		t.Fatal("expected IsBound() after BindLeftSide")
	}
	if _, err := bound.BindLeftSide(left, 0); err == nil {
		t.Fatal("expected CheckFailed on double-binding the same side")
	}

	right := &SliceTable{W: 1, Rows: [][]ID{{3}, {5}}}
	bothBound, err := bound.BindRightSide(right, 0)
	if err != nil {
		t.Fatalf("BindRightSide: %v", err)
	}
	result, err := bothBound.ComputeResult(context.Background())
	if err != nil {
		t.Fatalf("ComputeResult: %v", err)
	}
	if len(result.Rows) == 0 {
		t.Fatal("expected at least one row from the bound-both traversal seeded at 1")
	}
}

func TestBindConstantSideRejected(t *testing.T) {
	tp := New(sub1(), 0, 1, Const(2), Var(), 1, 2)
	if _, err := tp.BindLeftSide(&SliceTable{W: 1}, 0); err == nil {
		t.Fatal("expected CheckFailed when binding a constant-valued endpoint")
	}
}

func TestResultWidths(t *testing.T) {
	tp := New(sub1(), 0, 1, Var(), Var(), 1, 2)
	if w := tp.GetResultWidth(); w != 2 {
		t.Errorf("free/free width = %d, want 2", w)
	}

	boundTable := &SliceTable{W: 3}
	bound, _ := tp.BindLeftSide(boundTable, 0)
	if w := bound.GetResultWidth(); w != 4 {
		t.Errorf("one-side-bound width = %d, want 4 (1 + bound_width)", w)
	}
}

func TestBFSDeterministicUnderSorting(t *testing.T) {
	tp := New(sub1(), 0, 1, Var(), Var(), 1, -1)
	result, err := tp.ComputeResult(context.Background())
	if err != nil {
		t.Fatalf("ComputeResult: %v", err)
	}
	rows := result.Rows
	sort.Slice(rows, func(i, j int) bool {
		if rows[i][0] != rows[j][0] {
			return rows[i][0] < rows[j][0]
		}
		return rows[i][1] < rows[j][1]
	})
	if len(rows) == 0 {
		t.Fatal("expected a non-empty unbounded transitive closure")
	}

	again, err := tp.ComputeResult(context.Background())
	if err != nil {
		t.Fatalf("ComputeResult (second run): %v", err)
	}
	rows2 := again.Rows
	sort.Slice(rows2, func(i, j int) bool {
		if rows2[i][0] != rows2[j][0] {
			return rows2[i][0] < rows2[j][0]
		}
		return rows2[i][1] < rows2[j][1]
	})
	if len(rows2) != len(rows) {
		t.Fatalf("second run gave %d rows, first gave %d", len(rows2), len(rows))
	}
	for i := range rows {
		if rows[i][0] != rows2[i][0] || rows[i][1] != rows2[i][1] {
			t.Fatalf("sorted row %d differs between runs: %v vs %v", i, rows[i], rows2[i])
		}
	}
}
