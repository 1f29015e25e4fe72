// Package transitivepath implements the transitive-path physical operator:
// given a two-column relation, compute pairs (x,y) connected by a path whose
// length falls within [minDist, maxDist], optionally constraining either
// endpoint to a constant or to values drawn from a bound sub-result.
package transitivepath

import (
	"context"

	"github.com/aleksaelezovic/qlgo/internal/vocab"
	"github.com/aleksaelezovic/qlgo/pkg/errs"
)

// ID is the dense integer identifier shared with the vocabulary.
type ID = vocab.ID

// Unbounded marks a transitive-path length bound with no upper limit (the
// PropertyPath TRANSITIVE / TRANSITIVE_MIN shapes).
const Unbounded = -1

// IdTable is the minimal relation contract the operator consumes: a
// row-oriented, fixed-width table of ids.
type IdTable interface {
	Width() int
	NumRows() int
	At(row, col int) ID
}

// SliceTable is a trivial in-memory IdTable, used by callers that have
// already materialized a sub-result and by this package's own tests.
type SliceTable struct {
	W    int
	Rows [][]ID
}

func (t *SliceTable) Width() int    { return t.W }
func (t *SliceTable) NumRows() int  { return len(t.Rows) }
func (t *SliceTable) At(r, c int) ID { return t.Rows[r][c] }

// Endpoint is either a free variable or a constant id.
type Endpoint struct {
	IsVariable bool
	Constant   ID
}

// Var builds a free-variable endpoint.
func Var() Endpoint { return Endpoint{IsVariable: true} }

// Const builds a constant endpoint.
func Const(id ID) Endpoint { return Endpoint{IsVariable: false, Constant: id} }

// BoundSide is a materialized table constraining one endpoint's seed set;
// each row's full contents are preserved in the operator's output for join
// propagation (§4.4 "Semantics").
type BoundSide struct {
	Table IdTable
	Col   int
}

// TransitivePath is the frontier-expansion operator of §4.4.
type TransitivePath struct {
	Sub                    IdTable
	LeftSubCol, RightSubCol int
	Left, Right            Endpoint
	MinDist, MaxDist       int

	boundLeft  *BoundSide
	boundRight *BoundSide
}

// New builds an unbound transitive-path operator over sub.
func New(sub IdTable, leftCol, rightCol int, left, right Endpoint, minDist, maxDist int) *TransitivePath {
	return &TransitivePath{
		Sub: sub, LeftSubCol: leftCol, RightSubCol: rightCol,
		Left: left, Right: right, MinDist: minDist, MaxDist: maxDist,
	}
}

// IsBound reports whether either side has been bound.
func (tp *TransitivePath) IsBound() bool {
	return tp.boundLeft != nil || tp.boundRight != nil
}

// BindLeftSide returns a new operator with the left side populated from
// table's col column. Binding an already-bound left side, or a constant
// left endpoint, is a CheckFailed plan-shape violation (§7).
func (tp *TransitivePath) BindLeftSide(table IdTable, col int) (*TransitivePath, error) {
	if tp.boundLeft != nil {
		return nil, errs.New(errs.CodeTransitivePathCheckFailed, "left side is already bound")
	}
	if !tp.Left.IsVariable {
		return nil, errs.New(errs.CodeTransitivePathCheckFailed, "cannot bind a constant-valued left endpoint")
	}
	clone := *tp
	clone.boundLeft = &BoundSide{Table: table, Col: col}
	return &clone, nil
}

// BindRightSide mirrors BindLeftSide for the right endpoint.
func (tp *TransitivePath) BindRightSide(table IdTable, col int) (*TransitivePath, error) {
	if tp.boundRight != nil {
		return nil, errs.New(errs.CodeTransitivePathCheckFailed, "right side is already bound")
	}
	if !tp.Right.IsVariable {
		return nil, errs.New(errs.CodeTransitivePathCheckFailed, "cannot bind a constant-valued right endpoint")
	}
	clone := *tp
	clone.boundRight = &BoundSide{Table: table, Col: col}
	return &clone, nil
}

// ResultTable is the output of ComputeResult: width 2 when both sides are
// free, and 1+bound_width when one side is bound. A constant endpoint keeps
// its own column, so one side bound and the other constant also gives
// 1+bound_width, not bound_width.
type ResultTable struct {
	Width int
	Rows  [][]ID
}

// VariableColumns identifies which output columns hold the left/right path
// endpoints.
func (tp *TransitivePath) VariableColumns() (left, right int) {
	left = 0
	right = 1
	if tp.boundLeft != nil {
		// The bound-left row is carried whole: the left endpoint stays at its
		// own column and the right part starts after the row.
		left = tp.boundLeft.Col
		right = tp.boundLeft.Table.Width()
	}
	if tp.boundRight != nil {
		// The bound-right row is appended whole after the left part.
		right += tp.boundRight.Col
	}
	return left, right
}

// GetResultWidth computes the output width per §6.
func (tp *TransitivePath) GetResultWidth() int {
	width := 2
	if tp.boundLeft != nil {
		width += tp.boundLeft.Table.Width() - 1
	}
	if tp.boundRight != nil {
		width += tp.boundRight.Table.Width() - 1
	}
	return width
}

type seedEntry struct {
	id    ID
	carry []ID // full bound-side row, nil if this side isn't bound
}

// ComputeResult runs the frontier expansion and returns the result rows.
// It is pure with respect to its inputs and deterministic modulo output
// ordering (§5). ctx is checked once per frontier iteration so a caller can
// cooperatively cancel a long-running expansion.
func (tp *TransitivePath) ComputeResult(ctx context.Context) (*ResultTable, error) {
	adj := buildAdjacency(tp.Sub, tp.LeftSubCol, tp.RightSubCol)
	leftEntries := tp.leftSeedEntries()

	out := &ResultTable{Width: tp.GetResultWidth()}

	for _, entry := range leftEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if tp.MinDist == 0 {
			tp.emit(out, entry, entry.id, adj)
		}

		reach := bfs(ctx, entry.id, adj, tp.MaxDist)
		for target, depth := range reach {
			if depth == 0 {
				continue
			}
			if depth < tp.MinDist || (tp.MaxDist >= 0 && depth > tp.MaxDist) {
				continue
			}
			tp.emit(out, entry, target, adj)
		}
	}

	return out, nil
}

// emit appends every output row implied by the witness pair (entry, target),
// applying the right side's constant/bound constraints and, for a bound
// side, the row join.
func (tp *TransitivePath) emit(out *ResultTable, entry seedEntry, target ID, adj map[ID][]ID) {
	if !tp.Right.IsVariable && target != tp.Right.Constant {
		return
	}

	leftPart := entry.carry
	if leftPart == nil {
		leftPart = []ID{entry.id}
	}

	if tp.boundRight == nil {
		row := append(append([]ID{}, leftPart...), target)
		out.Rows = append(out.Rows, row)
		return
	}

	table := tp.boundRight.Table
	for r := 0; r < table.NumRows(); r++ {
		if table.At(r, tp.boundRight.Col) != target {
			continue
		}
		row := append([]ID{}, leftPart...)
		for c := 0; c < table.Width(); c++ {
			row = append(row, table.At(r, c))
		}
		out.Rows = append(out.Rows, row)
	}
}

// leftSeedEntries computes the BFS starting points per §4.4: a constant, the
// full set of distinct sources in sub, or the projected bound-side values.
func (tp *TransitivePath) leftSeedEntries() []seedEntry {
	if !tp.Left.IsVariable {
		return []seedEntry{{id: tp.Left.Constant}}
	}
	if tp.boundLeft != nil {
		table := tp.boundLeft.Table
		entries := make([]seedEntry, 0, table.NumRows())
		for r := 0; r < table.NumRows(); r++ {
			row := make([]ID, table.Width())
			for c := 0; c < table.Width(); c++ {
				row[c] = table.At(r, c)
			}
			entries = append(entries, seedEntry{id: row[tp.boundLeft.Col], carry: row})
		}
		return entries
	}

	seen := make(map[ID]struct{})
	var entries []seedEntry
	for r := 0; r < tp.Sub.NumRows(); r++ {
		s := tp.Sub.At(r, tp.LeftSubCol)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		entries = append(entries, seedEntry{id: s})
	}
	if tp.MinDist == 0 {
		// The zero-length rule additionally covers every x that appears as
		// either endpoint in sub, not only as a source (§4.4 "Semantics").
		for r := 0; r < tp.Sub.NumRows(); r++ {
			t := tp.Sub.At(r, tp.RightSubCol)
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			entries = append(entries, seedEntry{id: t})
		}
	}
	return entries
}

func buildAdjacency(sub IdTable, leftCol, rightCol int) map[ID][]ID {
	adj := make(map[ID][]ID, sub.NumRows())
	for r := 0; r < sub.NumRows(); r++ {
		s := sub.At(r, leftCol)
		t := sub.At(r, rightCol)
		adj[s] = append(adj[s], t)
	}
	return adj
}

// bfs explores outward from seed, tracking the first-discovery depth of each
// visited target. Cycles are handled by never re-queuing a visited target
// (§4.4 "Algorithm") — a node's reported depth is its shortest witness path
// length from seed.
func bfs(ctx context.Context, seed ID, adj map[ID][]ID, maxDist int) map[ID]int {
	visited := map[ID]int{seed: 0}
	frontier := []ID{seed}
	depth := 0
	for len(frontier) > 0 && (maxDist < 0 || depth < maxDist) {
		if err := ctx.Err(); err != nil {
			return visited
		}
		depth++
		var next []ID
		for _, node := range frontier {
			for _, nb := range adj[node] {
				if _, seen := visited[nb]; seen {
					continue
				}
				visited[nb] = depth
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return visited
}
