package transitivepath

// SortedColumn reports which output column, if any, inherits a known sort
// order from an input. resultSortedOn reports no order unless a side is
// bound and the bound side was itself sorted on its input column, in which
// case the corresponding output column inherits that order (§4.4).
func (tp *TransitivePath) SortedColumn(boundLeftSortedOnCol, boundRightSortedOnCol int) (col int, ok bool) {
	left, right := tp.VariableColumns()
	if tp.boundLeft != nil && boundLeftSortedOnCol == tp.boundLeft.Col {
		return left, true
	}
	if tp.boundRight != nil && boundRightSortedOnCol == tp.boundRight.Col {
		return right, true
	}
	return 0, false
}

// SizeEstimate derives an estimate of the result cardinality from the
// sub-relation size and the length bounds: it starts from the sub row count
// n and doubles once for every step after the first, up to MaxDist steps,
// never exceeding n*n.
func (tp *TransitivePath) SizeEstimate() int64 {
	n := int64(tp.Sub.NumRows())
	if n == 0 {
		return 0
	}
	steps := tp.MaxDist
	if steps < 0 || steps > 64 {
		steps = 64 // unbounded and longer paths are counted as 64 steps
	}
	estimate := n
	for i := 1; i < steps; i++ {
		estimate *= 2
		if estimate > n*n {
			estimate = n * n
			break
		}
	}
	return estimate
}

// CostEstimate dominates by the cost of producing sub plus a
// frontier-expansion term proportional to the estimated reachable pair
// count (§4.4 "Cost, cardinality, sort order").
func (tp *TransitivePath) CostEstimate(subCost int64) int64 {
	return subCost + tp.SizeEstimate()
}
