package query

// RecomputeIds performs a single pre-order walk over the root graph pattern,
// assigning each GraphPattern the next counter value. OPTIONAL and UNION
// recurse into their children under the same counter; TRANS_PATH recurses
// into its inner pattern; SUBQUERY does not share the counter — it has its
// own independent id namespace.
func (q *ParsedQuery) RecomputeIds() {
	counter := 0
	recomputeIds(q.Root, &counter)
}

func recomputeIds(gp *GraphPattern, counter *int) {
	if gp == nil {
		return
	}
	gp.ID = *counter
	*counter++

	for _, child := range gp.Children {
		switch c := child.(type) {
		case *OptionalOp:
			recomputeIds(c.Child, counter)
		case *UnionOp:
			recomputeIds(c.Left, counter)
			recomputeIds(c.Right, counter)
		case *TransPathOp:
			recomputeIds(c.Inner, counter)
		case *SubqueryOp:
			c.Query.RecomputeIds()
		}
	}
}
