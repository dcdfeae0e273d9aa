package ptree

import "maple/internal/align"

// MarkLowerDirtyUpward flags id and every ancestor's Lower cache as needing
// recomputation, stopping early once it reaches a node already marked (its
// ancestors must already be marked too).
func (t *Tree) MarkLowerDirtyUpward(id NodeID) {
	for id != noNode {
		if t.Nodes[id].LowerDirty {
			return
		}
		t.Nodes[id].LowerDirty = true
		id = t.Nodes[id].Parent
	}
}

// MarkOutdatedUpward flags id and every ancestor as outdated, for the SPR
// sweep to revisit (spec.md 4.4 step 4).
func (t *Tree) MarkOutdatedUpward(id NodeID) {
	for id != noNode {
		if t.Nodes[id].Outdated {
			return
		}
		t.Nodes[id].Outdated = true
		id = t.Nodes[id].Parent
	}
}

// SetAllOutdated marks every live node outdated, forcing improveEntireTree
// to revisit the whole tree on its next sweep.
func (t *Tree) SetAllOutdated() {
	for i := range t.Nodes {
		if !t.Nodes[i].free {
			t.Nodes[i].Outdated = true
		}
	}
}

// rootPrior builds the region list representing the root's own prior (the
// model's root frequencies, spread uniformly over the genome, with no
// pending branch distance) — what the root's children see arriving from
// "above" before any branch is crossed.
func rootPrior(ref *align.Reference, model align.RateModel) (*align.RegionList, error) {
	freqs := model.RootFreqs()
	return align.FromMutations([]align.Mutation{{
		Type:       align.TypeOther,
		Position:   0,
		Length:     ref.Len(),
		Likelihood: freqs,
	}}, ref.Len())
}

// RefreshAllLowerLhs recomputes every internal node's Lower cache in a
// single post-order pass (spec.md's refreshAllLowerLhs), unconditionally —
// callers that only need dirty subtrees refreshed should use
// UpdatePartialLh instead.
func (t *Tree) RefreshAllLowerLhs() error {
	var firstErr error
	t.PostOrder(func(id NodeID) {
		if firstErr != nil || t.IsLeaf(id) {
			return
		}
		l, r := t.Children(id)
		lower, err := align.MergeLowerLower(t.Nodes[l].Lower, t.Nodes[l].BranchLength, t.Nodes[r].Lower, t.Nodes[r].BranchLength, t.Ref, t.Model)
		if err != nil {
			firstErr = err
			return
		}
		t.Nodes[id].Lower = lower
		t.Nodes[id].LowerDirty = false
	})
	return firstErr
}

// upperAt returns what id sees arriving from everything outside its own
// subtree: the root's own prior at the root, or the parent's cached
// UpperLeft/UpperRight (whichever side id is on) otherwise.
func (t *Tree) upperAt(id NodeID) (*align.RegionList, error) {
	if id == t.Root {
		return rootPrior(t.Ref, t.Model)
	}
	parent := t.Nodes[id].Parent
	if t.IsLeftChild(id) {
		return t.Nodes[parent].UpperLeft, nil
	}
	return t.Nodes[parent].UpperRight, nil
}

// RefreshAllNonLowerLhs recomputes every internal node's UpperLeft/UpperRight
// caches in a single pre-order pass (spec.md's refreshAllNonLowerLhs).
// Requires Lower to already be current everywhere (run RefreshAllLowerLhs
// first after a structural edit or model change).
func (t *Tree) RefreshAllNonLowerLhs() error {
	var firstErr error
	t.PreOrder(func(id NodeID) {
		if firstErr != nil || t.IsLeaf(id) {
			return
		}
		upper, err := t.upperAt(id)
		if err != nil {
			firstErr = err
			return
		}
		l, r := t.Children(id)
		left, err := align.MergeUpperLower(upper, t.Nodes[id].BranchLength, t.Nodes[r].Lower, t.Nodes[r].BranchLength, t.Ref, t.Model)
		if err != nil {
			firstErr = err
			return
		}
		right, err := align.MergeUpperLower(upper, t.Nodes[id].BranchLength, t.Nodes[l].Lower, t.Nodes[l].BranchLength, t.Ref, t.Model)
		if err != nil {
			firstErr = err
			return
		}
		t.Nodes[id].UpperLeft = left
		t.Nodes[id].UpperRight = right
		t.Nodes[id].UpperLeftDirty = false
		t.Nodes[id].UpperRightDirty = false
	})
	return firstErr
}

// ComputeTotalUpper composes the sibling's lower with the parent's upper
// along the appropriate branches (spec.md 4.1.3), giving the region list
// "as seen from above" at id — the same value upperAt uses internally,
// exposed for placement's likelihood queries at arbitrary candidate nodes.
func (t *Tree) ComputeTotalUpper(id NodeID) (*align.RegionList, error) {
	return t.upperAt(id)
}

// UpdatePartialLh marks the given dirty nodes and their ancestors, then
// rebuilds every Lower cache in post-order and every UpperLeft/UpperRight
// cache in pre-order from the root (spec.md 4.3.2). It re-derives the whole
// tree's caches on every edit; it does not stop early when a cache stops
// changing, and keeps no per-node change tolerance.
func (t *Tree) UpdatePartialLh(dirty []NodeID) error {
	for _, id := range dirty {
		t.MarkLowerDirtyUpward(id)
	}
	if err := t.RefreshAllLowerLhs(); err != nil {
		return err
	}
	return t.RefreshAllNonLowerLhs()
}
