package ptree

import "maple/internal/align"

// Splice grafts a new leaf onto the edge above child, inserting a fresh
// internal node in between. The caller supplies how the edge's length is
// divided: distParentToInternal is the new branch from child's old parent
// down to the new internal node, distInternalToChild is the new branch from
// the internal node down to child. Passing the full original branch length
// for distParentToInternal and a small default for distInternalToChild
// models "attach below node" (spec.md 4.3.1's second candidate position);
// splitting the original branch length between the two models "mid-branch"
// attachment (the first candidate position). If child is the root, the new
// internal node becomes the new root and distParentToInternal is added to
// child's branch instead.
func (t *Tree) Splice(child NodeID, distParentToInternal, distInternalToChild float64, leafRegions *align.RegionList, leafName string, distInternalToLeaf float64) (newLeaf, newInternal NodeID) {
	newInternal = t.alloc()
	newLeaf = t.alloc()

	t.Nodes[newLeaf].SampleName = leafName
	t.Nodes[newLeaf].Lower = leafRegions
	t.Nodes[newLeaf].Parent = newInternal
	t.Nodes[newLeaf].BranchLength = distInternalToLeaf

	oldParent := t.Nodes[child].Parent
	t.Nodes[newInternal].Parent = oldParent
	t.Nodes[newInternal].Children = [2]NodeID{child, newLeaf}

	t.Nodes[child].Parent = newInternal
	t.Nodes[child].BranchLength = distInternalToChild

	if oldParent == noNode {
		t.Root = newInternal
		// A root has no branch to a parent; the distance the caller
		// intended for it is folded into the child's own branch instead,
		// since there is no edge above the root to split.
		t.Nodes[child].BranchLength += distParentToInternal
	} else {
		t.Nodes[newInternal].BranchLength = distParentToInternal
		if t.Nodes[oldParent].Children[0] == child {
			t.Nodes[oldParent].Children[0] = newInternal
		} else {
			t.Nodes[oldParent].Children[1] = newInternal
		}
	}

	t.Nodes[newInternal].LowerDirty = true
	t.Nodes[newInternal].UpperLeftDirty = true
	t.Nodes[newInternal].UpperRightDirty = true
	t.MarkLowerDirtyUpward(newInternal)
	return newLeaf, newInternal
}

// SpliceSubtree grafts an already-detached subtree (subtreeRoot, with
// Parent == noNode) onto the edge above target, the same way Splice grafts
// a brand-new leaf — used by the SPR loop to re-graft a pruned subtree
// without throwing away and recreating its NodeIDs.
func (t *Tree) SpliceSubtree(target NodeID, distParentToInternal, distInternalToTarget float64, subtreeRoot NodeID, distInternalToSubtree float64) NodeID {
	newInternal := t.alloc()

	oldParent := t.Nodes[target].Parent
	t.Nodes[newInternal].Parent = oldParent
	t.Nodes[newInternal].Children = [2]NodeID{target, subtreeRoot}

	t.Nodes[target].Parent = newInternal
	t.Nodes[target].BranchLength = distInternalToTarget

	t.Nodes[subtreeRoot].Parent = newInternal
	t.Nodes[subtreeRoot].BranchLength = distInternalToSubtree

	if oldParent == noNode {
		t.Root = newInternal
		t.Nodes[target].BranchLength += distParentToInternal
	} else {
		t.Nodes[newInternal].BranchLength = distParentToInternal
		if t.Nodes[oldParent].Children[0] == target {
			t.Nodes[oldParent].Children[0] = newInternal
		} else {
			t.Nodes[oldParent].Children[1] = newInternal
		}
	}

	t.Nodes[newInternal].LowerDirty = true
	t.Nodes[newInternal].UpperLeftDirty = true
	t.Nodes[newInternal].UpperRightDirty = true
	t.MarkLowerDirtyUpward(newInternal)
	return newInternal
}

// Detach removes node's subtree from the tree: node's parent is collapsed
// away, and node's sibling takes the parent's former place (its branch
// length becomes the sum of the two collapsed edges). node itself keeps its
// own subtree intact, detached with parent == noNode, ready for
// SpliceSubtree to re-graft it elsewhere — the "minimal reconnecting parent reshuffle" of
// spec.md 4.4 step 1. Returns the sibling (now possibly in node's old
// grandparent's child slot) and the grandparent (noNode if the sibling
// became the new root).
func (t *Tree) Detach(node NodeID) (sibling, grandparent NodeID) {
	parent := t.Nodes[node].Parent
	if parent == noNode {
		panic("ptree: cannot detach the root")
	}
	sibling = t.Sibling(node)
	grandparent = t.Nodes[parent].Parent
	combined := t.Nodes[parent].BranchLength + t.Nodes[sibling].BranchLength

	t.Nodes[sibling].Parent = grandparent
	t.Nodes[sibling].BranchLength = combined

	if grandparent == noNode {
		t.Root = sibling
	} else {
		if t.Nodes[grandparent].Children[0] == parent {
			t.Nodes[grandparent].Children[0] = sibling
		} else {
			t.Nodes[grandparent].Children[1] = sibling
		}
		t.MarkLowerDirtyUpward(grandparent)
	}

	t.Nodes[node].Parent = noNode
	t.release(parent)
	return sibling, grandparent
}
