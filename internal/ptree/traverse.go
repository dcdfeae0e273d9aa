package ptree

// PostOrder visits every node of the tree, children before parent, mirroring
// the callback style the pack's own tree-processing code uses for camus's
// gotree traversals.
func (t *Tree) PostOrder(visit func(id NodeID)) {
	if t.Root != noNode {
		t.subtreePostOrder(t.Root, visit)
	}
}

// SubtreePostOrder visits only the subtree rooted at id, children before
// parent.
func (t *Tree) SubtreePostOrder(id NodeID, visit func(id NodeID)) {
	t.subtreePostOrder(id, visit)
}

func (t *Tree) subtreePostOrder(id NodeID, visit func(id NodeID)) {
	if !t.IsLeaf(id) {
		l, r := t.Children(id)
		t.subtreePostOrder(l, visit)
		t.subtreePostOrder(r, visit)
	}
	visit(id)
}

// PreOrder visits every node, parent before children.
func (t *Tree) PreOrder(visit func(id NodeID)) {
	if t.Root != noNode {
		t.subtreePreOrder(t.Root, visit)
	}
}

// SubtreePreOrder visits only the subtree rooted at id, parent before
// children.
func (t *Tree) SubtreePreOrder(id NodeID, visit func(id NodeID)) {
	t.subtreePreOrder(id, visit)
}

func (t *Tree) subtreePreOrder(id NodeID, visit func(id NodeID)) {
	visit(id)
	if !t.IsLeaf(id) {
		l, r := t.Children(id)
		t.subtreePreOrder(l, visit)
		t.subtreePreOrder(r, visit)
	}
}

// Leaves collects every leaf's NodeID in left-to-right order.
func (t *Tree) Leaves() []NodeID {
	var out []NodeID
	t.PostOrder(func(id NodeID) {
		if t.IsLeaf(id) {
			out = append(out, id)
		}
	})
	return out
}
