// Package ptree is the rooted binary tree: a NodeID-indexed arena carrying
// each node's cached lower/upper-left/upper-right region lists, per
// spec.md's Design Notes mandate that this core never use a
// cyclic/pointer-linked graph (detach/graft must be index rewrites, not
// pointer surgery).
package ptree

import (
	"maple/internal/align"
)

// NodeID indexes into Tree.Nodes. noNode marks an absent parent or child.
type NodeID int32

const noNode NodeID = -1

// NoNode is the exported form of the "absent" NodeID, for callers outside
// this package that need to compare against it (e.g. detecting the root).
const NoNode NodeID = noNode

// Node is one arena slot: either an internal node (both Children set, no
// SampleName) or a leaf (both Children absent, SampleName set).
type Node struct {
	Parent   NodeID
	Children [2]NodeID

	// BranchLength is the length of the edge to Parent; meaningless at the
	// root (Parent == noNode).
	BranchLength float64

	SampleName string

	// Lower summarizes the subtree rooted here; nil until first computed.
	Lower *align.RegionList
	// UpperLeft/UpperRight are what the left/right child sees arriving
	// from the rest of the tree (spec.md 3, "Tree" data model).
	UpperLeft  *align.RegionList
	UpperRight *align.RegionList

	LowerDirty      bool
	UpperLeftDirty  bool
	UpperRightDirty bool

	// Outdated marks a subtree root the SPR sweep still needs to visit
	// (spec.md 4.4, setAllNodeOutdated/improveEntireTree).
	Outdated bool

	// free marks a slot that has been detached and is available for reuse.
	free bool
}

// Tree is the rooted binary tree plus the arena backing it. Ref and Model
// are carried alongside so refresh passes can merge/evaluate without every
// call site threading them through separately.
type Tree struct {
	Nodes []Node
	Root  NodeID

	Ref   *align.Reference
	Model align.RateModel

	freeList []NodeID
}

// New creates an empty tree over the given reference and model.
func New(ref *align.Reference, model align.RateModel) *Tree {
	return &Tree{Ref: ref, Model: model, Root: noNode}
}

// alloc returns a fresh or recycled NodeID for a new node.
func (t *Tree) alloc() NodeID {
	if n := len(t.freeList); n > 0 {
		id := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.Nodes[id] = Node{Parent: noNode, Children: [2]NodeID{noNode, noNode}}
		return id
	}
	t.Nodes = append(t.Nodes, Node{Parent: noNode, Children: [2]NodeID{noNode, noNode}})
	return NodeID(len(t.Nodes) - 1)
}

func (t *Tree) release(id NodeID) {
	t.Nodes[id] = Node{free: true}
	t.freeList = append(t.freeList, id)
}

// IsLeaf reports whether id has no children.
func (t *Tree) IsLeaf(id NodeID) bool {
	return t.Nodes[id].Children[0] == noNode
}

// Parent returns id's parent, or noNode at the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.Nodes[id].Parent }

// BranchLength returns id's branch length to its parent (meaningless at the
// root).
func (t *Tree) BranchLength(id NodeID) float64 { return t.Nodes[id].BranchLength }

// Lower returns id's cached lower region list.
func (t *Tree) Lower(id NodeID) *align.RegionList { return t.Nodes[id].Lower }

// SampleName returns id's leaf name (empty for internal nodes).
func (t *Tree) SampleName(id NodeID) string { return t.Nodes[id].SampleName }

// NodeOutdated reports whether id is flagged outdated (spec.md 4.4).
func (t *Tree) NodeOutdated(id NodeID) bool { return t.Nodes[id].Outdated }

// ClearOutdated clears id's outdated flag.
func (t *Tree) ClearOutdated(id NodeID) { t.Nodes[id].Outdated = false }

// Children returns id's two children, or (noNode, noNode) for a leaf.
func (t *Tree) Children(id NodeID) (left, right NodeID) {
	c := t.Nodes[id].Children
	return c[0], c[1]
}

// Sibling returns the other child of id's parent. Panics at the root, which
// has no sibling.
func (t *Tree) Sibling(id NodeID) NodeID {
	p := t.Nodes[id].Parent
	if p == noNode {
		panic("ptree: root has no sibling")
	}
	l, r := t.Children(p)
	if l == id {
		return r
	}
	return l
}

// IsLeftChild reports whether id is its parent's left child.
func (t *Tree) IsLeftChild(id NodeID) bool {
	p := t.Nodes[id].Parent
	l, _ := t.Children(p)
	return l == id
}

// NewSingleLeaf seeds an empty tree with its first sample: the leaf becomes
// the root, with no parent and an absent branch length.
func (t *Tree) NewSingleLeaf(name string, regions *align.RegionList) NodeID {
	id := t.alloc()
	t.Nodes[id].SampleName = name
	t.Nodes[id].Lower = regions
	t.Root = id
	return id
}
