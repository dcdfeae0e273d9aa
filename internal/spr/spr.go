// Package spr implements spec.md 4.4: the subtree-prune-and-regraft loop
// that refines a placed tree until no move improves it by more than a
// threshold.
package spr

import (
	"math"

	"github.com/bits-and-blooms/bitset"

	"maple/internal/align"
	"maple/internal/config"
	"maple/internal/place"
	"maple/internal/ptree"
)

// NodeID re-exports ptree.NodeID to keep this package's public surface
// self-contained.
type NodeID = ptree.NodeID

// ImproveEntireTree does a post-order traversal and calls ImproveSubtree on
// every node whose Outdated flag is set, returning the sum of accepted
// improvements (spec.md 4.4).
func ImproveEntireTree(tree *ptree.Tree, cfg config.Config) (float64, error) {
	var total float64
	var firstErr error
	// Collect first: ImproveSubtree mutates the tree (detach/re-graft),
	// which would otherwise invalidate an in-flight PostOrder walk.
	var candidates []ptree.NodeID
	tree.PostOrder(func(id NodeID) {
		if tree.NodeOutdated(id) && tree.Parent(id) != ptree.NoNode {
			candidates = append(candidates, id)
		}
	})
	for _, id := range candidates {
		if firstErr != nil {
			break
		}
		if !tree.NodeOutdated(id) {
			continue // cleared by an earlier move in this same sweep
		}
		improvement, err := ImproveSubtree(tree, id, cfg)
		if err != nil {
			firstErr = err
			continue
		}
		total += improvement
	}
	return total, firstErr
}

// RunUntilConverged repeats ImproveEntireTree until a sweep's total
// improvement falls below cfg.MinTotalImprovement or cfg.MaxSPRSweeps is
// reached (spec.md 4.4's driver loop).
func RunUntilConverged(tree *ptree.Tree, cfg config.Config) (sweeps int, totalImprovement float64, err error) {
	tree.SetAllOutdated()
	for sweeps = 0; sweeps < cfg.MaxSPRSweeps; sweeps++ {
		improvement, err := ImproveEntireTree(tree, cfg)
		if err != nil {
			return sweeps, totalImprovement, err
		}
		totalImprovement += improvement
		if improvement < cfg.MinTotalImprovement {
			return sweeps + 1, totalImprovement, nil
		}
		tree.SetAllOutdated()
	}
	return sweeps, totalImprovement, nil
}

// ImproveSubtree evaluates whether detaching node and re-placing it
// elsewhere improves the tree's likelihood (spec.md 4.4 steps 1-4):
//  1. score the node at its current position,
//  2. detach it and search for a better position, excluding the detached
//     subtree itself,
//  3. re-graft at the better position if the gain exceeds
//     cfg.MinSPRImprovement, otherwise put it back exactly where it was,
//  4. clear Outdated on node, mark disturbed ancestors Outdated.
func ImproveSubtree(tree *ptree.Tree, node ptree.NodeID, cfg config.Config) (float64, error) {
	parent := tree.Parent(node)
	if parent == ptree.NoNode {
		tree.ClearOutdated(node)
		return 0, nil
	}
	nodeLower := tree.Lower(node)
	nodeBranch := tree.BranchLength(node)

	oldScore, err := scoreAtCurrentPosition(tree, node, cfg)
	if err != nil {
		return 0, err
	}

	sibling := tree.Sibling(node)
	parentBranch := tree.BranchLength(parent)
	siblingBranch := tree.BranchLength(sibling)

	tree.Detach(node)
	excluded := subtreeSet(tree, node)

	best, err := seekExcluding(tree, nodeLower, excluded, cfg)
	if err != nil {
		regraftOriginal(tree, node, sibling, parentBranch, siblingBranch, nodeBranch)
		return 0, err
	}

	if best.BestLhDiff-oldScore <= cfg.MinSPRImprovement {
		if err := regraftOriginal(tree, node, sibling, parentBranch, siblingBranch, nodeBranch); err != nil {
			return 0, err
		}
		tree.ClearOutdated(node)
		return 0, nil
	}

	newInternal := regraftAt(tree, node, nodeBranch, best, cfg)
	if err := tree.UpdatePartialLh([]ptree.NodeID{newInternal}); err != nil {
		regraftOriginal(tree, node, sibling, parentBranch, siblingBranch, nodeBranch)
		return 0, err
	}
	tree.ClearOutdated(node)
	tree.MarkOutdatedUpward(tree.Parent(node))
	return best.BestLhDiff - oldScore, nil
}

// scoreAtCurrentPosition evaluates node's log-likelihood against its
// current upper view, used as the baseline ImproveSubtree compares
// candidate re-placements against.
func scoreAtCurrentPosition(tree *ptree.Tree, node ptree.NodeID, cfg config.Config) (float64, error) {
	upper, err := tree.ComputeTotalUpper(node)
	if err != nil {
		return 0, err
	}
	return align.LogLikelihood(upper, tree.Lower(node), 0, tree.BranchLength(node), tree.Ref, tree.Model)
}

// subtreeSet marks every node under root in a bitset sized to the tree's
// arena, the same "per-node marker via bits-and-blooms/bitset" pattern camus
// uses for leafsets (internal/graphs/treedata.go), repurposed here as a
// per-SPR-move excluded-subtree marker (spec.md 4.4 step 2).
func subtreeSet(tree *ptree.Tree, root ptree.NodeID) *bitset.BitSet {
	set := bitset.New(uint(len(tree.Nodes)))
	tree.SubtreePostOrder(root, func(id ptree.NodeID) {
		set.Set(uint(id))
	})
	return set
}

// seekExcluding mirrors place.SeekSamplePlacement's best-first descent from
// the tree's root, but refuses to enter any node inside the excluded
// (just-detached) subtree, per spec.md 4.4 step 2.
func seekExcluding(tree *ptree.Tree, nodeLower *align.RegionList, excluded *bitset.BitSet, cfg config.Config) (place.Placement, error) {
	node := tree.Root
	if excluded.Test(uint(node)) {
		return place.Placement{}, errExcluded
	}
	best, err := place.EvaluateCandidates(tree, node, nodeLower, cfg)
	if err != nil {
		return place.Placement{}, err
	}
	for !tree.IsLeaf(node) {
		l, r := tree.Children(node)
		var pl, pr place.Placement
		var errl, errr error
		if excluded.Test(uint(l)) {
			errl = errExcluded
		} else {
			pl, errl = place.EvaluateCandidates(tree, l, nodeLower, cfg)
		}
		if excluded.Test(uint(r)) {
			errr = errExcluded
		} else {
			pr, errr = place.EvaluateCandidates(tree, r, nodeLower, cfg)
		}
		childBest, childNode, ok := pickBetterCandidate(pl, errl, l, pr, errr, r)
		if !ok {
			break
		}
		if childBest.BestLhDiff-best.BestLhDiff <= cfg.MinImprovement {
			break
		}
		best = childBest
		node = childNode
	}
	return best, nil
}

func pickBetterCandidate(pl place.Placement, errl error, l ptree.NodeID, pr place.Placement, errr error, r ptree.NodeID) (place.Placement, ptree.NodeID, bool) {
	lok, rok := errl == nil, errr == nil
	switch {
	case !lok && !rok:
		return place.Placement{}, 0, false
	case !lok:
		return pr, r, true
	case !rok:
		return pl, l, true
	}
	if pr.BestLhDiff > pl.BestLhDiff {
		return pr, r, true
	}
	return pl, l, true
}

// regraftOriginal undoes a Detach exactly: node is spliced back onto
// sibling's edge with the same two branch lengths the original parent edge
// and sibling edge had, recovering the pre-detach shape under a fresh
// internal NodeID, then rebuilds the caches that fresh node needs.
func regraftOriginal(tree *ptree.Tree, node, sibling ptree.NodeID, parentBranch, siblingBranch, nodeBranch float64) error {
	newInternal := tree.SpliceSubtree(sibling, parentBranch, siblingBranch, node, nodeBranch)
	return tree.UpdatePartialLh([]ptree.NodeID{newInternal})
}

// regraftAt splices the detached node (keeping its own NodeID and subtree
// intact) onto the winning candidate edge, dividing the edge as the
// candidate's placement describes (spec.md 4.3.1's two attachment styles).
func regraftAt(tree *ptree.Tree, node ptree.NodeID, nodeBranch float64, best place.Placement, cfg config.Config) ptree.NodeID {
	b := tree.BranchLength(best.Node)
	var distParent, distChild float64
	if best.IsMidBranch {
		distParent = best.BranchFraction * b
		distChild = (1 - best.BranchFraction) * b
	} else {
		distParent = b
		distChild = cfg.DefaultBlength
	}
	return tree.SpliceSubtree(best.Node, distParent, distChild, node, math.Max(cfg.MinBlength, nodeBranch))
}
