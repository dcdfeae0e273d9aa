package place

import (
	"math"

	"maple/internal/align"
	"maple/internal/config"
	"maple/internal/ptree"
)

// Placement is the result of SeekSamplePlacement: where and how to graft a
// new sample (spec.md 4.3.1).
type Placement struct {
	Node NodeID

	// BranchFraction is the optimized split point along the edge above
	// Node when IsMidBranch is true; meaningless otherwise.
	BranchFraction float64
	IsMidBranch    bool

	BestLhDiff     float64
	BestUpLhDiff   float64
	BestDownLhDiff float64
}

// NodeID re-exports ptree.NodeID so callers of this package don't need to
// import ptree solely to name a field type.
type NodeID = ptree.NodeID

// tieTolerance is how close the two children's scores must be for
// pickBetter to treat them as tied and keep the left child instead of
// picking strictly by score.
const tieTolerance = 1e-9

// SeekSamplePlacement performs the best-first descent from the tree's root,
// evaluating both candidate positions (mid-branch and below) at every node
// visited, and descending into whichever child improves on the current best
// by more than cfg.MinImprovement.
func SeekSamplePlacement(tree *ptree.Tree, sample *align.RegionList, cfg config.Config) (Placement, error) {
	node := tree.Root
	best, err := evaluateCandidates(tree, node, sample, cfg)
	if err != nil {
		return Placement{}, err
	}
	for !tree.IsLeaf(node) {
		l, r := tree.Children(node)
		pl, errl := evaluateCandidates(tree, l, sample, cfg)
		pr, errr := evaluateCandidates(tree, r, sample, cfg)

		childBest, childNode, ok := pickBetter(pl, errl, l, pr, errr, r)
		if !ok {
			break
		}
		if childBest.BestLhDiff-best.BestLhDiff <= cfg.MinImprovement {
			break
		}
		best.BestUpLhDiff = best.BestLhDiff
		best.BestDownLhDiff = childBest.BestLhDiff
		best = childBest
		node = childNode
	}
	return best, nil
}

func pickBetter(pl Placement, errl error, l NodeID, pr Placement, errr error, r NodeID) (Placement, NodeID, bool) {
	lok, rok := errl == nil, errr == nil
	switch {
	case !lok && !rok:
		return Placement{}, 0, false
	case !lok:
		return pr, r, true
	case !rok:
		return pl, l, true
	}
	if math.Abs(pl.BestLhDiff-pr.BestLhDiff) <= tieTolerance {
		// Tie: neither sibling is structurally deeper than the other, so
		// the left child is kept by convention (spec.md 4.3.1's tie-break
		// rule applies within evaluateCandidates, between mid-branch and
		// below on the same edge).
		return pl, l, true
	}
	if pr.BestLhDiff > pl.BestLhDiff {
		return pr, r, true
	}
	return pl, l, true
}

// EvaluateCandidates scores the two candidate attachment positions on the
// edge above node (mid-branch and below), exported for the SPR search's
// re-insertion descent, which needs to score individual nodes directly
// rather than run a whole fresh SeekSamplePlacement.
func EvaluateCandidates(tree *ptree.Tree, node ptree.NodeID, sample *align.RegionList, cfg config.Config) (Placement, error) {
	return evaluateCandidates(tree, node, sample, cfg)
}

// evaluateCandidates scores the two candidate attachment positions on the
// edge above node: mid-branch (optimized split fraction) and below
// (attached with a fresh short branch past node itself).
func evaluateCandidates(tree *ptree.Tree, node ptree.NodeID, sample *align.RegionList, cfg config.Config) (Placement, error) {
	upper, err := tree.ComputeTotalUpper(node)
	if err != nil {
		return Placement{}, err
	}
	b := tree.BranchLength(node)

	mid, midErr := scoreMidBranch(tree, upper, node, sample, b, cfg)
	below, belowErr := scoreBelow(tree, upper, node, sample, b, cfg)

	switch {
	case midErr != nil && belowErr != nil:
		return Placement{}, midErr
	case midErr != nil:
		return below, nil
	case belowErr != nil:
		return mid, nil
	}
	if below.BestLhDiff >= mid.BestLhDiff {
		return below, nil
	}
	return mid, nil
}

// attachmentView computes the region list at the point where a new sample
// would attach: the merge of whatever is above node (upper, across
// distParent) with node's own lower cache (across distChild).
func attachmentView(tree *ptree.Tree, upper *align.RegionList, node ptree.NodeID, distParent, distChild float64) (*align.RegionList, error) {
	return align.MergeUpperLower(upper, distParent, tree.Lower(node), distChild, tree.Ref, tree.Model)
}

func scoreMidBranch(tree *ptree.Tree, upper *align.RegionList, node ptree.NodeID, sample *align.RegionList, b float64, cfg config.Config) (Placement, error) {
	if b <= 2*cfg.MinBlengthMid {
		return Placement{}, errNoRoomForMidBranch
	}
	var lastErr error
	frac, score := maximize1D(func(f float64) float64 {
		splitUpper, err := attachmentView(tree, upper, node, f*b, (1-f)*b)
		if err != nil {
			lastErr = err
			return math.Inf(-1)
		}
		lh, err := align.LogLikelihood(splitUpper, sample, 0, cfg.DefaultBlength, tree.Ref, tree.Model)
		if err != nil {
			lastErr = err
			return math.Inf(-1)
		}
		return lh
	}, cfg.MinBlengthMid/b, 1-cfg.MinBlengthMid/b, cfg)
	if math.IsInf(score, -1) {
		return Placement{}, lastErr
	}
	return Placement{Node: node, BranchFraction: frac, IsMidBranch: true, BestLhDiff: score}, nil
}

func scoreBelow(tree *ptree.Tree, upper *align.RegionList, node ptree.NodeID, sample *align.RegionList, b float64, cfg config.Config) (Placement, error) {
	view, err := attachmentView(tree, upper, node, b, cfg.DefaultBlength)
	if err != nil {
		return Placement{}, err
	}
	lh, err := align.LogLikelihood(view, sample, 0, cfg.DefaultBlength, tree.Ref, tree.Model)
	if err != nil {
		return Placement{}, err
	}
	return Placement{Node: node, IsMidBranch: false, BestLhDiff: lh}, nil
}
