package place

import (
	"math"

	"maple/internal/align"
	"maple/internal/config"
	"maple/internal/ptree"
)

// PlaceNewSample grafts sample onto tree at the position SeekSamplePlacement
// chose, optimizing the new leaf's own branch length by the same bounded
// line search, then refreshes every cache the edit disturbed (spec.md
// 4.3.2).
func PlaceNewSample(tree *ptree.Tree, p Placement, sample *align.RegionList, name string, cfg config.Config) error {
	upper, err := tree.ComputeTotalUpper(p.Node)
	if err != nil {
		return err
	}
	b := tree.BranchLength(p.Node)

	var distParent, distChild float64
	if p.IsMidBranch {
		distParent = p.BranchFraction * b
		distChild = (1 - p.BranchFraction) * b
	} else {
		distParent = b
		distChild = cfg.DefaultBlength
	}

	view, err := attachmentView(tree, upper, p.Node, distParent, distChild)
	if err != nil {
		return err
	}
	leafDist := optimizeLeafBranch(tree, view, sample, cfg)

	_, newInternal := tree.Splice(p.Node, distParent, distChild, sample, name, leafDist)
	return tree.UpdatePartialLh([]ptree.NodeID{newInternal})
}

// optimizeLeafBranch finds the branch length, clamped to
// [min_blength, max_blength], that maximizes the new leaf's log-likelihood
// against the region list at its attachment point.
func optimizeLeafBranch(tree *ptree.Tree, view, sample *align.RegionList, cfg config.Config) float64 {
	t, score := maximize1D(func(t float64) float64 {
		lh, err := align.LogLikelihood(view, sample, 0, t, tree.Ref, tree.Model)
		if err != nil {
			return math.Inf(-1)
		}
		return lh
	}, cfg.MinBlength, cfg.MaxBlength, cfg)
	if math.IsInf(score, -1) {
		return cfg.DefaultBlength
	}
	return t
}
