package align

import "fmt"

// RateModel is the numeric contract RegionList's merge and log-likelihood
// operations need from a substitution model (implemented by
// internal/model.Model). Keeping it here, rather than importing the model
// package, is what lets align stay a leaf package: model depends on align
// for RegionList, not the other way around.
type RateModel interface {
	NumStates() int
	RootFreqs() []float64
	RootLogFreqs() []float64
	// Rate returns Q[i][j]; i==j gives the negative row sum (diagonal rate).
	Rate(i, j int) float64
	// Evolve applies the first-order approximation (I + Q*t) to a
	// probability vector: out[i] = v[i] + t * sum_j Q[i][j]*v[j]. This is
	// the uniform approximation spec.md 4.1.1 and 9 require everywhere a
	// per-state distribution crosses a branch of length t.
	Evolve(v []float64, t float64) []float64
}

// oneHotTolerance is how close a renormalized product distribution must be
// to a pure indicator vector before merge downgrades an O region back to an
// ordinary state (spec.md 4.1.1's "numerically a one-hot vector" rule).
const oneHotTolerance = 1e-9

func oneHot(n, state int) []float64 {
	v := make([]float64, n)
	v[state] = 1
	return v
}

// combineOptional implements the "-1 means absent" discipline from spec.md
// section 3: two absent values combine to absent, one absent value yields
// the other untouched, and two present values add.
func combineOptional(a, b float64) float64 {
	switch {
	case a == absent && b == absent:
		return absent
	case a == absent:
		return b
	case b == absent:
		return a
	default:
		return a + b
	}
}

// sideDistance folds a region's own pending plength_observation_to_node
// together with the branch just traversed to reach the merge point.
func sideDistance(plength, branch float64) float64 {
	return combineOptional(plength, branch)
}

// regionVector resolves a region to a concrete probability vector.
// refState is only consulted for TypeRef regions (resolved by the caller to
// the reference's actual state at the position under consideration); pass
// -1 when the region cannot be TypeRef.
func regionVector(r Region, n, refState int) []float64 {
	switch r.Type {
	case TypeRef:
		return oneHot(n, refState)
	case TypeState:
		return oneHot(n, r.State)
	case TypeOther:
		return r.Likelihood
	default:
		panic("regionVector: N region has no distribution")
	}
}

// definiteState reports whether r resolves to one definite ordinary state
// (as opposed to a general distribution), and which one.
func definiteState(r Region, refState int) (int, bool) {
	switch r.Type {
	case TypeState:
		return r.State, true
	case TypeRef:
		if refState >= 0 {
			return refState, true
		}
	}
	return 0, false
}

// evolveSide resolves a region to its probability vector and carries it
// across whatever distance is still pending: first any root-crossing
// distance (blending toward the model's root frequencies, since
// plength_observation_to_root is only set when the observation is on the
// root side of the tree relative to this node), then the node-ward distance
// (the region's own pending plength plus the branch just traversed).
func evolveSide(m RateModel, vec []float64, pObsNode, branch, pObsRoot float64) []float64 {
	if pObsRoot != absent && pObsRoot > 0 {
		freqs := m.RootFreqs()
		rooted := make([]float64, len(vec))
		var total float64
		for i := range rooted {
			rooted[i] = freqs[i] * vec[i]
			total += rooted[i]
		}
		if total > 0 {
			for i := range rooted {
				rooted[i] /= total
			}
			vec = m.Evolve(rooted, pObsRoot)
		}
	}
	t := sideDistance(pObsNode, branch)
	if t == absent {
		t = 0
	}
	return m.Evolve(vec, t)
}

func asOneHot(v []float64) (int, bool) {
	best := -1
	for i, p := range v {
		if p > 1-oneHotTolerance {
			best = i
		} else if p > oneHotTolerance {
			return 0, false
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// mergeResolved produces exactly one output region spanning [start,end],
// over which every position resolves identically (either because neither
// side is TypeRef, or because refState is constant across the span).
func mergeResolved(l, r Region, refState, start, end int, bLeft, bRight float64, m RateModel) (Region, error) {
	// spec.md 4.1.1 bullets 1 & 3: (R,R) is handled by the caller before
	// reaching here; (a,a) for an ordinary state with identical plengths
	// collapses to a without ever touching the model.
	if ls, ok := definiteState(l, refState); ok {
		if rs, ok2 := definiteState(r, refState); ok2 && ls == rs {
			lt := sideDistance(l.PlengthObservationToNode, bLeft)
			rt := sideDistance(r.PlengthObservationToNode, bRight)
			if lt == rt {
				pRoot := combineOptional(l.PlengthObservationToRoot, r.PlengthObservationToRoot)
				return newStateRegion(ls, end, lt, pRoot), nil
			}
		}
	}
	n := m.NumStates()
	leftVec := evolveSide(m, regionVector(l, n, refState), l.PlengthObservationToNode, bLeft, l.PlengthObservationToRoot)
	rightVec := evolveSide(m, regionVector(r, n, refState), r.PlengthObservationToNode, bRight, r.PlengthObservationToRoot)
	prod := make([]float64, n)
	var total float64
	for i := range prod {
		prod[i] = leftVec[i] * rightVec[i]
		total += prod[i]
	}
	if total < underflowTolerance {
		return Region{}, fmt.Errorf("%w: merge at [%d,%d] collapsed to mass %g", ErrNumericalUnderflow, start, end, total)
	}
	for i := range prod {
		prod[i] /= total
	}
	if state, ok := asOneHot(prod); ok {
		return newStateRegion(state, end, absent, absent), nil
	}
	return newOtherRegion(prod, end, absent, absent), nil
}

// mergeByRefRuns subdivides [start,end] into the maximal sub-runs over
// which the reference state is constant, and resolves each sub-run
// independently — needed whenever one side is TypeRef and the other is not
// N (N is handled generically without ever consulting the reference).
func mergeByRefRuns(l, r Region, start, end int, bLeft, bRight float64, ref *Reference, m RateModel) ([]Region, error) {
	out := make([]Region, 0, end-start+1)
	pos := start
	for pos <= end {
		state := ref.States[pos]
		runEnd := pos
		for runEnd+1 <= end && ref.States[runEnd+1] == state {
			runEnd++
		}
		reg, err := mergeResolved(l, r, state, pos, runEnd, bLeft, bRight, m)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
		pos = runEnd + 1
	}
	return out, nil
}

func passthrough(x Region, branch float64, end int) Region {
	return Region{
		Type:                     x.Type,
		State:                    x.State,
		Likelihood:               x.Likelihood,
		End:                      end,
		PlengthObservationToNode: sideDistance(x.PlengthObservationToNode, branch),
		PlengthObservationToRoot: x.PlengthObservationToRoot,
	}
}

// mergeSpan dispatches the case table from spec.md 4.1.1 for one pair of
// overlapping regions spanning [start,end].
func mergeSpan(l, r Region, start, end int, bLeft, bRight float64, ref *Reference, m RateModel) ([]Region, error) {
	switch {
	case l.Type == TypeN && r.Type == TypeN:
		return []Region{newNRegion(end, absent, absent)}, nil
	case l.Type == TypeN:
		return []Region{passthrough(r, bRight, end)}, nil
	case r.Type == TypeN:
		return []Region{passthrough(l, bLeft, end)}, nil
	case l.Type == TypeRef && r.Type == TypeRef:
		pObs := combineOptional(sideDistance(l.PlengthObservationToNode, bLeft), sideDistance(r.PlengthObservationToNode, bRight))
		pRoot := combineOptional(l.PlengthObservationToRoot, r.PlengthObservationToRoot)
		return []Region{newRefRegion(end, pObs, pRoot)}, nil
	case l.Type == TypeRef || r.Type == TypeRef:
		return mergeByRefRuns(l, r, start, end, bLeft, bRight, ref, m)
	default:
		reg, err := mergeResolved(l, r, -1, start, end, bLeft, bRight, m)
		if err != nil {
			return nil, err
		}
		return []Region{reg}, nil
	}
}

// mergeWalk is the shared two-pointer lock-step walk underlying both
// MergeUpperLower and MergeLowerLower (spec.md 4.1.1 and 4.1.3): it is
// symmetric in its two region lists, so swapping (left,bLeft) with
// (right,bRight) yields an identical result (property 3, commutativity
// under swap with branch swap).
func mergeWalk(left, right *RegionList, bLeft, bRight float64, ref *Reference, m RateModel) (*RegionList, error) {
	if left.Length != right.Length {
		panic(fmt.Sprintf("mergeWalk: region lists cover different lengths (%d vs %d)", left.Length, right.Length))
	}
	out := make([]Region, 0, len(left.Regions)+len(right.Regions))
	cursor, i, j := 0, 0, 0
	for cursor < left.Length {
		_, lEnd := left.span(i)
		_, rEnd := right.span(j)
		end := lEnd
		if rEnd < end {
			end = rEnd
		}
		regs, err := mergeSpan(left.Regions[i], right.Regions[j], cursor, end, bLeft, bRight, ref, m)
		if err != nil {
			return nil, err
		}
		out = append(out, regs...)
		cursor = end + 1
		if lEnd == end {
			i++
		}
		if rEnd == end {
			j++
		}
	}
	rl := &RegionList{Regions: coalesce(out), Length: left.Length}
	if err := rl.Validate(); err != nil {
		return nil, fmt.Errorf("mergeWalk: %w", err)
	}
	return rl, nil
}

// MergeUpperLower implements spec.md 4.1.1: the region list at a node whose
// two contributing sides (an "upper" summary seen across branch bUpper and
// a "lower" summary seen across branch bLower) combine into one summary.
func MergeUpperLower(upper *RegionList, bUpper float64, lower *RegionList, bLower float64, ref *Reference, m RateModel) (*RegionList, error) {
	return mergeWalk(upper, lower, bUpper, bLower, ref, m)
}

// MergeLowerLower implements spec.md 4.1.3: lower_from_children, the
// symmetric lower-lower variant used by the refresh pass to build a node's
// lower cache from its two children's lower caches.
func MergeLowerLower(lhs *RegionList, bLhs float64, rhs *RegionList, bRhs float64, ref *Reference, m RateModel) (*RegionList, error) {
	return mergeWalk(lhs, rhs, bLhs, bRhs, ref, m)
}
