package align

import (
	"fmt"
	"math"
)

// LogLikelihood implements spec.md 4.1.2 (log_lh): the log-probability of
// observing `lower` given `upper` is correct across the branch separating
// them, summed position-by-position with Kahan compensation so genome-length
// accumulations don't lose precision. bUpper/bLower are the branch lengths
// already folded into each side's pending plength by the caller's merge
// step; here they are the *additional* distance separating the two summaries
// (zero when the caller has already merged the branch in).
func LogLikelihood(upper, lower *RegionList, bUpper, bLower float64, ref *Reference, m RateModel) (float64, error) {
	if upper.Length != lower.Length {
		panic(fmt.Sprintf("LogLikelihood: region lists cover different lengths (%d vs %d)", upper.Length, lower.Length))
	}
	var sum kahanSum
	cursor, i, j := 0, 0, 0
	for cursor < upper.Length {
		_, uEnd := upper.span(i)
		_, lEnd := lower.span(j)
		end := uEnd
		if lEnd < end {
			end = lEnd
		}
		lh, err := spanLogLikelihood(upper.Regions[i], lower.Regions[j], cursor, end, bUpper, bLower, ref, m)
		if err != nil {
			return 0, err
		}
		sum.add(lh)
		cursor = end + 1
		if uEnd == end {
			i++
		}
		if lEnd == end {
			j++
		}
	}
	return sum.value(), nil
}

// spanLogLikelihood dispatches one overlapping pair of regions, subdividing
// by reference run where a concrete reference state must be resolved.
func spanLogLikelihood(u, l Region, start, end int, bUpper, bLower float64, ref *Reference, m RateModel) (float64, error) {
	switch {
	case u.Type == TypeN || l.Type == TypeN:
		// An N on either side contributes no information: log(1) = 0.
		return 0, nil
	case u.Type == TypeRef && l.Type == TypeRef:
		// Fast path: every position in the span is "reference stayed
		// reference", so each position contributes the model's diagonal
		// rate at its reference state times t. The cumulative-rate cache
		// holds the negated diagonal, summed in O(1), hence the sign flip.
		t := combineOptional(sideDistance(u.PlengthObservationToNode, bUpper), sideDistance(l.PlengthObservationToNode, bLower))
		if t == absent {
			t = 0
		}
		rate := ref.RateOverSpan(start, end+1)
		return -rate * t, nil
	case u.Type == TypeRef || l.Type == TypeRef:
		var sum kahanSum
		pos := start
		for pos <= end {
			state := ref.States[pos]
			runEnd := pos
			for runEnd+1 <= end && ref.States[runEnd+1] == state {
				runEnd++
			}
			lh, err := resolvedLogLikelihood(u, l, state, pos, runEnd, bUpper, bLower, m)
			if err != nil {
				return 0, err
			}
			sum.add(lh)
			pos = runEnd + 1
		}
		return sum.value(), nil
	default:
		return resolvedLogLikelihood(u, l, -1, start, end, bUpper, bLower, m)
	}
}

// resolvedLogLikelihood computes the log-probability for a sub-run where
// refState (or -1) is constant throughout, per spec.md 4.1.2's case table.
func resolvedLogLikelihood(u, l Region, refState, start, end int, bUpper, bLower float64, m RateModel) (float64, error) {
	width := float64(end - start + 1)
	if us, ok := definiteState(u, refState); ok {
		if ls, ok2 := definiteState(l, refState); ok2 {
			t := combineOptional(sideDistance(u.PlengthObservationToNode, bUpper), sideDistance(l.PlengthObservationToNode, bLower))
			if t == absent {
				t = 0
			}
			if us == ls {
				// Probability of staying put over distance t is
				// approximately 1 + Q[us][us]*t under the first-order model.
				p := 1 + m.Rate(us, us)*t
				if p <= 0 {
					return 0, fmt.Errorf("%w: non-positive same-state probability at [%d,%d]", ErrNumericalUnderflow, start, end)
				}
				return width * math.Log(p), nil
			}
			p := m.Rate(ls, us) * t
			if p <= underflowTolerance {
				return 0, fmt.Errorf("%w: non-positive transition probability at [%d,%d]", ErrNumericalUnderflow, start, end)
			}
			return width * math.Log(p), nil
		}
	}
	n := m.NumStates()
	// The upper vector is carried across the whole separating distance:
	// its own pending plength and bUpper, plus the lower side's pending
	// plength and bLower, the same total the definite-state path uses.
	uBranch := combineOptional(bUpper, sideDistance(l.PlengthObservationToNode, bLower))
	uVec := evolveSide(m, regionVector(u, n, refState), u.PlengthObservationToNode, uBranch, u.PlengthObservationToRoot)
	lVec := regionVector(l, n, refState)
	var dot float64
	for i := range uVec {
		dot += uVec[i] * lVec[i]
	}
	if dot <= underflowTolerance {
		return 0, fmt.Errorf("%w: log-likelihood collapsed to zero mass at [%d,%d]", ErrNumericalUnderflow, start, end)
	}
	return width * math.Log(dot), nil
}
