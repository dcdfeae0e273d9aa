package model

import (
	"fmt"
	"math"

	"maple/internal/align"
)

// ComputeCumulativeRate builds the length-(L+1) prefix sum described in
// spec.md 4.2 and installs it on ref, so align.Reference.RateOverSpan can
// answer "total rate over span" in O(1).
func (m *Model) ComputeCumulativeRate(ref *align.Reference) {
	table := make([]float64, ref.Len()+1)
	for i, s := range ref.States {
		table[i+1] = table[i] + (-m.Q.At(s, s))
	}
	ref.SetCumulativeRate(table)
}

// UpdatePseudocount walks nodeRegions and sampleRegions in lock-step and
// adds 1 (times run width) to Pseudocount[a][b] for every position where the
// node's inferred state is a and the sample's observation is b != a
// (spec.md 4.2). Positions where either side is not a definite ordinary
// state (N, or an unresolved O) contribute nothing.
func (m *Model) UpdatePseudocount(ref *align.Reference, nodeRegions, sampleRegions *align.RegionList) {
	if nodeRegions.Length != sampleRegions.Length {
		panic(fmt.Sprintf("UpdatePseudocount: region lists cover different lengths (%d vs %d)", nodeRegions.Length, sampleRegions.Length))
	}
	cursor, i, j := 0, 0, 0
	for cursor < nodeRegions.Length {
		nEnd := nodeRegions.Regions[i].End
		sEnd := sampleRegions.Regions[j].End
		end := nEnd
		if sEnd < end {
			end = sEnd
		}
		m.accumulateSpan(ref, nodeRegions.Regions[i], sampleRegions.Regions[j], cursor, end)
		cursor = end + 1
		if nEnd == end {
			i++
		}
		if sEnd == end {
			j++
		}
	}
}

func (m *Model) accumulateSpan(ref *align.Reference, nodeRegion, sampleRegion align.Region, start, end int) {
	if nodeRegion.Type != align.TypeRef && sampleRegion.Type != align.TypeRef {
		m.accumulateResolved(nodeRegion, sampleRegion, -1, end-start+1)
		return
	}
	pos := start
	for pos <= end {
		state := ref.States[pos]
		runEnd := pos
		for runEnd+1 <= end && ref.States[runEnd+1] == state {
			runEnd++
		}
		m.accumulateResolved(nodeRegion, sampleRegion, state, runEnd-pos+1)
		pos = runEnd + 1
	}
}

func (m *Model) accumulateResolved(nodeRegion, sampleRegion align.Region, refState, width int) {
	a, ok1 := definiteOrdinaryState(nodeRegion, refState)
	b, ok2 := definiteOrdinaryState(sampleRegion, refState)
	if !ok1 || !ok2 || a == b {
		return
	}
	m.Pseudocount.Set(a, b, m.Pseudocount.At(a, b)+float64(width))
}

func definiteOrdinaryState(r align.Region, refState int) (int, bool) {
	switch r.Type {
	case align.TypeState:
		return r.State, true
	case align.TypeRef:
		if refState >= 0 {
			return refState, true
		}
	}
	return 0, false
}

// UpdateMutationMatrixEmpirical re-estimates Q from Pseudocount (spec.md
// 4.2): off-diagonal entries become the raw counts, the diagonal is set so
// each row sums to zero, and Qt/cumulative_rate are rebuilt. Returns
// ErrModelSingularity, leaving Q untouched, if any row's off-diagonal counts
// are all zero or any entry is non-finite — the caller is expected to keep
// using the previous model (via TakeSnapshot/Restore) until more samples
// accumulate.
func (m *Model) UpdateMutationMatrixEmpirical(ref *align.Reference) error {
	snap := m.TakeSnapshot()
	for i := 0; i < m.n; i++ {
		var rowSum float64
		for j := 0; j < m.n; j++ {
			if i == j {
				continue
			}
			c := m.Pseudocount.At(i, j)
			if math.IsNaN(c) || math.IsInf(c, 0) {
				m.Restore(snap)
				return fmt.Errorf("%w: non-finite pseudocount at row %d, col %d", ErrModelSingularity, i, j)
			}
			m.Q.Set(i, j, c)
			rowSum += c
		}
		if rowSum == 0 {
			m.Restore(snap)
			return fmt.Errorf("%w: row %d has no observed mutations away from state %d", ErrModelSingularity, i, i)
		}
		m.Q.Set(i, i, -rowSum)
	}
	m.refreshQt()
	m.ComputeCumulativeRate(ref)
	return nil
}
