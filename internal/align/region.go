package align

import (
	"fmt"
	"math"
)

// Type tags the four kinds of run a Mutation or Region may represent.
type Type uint8

const (
	// TypeRef ("R") is a run identical to the reference.
	TypeRef Type = iota
	// TypeN ("N") is a run with no observation (includes gaps, per the
	// open question in spec.md section 9: "-" is treated as N).
	TypeN
	// TypeState is a run at one ordinary alphabet state.
	TypeState
	// TypeOther ("O") is a run whose state is a general probability
	// distribution, carried explicitly in Likelihood.
	TypeOther
)

func (t Type) String() string {
	switch t {
	case TypeRef:
		return "R"
	case TypeN:
		return "N"
	case TypeState:
		return "state"
	case TypeOther:
		return "O"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// absent marks a plength_observation field as "omitted" rather than an
// explicit zero distance, per spec.md section 3.
const absent = -1.0

// Mutation is one contiguous run of constant type over the reference, as
// produced by the (out-of-scope) parser: (type, position, length).
// Position is the 0-based start of the run; for TypeState, State holds the
// ordinary alphabet index; for TypeOther, Likelihood holds the already
// ambiguity-resolved distribution.
type Mutation struct {
	Type       Type
	State      int
	Position   int
	Length     int
	Likelihood []float64
}

// Region extends a Mutation (rewritten here as an end position rather than
// a start+length pair, since that is the form RegionList actually walks)
// with the two branch-length annotations and, for TypeOther, a likelihood
// vector.
type Region struct {
	Type  Type
	State int
	// Likelihood is non-nil iff Type == TypeOther (invariant I2).
	Likelihood []float64
	// End is the inclusive 0-based genome position where this run ends.
	End int
	// PlengthObservationToNode is the genetic distance from the
	// phylogenetic observation to the current node, or absent (-1).
	PlengthObservationToNode float64
	// PlengthObservationToRoot is the additional distance separating the
	// observation from the root, non-zero only when the observation is on
	// the root side of the tree relative to the node, or absent (-1).
	PlengthObservationToRoot float64
}

func newRefRegion(end int, pObs, pRoot float64) Region {
	return Region{Type: TypeRef, End: end, PlengthObservationToNode: pObs, PlengthObservationToRoot: pRoot}
}

func newNRegion(end int, pObs, pRoot float64) Region {
	return Region{Type: TypeN, End: end, PlengthObservationToNode: pObs, PlengthObservationToRoot: pRoot}
}

func newStateRegion(state, end int, pObs, pRoot float64) Region {
	return Region{Type: TypeState, State: state, End: end, PlengthObservationToNode: pObs, PlengthObservationToRoot: pRoot}
}

func newOtherRegion(lh []float64, end int, pObs, pRoot float64) Region {
	return Region{Type: TypeOther, Likelihood: lh, End: end, PlengthObservationToNode: pObs, PlengthObservationToRoot: pRoot}
}

// sameContent reports whether two regions carry the same (type, state,
// likelihood, plengths) — the equality invariant (I3's adjacency rule)
// merges check before coalescing.
func sameContent(a, b Region) bool {
	if a.Type != b.Type || a.PlengthObservationToNode != b.PlengthObservationToNode ||
		a.PlengthObservationToRoot != b.PlengthObservationToRoot {
		return false
	}
	switch a.Type {
	case TypeState:
		return a.State == b.State
	case TypeOther:
		return sameVector(a.Likelihood, b.Likelihood)
	default:
		return true
	}
}

func sameVector(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			return false
		}
	}
	return true
}

// RegionList is a non-empty ordered sequence of regions spanning exactly
// [0, Length). Invariant I1: Regions[len-1].End == Length-1 and ends are
// strictly increasing. Invariant I3: adjacent regions are never equal under
// sameContent (any such pair is merged by coalesce). RegionLists are
// value-like: every edit produces a fresh list.
type RegionList struct {
	Regions []Region
	Length  int
}

// FromMutations builds the initial RegionList for one sample: mutations are
// the minimal set of runs differing from the reference; gaps between them
// are filled with implicit R regions, per spec.md section 3.
func FromMutations(muts []Mutation, length int) (*RegionList, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: reference length must be positive", ErrEmptyInput)
	}
	regions := make([]Region, 0, 2*len(muts)+1)
	cursor := 0
	for _, m := range muts {
		if m.Length < 1 {
			return nil, fmt.Errorf("%w: mutation at %d has non-positive length %d", ErrInvariantViolation, m.Position, m.Length)
		}
		if m.Position < cursor {
			return nil, fmt.Errorf("%w: mutations out of order or overlapping at position %d", ErrInvariantViolation, m.Position)
		}
		if m.Position > cursor {
			regions = append(regions, newRefRegion(m.Position-1, absent, absent))
		}
		end := m.Position + m.Length - 1
		switch m.Type {
		case TypeRef:
			regions = append(regions, newRefRegion(end, absent, absent))
		case TypeN:
			regions = append(regions, newNRegion(end, absent, absent))
		case TypeState:
			regions = append(regions, newStateRegion(m.State, end, absent, absent))
		case TypeOther:
			if len(m.Likelihood) == 0 {
				return nil, fmt.Errorf("%w: O mutation at %d missing likelihood vector", ErrInvariantViolation, m.Position)
			}
			regions = append(regions, newOtherRegion(append([]float64(nil), m.Likelihood...), end, absent, absent))
		default:
			return nil, fmt.Errorf("%w: unknown mutation type %v", ErrInvariantViolation, m.Type)
		}
		cursor = end + 1
	}
	if cursor < length {
		regions = append(regions, newRefRegion(length-1, absent, absent))
	}
	rl := &RegionList{Regions: coalesce(regions), Length: length}
	if err := rl.Validate(); err != nil {
		return nil, err
	}
	return rl, nil
}

// coalesce merges adjacent regions with identical content, maintaining
// invariant I3. It never mutates its input slice.
func coalesce(regions []Region) []Region {
	if len(regions) == 0 {
		return regions
	}
	out := make([]Region, 0, len(regions))
	out = append(out, regions[0])
	for _, r := range regions[1:] {
		last := &out[len(out)-1]
		if sameContent(*last, r) {
			last.End = r.End
			continue
		}
		out = append(out, r)
	}
	return out
}

// Validate checks invariants I1 and I2.
func (rl *RegionList) Validate() error {
	if len(rl.Regions) == 0 {
		return fmt.Errorf("%w: region list has no regions", ErrInvariantViolation)
	}
	prevEnd := -1
	for i, r := range rl.Regions {
		if r.End <= prevEnd {
			return fmt.Errorf("%w: region %d end %d does not strictly increase past %d", ErrInvariantViolation, i, r.End, prevEnd)
		}
		if r.Type == TypeOther {
			if len(r.Likelihood) == 0 {
				return fmt.Errorf("%w: O region %d missing likelihood vector", ErrInvariantViolation, i)
			}
			sum := 0.0
			for _, p := range r.Likelihood {
				sum += p
			}
			if math.Abs(sum-1) > 1e-9 {
				return fmt.Errorf("%w: O region %d likelihood vector sums to %v, want 1", ErrInvariantViolation, i, sum)
			}
		}
		if r.Type != TypeOther && r.Likelihood != nil {
			return fmt.Errorf("%w: non-O region %d carries a likelihood vector", ErrInvariantViolation, i)
		}
		prevEnd = r.End
	}
	last := rl.Regions[len(rl.Regions)-1]
	if last.End != rl.Length-1 {
		return fmt.Errorf("%w: region list covers up to %d, want %d", ErrInvariantViolation, last.End, rl.Length-1)
	}
	return nil
}

// span returns [start, end] (inclusive) for the region at index i.
func (rl *RegionList) span(i int) (start, end int) {
	if i == 0 {
		return 0, rl.Regions[0].End
	}
	return rl.Regions[i-1].End + 1, rl.Regions[i].End
}
