package align

import "fmt"

// Reference is the immutable reference sequence every sample's mutation
// list is expressed as a diff against. States are ordinary alphabet indices
// (no N/R/O pseudo-states — the reference itself is fully resolved).
//
// CumulativeRate holds the length-(L+1) prefix sum described in spec.md
// 4.2 ("compute_cumulative_rate"): CumulativeRate[i] = sum_{k<i} -Q[ref[k],
// ref[k]]. It starts nil and is filled in by model.ComputeCumulativeRate
// once a Model exists; log_lh uses it to answer "total rate over span" in
// O(1) instead of re-summing per query.
type Reference struct {
	Alphabet       Alphabet
	States         []int
	CumulativeRate []float64
}

// NewReference builds a Reference from already-resolved ordinary-state
// indices. Construction is the only mutation point; after this the value is
// treated as immutable except for the derived CumulativeRate cache.
func NewReference(alphabet Alphabet, states []int) (*Reference, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("%w: reference has zero length", ErrEmptyInput)
	}
	for i, s := range states {
		if s < 0 || s >= alphabet.NumStates() {
			return nil, fmt.Errorf("reference position %d: state %d out of range [0,%d)", i, s, alphabet.NumStates())
		}
	}
	return &Reference{Alphabet: alphabet, States: states}, nil
}

// Len returns the genome length L.
func (r *Reference) Len() int { return len(r.States) }

// SetCumulativeRate installs the prefix-sum table computed by the model.
// len(table) must be Len()+1.
func (r *Reference) SetCumulativeRate(table []float64) {
	if len(table) != r.Len()+1 {
		panic(fmt.Sprintf("cumulative rate table has wrong length: got %d, want %d", len(table), r.Len()+1))
	}
	r.CumulativeRate = table
}

// RateOverSpan returns the total diagonal rate over the half-open span
// [from, to) using the cached prefix sums. Panics if the cache has not been
// populated yet — callers must run model.ComputeCumulativeRate first.
func (r *Reference) RateOverSpan(from, to int) float64 {
	if r.CumulativeRate == nil {
		panic("Reference.RateOverSpan: cumulative rate table not computed")
	}
	return r.CumulativeRate[to] - r.CumulativeRate[from]
}

// EmpiricalFrequencies counts ordinary states in the reference with
// Laplace (add-one) smoothing, used by model.ExtractRefInfo.
func (r *Reference) EmpiricalFrequencies() []float64 {
	n := r.Alphabet.NumStates()
	counts := make([]float64, n)
	for i := range counts {
		counts[i] = 1 // Laplace smoothing
	}
	for _, s := range r.States {
		counts[s]++
	}
	total := float64(len(r.States) + n)
	freqs := make([]float64, n)
	for i, c := range counts {
		freqs[i] = c / total
	}
	return freqs
}
