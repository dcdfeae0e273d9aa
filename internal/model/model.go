// Package model holds the substitution-rate model: root frequencies, the
// rate matrix Q (and its transpose), the pseudocount accumulator, and the
// operations that derive and periodically re-estimate them from data.
package model

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"maple/internal/align"
)

// Model is the mutable substitution model shared by every placement and
// log-likelihood query. It satisfies align.RateModel, so internal/align
// never needs to import this package.
type Model struct {
	Name string

	n            int
	rootFreqs    []float64
	rootLogFreqs []float64

	Q  *mat.Dense // n x n rate matrix, rows sum to 0.
	Qt *mat.Dense // transpose of Q, cached for reverse-direction queries.

	Pseudocount *mat.Dense // n x n mutation counts accumulated between re-estimations.
}

// New allocates an empty n-state model. Callers must follow with
// ExtractRefInfo and InitMutationMatrix before using it.
func New(n int) *Model {
	return &Model{
		n:           n,
		Q:           mat.NewDense(n, n, nil),
		Qt:          mat.NewDense(n, n, nil),
		Pseudocount: mat.NewDense(n, n, nil),
	}
}

func (m *Model) NumStates() int          { return m.n }
func (m *Model) RootFreqs() []float64    { return m.rootFreqs }
func (m *Model) RootLogFreqs() []float64 { return m.rootLogFreqs }

// Rate returns Q[i][j] (or -rowSum for i==j).
func (m *Model) Rate(i, j int) float64 { return m.Q.At(i, j) }

// Evolve applies the first-order approximation (I + Q*t) to v, using
// gonum's dense matrix-vector product rather than a hand-rolled loop.
func (m *Model) Evolve(v []float64, t float64) []float64 {
	vecIn := mat.NewVecDense(len(v), append([]float64(nil), v...))
	var qv mat.VecDense
	qv.MulVec(m.Q, vecIn)
	out := make([]float64, len(v))
	for i := range out {
		out[i] = v[i] + t*qv.AtVec(i)
	}
	return out
}

// ExtractRefInfo sets root_freqs to the empirical base frequencies of the
// reference (Laplace-smoothed) and recomputes root_log_freqs (spec.md 4.2).
func (m *Model) ExtractRefInfo(ref *align.Reference) {
	m.rootFreqs = ref.EmpiricalFrequencies()
	m.rootLogFreqs = make([]float64, len(m.rootFreqs))
	for i, f := range m.rootFreqs {
		m.rootLogFreqs[i] = math.Log(f)
	}
}

// Snapshot captures the current Q/Qt so a failed re-estimation can be
// rolled back (spec.md section 7, ModelSingularity recovery). Pseudocount is
// deliberately not part of the snapshot: the counts that triggered a
// singular re-estimation are still valid evidence and keep accumulating
// toward the next attempt.
type Snapshot struct {
	q, qt *mat.Dense
}

func (m *Model) TakeSnapshot() Snapshot {
	return Snapshot{
		q:  mat.DenseCopyOf(m.Q),
		qt: mat.DenseCopyOf(m.Qt),
	}
}

func (m *Model) Restore(s Snapshot) {
	m.Q = s.q
	m.Qt = s.qt
}
