package align

import "math"

// testModel is a minimal Jukes-Cantor-style 4-state RateModel used to
// exercise merge and log-likelihood without depending on internal/model
// (which itself depends on this package).
type testModel struct {
	mu        float64
	freqs     []float64
	logFreqs  []float64
}

func newTestModel() *testModel {
	mu := 1.0
	freqs := []float64{0.25, 0.25, 0.25, 0.25}
	logFreqs := make([]float64, 4)
	for i, f := range freqs {
		logFreqs[i] = math.Log(f)
	}
	return &testModel{mu: mu, freqs: freqs, logFreqs: logFreqs}
}

func (m *testModel) NumStates() int          { return 4 }
func (m *testModel) RootFreqs() []float64    { return m.freqs }
func (m *testModel) RootLogFreqs() []float64 { return m.logFreqs }

func (m *testModel) Rate(i, j int) float64 {
	if i == j {
		return -3 * m.mu / 4
	}
	return m.mu / 4
}

func (m *testModel) Evolve(v []float64, t float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		var acc float64
		for j := range v {
			acc += m.Rate(i, j) * v[j]
		}
		out[i] = v[i] + t*acc
	}
	return out
}
