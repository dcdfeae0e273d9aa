package model

import "fmt"

// gtrPairs enumerates the six unordered DNA state pairs GTR parameterizes by a
// single exchangeability each: AC, AG, AT, CG, CT, GT (indices into the DNA
// alphabet: A=0, C=1, G=2, T=3).
var gtrPairs = [6][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}

// InitMutationMatrix initializes Q from a named preset (spec.md 4.2). Every
// preset starts from uniform parameters, since there is no data before the
// first empirical re-estimation: "JC" sets every off-diagonal rate to
// 1/(n-1), "GTR" sets every exchangeability to 1 and scales by the target
// state's root frequency, and "UNREST" sets every off-diagonal rate to 1.
// UpdateMutationMatrixEmpirical re-estimates every off-diagonal entry from
// pseudocounts the same way whichever preset was chosen.
func (m *Model) InitMutationMatrix(preset string) error {
	m.Name = preset
	switch preset {
	case "JC":
		m.initJC()
	case "GTR":
		m.initGTR(uniformExchangeabilities(len(gtrPairs)))
	case "UNREST":
		m.initUnrest(uniformRates(m.n))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
	return nil
}

func uniformExchangeabilities(k int) []float64 {
	ex := make([]float64, k)
	for i := range ex {
		ex[i] = 1
	}
	return ex
}

func uniformRates(n int) [][]float64 {
	r := make([][]float64, n)
	for i := range r {
		r[i] = make([]float64, n)
		for j := range r[i] {
			if i != j {
				r[i][j] = 1
			}
		}
	}
	return r
}

// initJC gives every off-diagonal rate the same value, independent of root
// frequencies.
func (m *Model) initJC() {
	mu := 1.0 / float64(m.n-1)
	for i := 0; i < m.n; i++ {
		var rowSum float64
		for j := 0; j < m.n; j++ {
			if i == j {
				continue
			}
			m.Q.Set(i, j, mu)
			rowSum += mu
		}
		m.Q.Set(i, i, -rowSum)
	}
	m.refreshQt()
}

// initGTR builds a symmetric exchangeability matrix from the six pair
// parameters and scales each off-diagonal entry by the target state's root
// frequency: Q[i][j] = exchange[i][j] * root_freqs[j].
func (m *Model) initGTR(exchange []float64) {
	ex := make([][]float64, m.n)
	for i := range ex {
		ex[i] = make([]float64, m.n)
	}
	for k, pair := range gtrPairs {
		ex[pair[0]][pair[1]] = exchange[k]
		ex[pair[1]][pair[0]] = exchange[k]
	}
	m.setFromExchangeability(ex)
}

// initUnrest treats each of the n*(n-1) off-diagonal rates as independent.
func (m *Model) initUnrest(rates [][]float64) {
	for i := 0; i < m.n; i++ {
		var rowSum float64
		for j := 0; j < m.n; j++ {
			if i == j {
				continue
			}
			m.Q.Set(i, j, rates[i][j])
			rowSum += rates[i][j]
		}
		m.Q.Set(i, i, -rowSum)
	}
	m.refreshQt()
}

func (m *Model) setFromExchangeability(ex [][]float64) {
	freqs := m.rootFreqs
	if freqs == nil {
		freqs = uniformFreqs(m.n)
	}
	for i := 0; i < m.n; i++ {
		var rowSum float64
		for j := 0; j < m.n; j++ {
			if i == j {
				continue
			}
			rate := ex[i][j] * freqs[j]
			m.Q.Set(i, j, rate)
			rowSum += rate
		}
		m.Q.Set(i, i, -rowSum)
	}
	m.refreshQt()
}

func uniformFreqs(n int) []float64 {
	f := make([]float64, n)
	for i := range f {
		f[i] = 1.0 / float64(n)
	}
	return f
}

func (m *Model) refreshQt() {
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			m.Qt.Set(j, i, m.Q.At(i, j))
		}
	}
}
