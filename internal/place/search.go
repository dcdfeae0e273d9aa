// Package place implements spec.md 4.3.1-4.3.2: the best-first descent that
// finds a sample's optimal attachment point, and the tree edit that grafts
// it there.
package place

import "maple/internal/config"

// maximize1D finds the t in [lo,hi] that maximizes f using golden-section
// search, bounded by cfg's iteration count and tolerance (spec.md 4.3.1:
// "golden-section or 3-point parabolic, bounded iterations <= 20, tolerance
// 1e-7"). f is assumed unimodal over [lo,hi], which holds for the
// log-likelihood-vs-branch-fraction curves this optimizer is applied to at
// the branch lengths this engine targets.
func maximize1D(f func(float64) float64, lo, hi float64, cfg config.Config) (t, value float64) {
	const invPhi = 0.6180339887498949 // 1/phi
	if hi <= lo {
		v := f(lo)
		return lo, v
	}
	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc := f(c)
	fd := f(d)
	for i := 0; i < cfg.LineSearchMaxIterations && (b-a) > cfg.LineSearchTolerance; i++ {
		if fc > fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	if fc > fd {
		return c, fc
	}
	return d, fd
}
