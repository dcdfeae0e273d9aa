package align

// kahanSum is a running compensated sum, used by LogLikelihood to keep
// per-position log-likelihood contributions from losing precision over a
// genome-length accumulation. Spec.md 4.1.2 requires "a numerically stable
// summation (Kahan or equivalent)"; gonum has no public Kahan-summation
// primitive to reuse, so this one is hand-rolled (see DESIGN.md).
type kahanSum struct {
	sum float64
	c   float64 // running compensation for lost low-order bits
}

func (k *kahanSum) add(x float64) {
	y := x - k.c
	t := k.sum + y
	k.c = (t - k.sum) - y
	k.sum = t
}

func (k *kahanSum) value() float64 {
	return k.sum
}
