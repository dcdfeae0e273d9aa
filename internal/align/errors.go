package align

import "errors"

var (
	// ErrNumericalUnderflow is returned by merge/log-likelihood operations
	// when the total probability mass collapses below the tolerance
	// (~1e-300). Per spec.md section 7 this is recovered locally: the
	// caller treats the candidate placement as infeasible and continues.
	ErrNumericalUnderflow = errors.New("numerical underflow")

	// ErrInvariantViolation marks a RegionList that fails coverage (I1) or
	// carries an O region without a likelihood vector (I2). Fatal per
	// spec.md section 7.
	ErrInvariantViolation = errors.New("region list invariant violation")

	// ErrEmptyInput marks a zero-length reference or empty sample set.
	// Fatal at startup per spec.md section 7.
	ErrEmptyInput = errors.New("empty input")
)

// underflowTolerance is the minimum total probability mass a merged or
// evaluated likelihood may carry before it is considered an underflow.
const underflowTolerance = 1e-300
