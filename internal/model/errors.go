package model

import "errors"

var (
	// ErrModelSingularity marks a re-estimated rate matrix that failed a
	// sanity check (a non-finite entry, or a row whose off-diagonal rates
	// sum to zero). Recovered by falling back to the last good model
	// (spec.md section 7).
	ErrModelSingularity = errors.New("substitution model singularity")

	// ErrUnknownPreset marks an init_mutation_matrix request for a preset
	// other than {JC, GTR, UNREST}.
	ErrUnknownPreset = errors.New("unknown substitution model preset")
)
