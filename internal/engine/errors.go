// Package engine wires internal/align, internal/model, internal/ptree,
// internal/place, and internal/spr into the one end-to-end driver spec.md
// describes in prose: build the model, place every sample, periodically
// re-estimate the mutation matrix, then refine by SPR until converged.
package engine

import "errors"

// ErrEmptyInput marks a Run call with no samples to place, distinct from
// internal/align.ErrEmptyInput (which guards reference/region construction
// further down the stack).
var ErrEmptyInput = errors.New("engine: no samples to place")
