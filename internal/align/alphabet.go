// Package align holds the state alphabet, the reference sequence, and the
// region-list data structure together with its two fundamental algebraic
// operations: merge-along-a-branch and pairwise log-likelihood.
package align

import "fmt"

// Alphabet is the contract a concrete state set (DNA, eventually amino
// acids) must satisfy. Ordinary states are small integers in
// [0, NumStates); N, R, and O are not members of the ordinary state space
// and are represented on Region/Mutation by a separate Type tag instead.
type Alphabet interface {
	// Name identifies the alphabet, e.g. "dna".
	Name() string
	// NumStates is the number of ordinary states (4 for DNA).
	NumStates() int
	// Symbol returns the byte used to print ordinary state i.
	Symbol(i int) byte
	// IndexOf resolves an input byte to an ordinary state index. ok is
	// false for pseudo-states or unrecognized bytes.
	IndexOf(b byte) (state int, ok bool)
	// Ambiguous resolves a degenerate IUPAC code to the likelihood vector
	// the parser would attach to an O region; ok is false if b is not a
	// recognized ambiguity code (including ordinary states, N, and gap,
	// which are handled by IndexOf and IsGap instead).
	Ambiguous(b byte) (likelihood []float64, ok bool)
	// IsGap reports whether b is the gap/deletion character, which this
	// engine treats as N (see SPEC_FULL.md open question on indels).
	IsGap(b byte) bool
}

// dnaAlphabet is the only Alphabet implementation required by this spec;
// amino acids are a documented, unimplemented extension point.
type dnaAlphabet struct{}

// DNA is the 4-state nucleotide alphabet {A, C, G, T}.
var DNA Alphabet = dnaAlphabet{}

const dnaSymbols = "ACGT"

func (dnaAlphabet) Name() string     { return "dna" }
func (dnaAlphabet) NumStates() int   { return 4 }
func (dnaAlphabet) Symbol(i int) byte { return dnaSymbols[i] }

func (dnaAlphabet) IndexOf(b byte) (int, bool) {
	switch b {
	case 'A', 'a':
		return 0, true
	case 'C', 'c':
		return 1, true
	case 'G', 'g':
		return 2, true
	case 'T', 't', 'U', 'u':
		return 3, true
	default:
		return 0, false
	}
}

func (dnaAlphabet) IsGap(b byte) bool {
	return b == '-'
}

// dnaAmbiguityTable mirrors convertAmbiguiousStateDNA in
// original_source/alignment/seqregion.cpp: each entry is a 0/1 indicator
// over {A,C,G,T} that gets renormalized by computeLhAmbiguity.
var dnaAmbiguityTable = map[byte][4]float64{
	'R': {1, 0, 1, 0}, // puRine
	'Y': {0, 1, 0, 1}, // pYrimidine
	'W': {1, 0, 0, 1}, // Weak
	'S': {0, 1, 1, 0}, // Strong
	'M': {1, 1, 0, 0}, // aMino
	'K': {0, 0, 1, 1}, // Keto
	'B': {0, 1, 1, 1}, // not A
	'H': {1, 1, 0, 1}, // not G
	'D': {1, 0, 1, 1}, // not C
	'V': {1, 1, 1, 0}, // not T
}

func (dnaAlphabet) Ambiguous(b byte) ([]float64, bool) {
	entries, ok := dnaAmbiguityTable[upper(b)]
	if !ok {
		return nil, false
	}
	sum := entries[0] + entries[1] + entries[2] + entries[3]
	out := make([]float64, 4)
	for i, v := range entries {
		out[i] = v / sum
	}
	return out, true
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// formatState renders ordinary state i for error messages and Newick/debug
// output.
func formatState(a Alphabet, i int) string {
	if i < 0 || i >= a.NumStates() {
		return fmt.Sprintf("<state %d>", i)
	}
	return string(a.Symbol(i))
}
