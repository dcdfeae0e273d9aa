package align

import "testing"

func TestDNAIndexOf(t *testing.T) {
	cases := map[byte]int{'A': 0, 'C': 1, 'G': 2, 'T': 3, 'a': 0, 't': 3}
	for b, want := range cases {
		got, ok := DNA.IndexOf(b)
		if !ok || got != want {
			t.Fatalf("IndexOf(%q) = %d,%v want %d,true", b, got, ok, want)
		}
	}
	if _, ok := DNA.IndexOf('N'); ok {
		t.Fatalf("IndexOf('N') should not resolve to an ordinary state")
	}
}

func TestDNAAmbiguous(t *testing.T) {
	lh, ok := DNA.Ambiguous('R')
	if !ok {
		t.Fatalf("expected R to be a recognized ambiguity code")
	}
	if lh[0] != 0.5 || lh[2] != 0.5 || lh[1] != 0 || lh[3] != 0 {
		t.Fatalf("R should indicate {A,G} evenly, got %v", lh)
	}
}

func TestDNAIsGap(t *testing.T) {
	if !DNA.IsGap('-') {
		t.Fatalf("'-' should be treated as a gap")
	}
	if DNA.IsGap('A') {
		t.Fatalf("'A' should not be treated as a gap")
	}
}

func TestReferenceEmpiricalFrequenciesSumToOne(t *testing.T) {
	ref := refAllZero(20)
	freqs := ref.EmpiricalFrequencies()
	var total float64
	for _, f := range freqs {
		total += f
	}
	if total < 0.999 || total > 1.001 {
		t.Fatalf("frequencies should sum to ~1, got %v (%v)", total, freqs)
	}
}
