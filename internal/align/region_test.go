package align

import "testing"

func TestFromMutationsFillsImplicitReferenceRuns(t *testing.T) {
	rl := mustList(t, []Mutation{{Type: TypeState, State: 2, Position: 5, Length: 1}}, 10)
	if rl.Length != 10 {
		t.Fatalf("length = %d, want 10", rl.Length)
	}
	if err := rl.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if rl.Regions[len(rl.Regions)-1].End != 9 {
		t.Fatalf("last region should end at 9, got %d", rl.Regions[len(rl.Regions)-1].End)
	}
}

func TestFromMutationsEmptyReferenceRejected(t *testing.T) {
	if _, err := FromMutations(nil, 0); err == nil {
		t.Fatalf("expected error for zero-length reference")
	}
}

func TestFromMutationsOverlapRejected(t *testing.T) {
	muts := []Mutation{
		{Type: TypeState, State: 0, Position: 2, Length: 3},
		{Type: TypeState, State: 1, Position: 3, Length: 1},
	}
	if _, err := FromMutations(muts, 10); err == nil {
		t.Fatalf("expected error for overlapping mutations")
	}
}

func TestCoalesceMergesAdjacentIdenticalRegions(t *testing.T) {
	regions := []Region{
		newRefRegion(2, absent, absent),
		newRefRegion(5, absent, absent),
		newStateRegion(1, 6, absent, absent),
	}
	out := coalesce(regions)
	if len(out) != 2 {
		t.Fatalf("expected coalesce to merge the two R regions, got %d regions: %+v", len(out), out)
	}
	if out[0].End != 5 {
		t.Fatalf("merged R region should end at 5, got %d", out[0].End)
	}
}

func TestValidateRejectsOWithoutLikelihood(t *testing.T) {
	rl := &RegionList{Regions: []Region{{Type: TypeOther, End: 3}}, Length: 4}
	if err := rl.Validate(); err == nil {
		t.Fatalf("expected error for O region missing likelihood")
	}
}

func TestValidateRejectsNonIncreasingEnds(t *testing.T) {
	rl := &RegionList{Regions: []Region{
		newRefRegion(3, absent, absent),
		newRefRegion(3, absent, absent),
	}, Length: 4}
	if err := rl.Validate(); err == nil {
		t.Fatalf("expected error for non-increasing ends")
	}
}

// TestORegionLikelihoodSumsToOne checks invariant I2's probability-vector
// half: merging two distinct, non-collapsing states produces an O region
// whose Likelihood sums to 1 within tolerance.
func TestORegionLikelihoodSumsToOne(t *testing.T) {
	ref := refAllZero(5)
	m := newTestModel()
	a := mustList(t, []Mutation{{Type: TypeState, State: 0, Position: 1, Length: 1}}, 5)
	b := mustList(t, []Mutation{{Type: TypeState, State: 1, Position: 1, Length: 1}}, 5)
	out, err := MergeUpperLower(a, 0.3, b, 0.3, ref, m)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	found := false
	for _, r := range out.Regions {
		if r.Type != TypeOther {
			continue
		}
		found = true
		var sum float64
		for _, p := range r.Likelihood {
			sum += p
		}
		if diff := sum - 1; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("O region likelihood sums to %v, want 1: %+v", sum, r.Likelihood)
		}
	}
	if !found {
		t.Fatalf("expected merge of two distinct states to produce an O region, got %+v", out.Regions)
	}
	if err := out.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

// TestValidateRejectsUnnormalizedOLikelihood confirms Validate actually
// enforces the sum-to-one check rather than merely accepting any vector.
func TestValidateRejectsUnnormalizedOLikelihood(t *testing.T) {
	rl := &RegionList{Regions: []Region{
		{Type: TypeOther, End: 3, Likelihood: []float64{0.5, 0.5, 0.5, 0.5}},
	}, Length: 4}
	if err := rl.Validate(); err == nil {
		t.Fatalf("expected error for O region likelihood not summing to 1")
	}
}
