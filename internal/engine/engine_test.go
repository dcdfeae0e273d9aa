package engine

import (
	"testing"

	"maple/internal/align"
	"maple/internal/config"
)

func testReference(t *testing.T, length int) *align.Reference {
	t.Helper()
	states := make([]int, length)
	ref, err := align.NewReference(align.DNA, states)
	if err != nil {
		t.Fatalf("NewReference: %v", err)
	}
	return ref
}

func TestRunRejectsEmptySampleSet(t *testing.T) {
	ref := testReference(t, 20)
	cfg := config.Default().WithGenomeLength(20)
	if _, _, err := Run(ref, nil, cfg); err != ErrEmptyInput {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestRunPlacesAllSamplesAndRefines(t *testing.T) {
	const length = 300
	ref := testReference(t, length)
	cfg := config.Default().WithGenomeLength(length)

	samples := []Sample{
		{Name: "A"},
		{Name: "B", Mutations: []align.Mutation{{Type: align.TypeState, State: 2, Position: 10, Length: 1}}},
		{Name: "C", Mutations: []align.Mutation{{Type: align.TypeState, State: 1, Position: 90, Length: 1}}},
		{Name: "D", Mutations: []align.Mutation{{Type: align.TypeState, State: 3, Position: 150, Length: 1}}},
		{Name: "E", Mutations: []align.Mutation{{Type: align.TypeN, Position: 200, Length: 10}}},
	}

	tree, result, err := Run(ref, samples, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.PlacedCount != len(samples) {
		t.Fatalf("expected %d placed samples, got %d", len(samples), result.PlacedCount)
	}
	if len(tree.Leaves()) != len(samples) {
		t.Fatalf("expected %d leaves, got %d", len(samples), len(tree.Leaves()))
	}
	if result.SPRSweeps < 1 {
		t.Fatalf("expected at least one SPR sweep, got %d", result.SPRSweeps)
	}
	names := map[string]bool{}
	for _, leaf := range tree.Leaves() {
		names[tree.SampleName(leaf)] = true
	}
	for _, s := range samples {
		if !names[s.Name] {
			t.Fatalf("missing leaf %q after Run", s.Name)
		}
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	ref := testReference(t, 20)
	cfg := config.Default().WithGenomeLength(20)
	cfg.MaxBlength = cfg.MinBlength // now invalid
	samples := []Sample{{Name: "A"}}
	if _, _, err := Run(ref, samples, cfg); err == nil {
		t.Fatal("expected an error from an invalid config")
	}
}
