package mapleio

import (
	"bytes"
	"strings"
	"testing"

	"maple/internal/align"
	"maple/internal/model"
	"maple/internal/ptree"
)

func TestReadMapleParsesReferenceAndSamples(t *testing.T) {
	input := ">ref\n" +
		"ACGTACGTAC\n" +
		">A\n" +
		">B\n" +
		"T 2\n" +
		"N 8 2\n"
	ref, samples, err := ReadMaple(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadMaple: %v", err)
	}
	if ref.Len() != 10 {
		t.Fatalf("expected reference length 10, got %d", ref.Len())
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Name != "A" || len(samples[0].Mutations) != 0 {
		t.Fatalf("sample A should have no mutations, got %+v", samples[0])
	}
	if samples[1].Name != "B" || len(samples[1].Mutations) != 2 {
		t.Fatalf("sample B should have 2 mutations, got %+v", samples[1])
	}
	if samples[1].Mutations[0].Type != align.TypeState || samples[1].Mutations[0].Position != 1 {
		t.Fatalf("expected state mutation at 0-based position 1, got %+v", samples[1].Mutations[0])
	}
	if samples[1].Mutations[1].Type != align.TypeN || samples[1].Mutations[1].Position != 7 || samples[1].Mutations[1].Length != 2 {
		t.Fatalf("expected N run at 0-based position 7 length 2, got %+v", samples[1].Mutations[1])
	}
}

func TestReadMapleRejectsUnknownCode(t *testing.T) {
	input := ">ref\nACGT\n>A\nZ 1\n"
	if _, _, err := ReadMaple(strings.NewReader(input)); err == nil {
		t.Fatal("expected an error for an unrecognized mutation code")
	}
}

func TestNewickRoundTripPreservesBranchLengths(t *testing.T) {
	states := make([]int, 20)
	ref, err := align.NewReference(align.DNA, states)
	if err != nil {
		t.Fatalf("NewReference: %v", err)
	}
	m := model.New(4)
	m.ExtractRefInfo(ref)
	if err := m.InitMutationMatrix("JC"); err != nil {
		t.Fatalf("InitMutationMatrix: %v", err)
	}
	tree := ptree.New(ref, m)
	a, err := align.FromMutations(nil, 20)
	if err != nil {
		t.Fatalf("FromMutations: %v", err)
	}
	leafA := tree.NewSingleLeaf("A", a)
	b, err := align.FromMutations([]align.Mutation{{Type: align.TypeState, State: 1, Position: 5, Length: 1}}, 20)
	if err != nil {
		t.Fatalf("FromMutations: %v", err)
	}
	tree.Splice(leafA, 0, 0.01, b, "B", 0.02)

	var buf bytes.Buffer
	if err := WriteNewick(tree, &buf); err != nil {
		t.Fatalf("WriteNewick: %v", err)
	}
	lengths, err := ReadNewickBranchLengths(buf.String())
	if err != nil {
		t.Fatalf("ReadNewickBranchLengths: %v", err)
	}
	if len(lengths) != 2 {
		t.Fatalf("expected 2 branch lengths, got %v", lengths)
	}
}
