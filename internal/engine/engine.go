package engine

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"maple/internal/align"
	"maple/internal/config"
	"maple/internal/model"
	"maple/internal/place"
	"maple/internal/ptree"
	"maple/internal/spr"
)

// Sample is one sequence to place: a name plus its mutation list against the
// reference, the "consumed from the parser" shape spec.md section 4 names.
type Sample struct {
	Name      string
	Mutations []align.Mutation
}

// Result summarizes one end-to-end run, for diagnostics (internal/mapleio
// renders these as CSV/plot output; the engine itself has no I/O
// dependency).
type Result struct {
	PlacedCount         int
	ModelReestimations  int
	SPRSweeps           int
	TotalSPRImprovement float64
	SweepImprovements   []float64
}

// Run builds the model from ref, places every sample in order, periodically
// re-estimating the mutation matrix from accumulated pseudocounts, then
// refines the placed tree with SPR sweeps until converged (spec.md's
// top-level narrative). The tree built so far is always returned, even on
// error, so a caller can still inspect or serialize partial progress
// (internal/engine deliberately stops short of writing it out itself — that
// stays a cmd/maple/internal/mapleio concern, per spec.md section 1's "CLI
// ... as external consumers of the core's output").
func Run(ref *align.Reference, samples []Sample, cfg config.Config) (*ptree.Tree, Result, error) {
	if len(samples) == 0 {
		return nil, Result{}, ErrEmptyInput
	}
	if err := cfg.Validate(); err != nil {
		return nil, Result{}, err
	}

	m := model.New(ref.Alphabet.NumStates())
	m.ExtractRefInfo(ref)
	if err := m.InitMutationMatrix(cfg.ModelName); err != nil {
		return nil, Result{}, err
	}
	m.ComputeCumulativeRate(ref)

	regions, err := buildRegionLists(ref, samples)
	if err != nil {
		return nil, Result{}, err
	}

	tree := ptree.New(ref, m)
	var result Result

	tree.NewSingleLeaf(samples[0].Name, regions[0])
	if err := tree.RefreshAllLowerLhs(); err != nil {
		return tree, result, err
	}
	if err := tree.RefreshAllNonLowerLhs(); err != nil {
		return tree, result, err
	}
	result.PlacedCount = 1

	for i := 1; i < len(samples); i++ {
		p, err := place.SeekSamplePlacement(tree, regions[i], cfg)
		if err != nil {
			return tree, result, fmt.Errorf("placing %q: %w", samples[i].Name, err)
		}
		m.UpdatePseudocount(ref, tree.Lower(p.Node), regions[i])
		if err := place.PlaceNewSample(tree, p, regions[i], samples[i].Name, cfg); err != nil {
			return tree, result, fmt.Errorf("grafting %q: %w", samples[i].Name, err)
		}
		result.PlacedCount++

		if result.PlacedCount%cfg.PseudocountUpdateInterval == 0 {
			reestimateModel(m, ref, &result)
		}
	}
	reestimateModel(m, ref, &result)

	// Driven here rather than via spr.RunUntilConverged so each sweep's
	// improvement can be recorded for diagnostics (spec.md 4.4's full-sweep
	// driver, expanded per SPEC_FULL.md 4.4 to emit one point per sweep).
	tree.SetAllOutdated()
	for sweep := 1; sweep <= cfg.MaxSPRSweeps; sweep++ {
		improvement, err := spr.ImproveEntireTree(tree, cfg)
		if err != nil {
			return tree, result, fmt.Errorf("SPR refinement, sweep %d: %w", sweep, err)
		}
		result.SPRSweeps = sweep
		result.TotalSPRImprovement += improvement
		result.SweepImprovements = append(result.SweepImprovements, improvement)
		if improvement < cfg.MinTotalImprovement {
			break
		}
		tree.SetAllOutdated()
	}
	return tree, result, nil
}

// reestimateModel re-estimates the mutation matrix from pseudocounts
// accumulated so far, logging and continuing (rather than failing the run)
// on ModelSingularity — the model just keeps using its previous Q until
// enough further evidence accumulates, matching spec.md section 7's
// "recovered by falling back" policy for this error kind.
func reestimateModel(m *model.Model, ref *align.Reference, result *Result) {
	if err := m.UpdateMutationMatrixEmpirical(ref); err != nil {
		log.Printf("model re-estimation skipped: %s", err)
		return
	}
	result.ModelReestimations++
}

// buildRegionLists constructs every sample's RegionList before any of them
// touch the tree, in parallel across disjoint slice indices — the one place
// spec.md section 5 calls out as safe and useful to parallelize. Grounded on
// camus's internal/score/penalty.go (errgroup.WithContext + g.SetLimit +
// writes to disjoint slice indices, no shared mutable state).
func buildRegionLists(ref *align.Reference, samples []Sample) ([]*align.RegionList, error) {
	regions := make([]*align.RegionList, len(samples))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range samples {
		g.Go(func() error {
			rl, err := align.FromMutations(samples[i].Mutations, ref.Len())
			if err != nil {
				return fmt.Errorf("building region list for %q: %w", samples[i].Name, err)
			}
			regions[i] = rl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return regions, nil
}
