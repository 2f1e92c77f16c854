package sequence

import (
	"math/rand"
	"sync"

	"neopallium/internal/region"
)

// StepResult is the derived state produced by one sequence-memory step.
type StepResult struct {
	ActiveCells     region.CellSet
	BurstingColumns region.ColumnSet
	Activations     []ColumnActivation
}

// Stepper advances a region one timestep at a time. Workers controls how
// many goroutines run the per-column learning loop; per-column learning is
// independent within a step, so any value is safe. Each active column draws
// a child seed from the step RNG in sorted column order before workers
// start, so results are identical for a given seed at any worker count.
type Stepper struct {
	Workers int
}

// Step performs one transition: activation against the previous step's
// active cells, learning on the active columns, then installation of the new
// derived state. The step is atomic from the caller's perspective; an error
// (out-of-range column) leaves the region unmodified.
func (s Stepper) Step(r *region.Region, activeColumns []int, rng *rand.Rand) (StepResult, error) {
	rng = region.EnsureRNG(rng)

	prev := r.ActiveCells
	if prev == nil {
		prev = make(region.CellSet)
	}

	activations, err := ActiveCellsByColumn(r, activeColumns, prev)
	if err != nil {
		return StepResult{}, err
	}

	newActive := make(region.CellSet)
	bursting := make(region.ColumnSet)
	for _, act := range activations {
		for _, id := range act.Cells {
			newActive[id] = true
		}
		if act.Bursting {
			bursting[act.Column] = true
		}
	}

	s.learnColumns(r, activations, newActive, prev, bursting, rng)

	r.ActiveCells = newActive
	r.BurstingColumns = bursting
	return StepResult{
		ActiveCells:     newActive,
		BurstingColumns: bursting,
		Activations:     activations,
	}, nil
}

func (s Stepper) learnColumns(r *region.Region, activations []ColumnActivation, active, prev region.CellSet, bursting region.ColumnSet, rng *rand.Rand) {
	// Activations are already sorted by column id, so the seed draw order
	// is canonical.
	seeds := make([]int64, len(activations))
	for i := range activations {
		seeds[i] = rng.Int63()
	}

	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(activations) {
		workers = len(activations)
	}

	if workers <= 1 {
		for i, act := range activations {
			s.learnColumn(r, act, active, prev, bursting, seeds[i])
		}
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				s.learnColumn(r, activations[i], active, prev, bursting, seeds[i])
			}
		}()
	}
	for i := range activations {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

func (s Stepper) learnColumn(r *region.Region, act ColumnActivation, active, prev region.CellSet, bursting region.ColumnSet, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	col := &r.Columns[act.Column]
	if bursting[act.Column] {
		learnBurstingColumn(col, prev, r.Spec, rng)
	} else {
		learnPredictedColumn(col, active, prev, r.Spec, rng)
	}
}

// Step advances the region with a single-worker Stepper.
func Step(r *region.Region, activeColumns []int, rng *rand.Rand) (StepResult, error) {
	return Stepper{}.Step(r, activeColumns, rng)
}
