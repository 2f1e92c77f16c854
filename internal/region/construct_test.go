package region

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestRandomSegmentWiring(t *testing.T) {
	spec := validSpec()
	rng := rand.New(rand.NewSource(1))

	seg := RandomSegment(3, spec, rng)

	if len(seg.Synapses) != spec.NewSynapseCount {
		t.Fatalf("expected %d synapses, got %d", spec.NewSynapseCount, len(seg.Synapses))
	}
	for target, perm := range seg.Synapses {
		if target.Column == 3 {
			t.Fatalf("synapse targets host column: %+v", target)
		}
		if target.Column < 0 || target.Column >= spec.ColumnCount || target.Index < 0 || target.Index >= spec.Depth {
			t.Fatalf("target out of region bounds: %+v", target)
		}
		if perm != spec.InitialPerm {
			t.Fatalf("expected initial permanence %f, got %f", spec.InitialPerm, perm)
		}
	}
}

func TestRandomSegmentDegradesWhenRegionTooSmall(t *testing.T) {
	spec := validSpec()
	spec.ColumnCount = 2
	spec.Depth = 1
	spec.ActivationThreshold = 1
	spec.MinThreshold = 1
	rng := rand.New(rand.NewSource(1))

	// Only one eligible target exists outside the host column.
	seg := RandomSegment(0, spec, rng)
	if len(seg.Synapses) != 1 {
		t.Fatalf("expected sampling to degrade to 1 synapse, got %d", len(seg.Synapses))
	}
	if _, ok := seg.Synapses[CellID{Column: 1, Index: 0}]; !ok {
		t.Fatalf("expected the single eligible target, got %v", seg.Synapses)
	}
}

func TestTopUpSynapsesSkipsExistingAndHostColumn(t *testing.T) {
	spec := validSpec()
	spec.ColumnCount = 3
	spec.Depth = 1
	seg := Segment{Synapses: map[CellID]float64{{Column: 1, Index: 0}: 0.6}}

	TopUpSynapses(&seg, 0, 5, spec, rand.New(rand.NewSource(1)))

	// Only columns 1 and 2 are eligible, and column 1 is already wired.
	if len(seg.Synapses) != 2 {
		t.Fatalf("expected top-up to cap at the 2 eligible targets, got %d", len(seg.Synapses))
	}
	if got := seg.Synapses[CellID{Column: 1, Index: 0}]; got != 0.6 {
		t.Fatalf("existing synapse must be untouched, got %f", got)
	}
	if got := seg.Synapses[CellID{Column: 2, Index: 0}]; got != spec.InitialPerm {
		t.Fatalf("expected new synapse at initial permanence, got %f", got)
	}
}

func TestTopUpSynapsesNoopWhenSatisfied(t *testing.T) {
	spec := validSpec()
	seg := Segment{Synapses: map[CellID]float64{{Column: 1, Index: 0}: 0.6}}

	TopUpSynapses(&seg, 0, 1, spec, nil)

	if len(seg.Synapses) != 1 {
		t.Fatalf("satisfied segment must not grow, got %d synapses", len(seg.Synapses))
	}
}

func TestRandomSegmentSeededDeterminism(t *testing.T) {
	spec := validSpec()
	a := RandomSegment(0, spec, rand.New(rand.NewSource(7)))
	b := RandomSegment(0, spec, rand.New(rand.NewSource(7)))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different segments: %v vs %v", a, b)
	}
}

func TestNewRegionStructure(t *testing.T) {
	spec := validSpec()
	spec.InitSegmentCount = 2
	rng := rand.New(rand.NewSource(2))

	r, err := NewRegion(spec, rng)
	if err != nil {
		t.Fatalf("new region: %v", err)
	}

	if len(r.Columns) != spec.ColumnCount {
		t.Fatalf("expected %d columns, got %d", spec.ColumnCount, len(r.Columns))
	}
	for ci, col := range r.Columns {
		if col.ID != ci {
			t.Fatalf("column %d has id %d", ci, col.ID)
		}
		if len(col.Cells) != spec.Depth {
			t.Fatalf("column %d has %d cells, want %d", ci, len(col.Cells), spec.Depth)
		}
		for xi, cell := range col.Cells {
			if cell.ID != (CellID{Column: ci, Index: xi}) {
				t.Fatalf("cell id mismatch: %+v at column %d index %d", cell.ID, ci, xi)
			}
			if len(cell.Segments) != spec.InitSegmentCount {
				t.Fatalf("cell %+v has %d segments, want %d", cell.ID, len(cell.Segments), spec.InitSegmentCount)
			}
			for _, seg := range cell.Segments {
				for target := range seg.Synapses {
					if target.Column == ci {
						t.Fatalf("initial segment of %+v targets its own column", cell.ID)
					}
				}
			}
		}
	}
	if len(r.ActiveCells) != 0 || len(r.BurstingColumns) != 0 {
		t.Fatal("fresh region must start with empty derived state")
	}
}

func TestNewRegionRejectsInvalidSpec(t *testing.T) {
	spec := validSpec()
	spec.Depth = 0
	if _, err := NewRegion(spec, nil); err == nil {
		t.Fatal("expected construction to reject invalid spec")
	}
}

func TestRewireMergesAndRebuilds(t *testing.T) {
	spec := validSpec()
	r, err := NewRegion(spec, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("new region: %v", err)
	}
	r.ActiveCells[CellID{Column: 1, Index: 0}] = true

	depth := 2
	if err := r.Rewire(Overrides{Depth: &depth}, rand.New(rand.NewSource(4))); err != nil {
		t.Fatalf("rewire: %v", err)
	}

	if r.Spec.Depth != 2 {
		t.Fatalf("expected merged depth 2, got %d", r.Spec.Depth)
	}
	for ci, col := range r.Columns {
		if len(col.Cells) != 2 {
			t.Fatalf("column %d not rebuilt to new depth", ci)
		}
	}
	if len(r.ActiveCells) != 0 {
		t.Fatal("rewire must clear derived state")
	}

	bad := -1
	if err := r.Rewire(Overrides{Depth: &bad}, nil); err == nil {
		t.Fatal("expected rewire to reject invalid merged spec")
	}
}

func TestCloneIsDeep(t *testing.T) {
	spec := validSpec()
	spec.InitSegmentCount = 1
	r, err := NewRegion(spec, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("new region: %v", err)
	}

	clone := r.Clone()
	if !reflect.DeepEqual(r, clone) {
		t.Fatal("clone differs from original")
	}

	for target := range clone.Columns[0].Cells[0].Segments[0].Synapses {
		clone.Columns[0].Cells[0].Segments[0].Synapses[target] = 0.99
	}
	if reflect.DeepEqual(r.Columns[0].Cells[0].Segments[0], clone.Columns[0].Cells[0].Segments[0]) {
		t.Fatal("mutating the clone leaked into the original")
	}
}
