package sequence

import (
	"math/rand"
	"testing"

	"neopallium/internal/region"
)

func testSpec() region.Spec {
	return region.Spec{
		ColumnCount:         10,
		Depth:               4,
		NewSynapseCount:     5,
		ActivationThreshold: 4,
		MinThreshold:        3,
		InitialPerm:         0.3,
		ConnectedPerm:       0.5,
		PermanenceInc:       0.1,
		PermanenceDec:       0.05,
	}
}

func testRegion(t *testing.T, spec region.Spec) *region.Region {
	t.Helper()
	r, err := region.NewRegion(spec, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("new region: %v", err)
	}
	return r
}

func cells(ids ...region.CellID) region.CellSet {
	set := make(region.CellSet, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func wireSegment(targets map[region.CellID]float64) region.Segment {
	syns := make(map[region.CellID]float64, len(targets))
	for id, perm := range targets {
		syns[id] = perm
	}
	return region.Segment{Synapses: syns}
}

func TestSegmentActivationCountsConnectedActiveOnly(t *testing.T) {
	seg := wireSegment(map[region.CellID]float64{
		{Column: 1, Index: 0}: 0.6, // active, connected
		{Column: 1, Index: 1}: 0.6, // inactive, connected
		{Column: 2, Index: 0}: 0.4, // active, below threshold
		{Column: 2, Index: 1}: 0.5, // active, exactly at threshold
	})
	active := cells(
		region.CellID{Column: 1, Index: 0},
		region.CellID{Column: 2, Index: 0},
		region.CellID{Column: 2, Index: 1},
	)

	if got := SegmentActivation(seg, active, 0.5); got != 2 {
		t.Fatalf("expected activation 2, got %d", got)
	}
	if got := SegmentActivation(seg, nil, 0.5); got != 0 {
		t.Fatalf("expected activation 0 with no context, got %d", got)
	}
}

func TestCellPredictiveRequiresThreshold(t *testing.T) {
	spec := testSpec()
	spec.ActivationThreshold = 2
	active := cells(
		region.CellID{Column: 1, Index: 0},
		region.CellID{Column: 1, Index: 1},
	)

	below := region.Cell{ID: region.CellID{Column: 0, Index: 0}, Segments: []region.Segment{
		wireSegment(map[region.CellID]float64{{Column: 1, Index: 0}: 0.6}),
	}}
	if CellPredictive(below, active, spec) {
		t.Fatal("one connected active synapse must not reach threshold 2")
	}

	at := region.Cell{ID: region.CellID{Column: 0, Index: 0}, Segments: []region.Segment{
		wireSegment(map[region.CellID]float64{{Column: 1, Index: 0}: 0.3}),
		wireSegment(map[region.CellID]float64{
			{Column: 1, Index: 0}: 0.6,
			{Column: 1, Index: 1}: 0.6,
		}),
	}}
	if !CellPredictive(at, active, spec) {
		t.Fatal("a segment meeting the threshold must make the cell predictive")
	}
}

func TestActiveCellsByColumnPredictedAndBursting(t *testing.T) {
	spec := testSpec()
	spec.ActivationThreshold = 2
	spec.MinThreshold = 1
	spec.NewSynapseCount = 2
	r := testRegion(t, spec)

	prev := cells(
		region.CellID{Column: 0, Index: 0},
		region.CellID{Column: 0, Index: 1},
	)
	// Column 1, cell 2 predicts the context; column 5 has no wiring.
	r.Columns[1].Cells[2].Segments = []region.Segment{
		wireSegment(map[region.CellID]float64{
			{Column: 0, Index: 0}: 0.6,
			{Column: 0, Index: 1}: 0.7,
		}),
	}

	activations, err := ActiveCellsByColumn(r, []int{5, 1}, prev)
	if err != nil {
		t.Fatalf("active cells by column: %v", err)
	}
	if len(activations) != 2 {
		t.Fatalf("expected 2 column activations, got %d", len(activations))
	}

	// Sorted by column id.
	predicted := activations[0]
	if predicted.Column != 1 || predicted.Bursting {
		t.Fatalf("column 1 should be predicted: %+v", predicted)
	}
	if len(predicted.Cells) != 1 || predicted.Cells[0] != (region.CellID{Column: 1, Index: 2}) {
		t.Fatalf("column 1 active cells should be the predictive cell only: %v", predicted.Cells)
	}

	burst := activations[1]
	if burst.Column != 5 || !burst.Bursting {
		t.Fatalf("column 5 should burst: %+v", burst)
	}
	if len(burst.Cells) != spec.Depth {
		t.Fatalf("bursting column should activate all %d cells, got %d", spec.Depth, len(burst.Cells))
	}
}

func TestActiveCellsByColumnRejectsOutOfRange(t *testing.T) {
	r := testRegion(t, testSpec())
	if _, err := ActiveCellsByColumn(r, []int{0, 99}, nil); err == nil {
		t.Fatal("expected out-of-range column error")
	}
	if _, err := ActiveCellsByColumn(r, []int{-1}, nil); err == nil {
		t.Fatal("expected negative column error")
	}
}

func TestNormalizeColumnsSortsAndDedupes(t *testing.T) {
	r := testRegion(t, testSpec())
	got, err := NormalizeColumns(r, []int{5, 2, 5, 0, 2})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []int{0, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
