package sequence

import (
	"math/rand"
	"sort"

	"neopallium/internal/region"
)

// MostActiveSegment returns the index and activation of the cell's most
// active segment under ConnectedPerm. Ties go to the lowest index. A cell
// with no segments yields (-1, 0).
func MostActiveSegment(cell region.Cell, active region.CellSet, spec region.Spec) (int, int) {
	bestIdx, bestActivation := -1, 0
	for si := range cell.Segments {
		activation := SegmentActivation(cell.Segments[si], active, spec.ConnectedPerm)
		if bestIdx == -1 || activation > bestActivation {
			bestIdx, bestActivation = si, activation
		}
	}
	if bestIdx == -1 {
		return -1, 0
	}
	return bestIdx, bestActivation
}

// BestMatch identifies where a bursting column should learn: an existing
// segment to extend (SegmentIndex >= 0) or a cell to grow a fresh segment on
// (SegmentIndex == -1).
type BestMatch struct {
	CellIndex    int
	SegmentIndex int
	Activation   int
}

// BestMatchingSegmentAndCell scans the column for the cell/segment pair with
// the globally maximal activation, lowest cell then segment index winning
// ties. If that activation reaches MinThreshold the pair is returned;
// otherwise the cell with the fewest segments (lowest index on ties) is
// returned with no segment, signalling that a new segment should be grown.
func BestMatchingSegmentAndCell(col region.Column, active region.CellSet, spec region.Spec) BestMatch {
	best := BestMatch{CellIndex: -1, SegmentIndex: -1}
	for xi := range col.Cells {
		si, activation := MostActiveSegment(col.Cells[xi], active, spec)
		if si == -1 {
			continue
		}
		if best.CellIndex == -1 || activation > best.Activation {
			best = BestMatch{CellIndex: xi, SegmentIndex: si, Activation: activation}
		}
	}
	if best.CellIndex != -1 && best.Activation >= spec.MinThreshold {
		return best
	}

	fewest := 0
	for xi := 1; xi < len(col.Cells); xi++ {
		if len(col.Cells[xi].Segments) < len(col.Cells[fewest].Segments) {
			fewest = xi
		}
	}
	return BestMatch{CellIndex: fewest, SegmentIndex: -1}
}

// ReinforceSegment applies the Hebbian update against the active set:
// synapses onto active cells gain PermanenceInc, all others lose
// PermanenceDec, clamped to [0,1].
func ReinforceSegment(seg *region.Segment, active region.CellSet, spec region.Spec) {
	for target, perm := range seg.Synapses {
		if active[target] {
			seg.Synapses[target] = region.ClampPermanence(perm + spec.PermanenceInc)
		} else {
			seg.Synapses[target] = region.ClampPermanence(perm - spec.PermanenceDec)
		}
	}
}

// GrowSynapses adds up to n synapses at InitialPerm, targeting active cells
// outside the host column that the segment does not already reach. Selection
// order is randomized; fewer than n eligible targets is not an error.
func GrowSynapses(seg *region.Segment, columnID int, active region.CellSet, n int, spec region.Spec, rng *rand.Rand) {
	if n <= 0 {
		return
	}
	rng = region.EnsureRNG(rng)

	candidates := eligibleTargets(seg, columnID, active)
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	if seg.Synapses == nil {
		seg.Synapses = make(map[region.CellID]float64, n)
	}
	for _, target := range candidates[:n] {
		seg.Synapses[target] = spec.InitialPerm
	}
}

// GrowSegment appends a brand-new segment to the cell, wired toward
// NewSynapseCount targets. Targets come from the active set first; when the
// context cannot supply enough (notably the very first step, with no prior
// active cells at all), region.TopUpSynapses fills the remainder uniformly
// from the rest of the region so the segment still reaches its full size.
// The host column is always excluded.
func GrowSegment(cell *region.Cell, active region.CellSet, spec region.Spec, rng *rand.Rand) {
	rng = region.EnsureRNG(rng)

	seg := region.Segment{Synapses: make(map[region.CellID]float64, spec.NewSynapseCount)}
	GrowSynapses(&seg, cell.ID.Column, active, spec.NewSynapseCount, spec, rng)
	region.TopUpSynapses(&seg, cell.ID.Column, spec.NewSynapseCount, spec, rng)

	cell.Segments = append(cell.Segments, seg)
}

// ExtendSegment reinforces the segment against the active set, then tops up
// its synapse count: new synapses are grown toward NewSynapseCount minus the
// segment's current connected-active count, rather than a full fresh batch.
func ExtendSegment(seg *region.Segment, columnID int, active region.CellSet, spec region.Spec, rng *rand.Rand) {
	ReinforceSegment(seg, active, spec)
	connected := SegmentActivation(*seg, active, spec.ConnectedPerm)
	GrowSynapses(seg, columnID, active, spec.NewSynapseCount-connected, spec, rng)
}

// learnBurstingColumn teaches a surprised column a predictive pathway from
// the prior step's context: extend the best-matching segment when one clears
// MinThreshold, otherwise grow a new segment on the least-committed cell.
func learnBurstingColumn(col *region.Column, prev region.CellSet, spec region.Spec, rng *rand.Rand) {
	match := BestMatchingSegmentAndCell(*col, prev, spec)
	if match.SegmentIndex >= 0 {
		cell := &col.Cells[match.CellIndex]
		ExtendSegment(&cell.Segments[match.SegmentIndex], col.ID, prev, spec, rng)
		return
	}
	GrowSegment(&col.Cells[match.CellIndex], prev, spec, rng)
}

// learnPredictedColumn credits a correct prediction: one of the column's
// currently-active cells is chosen uniformly at random and only its most
// active segment against the prior context is reinforced.
func learnPredictedColumn(col *region.Column, active, prev region.CellSet, spec region.Spec, rng *rand.Rand) {
	rng = region.EnsureRNG(rng)

	var firing []int
	for xi := range col.Cells {
		if active[col.Cells[xi].ID] {
			firing = append(firing, xi)
		}
	}
	if len(firing) == 0 {
		return
	}
	cell := &col.Cells[firing[rng.Intn(len(firing))]]
	si, _ := MostActiveSegment(*cell, prev, spec)
	if si < 0 {
		return
	}
	ReinforceSegment(&cell.Segments[si], prev, spec)
}

// Learn applies one step of learning to every active column: bursting
// columns learn from the prior context, predicted columns reinforce the
// segment that predicted them. Columns outside activeColumns are untouched.
func Learn(r *region.Region, activeColumns []int, active, prev region.CellSet, bursting region.ColumnSet, rng *rand.Rand) error {
	columns, err := NormalizeColumns(r, activeColumns)
	if err != nil {
		return err
	}
	rng = region.EnsureRNG(rng)

	for _, id := range columns {
		col := &r.Columns[id]
		if bursting[id] {
			learnBurstingColumn(col, prev, r.Spec, rng)
		} else {
			learnPredictedColumn(col, active, prev, r.Spec, rng)
		}
	}
	return nil
}

// eligibleTargets lists active cells outside columnID that seg does not
// already target, in (column, index) order so that shuffles driven by a
// seeded RNG are reproducible despite map iteration randomness.
func eligibleTargets(seg *region.Segment, columnID int, active region.CellSet) []region.CellID {
	out := make([]region.CellID, 0, len(active))
	for id := range active {
		if id.Column == columnID {
			continue
		}
		if _, exists := seg.Synapses[id]; exists {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Column != out[j].Column {
			return out[i].Column < out[j].Column
		}
		return out[i].Index < out[j].Index
	})
	return out
}
