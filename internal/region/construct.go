package region

import (
	"math/rand"
	"time"
)

// sampleAttemptFactor bounds rejection sampling in RandomSegment. With a
// non-degenerate configuration the expected attempt count is far below the
// cap; with a degenerate one we stop and return fewer synapses.
const sampleAttemptFactor = 30

// EnsureRNG returns rng, or a time-seeded source when rng is nil.
func EnsureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// TopUpSynapses grows seg toward want synapses, drawing targets uniformly
// from the whole region at InitialPerm. The host column, existing targets,
// and duplicates are rejected; sampling is bounded by sampleAttemptFactor,
// so a region too small to supply want distinct targets yields fewer.
func TopUpSynapses(seg *Segment, columnID, want int, spec Spec, rng *rand.Rand) {
	eligible := (spec.ColumnCount - 1) * spec.Depth
	if want > eligible {
		want = eligible
	}
	if len(seg.Synapses) >= want {
		return
	}
	rng = EnsureRNG(rng)

	if seg.Synapses == nil {
		seg.Synapses = make(map[CellID]float64, want)
	}
	maxAttempts := sampleAttemptFactor * (want + 1)
	for attempts := 0; len(seg.Synapses) < want && attempts < maxAttempts; attempts++ {
		col := rng.Intn(spec.ColumnCount)
		if col == columnID {
			continue
		}
		target := CellID{Column: col, Index: rng.Intn(spec.Depth)}
		if _, exists := seg.Synapses[target]; exists {
			continue
		}
		seg.Synapses[target] = spec.InitialPerm
	}
}

// RandomSegment builds a segment for a cell in columnID, wired to
// NewSynapseCount distinct cells drawn uniformly from the whole region.
// When the region is too small to supply enough distinct targets the segment
// carries fewer synapses.
func RandomSegment(columnID int, spec Spec, rng *rand.Rand) Segment {
	want := spec.NewSynapseCount
	if want < 0 {
		want = 0
	}
	seg := Segment{Synapses: make(map[CellID]float64, want)}
	TopUpSynapses(&seg, columnID, want, spec, rng)
	return seg
}

// InitCell builds the cell at position idx of columnID with
// InitSegmentCount randomly wired segments.
func InitCell(idx, columnID int, spec Spec, rng *rand.Rand) Cell {
	rng = EnsureRNG(rng)
	cell := Cell{
		ID:       CellID{Column: columnID, Index: idx},
		Segments: make([]Segment, 0, spec.InitSegmentCount),
	}
	for i := 0; i < spec.InitSegmentCount; i++ {
		cell.Segments = append(cell.Segments, RandomSegment(columnID, spec, rng))
	}
	return cell
}

// NewRegion validates spec and builds a region with ColumnCount columns of
// Depth cells each. Active and bursting state start empty.
func NewRegion(spec Spec, rng *rand.Rand) (*Region, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	rng = EnsureRNG(rng)

	r := &Region{
		Spec:            spec,
		Columns:         make([]Column, spec.ColumnCount),
		ActiveCells:     make(CellSet),
		BurstingColumns: make(ColumnSet),
	}
	for ci := 0; ci < spec.ColumnCount; ci++ {
		r.Columns[ci] = buildColumn(ci, spec, rng)
	}
	return r, nil
}

// Rewire merges overrides over the region's spec, revalidates, and rebuilds
// every column's cell sequence from scratch. Derived state is cleared.
func (r *Region) Rewire(o Overrides, rng *rand.Rand) error {
	spec := r.Spec.Merge(o)
	if err := spec.Validate(); err != nil {
		return err
	}
	rng = EnsureRNG(rng)

	r.Spec = spec
	r.Columns = make([]Column, spec.ColumnCount)
	for ci := 0; ci < spec.ColumnCount; ci++ {
		r.Columns[ci] = buildColumn(ci, spec, rng)
	}
	r.ActiveCells = make(CellSet)
	r.BurstingColumns = make(ColumnSet)
	return nil
}

func buildColumn(id int, spec Spec, rng *rand.Rand) Column {
	col := Column{ID: id, Cells: make([]Cell, spec.Depth)}
	for xi := 0; xi < spec.Depth; xi++ {
		col.Cells[xi] = InitCell(xi, id, spec, rng)
	}
	return col
}
