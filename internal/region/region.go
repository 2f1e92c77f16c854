package region

// CellID identifies a cell by its column and its position within the column.
type CellID struct {
	Column int
	Index  int
}

// CellSet is a set of cell ids.
type CellSet map[CellID]bool

// ColumnSet is a set of column ids.
type ColumnSet map[int]bool

// Segment is a dendrite segment: a mapping from target cell to synapse
// permanence. A segment never holds a synapse into its host cell's column.
type Segment struct {
	Synapses map[CellID]float64
}

// Cell owns an ordered, append-only sequence of segments. Segments are
// addressed by index; they are never removed (known limitation: long-running
// regions grow without bound, no pruning policy is defined).
type Cell struct {
	ID       CellID
	Segments []Segment
}

// Column owns a fixed-length cell sequence; its id is its position in the
// region's column sequence.
type Column struct {
	ID    int
	Cells []Cell
}

// Region is the top-level mutable structure: configuration, columns, and the
// previous step's derived state.
type Region struct {
	Spec    Spec
	Columns []Column

	// ActiveCells and BurstingColumns are the output of the most recent
	// step; both are empty on a freshly built region and fully replaced
	// every step.
	ActiveCells     CellSet
	BurstingColumns ColumnSet
}

// Connected reports whether a synapse with the given permanence counts
// toward activation under pcon.
func Connected(permanence, pcon float64) bool {
	return permanence >= pcon
}

// ClampPermanence bounds a permanence value to [0,1].
func ClampPermanence(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// CellCount returns ColumnCount*Depth.
func (r *Region) CellCount() int {
	return r.Spec.ColumnCount * r.Spec.Depth
}

// SegmentCount returns the total number of segments across the region.
func (r *Region) SegmentCount() int {
	total := 0
	for ci := range r.Columns {
		for xi := range r.Columns[ci].Cells {
			total += len(r.Columns[ci].Cells[xi].Segments)
		}
	}
	return total
}

// SynapseCount returns the total number of synapses across the region.
func (r *Region) SynapseCount() int {
	total := 0
	for ci := range r.Columns {
		for xi := range r.Columns[ci].Cells {
			for si := range r.Columns[ci].Cells[xi].Segments {
				total += len(r.Columns[ci].Cells[xi].Segments[si].Synapses)
			}
		}
	}
	return total
}

// Clone returns a deep copy of the region. Used by tests and by callers that
// want snapshot semantics around a step.
func (r *Region) Clone() *Region {
	out := &Region{
		Spec:            r.Spec,
		Columns:         make([]Column, len(r.Columns)),
		ActiveCells:     make(CellSet, len(r.ActiveCells)),
		BurstingColumns: make(ColumnSet, len(r.BurstingColumns)),
	}
	for ci := range r.Columns {
		col := Column{ID: r.Columns[ci].ID, Cells: make([]Cell, len(r.Columns[ci].Cells))}
		for xi := range r.Columns[ci].Cells {
			src := r.Columns[ci].Cells[xi]
			cell := Cell{ID: src.ID, Segments: make([]Segment, len(src.Segments))}
			for si := range src.Segments {
				syns := make(map[CellID]float64, len(src.Segments[si].Synapses))
				for target, perm := range src.Segments[si].Synapses {
					syns[target] = perm
				}
				cell.Segments[si] = Segment{Synapses: syns}
			}
			col.Cells[xi] = cell
		}
		out.Columns[ci] = col
	}
	for id := range r.ActiveCells {
		out.ActiveCells[id] = true
	}
	for id := range r.BurstingColumns {
		out.BurstingColumns[id] = true
	}
	return out
}
