// Package sequence implements the sequence-memory stage of the cortical
// learning model: given the columns an upstream pooler marked active, it
// selects the active cells within them, flags unpredicted (bursting)
// columns, and adapts segment wiring so future activations are predicted.
package sequence

import (
	"fmt"
	"sort"

	"neopallium/internal/region"
)

// SegmentActivation counts the segment's synapses whose target is active
// and whose permanence is at least pcon. This is the fundamental vote count.
func SegmentActivation(seg region.Segment, active region.CellSet, pcon float64) int {
	count := 0
	for target, perm := range seg.Synapses {
		if active[target] && region.Connected(perm, pcon) {
			count++
		}
	}
	return count
}

// CellPredictive reports whether any of the cell's segments reaches
// ActivationThreshold against the active set under ConnectedPerm.
func CellPredictive(cell region.Cell, active region.CellSet, spec region.Spec) bool {
	for si := range cell.Segments {
		if SegmentActivation(cell.Segments[si], active, spec.ConnectedPerm) >= spec.ActivationThreshold {
			return true
		}
	}
	return false
}

// PredictiveCells returns the ids of the column's predictive cells in
// ascending cell-index order.
func PredictiveCells(col region.Column, active region.CellSet, spec region.Spec) []region.CellID {
	var out []region.CellID
	for xi := range col.Cells {
		if CellPredictive(col.Cells[xi], active, spec) {
			out = append(out, col.Cells[xi].ID)
		}
	}
	return out
}

// ColumnActivation is the per-column outcome of feed-forward activation:
// the cells that become active and whether the column burst.
type ColumnActivation struct {
	Column   int
	Cells    []region.CellID
	Bursting bool
}

// NormalizeColumns sorts and dedupes a column id set and rejects ids outside
// the region's column range.
func NormalizeColumns(r *region.Region, activeColumns []int) ([]int, error) {
	seen := make(map[int]bool, len(activeColumns))
	out := make([]int, 0, len(activeColumns))
	for _, id := range activeColumns {
		if id < 0 || id >= len(r.Columns) {
			return nil, fmt.Errorf("active column %d out of range [0,%d)", id, len(r.Columns))
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Ints(out)
	return out, nil
}

// ActiveCellsByColumn computes, for each active column, which cells become
// active against the prior step's active-cell context. A column with at
// least one predictive cell activates exactly those cells; a column with
// none bursts, activating all of its cells. Read-only.
func ActiveCellsByColumn(r *region.Region, activeColumns []int, prev region.CellSet) ([]ColumnActivation, error) {
	columns, err := NormalizeColumns(r, activeColumns)
	if err != nil {
		return nil, err
	}

	out := make([]ColumnActivation, 0, len(columns))
	for _, id := range columns {
		col := r.Columns[id]
		predictive := PredictiveCells(col, prev, r.Spec)
		if len(predictive) > 0 {
			out = append(out, ColumnActivation{Column: id, Cells: predictive})
			continue
		}
		all := make([]region.CellID, len(col.Cells))
		for xi := range col.Cells {
			all[xi] = col.Cells[xi].ID
		}
		out = append(out, ColumnActivation{Column: id, Cells: all, Bursting: true})
	}
	return out, nil
}
