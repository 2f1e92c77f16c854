// Package stats summarizes recorded sequence-memory runs: how often active
// columns burst instead of being predicted, and how the region's structure
// grew over the run.
package stats

import (
	"fmt"
	"strings"

	"neopallium/internal/model"
)

// Summary aggregates per-step diagnostics over a run.
type Summary struct {
	Steps              int        `json:"steps"`
	MeanActiveCells    float64    `json:"mean_active_cells"`
	BurstRate          float64    `json:"burst_rate"`
	BurstRateByQuarter [4]float64 `json:"burst_rate_by_quarter"`
	FinalSegments      int        `json:"final_segments"`
	FinalSynapses      int        `json:"final_synapses"`
}

// Summarize computes the run summary. BurstRate is bursting columns over
// active columns across all steps; the quarter breakdown shows whether
// prediction improved as the run progressed.
func Summarize(steps []model.StepDiagnostics) Summary {
	summary := Summary{Steps: len(steps)}
	if len(steps) == 0 {
		return summary
	}

	totalActiveCells := 0
	totalColumns := 0
	totalBursting := 0
	quarterColumns := [4]int{}
	quarterBursting := [4]int{}
	for i, step := range steps {
		totalActiveCells += step.ActiveCellCount
		totalColumns += len(step.ActiveColumns)
		totalBursting += len(step.BurstingColumns)

		q := i * 4 / len(steps)
		if q > 3 {
			q = 3
		}
		quarterColumns[q] += len(step.ActiveColumns)
		quarterBursting[q] += len(step.BurstingColumns)
	}

	summary.MeanActiveCells = float64(totalActiveCells) / float64(len(steps))
	if totalColumns > 0 {
		summary.BurstRate = float64(totalBursting) / float64(totalColumns)
	}
	for q := 0; q < 4; q++ {
		if quarterColumns[q] > 0 {
			summary.BurstRateByQuarter[q] = float64(quarterBursting[q]) / float64(quarterColumns[q])
		}
	}

	last := steps[len(steps)-1]
	summary.FinalSegments = last.SegmentCount
	summary.FinalSynapses = last.SynapseCount
	return summary
}

// RenderReport formats a run record and its summary as a plain-text report.
func RenderReport(run model.RunRecord, summary Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", run.ID)
	fmt.Fprintf(&b, "  created: %s\n", run.CreatedAtUTC)
	fmt.Fprintf(&b, "  region: columns=%d depth=%d seed=%d workers=%d\n", run.Columns, run.Depth, run.Seed, run.Workers)
	fmt.Fprintf(&b, "  input: steps=%d active-per-step=%d patterns=%d\n", run.Steps, run.ActivePerStep, run.Patterns)
	fmt.Fprintf(&b, "  mean active cells: %.2f\n", summary.MeanActiveCells)
	fmt.Fprintf(&b, "  burst rate: %.4f (by quarter: %.4f %.4f %.4f %.4f)\n",
		summary.BurstRate,
		summary.BurstRateByQuarter[0], summary.BurstRateByQuarter[1],
		summary.BurstRateByQuarter[2], summary.BurstRateByQuarter[3])
	fmt.Fprintf(&b, "  final structure: segments=%d synapses=%d\n", summary.FinalSegments, summary.FinalSynapses)
	return b.String()
}
