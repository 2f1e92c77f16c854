// Package neopallium is the public facade over the sequence-memory core:
// build a region, drive it with repeating column patterns, and record
// per-step diagnostics to a store.
package neopallium

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"neopallium/internal/model"
	"neopallium/internal/pooling"
	"neopallium/internal/region"
	"neopallium/internal/sequence"
	"neopallium/internal/stats"
	"neopallium/internal/storage"
)

const defaultDBPath = "neopallium.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

// RunRequest describes a recorded run: region shape, step count, and the
// repeating input pattern cycle. Zero fields take defaults; Overrides tune
// the region's thresholds and permanence deltas.
//
// When Inputs is positive the run is pooler-driven: the pattern cycle is a
// set of binary input vectors of that length, and each step's active columns
// come from a spatial pooler over them instead of fixed column sets.
type RunRequest struct {
	Columns       int
	Depth         int
	Steps         int
	Seed          int64
	Workers       int
	ActivePerStep int
	Patterns      int
	Inputs        int
	Overrides     region.Overrides
}

type RunSummary struct {
	RunID           string
	Steps           int
	FinalBurstRate  float64
	MeanActiveCells float64
}

type RunItem struct {
	RunID          string
	CreatedAtUTC   string
	Seed           int64
	Columns        int
	Depth          int
	Steps          int
	FinalBurstRate float64
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Run builds a fresh region and steps it through a cycle of fixed random
// column patterns, persisting the run record and per-step diagnostics.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Columns <= 0 {
		req.Columns = 64
	}
	if req.Depth <= 0 {
		req.Depth = 4
	}
	if req.Steps <= 0 {
		req.Steps = 100
	}
	if req.Workers <= 0 {
		req.Workers = 1
	}
	if req.ActivePerStep <= 0 {
		req.ActivePerStep = 8
	}
	if req.ActivePerStep > req.Columns {
		return RunSummary{}, fmt.Errorf("active-per-step %d exceeds column count %d", req.ActivePerStep, req.Columns)
	}
	if req.Patterns <= 0 {
		req.Patterns = 4
	}
	if req.Inputs < 0 {
		req.Inputs = 0
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}

	if err := c.store.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	rng := rand.New(rand.NewSource(req.Seed))
	spec := region.DefaultSpec()
	spec.ColumnCount = req.Columns
	spec.Depth = req.Depth
	spec = spec.Merge(req.Overrides)

	r, err := region.NewRegion(spec, rng)
	if err != nil {
		return RunSummary{}, err
	}

	var (
		pooler        *pooling.Pooler
		inputPatterns [][]bool
		patterns      [][]int
	)
	if req.Inputs > 0 {
		cfg := pooling.DefaultConfig()
		cfg.Inputs = req.Inputs
		cfg.Columns = spec.ColumnCount
		cfg.ActiveColumns = req.ActivePerStep
		pooler, err = pooling.New(cfg, rng)
		if err != nil {
			return RunSummary{}, err
		}
		inputPatterns = makeInputPatterns(req.Patterns, req.Inputs, rng)
	} else {
		patterns = makePatterns(req.Patterns, req.ActivePerStep, spec.ColumnCount, rng)
	}
	stepper := sequence.Stepper{Workers: req.Workers}

	diagnostics := make([]model.StepDiagnostics, 0, req.Steps)
	for step := 0; step < req.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return RunSummary{}, err
		}
		var activeColumns []int
		if pooler != nil {
			activeColumns, err = pooler.Compute(inputPatterns[step%len(inputPatterns)], true)
			if err != nil {
				return RunSummary{}, err
			}
		} else {
			activeColumns = patterns[step%len(patterns)]
		}
		result, err := stepper.Step(r, activeColumns, rng)
		if err != nil {
			return RunSummary{}, err
		}
		diagnostics = append(diagnostics, diagnoseStep(step, result, r))
	}

	summary := stats.Summarize(diagnostics)

	runID := uuid.NewString()
	record := model.RunRecord{
		ID:             runID,
		CreatedAtUTC:   time.Now().UTC().Format(time.RFC3339),
		Seed:           req.Seed,
		Columns:        spec.ColumnCount,
		Depth:          spec.Depth,
		Steps:          req.Steps,
		Workers:        req.Workers,
		ActivePerStep:  req.ActivePerStep,
		Patterns:       req.Patterns,
		Inputs:         req.Inputs,
		FinalBurstRate: summary.BurstRateByQuarter[3],
	}
	storage.StampVersion(&record)

	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveStepDiagnostics(ctx, runID, diagnostics); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:           runID,
		Steps:           req.Steps,
		FinalBurstRate:  record.FinalBurstRate,
		MeanActiveCells: summary.MeanActiveCells,
	}, nil
}

// Runs lists recorded runs, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]RunItem, error) {
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	records, err := c.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]RunItem, 0, len(records))
	for _, record := range records {
		items = append(items, RunItem{
			RunID:          record.ID,
			CreatedAtUTC:   record.CreatedAtUTC,
			Seed:           record.Seed,
			Columns:        record.Columns,
			Depth:          record.Depth,
			Steps:          record.Steps,
			FinalBurstRate: record.FinalBurstRate,
		})
	}
	return items, nil
}

// Diagnostics returns the per-step records of a run.
func (c *Client) Diagnostics(ctx context.Context, runID string) ([]model.StepDiagnostics, error) {
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	steps, ok, err := c.store.GetStepDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no diagnostics for run id: %s", runID)
	}
	return steps, nil
}

// Report renders the plain-text summary report for a run.
func (c *Client) Report(ctx context.Context, runID string) (string, error) {
	if err := c.store.Init(ctx); err != nil {
		return "", err
	}
	record, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("run not found: " + runID)
	}
	steps, ok, err := c.store.GetStepDiagnostics(ctx, runID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no diagnostics for run id: %s", runID)
	}
	return stats.RenderReport(record, stats.Summarize(steps)), nil
}

// makePatterns draws count distinct-ish column sets of the given size. The
// same patterns repeat across the run so the region can learn the cycle.
func makePatterns(count, size, columns int, rng *rand.Rand) [][]int {
	patterns := make([][]int, count)
	for i := range patterns {
		patterns[i] = rng.Perm(columns)[:size]
	}
	return patterns
}

// makeInputPatterns draws count binary input vectors with a quarter of the
// bits set, for pooler-driven runs.
func makeInputPatterns(count, inputs int, rng *rand.Rand) [][]bool {
	on := inputs / 4
	if on < 1 {
		on = 1
	}
	patterns := make([][]bool, count)
	for i := range patterns {
		vec := make([]bool, inputs)
		for _, idx := range rng.Perm(inputs)[:on] {
			vec[idx] = true
		}
		patterns[i] = vec
	}
	return patterns
}

func diagnoseStep(step int, result sequence.StepResult, r *region.Region) model.StepDiagnostics {
	diag := model.StepDiagnostics{
		Step:            step,
		ActiveCellCount: len(result.ActiveCells),
		SegmentCount:    r.SegmentCount(),
		SynapseCount:    r.SynapseCount(),
	}
	for _, act := range result.Activations {
		diag.ActiveColumns = append(diag.ActiveColumns, act.Column)
		if act.Bursting {
			diag.BurstingColumns = append(diag.BurstingColumns, act.Column)
		} else {
			diag.PredictedColumns = append(diag.PredictedColumns, act.Column)
		}
	}
	return diag
}
