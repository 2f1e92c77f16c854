package storage

import (
	"context"
	"reflect"
	"testing"

	"neopallium/internal/model"
)

func testRun(id, createdAt string) model.RunRecord {
	run := model.RunRecord{
		ID:             id,
		CreatedAtUTC:   createdAt,
		Seed:           42,
		Columns:        64,
		Depth:          4,
		Steps:          100,
		Workers:        1,
		ActivePerStep:  8,
		Patterns:       4,
		FinalBurstRate: 0.25,
	}
	StampVersion(&run)
	return run
}

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	run := testRun("r1", "2026-08-30T10:00:00Z")
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	loaded, ok, err := store.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected run to exist")
	}
	if !reflect.DeepEqual(run, loaded) {
		t.Fatalf("round trip mismatch: %+v vs %+v", run, loaded)
	}

	_, ok, err = store.GetRun(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing run: %v", err)
	}
	if ok {
		t.Fatal("missing run should not exist")
	}
}

func TestMemoryStoreListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, run := range []model.RunRecord{
		testRun("old", "2026-08-28T10:00:00Z"),
		testRun("new", "2026-08-30T10:00:00Z"),
		testRun("mid", "2026-08-29T10:00:00Z"),
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "new" || runs[1].ID != "mid" || runs[2].ID != "old" {
		t.Fatalf("unexpected order: %+v", runs)
	}

	limited, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list runs with limit: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "new" {
		t.Fatalf("unexpected limited list: %+v", limited)
	}
}

func TestMemoryStoreStepDiagnosticsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	steps := []model.StepDiagnostics{
		{Step: 0, ActiveColumns: []int{2, 5}, ActiveCellCount: 8, BurstingColumns: []int{2, 5}, SegmentCount: 2, SynapseCount: 10},
		{Step: 1, ActiveColumns: []int{2, 5}, ActiveCellCount: 8, BurstingColumns: []int{2, 5}, SegmentCount: 4, SynapseCount: 20},
	}
	if err := store.SaveStepDiagnostics(ctx, "r1", steps); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}

	loaded, ok, err := store.GetStepDiagnostics(ctx, "r1")
	if err != nil {
		t.Fatalf("get diagnostics: %v", err)
	}
	if !ok {
		t.Fatal("expected diagnostics to exist")
	}
	if !reflect.DeepEqual(steps, loaded) {
		t.Fatalf("round trip mismatch: %+v vs %+v", steps, loaded)
	}

	// Returned slice is a copy.
	loaded[0].ActiveCellCount = 99
	again, _, err := store.GetStepDiagnostics(ctx, "r1")
	if err != nil {
		t.Fatalf("get diagnostics again: %v", err)
	}
	if again[0].ActiveCellCount != 8 {
		t.Fatal("mutating a loaded slice leaked into the store")
	}

	_, ok, err = store.GetStepDiagnostics(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing diagnostics: %v", err)
	}
	if ok {
		t.Fatal("missing diagnostics should not exist")
	}
}

func TestFactoryKinds(t *testing.T) {
	store, err := NewStore("memory", "")
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected MemoryStore, got %T", store)
	}

	if _, err := NewStore("bogus", ""); err == nil {
		t.Fatal("expected unsupported backend error")
	}

	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close memory store: %v", err)
	}
}
