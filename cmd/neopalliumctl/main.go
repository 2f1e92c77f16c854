package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"neopallium/internal/region"
	"neopallium/internal/storage"
	api "neopallium/pkg/neopallium"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "report":
		return runReport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "neopallium.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "neopallium.db", "sqlite database path")
	columns := fs.Int("columns", 64, "column count")
	depth := fs.Int("depth", 4, "cells per column")
	steps := fs.Int("steps", 100, "steps to run")
	seed := fs.Int64("seed", 0, "random seed (0 = time-based)")
	workers := fs.Int("workers", 1, "parallel learning workers")
	active := fs.Int("active", 8, "active columns per step")
	patterns := fs.Int("patterns", 4, "distinct column patterns to cycle")
	inputs := fs.Int("inputs", 0, "input bit vector length for pooler-driven runs (0 = drive columns directly)")
	newSynapses := fs.Int("new-synapses", 5, "target synapse count for grown segments")
	activationThreshold := fs.Int("activation-threshold", 4, "segment activation threshold")
	minThreshold := fs.Int("min-threshold", 3, "best-match threshold")
	initialPerm := fs.Float64("initial-perm", 0.3, "initial synapse permanence")
	connectedPerm := fs.Float64("connected-perm", 0.5, "connected permanence threshold")
	permInc := fs.Float64("perm-inc", 0.1, "permanence increment")
	permDec := fs.Float64("perm-dec", 0.05, "permanence decrement")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, api.RunRequest{
		Columns:       *columns,
		Depth:         *depth,
		Steps:         *steps,
		Seed:          *seed,
		Workers:       *workers,
		ActivePerStep: *active,
		Patterns:      *patterns,
		Inputs:        *inputs,
		Overrides: region.Overrides{
			NewSynapseCount:     newSynapses,
			ActivationThreshold: activationThreshold,
			MinThreshold:        minThreshold,
			InitialPerm:         initialPerm,
			ConnectedPerm:       connectedPerm,
			PermanenceInc:       permInc,
			PermanenceDec:       permDec,
		},
	})
	if err != nil {
		return err
	}

	fmt.Printf("run %s: steps=%d final-burst-rate=%.4f mean-active-cells=%.2f\n",
		summary.RunID, summary.Steps, summary.FinalBurstRate, summary.MeanActiveCells)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "neopallium.db", "sqlite database path")
	limit := fs.Int("limit", 20, "maximum runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, item := range items {
		fmt.Printf("%s  %s  columns=%d depth=%d steps=%d seed=%d burst=%.4f\n",
			item.RunID, item.CreatedAtUTC, item.Columns, item.Depth, item.Steps, item.Seed, item.FinalBurstRate)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "neopallium.db", "sqlite database path")
	runID := fs.String("run", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("diagnostics requires -run")
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	steps, err := client.Diagnostics(ctx, *runID)
	if err != nil {
		return err
	}
	for _, step := range steps {
		fmt.Printf("step=%d active-columns=%d active-cells=%d bursting=%d predicted=%d segments=%d synapses=%d\n",
			step.Step, len(step.ActiveColumns), step.ActiveCellCount,
			len(step.BurstingColumns), len(step.PredictedColumns),
			step.SegmentCount, step.SynapseCount)
	}
	return nil
}

func runReport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "neopallium.db", "sqlite database path")
	runID := fs.String("run", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("report requires -run")
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	report, err := client.Report(ctx, *runID)
	if err != nil {
		return err
	}
	fmt.Print(report)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: neopalliumctl <init|run|runs|diagnostics|report> [flags]", msg)
}
