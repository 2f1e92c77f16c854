package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord summarizes one recorded sequence-memory run. The region itself
// is never persisted; only the run's shape and outcome are.
type RunRecord struct {
	VersionedRecord
	ID             string  `json:"id"`
	CreatedAtUTC   string  `json:"created_at_utc"`
	Seed           int64   `json:"seed"`
	Columns        int     `json:"columns"`
	Depth          int     `json:"depth"`
	Steps          int     `json:"steps"`
	Workers        int     `json:"workers"`
	ActivePerStep  int     `json:"active_per_step"`
	Patterns       int     `json:"patterns"`
	Inputs         int     `json:"inputs,omitempty"`
	FinalBurstRate float64 `json:"final_burst_rate"`
}

// StepDiagnostics records the observable outcome of a single step.
type StepDiagnostics struct {
	Step             int   `json:"step"`
	ActiveColumns    []int `json:"active_columns"`
	ActiveCellCount  int   `json:"active_cell_count"`
	BurstingColumns  []int `json:"bursting_columns"`
	PredictedColumns []int `json:"predicted_columns"`
	SegmentCount     int   `json:"segment_count"`
	SynapseCount     int   `json:"synapse_count"`
}
