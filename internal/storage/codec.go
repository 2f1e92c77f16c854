package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"neopallium/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(run model.RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeStepDiagnostics(steps []model.StepDiagnostics) ([]byte, error) {
	return json.Marshal(steps)
}

func DecodeStepDiagnostics(data []byte) ([]model.StepDiagnostics, error) {
	var steps []model.StepDiagnostics
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func checkVersion(record model.VersionedRecord) error {
	if record.SchemaVersion > CurrentSchemaVersion || record.CodecVersion > CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, record.SchemaVersion, record.CodecVersion)
	}
	return nil
}

// StampVersion sets the current schema/codec versions on a run record.
func StampVersion(run *model.RunRecord) {
	run.SchemaVersion = CurrentSchemaVersion
	run.CodecVersion = CurrentCodecVersion
}
