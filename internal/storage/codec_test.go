package storage

import (
	"errors"
	"testing"

	"dategen/internal/model"
)

func TestDecodeRunRejectsVersionMismatch(t *testing.T) {
	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion + 1, CodecVersion: CurrentCodecVersion},
		ID:              "run-1",
	}
	payload, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestDecodePopulationRequiresVersion(t *testing.T) {
	if _, err := DecodePopulation([]byte(`{"run_id":"run-1","members":[]}`)); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch for unversioned payload, got %v", err)
	}
	payload, err := EncodePopulation(model.PopulationSnapshot{VersionedRecord: Versioned(), RunID: "run-1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	snapshot, err := DecodePopulation(payload)
	if err != nil || snapshot.RunID != "run-1" {
		t.Fatalf("decode: %+v %v", snapshot, err)
	}
}

func TestDecodeMalformedPayloads(t *testing.T) {
	if _, err := DecodeCases([]byte("{")); err == nil {
		t.Fatal("expected malformed cases error")
	}
	if _, err := DecodeCoverageHistory([]byte("nope")); err == nil {
		t.Fatal("expected malformed history error")
	}
	if _, err := DecodeGenerationDiagnostics([]byte("[1")); err == nil {
		t.Fatal("expected malformed diagnostics error")
	}
}
