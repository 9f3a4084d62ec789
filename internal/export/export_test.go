package export

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	ikberr "ikb/internal/errors"
	"ikb/internal/incident"
	"ikb/internal/logging"
	"ikb/internal/stats"
)

func seededStore(t *testing.T) *stats.Store {
	t.Helper()

	store, err := stats.Open(filepath.Join(t.TempDir(), "incidents.db"), logging.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	records := []incident.Record{
		{
			IncidentID:  "INC-001",
			ServiceName: "PAY-GW",
			OccurredAt:  "2024-03-15 14:30:00",
			Year:        "2024",
			Month:       "3",
			Week:        "금",
			Daynight:    "주간",
			Grade:       "1",
			CauseType:   "제품결함",
			Symptom:     "결제 실패",
			DurationMin: 30,
		},
		{
			IncidentID:  "INC-002",
			ServiceName: "OrderAPI",
			OccurredAt:  "2024-07-01 02:10:00",
			Year:        "2024",
			Month:       "7",
			Week:        "월",
			Daynight:    "야간",
			Grade:       "2",
			CauseType:   "과부하",
			Symptom:     "주문 지연",
			DurationMin: 120,
		},
	}
	if err := store.UpsertBatch(context.Background(), records, "batch-export-test", "2024-08-01T00:00:00Z"); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func TestArchiveRoundTrip(t *testing.T) {
	store := seededStore(t)
	exporter := NewExporter(store, logging.Nop())

	var buf bytes.Buffer
	written, err := exporter.WriteArchive(context.Background(), &buf)
	if err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}

	header, records, err := ReadArchive(&buf)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if header.Format != ArchiveFormat || header.Count != 2 {
		t.Errorf("header = %+v", header)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	// Each streams by incident id, so order is stable.
	if records[0].IncidentID != "INC-001" || records[1].IncidentID != "INC-002" {
		t.Errorf("order = %s, %s", records[0].IncidentID, records[1].IncidentID)
	}
	if records[0].Symptom != "결제 실패" || records[1].DurationMin != 120 {
		t.Errorf("fields lost: %+v", records)
	}
}

func TestWriteArchiveFile(t *testing.T) {
	store := seededStore(t)
	exporter := NewExporter(store, logging.Nop())

	path := filepath.Join(t.TempDir(), "incidents.jsonl.zst")
	if _, err := exporter.WriteArchiveFile(context.Background(), path); err != nil {
		t.Fatalf("WriteArchiveFile: %v", err)
	}

	_, records, err := ReadArchiveFile(path)
	if err != nil {
		t.Fatalf("ReadArchiveFile: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
}

func TestReadArchiveRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	if err := json.NewEncoder(zw).Encode(Header{Format: "something-else/9"}); err != nil {
		t.Fatalf("encode header: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	_, _, err = ReadArchive(&buf)
	if err == nil {
		t.Fatal("expected format error")
	}
	if ikberr.CodeOf(err) != ikberr.ImportFailed {
		t.Errorf("code = %v", ikberr.CodeOf(err))
	}
}

func TestReadArchiveRejectsGarbage(t *testing.T) {
	_, _, err := ReadArchive(bytes.NewBufferString("not a zstd stream"))
	if err == nil {
		t.Fatal("expected error for non-archive input")
	}
}
