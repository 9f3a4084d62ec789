package etl

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"ikb/internal/logging"
	"ikb/internal/stats"
)

const sampleCSV = `incident_id,service_name,error_date,error_time,incident_grade,cause_type,owner_depart,symptom,effect,root_cause,incident_repair,incident_plan,done_type,week,daynight,year,month
INC-001,PAY-GW,2024-03-15 14:30:00,30,1,제품결함,결제팀,결제 실패,결제 불가,커넥션 풀 고갈,재기동,풀 상향,완료,금,주간,2024,3
INC-002,OrderAPI,2024-07-01 02:10:00,120,2,과부하,주문팀,주문 지연,접수 지연,배치 폭주,배치 분산,스케줄 조정,완료,,,,
`

func TestParseCSV(t *testing.T) {
	records, report, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}

	if report.Total != 2 || report.Imported != 2 || report.Skipped != 0 {
		t.Errorf("report = %+v", report)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}

	r := records[0]
	if r.IncidentID != "INC-001" || r.ServiceName != "PAY-GW" {
		t.Errorf("record 0 = %+v", r)
	}
	if r.DurationMin != 30 || r.Grade != "1" {
		t.Errorf("record 0 = %+v", r)
	}
	// incident_repair / incident_plan aliases map onto repair / plan.
	if r.Repair != "재기동" || r.Plan != "풀 상향" {
		t.Errorf("record 0 repair/plan = %q / %q", r.Repair, r.Plan)
	}

	// Calendar fields absent from the file derive from the date.
	// 2024-07-01 is a Monday, 02:10 is night hours.
	r2 := records[1]
	if r2.Year != "2024" || r2.Month != "7" || r2.Week != "월" || r2.Daynight != "야간" {
		t.Errorf("derived calendar = %+v", r2)
	}
}

func TestParseCSVStripsHeaderBOM(t *testing.T) {
	csv := "\uFEFFincident_id,service_name,error_date\n" +
		"INC-001,PAY-GW,2024-03-15\n"

	records, _, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(records) != 1 || records[0].IncidentID != "INC-001" {
		t.Errorf("records = %+v", records)
	}
}

func TestParseCSVMissingRequiredColumns(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("service_name,symptom\nPAY-GW,결제 실패\n"))
	if err == nil {
		t.Fatal("expected error for missing incident_id column")
	}
	if !strings.Contains(err.Error(), "incident_id") {
		t.Errorf("error = %v", err)
	}
}

func TestParseCSVSkipsBadRows(t *testing.T) {
	csv := "incident_id,service_name,error_date\n" +
		",PAY-GW,2024-03-15\n" + // no id
		"INC-002,PAY-GW,\n" +    // no date
		"INC-003,PAY-GW,2024-03-15\n"

	records, report, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if report.Imported != 1 || report.Skipped != 2 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Issues) != 2 {
		t.Errorf("issues = %+v", report.Issues)
	}
	if len(records) != 1 || records[0].IncidentID != "INC-003" {
		t.Errorf("records = %+v", records)
	}
}

func TestParseCSVInvalidDuration(t *testing.T) {
	csv := "incident_id,service_name,error_date,error_time\n" +
		"INC-001,PAY-GW,2024-03-15,abc\n"

	records, report, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	// Bad duration degrades to 0 with an issue, the row survives.
	if len(records) != 1 || records[0].DurationMin != 0 {
		t.Errorf("records = %+v", records)
	}
	if report.Imported != 1 || len(report.Issues) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestImportWritesStore(t *testing.T) {
	store, err := stats.Open(filepath.Join(t.TempDir(), "incidents.db"), logging.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	im := NewImporter(store, nil, logging.Nop())
	report, err := im.Import(context.Background(), strings.NewReader(sampleCSV), false)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.BatchID == "" {
		t.Error("missing batch id")
	}

	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestImportDryRunWritesNothing(t *testing.T) {
	store, err := stats.Open(filepath.Join(t.TempDir(), "incidents.db"), logging.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	im := NewImporter(store, nil, logging.Nop())
	report, err := im.Import(context.Background(), strings.NewReader(sampleCSV), true)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !report.DryRun || report.Imported != 2 {
		t.Errorf("report = %+v", report)
	}

	n, _ := store.Count(context.Background())
	if n != 0 {
		t.Errorf("Count = %d, want 0 after dry run", n)
	}
}
