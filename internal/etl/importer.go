// Package etl loads incident records from CSV files into the store and
// keeps the search index in sync.
package etl

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	ikberr "ikb/internal/errors"
	"ikb/internal/incident"
	"ikb/internal/logging"
	"ikb/internal/search"
	"ikb/internal/stats"
)

// columnAliases maps accepted CSV header names to record fields. Source
// systems disagree on naming (incident_repair vs repair), so each field
// lists every header we have seen.
var columnAliases = map[string]string{
	"incident_id":     "incident_id",
	"service_name":    "service_name",
	"error_date":      "error_date",
	"year":            "year",
	"month":           "month",
	"week":            "week",
	"daynight":        "daynight",
	"error_time":      "error_time",
	"incident_grade":  "incident_grade",
	"grade":           "incident_grade",
	"cause_type":      "cause_type",
	"done_type":       "done_type",
	"owner_depart":    "owner_depart",
	"symptom":         "symptom",
	"effect":          "effect",
	"root_cause":      "root_cause",
	"repair":          "repair",
	"incident_repair": "repair",
	"plan":            "plan",
	"incident_plan":   "plan",
}

// requiredColumns must be present in the header for an import to proceed.
var requiredColumns = []string{"incident_id", "service_name", "error_date"}

// RowIssue describes a rejected or degraded CSV row.
type RowIssue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Report summarizes an import run.
type Report struct {
	BatchID  string     `json:"batch_id"`
	Total    int        `json:"total_rows"`
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Issues   []RowIssue `json:"issues,omitempty"`
	DryRun   bool       `json:"dry_run"`
}

// Importer reads CSV files and writes batches to the store.
type Importer struct {
	store  *stats.Store
	index  *search.Index
	logger *logging.Logger
}

// NewImporter creates an importer. index may be nil when no search
// index should be maintained (dry runs, tests).
func NewImporter(store *stats.Store, index *search.Index, logger *logging.Logger) *Importer {
	return &Importer{store: store, index: index, logger: logger.WithComponent("etl")}
}

// ImportFile imports a CSV file. With dryRun set, rows are parsed and
// validated but nothing is written.
func (im *Importer) ImportFile(ctx context.Context, path string, dryRun bool) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ikberr.New(ikberr.ImportFailed, fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()
	return im.Import(ctx, f, dryRun)
}

// Import imports CSV data from r.
func (im *Importer) Import(ctx context.Context, r io.Reader, dryRun bool) (*Report, error) {
	records, report, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}

	report.BatchID = uuid.NewString()
	report.DryRun = dryRun

	if dryRun {
		im.logger.Info("dry run complete", map[string]interface{}{
			"rows":    report.Total,
			"valid":   report.Imported,
			"skipped": report.Skipped,
		})
		return report, nil
	}

	importedAt := time.Now().UTC().Format(time.RFC3339)
	if err := im.store.UpsertBatch(ctx, records, report.BatchID, importedAt); err != nil {
		return nil, ikberr.New(ikberr.ImportFailed, "failed to write batch", err)
	}

	if im.index != nil {
		if err := im.index.Rebuild(ctx); err != nil {
			return nil, err
		}
	}

	im.logger.Info("import complete", map[string]interface{}{
		"batch_id": report.BatchID,
		"imported": report.Imported,
		"skipped":  report.Skipped,
	})
	return report, nil
}

// ParseCSV reads and validates CSV rows without touching the store.
// Rows missing an incident id or an occurred-at date are skipped and
// reported; calendar fields absent from the file are derived from the
// date.
func ParseCSV(r io.Reader) ([]incident.Record, *Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, ikberr.New(ikberr.ImportFailed, "failed to read CSV header", err)
	}

	cols := make(map[string]int)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		if field, ok := columnAliases[name]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, ikberr.New(ikberr.ImportFailed,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}

	report := &Report{}
	var records []incident.Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Skipped++
			report.Issues = append(report.Issues, RowIssue{Line: line, Message: err.Error()})
			continue
		}
		report.Total++

		get := func(field string) string {
			i, ok := cols[field]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := incident.Record{
			IncidentID:  get("incident_id"),
			ServiceName: get("service_name"),
			OccurredAt:  get("error_date"),
			Year:        get("year"),
			Month:       get("month"),
			Week:        get("week"),
			Daynight:    get("daynight"),
			Grade:       get("incident_grade"),
			CauseType:   get("cause_type"),
			DoneType:    get("done_type"),
			OwnerDept:   get("owner_depart"),
			Symptom:     get("symptom"),
			Effect:      get("effect"),
			RootCause:   get("root_cause"),
			Repair:      get("repair"),
			Plan:        get("plan"),
		}

		if rec.IncidentID == "" {
			report.Skipped++
			report.Issues = append(report.Issues, RowIssue{Line: line, Message: "missing incident_id"})
			continue
		}
		if rec.OccurredAt == "" {
			report.Skipped++
			report.Issues = append(report.Issues, RowIssue{
				Line:    line,
				Message: fmt.Sprintf("missing error_date for %s", rec.IncidentID),
			})
			continue
		}

		if raw := get("error_time"); raw != "" {
			mins, err := strconv.Atoi(raw)
			if err != nil || mins < 0 {
				report.Issues = append(report.Issues, RowIssue{
					Line:    line,
					Message: fmt.Sprintf("invalid error_time %q for %s, using 0", raw, rec.IncidentID),
				})
			} else {
				rec.DurationMin = mins
			}
		}

		if err := rec.DeriveCalendar(); err != nil && (rec.Year == "" || rec.Month == "") {
			report.Skipped++
			report.Issues = append(report.Issues, RowIssue{Line: line, Message: err.Error()})
			continue
		}
		records = append(records, rec)
		report.Imported++
	}

	return records, report, nil
}
