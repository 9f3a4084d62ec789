package stats

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	ikberrors "ikb/internal/errors"
	"ikb/internal/incident"
	"ikb/internal/logging"
	"ikb/internal/nlquery"
)

// Store is the SQLite-backed incident store used for aggregate queries
// and detail listings.
type Store struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Open opens or creates the incident database at the given path,
// creating parent directories and the schema as needed.
func Open(dbPath string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set pragmas for performance and reliability
	pragmas := []string{
		"PRAGMA journal_mode=WAL",    // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL",  // Balance between safety and performance
		"PRAGMA foreign_keys=ON",     // Enable foreign key constraints
		"PRAGMA busy_timeout=5000",   // Wait up to 5 seconds on lock
		"PRAGMA cache_size=-64000",   // 64MB cache
		"PRAGMA temp_store=MEMORY",   // Use memory for temp tables
		"PRAGMA mmap_size=268435456", // 256MB mmap
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{
		conn:   conn,
		logger: logger,
		dbPath: dbPath,
	}

	if !dbExists {
		logger.Info("Creating new incident database", map[string]interface{}{
			"path": dbPath,
		})
	}
	if err := s.initializeSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Conn returns the underlying sql.DB connection
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initializeSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS incidents (
		incident_id TEXT PRIMARY KEY,
		service_name TEXT NOT NULL DEFAULT '',
		error_date TEXT NOT NULL DEFAULT '',
		year TEXT NOT NULL DEFAULT '',
		month TEXT NOT NULL DEFAULT '',
		week TEXT NOT NULL DEFAULT '',
		daynight TEXT NOT NULL DEFAULT '',
		error_time INTEGER NOT NULL DEFAULT 0,
		incident_grade TEXT NOT NULL DEFAULT '',
		cause_type TEXT NOT NULL DEFAULT '',
		done_type TEXT NOT NULL DEFAULT '',
		owner_depart TEXT NOT NULL DEFAULT '',
		symptom TEXT NOT NULL DEFAULT '',
		effect TEXT NOT NULL DEFAULT '',
		root_cause TEXT NOT NULL DEFAULT '',
		repair TEXT NOT NULL DEFAULT '',
		plan TEXT NOT NULL DEFAULT '',
		batch_id TEXT NOT NULL DEFAULT '',
		imported_at TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_incidents_year ON incidents(year);
	CREATE INDEX IF NOT EXISTS idx_incidents_year_month ON incidents(year, month);
	CREATE INDEX IF NOT EXISTS idx_incidents_grade ON incidents(incident_grade);
	CREATE INDEX IF NOT EXISTS idx_incidents_service ON incidents(service_name);
	CREATE INDEX IF NOT EXISTS idx_incidents_cause ON incidents(cause_type);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// WithTx executes a function within a transaction
// If the function returns an error, the transaction is rolled back
// Otherwise, the transaction is committed
func (s *Store) WithTx(fn func(*sql.Tx) error) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", map[string]interface{}{
				"error":          err.Error(),
				"rollback_error": rbErr.Error(),
			})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const incidentColumns = `incident_id, service_name, error_date, year, month, week, daynight,
	error_time, incident_grade, cause_type, done_type, owner_depart,
	symptom, effect, root_cause, repair, plan`

// UpsertBatch writes records inside a single transaction, replacing
// rows that share an incident id.
func (s *Store) UpsertBatch(ctx context.Context, records []incident.Record, batchID, importedAt string) error {
	return s.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO incidents (`+incidentColumns+`, batch_id, imported_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range records {
			r := &records[i]
			_, err := stmt.ExecContext(ctx,
				r.IncidentID, r.ServiceName, r.OccurredAt, r.Year, r.Month, r.Week, r.Daynight,
				r.DurationMin, r.Grade, r.CauseType, r.DoneType, r.OwnerDept,
				r.Symptom, r.Effect, r.RootCause, r.Repair, r.Plan,
				batchID, importedAt,
			)
			if err != nil {
				return fmt.Errorf("insert incident %s: %w", r.IncidentID, err)
			}
		}
		return nil
	})
}

// Row is one aggregate result row: the projected dimension values plus
// the aggregate value.
type Row struct {
	Dims  map[nlquery.Dimension]string `json:"dims,omitempty"`
	Value int64                        `json:"value"`
}

// Result is the outcome of an aggregate query. Zero rows is a valid
// result, distinct from a store failure.
type Result struct {
	Rows       []Row  `json:"rows"`
	Total      int64  `json:"total"`
	ValueLabel string `json:"value_label"`
	SQL        string `json:"sql"`
}

// Aggregate runs the aggregate query described by cond.
func (s *Store) Aggregate(ctx context.Context, cond *nlquery.Condition) (*Result, error) {
	query, args, valueLabel := Build(cond)

	s.logger.Debug("aggregate query", map[string]interface{}{
		"sql":  query,
		"args": args,
	})

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ikberrors.New(ikberrors.StoreUnavailable, "aggregate query failed", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, ikberrors.New(ikberrors.StoreUnavailable, "aggregate query failed", err)
	}

	result := &Result{ValueLabel: valueLabel, SQL: query}
	for rows.Next() {
		scan := make([]interface{}, len(cols))
		values := make([]sql.NullString, len(cols))
		var total sql.NullInt64
		for i, col := range cols {
			if col == "total_value" {
				scan[i] = &total
			} else {
				scan[i] = &values[i]
			}
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, ikberrors.New(ikberrors.StoreUnavailable, "aggregate scan failed", err)
		}

		row := Row{Value: total.Int64}
		for i, col := range cols {
			if col == "total_value" {
				continue
			}
			if row.Dims == nil {
				row.Dims = make(map[nlquery.Dimension]string, len(cols)-1)
			}
			row.Dims[nlquery.Dimension(col)] = values[i].String
		}
		result.Rows = append(result.Rows, row)
		result.Total += row.Value
	}
	if err := rows.Err(); err != nil {
		return nil, ikberrors.New(ikberrors.StoreUnavailable, "aggregate query failed", err)
	}

	return result, nil
}

// List returns incident details matching the condition, newest first.
func (s *Store) List(ctx context.Context, cond *nlquery.Condition, limit int) ([]incident.Record, error) {
	if limit <= 0 {
		limit = 100
	}

	where, args := buildWhere(cond)
	query := "SELECT " + incidentColumns + " FROM incidents"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY error_date DESC, error_time DESC LIMIT " + strconv.Itoa(limit)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ikberrors.New(ikberrors.StoreUnavailable, "detail query failed", err)
	}
	defer rows.Close()

	var records []incident.Record
	for rows.Next() {
		var r incident.Record
		err := rows.Scan(
			&r.IncidentID, &r.ServiceName, &r.OccurredAt, &r.Year, &r.Month, &r.Week, &r.Daynight,
			&r.DurationMin, &r.Grade, &r.CauseType, &r.DoneType, &r.OwnerDept,
			&r.Symptom, &r.Effect, &r.RootCause, &r.Repair, &r.Plan,
		)
		if err != nil {
			return nil, ikberrors.New(ikberrors.StoreUnavailable, "detail scan failed", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, ikberrors.New(ikberrors.StoreUnavailable, "detail query failed", err)
	}

	return records, nil
}

// Each streams every stored incident to fn, ordered by incident id so
// exports are reproducible. Iteration stops on the first error.
func (s *Store) Each(ctx context.Context, fn func(incident.Record) error) error {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+incidentColumns+" FROM incidents ORDER BY incident_id")
	if err != nil {
		return ikberrors.New(ikberrors.StoreUnavailable, "scan query failed", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r incident.Record
		err := rows.Scan(
			&r.IncidentID, &r.ServiceName, &r.OccurredAt, &r.Year, &r.Month, &r.Week, &r.Daynight,
			&r.DurationMin, &r.Grade, &r.CauseType, &r.DoneType, &r.OwnerDept,
			&r.Symptom, &r.Effect, &r.RootCause, &r.Repair, &r.Plan,
		)
		if err != nil {
			return ikberrors.New(ikberrors.StoreUnavailable, "scan failed", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return ikberrors.New(ikberrors.StoreUnavailable, "scan query failed", err)
	}
	return nil
}

// Count returns the number of stored incidents.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM incidents").Scan(&n); err != nil {
		return 0, ikberrors.New(ikberrors.StoreUnavailable, "count query failed", err)
	}
	return n, nil
}

// Years returns the distinct years present, ascending. Used by the
// status command to describe coverage.
func (s *Store) Years(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT DISTINCT year FROM incidents WHERE year != '' ORDER BY CAST(year AS INTEGER)")
	if err != nil {
		return nil, ikberrors.New(ikberrors.StoreUnavailable, "years query failed", err)
	}
	defer rows.Close()

	var years []string
	for rows.Next() {
		var y string
		if err := rows.Scan(&y); err != nil {
			return nil, ikberrors.New(ikberrors.StoreUnavailable, "years scan failed", err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, ikberrors.New(ikberrors.StoreUnavailable, "years query failed", err)
	}
	return years, nil
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
