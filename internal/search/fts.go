package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	ikberrors "ikb/internal/errors"
	"ikb/internal/incident"
)

// Index is the FTS5-backed search backend over the incidents table.
// It shares the incident store's database file.
type Index struct {
	db       *sql.DB
	reranker Reranker
}

// NewIndex creates an FTS index over the given incident database
// connection, initializing the virtual table and sync triggers.
func NewIndex(db *sql.DB, reranker Reranker) (*Index, error) {
	idx := &Index{db: db, reranker: reranker}
	if err := idx.initSchema(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) initSchema() error {
	// External-content FTS over the incidents table: search reads the
	// incident rows directly, the FTS table stores only the index.
	_, err := idx.db.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS incidents_fts USING fts5(
			service_name,
			symptom,
			effect,
			root_cause,
			repair,
			plan,
			content='incidents',
			content_rowid='rowid'
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create incidents_fts table: %w", err)
	}

	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS incidents_fts_ai AFTER INSERT ON incidents BEGIN
			INSERT INTO incidents_fts(rowid, service_name, symptom, effect, root_cause, repair, plan)
			VALUES (new.rowid, new.service_name, new.symptom, new.effect, new.root_cause, new.repair, new.plan);
		END`,
		`CREATE TRIGGER IF NOT EXISTS incidents_fts_au AFTER UPDATE ON incidents BEGIN
			INSERT INTO incidents_fts(incidents_fts, rowid, service_name, symptom, effect, root_cause, repair, plan)
			VALUES ('delete', old.rowid, old.service_name, old.symptom, old.effect, old.root_cause, old.repair, old.plan);
			INSERT INTO incidents_fts(rowid, service_name, symptom, effect, root_cause, repair, plan)
			VALUES (new.rowid, new.service_name, new.symptom, new.effect, new.root_cause, new.repair, new.plan);
		END`,
		`CREATE TRIGGER IF NOT EXISTS incidents_fts_ad AFTER DELETE ON incidents BEGIN
			INSERT INTO incidents_fts(incidents_fts, rowid, service_name, symptom, effect, root_cause, repair, plan)
			VALUES ('delete', old.rowid, old.service_name, old.symptom, old.effect, old.root_cause, old.repair, old.plan);
		END`,
	}
	for _, trigger := range triggers {
		if _, err := idx.db.Exec(trigger); err != nil {
			return fmt.Errorf("failed to create FTS trigger: %w", err)
		}
	}

	return nil
}

// Rebuild re-derives the whole FTS index from the incidents table.
// Called after bulk imports, which bypass the row triggers.
func (idx *Index) Rebuild(ctx context.Context) error {
	_, err := idx.db.ExecContext(ctx, "INSERT INTO incidents_fts(incidents_fts) VALUES('rebuild')")
	if err != nil {
		return ikberrors.New(ikberrors.SearchUnavailable, "FTS rebuild failed", err)
	}
	return nil
}

// Search implements Backend over the FTS index. Multi-word queries
// match documents containing any query term, ranked by weighted bm25.
func (idx *Index) Search(ctx context.Context, req Request) ([]Hit, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = 20
	}

	ftsQuery := buildFTSQuery(req.Query, req.Service)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT
			c.incident_id, c.service_name, c.error_date, c.year, c.month, c.week, c.daynight,
			c.error_time, c.incident_grade, c.cause_type, c.done_type, c.owner_depart,
			c.symptom, c.effect, c.root_cause, c.repair, c.plan,
			bm25(incidents_fts, 2.0, 1.5, 0.8, 1.2, 1.0, 0.5) AS rank
		FROM incidents_fts f
		JOIN incidents c ON f.rowid = c.rowid
		WHERE incidents_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ftsQuery, topK)
	if err != nil {
		return nil, ikberrors.New(ikberrors.SearchUnavailable, "search query failed", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var r incident.Record
		var rank float64
		err := rows.Scan(
			&r.IncidentID, &r.ServiceName, &r.OccurredAt, &r.Year, &r.Month, &r.Week, &r.Daynight,
			&r.DurationMin, &r.Grade, &r.CauseType, &r.DoneType, &r.OwnerDept,
			&r.Symptom, &r.Effect, &r.RootCause, &r.Repair, &r.Plan,
			&rank,
		)
		if err != nil {
			return nil, ikberrors.New(ikberrors.SearchUnavailable, "search scan failed", err)
		}
		hits = append(hits, Hit{Record: r, Score: lexicalScore(rank)})
	}
	if err := rows.Err(); err != nil {
		return nil, ikberrors.New(ikberrors.SearchUnavailable, "search query failed", err)
	}

	if req.Rerank && idx.reranker != nil {
		idx.reranker.Rerank(req.Query, hits)
	}

	return hits, nil
}

// lexicalScore maps a bm25 rank (lower is better, negative for matches)
// onto the 0..1 range used by the threshold gates.
func lexicalScore(rank float64) float64 {
	s := -rank
	if s <= 0 {
		return 0
	}
	return s / (1 + s)
}

// buildFTSQuery turns free text into an OR-of-phrases FTS5 query. A
// service hint becomes one more OR term so matching rows rank higher
// without excluding the rest.
func buildFTSQuery(query, service string) string {
	var terms []string
	for _, tok := range strings.Fields(query) {
		tok = trimPunct(tok)
		if tok == "" {
			continue
		}
		terms = append(terms, fmt.Sprintf(`"%s"`, escapeFTS5Query(tok)))
	}
	if service = strings.TrimSpace(service); service != "" {
		terms = append(terms, fmt.Sprintf(`"%s"`, escapeFTS5Query(service)))
	}
	return strings.Join(terms, " OR ")
}

func trimPunct(tok string) string {
	return strings.Trim(tok, `.,?!:;'"()[]{}`)
}

// escapeFTS5Query escapes special characters in FTS5 phrase queries
func escapeFTS5Query(query string) string {
	return strings.ReplaceAll(query, `"`, `""`)
}
