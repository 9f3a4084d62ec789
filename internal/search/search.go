// Package search defines the document search contract used by the
// retrieval layer, plus the built-in SQLite FTS5 backend.
package search

import (
	"context"

	"ikb/internal/incident"
)

// Hit is one search candidate: an incident with its backend scores.
type Hit struct {
	Record incident.Record `json:"record"`
	// Score is the lexical relevance score in the backend's 0..1 range.
	Score float64 `json:"score"`
	// RerankScore is the secondary relevance score on the 0..scale
	// range, 0 when no reranking pass ran.
	RerankScore float64 `json:"reranker_score"`
}

// Request describes one search call.
type Request struct {
	Query string
	// Service is an optional service-name hint. Backends may use it to
	// boost matching documents; hard filtering stays with the caller.
	Service string
	// TopK bounds the candidate pool size.
	TopK int
	// Rerank asks the backend to run its secondary scoring pass.
	Rerank bool
}

// Backend retrieves scored incident candidates. Implementations must be
// safe for concurrent use.
type Backend interface {
	Search(ctx context.Context, req Request) ([]Hit, error)
}
