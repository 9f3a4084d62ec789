package search

import (
	"strings"
)

// Reranker assigns secondary relevance scores to a candidate list,
// writing RerankScore in place.
type Reranker interface {
	Rerank(query string, hits []Hit)
}

// OverlapReranker scores candidates by query-term coverage of the
// incident's free-text fields, scaled onto 0..Scale. It is the built-in
// stand-in for a cross-encoder service and keeps the same score range.
type OverlapReranker struct {
	// Scale is the top of the score range, conventionally 4.0.
	Scale float64
}

// NewOverlapReranker returns a reranker with the conventional scale.
func NewOverlapReranker() *OverlapReranker {
	return &OverlapReranker{Scale: 4.0}
}

// Rerank implements Reranker.
func (r *OverlapReranker) Rerank(query string, hits []Hit) {
	terms := rerankTerms(query)
	if len(terms) == 0 {
		return
	}
	for i := range hits {
		text := strings.ToLower(hits[i].Record.SearchText() + "\n" + hits[i].Record.ServiceName)
		matched := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				matched++
			}
		}
		coverage := float64(matched) / float64(len(terms))
		hits[i].RerankScore = coverage * r.Scale
	}
}

// rerankTerms tokenizes the query for coverage scoring. Single-rune
// tokens are dropped; they match everywhere and dilute coverage.
func rerankTerms(query string) []string {
	var terms []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		tok = trimPunct(tok)
		if len([]rune(tok)) < 2 {
			continue
		}
		terms = append(terms, tok)
	}
	return terms
}
