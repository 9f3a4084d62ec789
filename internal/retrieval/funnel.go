package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ikb/internal/config"
	"ikb/internal/intent"
	"ikb/internal/logging"
	"ikb/internal/nlquery"
	"ikb/internal/search"
)

// MatchTier records how a candidate's service related to the extracted
// service hint.
type MatchTier string

const (
	// MatchExact means the service names were equal, case-insensitive.
	MatchExact MatchTier = "exact"
	// MatchPartial means one name contained the other.
	MatchPartial MatchTier = "partial"
	// MatchAll means no service hint existed; nothing was excluded.
	MatchAll MatchTier = "all"
)

var matchTierRank = map[MatchTier]int{
	MatchExact:   3,
	MatchPartial: 2,
	MatchAll:     1,
}

// QualityTier records which gate admitted a candidate.
type QualityTier string

const (
	// TierPremium candidates cleared the reranker floor outright.
	TierPremium QualityTier = "Premium"
	// TierStandard candidates cleared the blended-score floor.
	TierStandard QualityTier = "Standard"
	// TierBasic candidates came through the fallback pass.
	TierBasic QualityTier = "Basic"
)

// ScoredDocument is a candidate that survived filtering, annotated with
// the tier and score that admitted it.
type ScoredDocument struct {
	search.Hit
	MatchTier   MatchTier   `json:"service_match_type"`
	QualityTier QualityTier `json:"quality_tier"`
	FinalScore  float64     `json:"final_score"`
	Reason      string      `json:"filter_reason"`
}

// HybridScore blends lexical and reranker scores. With a reranker score
// present the blend is 80% rerank, 20% lexical, both clamped to 0..1;
// without one the lexical score stands alone.
func HybridScore(lexical, rerank, scale float64) float64 {
	if rerank > 0 {
		normRerank := rerank / scale
		if normRerank > 1 {
			normRerank = 1
		}
		normLexical := lexical
		if normLexical > 1 {
			normLexical = 1
		}
		return normRerank*0.8 + normLexical*0.2
	}
	if lexical > 1 {
		return 1
	}
	return lexical
}

// serviceMatch classifies a candidate's service against the hint.
// The second return is false when the candidate must be excluded.
func serviceMatch(candidate, target string) (MatchTier, bool) {
	if target == "" {
		return MatchAll, true
	}
	c := strings.ToLower(strings.TrimSpace(candidate))
	t := strings.ToLower(strings.TrimSpace(target))
	switch {
	case c == t:
		return MatchExact, true
	case strings.Contains(c, t) || strings.Contains(t, c):
		return MatchPartial, true
	}
	return "", false
}

// Filter runs candidates through the gate sequence: lexical floor,
// service match, reranker floor (Premium), blended floor (Standard).
// Survivors sort by match tier then final score, and the list is capped.
// Pure over its inputs; candidates are never mutated.
func Filter(hits []search.Hit, th Thresholds, targetService string, rerankScale float64) []ScoredDocument {
	var docs []ScoredDocument

	for _, hit := range hits {
		if hit.Score < th.Lexical {
			continue
		}

		tier, ok := serviceMatch(hit.Record.ServiceName, targetService)
		if !ok {
			continue
		}

		if hit.RerankScore >= th.Rerank {
			docs = append(docs, ScoredDocument{
				Hit:         hit,
				MatchTier:   tier,
				QualityTier: TierPremium,
				FinalScore:  hit.RerankScore,
				Reason:      fmt.Sprintf("service %s match + reranker quality (%.2f)", tier, hit.RerankScore),
			})
			continue
		}

		hybrid := HybridScore(hit.Score, hit.RerankScore, rerankScale)
		if hybrid >= th.Hybrid {
			docs = append(docs, ScoredDocument{
				Hit:         hit,
				MatchTier:   tier,
				QualityTier: TierStandard,
				FinalScore:  hybrid,
				Reason:      fmt.Sprintf("service %s match + hybrid score (%.2f)", tier, hybrid),
			})
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		ri, rj := matchTierRank[docs[i].MatchTier], matchTierRank[docs[j].MatchTier]
		if ri != rj {
			return ri > rj
		}
		return docs[i].FinalScore > docs[j].FinalScore
	})

	if len(docs) > th.MaxResults {
		docs = docs[:th.MaxResults]
	}
	return docs
}

// Funnel is the full retrieval pipeline: one search call, the gate
// filter, and a loosened fallback pass when everything was rejected.
type Funnel struct {
	backend search.Backend
	policy  *Policy
	search  config.SearchConfig
	fall    config.FallbackConfig
	logger  *logging.Logger
}

// NewFunnel wires a funnel over a search backend.
func NewFunnel(backend search.Backend, policy *Policy, cfg *config.Config, logger *logging.Logger) *Funnel {
	return &Funnel{
		backend: backend,
		policy:  policy,
		search:  cfg.Search,
		fall:    cfg.Retrieval.Fallback,
		logger:  logger.WithComponent("retrieval"),
	}
}

// Retrieve runs the funnel for a question. The service hint is
// extracted from the question itself; zero surviving documents after
// both passes is a valid empty result, not an error.
func (f *Funnel) Retrieve(ctx context.Context, query string, it intent.Intent) ([]ScoredDocument, error) {
	target := nlquery.ExtractServiceName(query)
	th := f.policy.For(it, query)

	hits, err := f.backend.Search(ctx, search.Request{
		Query:   query,
		Service: target,
		TopK:    f.search.TopK,
		Rerank:  true,
	})
	if err != nil {
		return nil, err
	}

	docs := Filter(hits, th, target, f.search.RerankScale)
	f.logger.Debug("primary retrieval pass", map[string]interface{}{
		"intent":     string(it),
		"service":    target,
		"candidates": len(hits),
		"selected":   len(docs),
	})
	if len(docs) > 0 {
		return docs, nil
	}

	return f.fallback(ctx, query, target)
}

// fallback is the policy retry: a second search under a bare lexical
// floor, service containment still enforced, every survivor Basic.
func (f *Funnel) fallback(ctx context.Context, query, target string) ([]ScoredDocument, error) {
	hits, err := f.backend.Search(ctx, search.Request{
		Query:   query,
		Service: target,
		TopK:    f.fall.TopK,
	})
	if err != nil {
		return nil, err
	}

	var docs []ScoredDocument
	for _, hit := range hits {
		if hit.Score < f.fall.MinScore {
			continue
		}
		tier, ok := serviceMatch(hit.Record.ServiceName, target)
		if !ok {
			continue
		}
		if target != "" && tier == MatchExact {
			// Fallback reports containment matching only.
			tier = MatchPartial
		}
		docs = append(docs, ScoredDocument{
			Hit:         hit,
			MatchTier:   tier,
			QualityTier: TierBasic,
			FinalScore:  hit.Score,
			Reason:      "fallback",
		})
		if len(docs) == f.fall.MaxResults {
			break
		}
	}

	f.logger.Debug("fallback retrieval pass", map[string]interface{}{
		"service":    target,
		"candidates": len(hits),
		"selected":   len(docs),
	})
	return docs, nil
}
