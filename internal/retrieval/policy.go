// Package retrieval filters search candidates through intent-dependent
// score gates and falls back to a looser pass when nothing survives.
package retrieval

import (
	"strings"

	"ikb/internal/config"
	"ikb/internal/intent"
)

// Thresholds are the gates one retrieval pass runs under.
type Thresholds struct {
	// Lexical is the minimum backend search score.
	Lexical float64
	// Rerank is the floor above which a candidate is accepted on its
	// reranker score alone.
	Rerank float64
	// Hybrid is the floor for the blended score path.
	Hybrid float64
	// MaxResults caps the filtered list.
	MaxResults int
}

// Policy selects thresholds per intent and query wording.
type Policy struct {
	cfg config.RetrievalConfig
}

// NewPolicy builds a policy from retrieval configuration.
func NewPolicy(cfg config.RetrievalConfig) *Policy {
	return &Policy{cfg: cfg}
}

// For picks the threshold profile. Statistical wording loosens any
// query; repair queries with broad symptom wording get the loosest
// repair profile because tight gates starve them; default-intent
// queries without statistical wording get the balanced base profile.
func (p *Policy) For(it intent.Intent, queryText string) Thresholds {
	q := strings.ToLower(queryText)

	if containsAny(q, p.cfg.StatKeywords) || it == intent.Statistics || it == intent.Inquiry {
		return fromProfile(p.cfg.Profiles.Statistical)
	}

	switch it {
	case intent.Repair:
		if containsAny(q, p.cfg.BroadSymptomKeywords) {
			return fromProfile(p.cfg.Profiles.RepairBroad)
		}
		return fromProfile(p.cfg.Profiles.Repair)
	case intent.Cause, intent.Similar:
		return fromProfile(p.cfg.Profiles.CauseSimilar)
	}
	return fromProfile(p.cfg.Profiles.Base)
}

func fromProfile(p config.ThresholdProfile) Thresholds {
	return Thresholds{
		Lexical:    p.SearchThreshold,
		Rerank:     p.RerankThreshold,
		Hybrid:     p.HybridThreshold,
		MaxResults: p.MaxResults,
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
