package retrieval

import (
	"context"
	"math"
	"testing"

	"ikb/internal/config"
	"ikb/internal/incident"
	"ikb/internal/intent"
	"ikb/internal/logging"
	"ikb/internal/search"
)

func hit(id, service string, score, rerank float64) search.Hit {
	return search.Hit{
		Record:      incident.Record{IncidentID: id, ServiceName: service},
		Score:       score,
		RerankScore: rerank,
	}
}

func baseThresholds() Thresholds {
	return Thresholds{Lexical: 0.3, Rerank: 1.5, Hybrid: 0.5, MaxResults: 8}
}

func TestHybridScore(t *testing.T) {
	tests := []struct {
		lexical, rerank float64
		want            float64
	}{
		{0.5, 2.0, 0.5}, // 0.8*(2/4) + 0.2*0.5
		{0.5, 8.0, 0.9}, // rerank clamps to 1.0
		{1.5, 2.0, 0.6}, // lexical clamps to 1.0
		{0.6, 0, 0.6},   // no rerank: lexical stands alone
		{1.5, 0, 1.0},   // lexical-only path clamps too
	}
	for _, tt := range tests {
		got := HybridScore(tt.lexical, tt.rerank, 4.0)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("HybridScore(%v, %v) = %v, want %v", tt.lexical, tt.rerank, got, tt.want)
		}
	}
}

func TestFilterLexicalGate(t *testing.T) {
	hits := []search.Hit{
		hit("low", "svc", 0.1, 3.0),
		hit("ok", "svc", 0.5, 3.0),
	}

	docs := Filter(hits, baseThresholds(), "", 4.0)
	if len(docs) != 1 || docs[0].Record.IncidentID != "ok" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestFilterQualityTiers(t *testing.T) {
	hits := []search.Hit{
		hit("premium", "svc", 0.5, 2.0),  // rerank >= 1.5
		hit("standard", "svc", 0.9, 1.2), // hybrid 0.24 + 0.18 = 0.42
		hit("rejected", "svc", 0.4, 0.5),
	}
	// Loosen the hybrid floor so the middle candidate lands Standard.
	th := baseThresholds()
	th.Hybrid = 0.4

	docs := Filter(hits, th, "", 4.0)
	if len(docs) != 2 {
		t.Fatalf("docs = %+v", docs)
	}
	if docs[0].Record.IncidentID != "premium" || docs[0].QualityTier != TierPremium {
		t.Errorf("doc 0 = %+v", docs[0])
	}
	if docs[0].FinalScore != 2.0 {
		t.Errorf("premium FinalScore = %v, want rerank score", docs[0].FinalScore)
	}
	if docs[1].Record.IncidentID != "standard" || docs[1].QualityTier != TierStandard {
		t.Errorf("doc 1 = %+v", docs[1])
	}
}

func TestFilterServiceGate(t *testing.T) {
	hits := []search.Hit{
		hit("exact", "PAY-GW", 0.5, 2.0),
		hit("partial", "PAY-GW-EU", 0.5, 2.0),
		hit("other", "OrderAPI", 0.5, 2.0),
	}

	docs := Filter(hits, baseThresholds(), "pay-gw", 4.0)
	if len(docs) != 2 {
		t.Fatalf("docs = %+v", docs)
	}
	// Exact match sorts above partial regardless of score.
	if docs[0].Record.IncidentID != "exact" || docs[0].MatchTier != MatchExact {
		t.Errorf("doc 0 = %+v", docs[0])
	}
	if docs[1].MatchTier != MatchPartial {
		t.Errorf("doc 1 = %+v", docs[1])
	}
}

func TestFilterNoServiceHintAdmitsAll(t *testing.T) {
	docs := Filter([]search.Hit{hit("a", "anything", 0.5, 2.0)}, baseThresholds(), "", 4.0)
	if len(docs) != 1 || docs[0].MatchTier != MatchAll {
		t.Errorf("docs = %+v", docs)
	}
}

func TestFilterSortAndCap(t *testing.T) {
	var hits []search.Hit
	hits = append(hits,
		hit("c", "svc", 0.5, 1.6),
		hit("a", "svc", 0.5, 3.0),
		hit("b", "svc", 0.5, 2.0),
	)
	th := baseThresholds()
	th.MaxResults = 2

	docs := Filter(hits, th, "", 4.0)
	if len(docs) != 2 {
		t.Fatalf("len = %d", len(docs))
	}
	if docs[0].Record.IncidentID != "a" || docs[1].Record.IncidentID != "b" {
		t.Errorf("order = %s, %s", docs[0].Record.IncidentID, docs[1].Record.IncidentID)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	hits := []search.Hit{hit("a", "svc", 0.5, 2.0)}
	_ = Filter(hits, baseThresholds(), "", 4.0)

	if hits[0].Score != 0.5 || hits[0].RerankScore != 2.0 {
		t.Errorf("input mutated: %+v", hits[0])
	}
}

// stubBackend returns canned hits per call, tracking requests.
type stubBackend struct {
	responses [][]search.Hit
	requests  []search.Request
}

func (s *stubBackend) Search(ctx context.Context, req search.Request) ([]search.Hit, error) {
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return nil, nil
	}
	hits := s.responses[0]
	s.responses = s.responses[1:]
	return hits, nil
}

func testFunnel(backend search.Backend) *Funnel {
	cfg := config.DefaultConfig()
	return NewFunnel(backend, NewPolicy(cfg.Retrieval), cfg, logging.Nop())
}

func TestRetrievePrimaryPass(t *testing.T) {
	backend := &stubBackend{responses: [][]search.Hit{
		{hit("a", "svc", 0.6, 2.5)},
	}}
	f := testFunnel(backend)

	docs, err := f.Retrieve(context.Background(), "결제 실패 복구 방법", intent.Repair)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(docs) != 1 || docs[0].QualityTier != TierPremium {
		t.Fatalf("docs = %+v", docs)
	}
	if len(backend.requests) != 1 {
		t.Errorf("requests = %d, want 1 (no fallback)", len(backend.requests))
	}
	if !backend.requests[0].Rerank {
		t.Error("primary pass must request reranking")
	}
}

func TestRetrieveFallback(t *testing.T) {
	backend := &stubBackend{responses: [][]search.Hit{
		{hit("weak", "svc", 0.05, 0.1)}, // primary: below every gate
		{hit("weak", "svc", 0.15, 0)},   // fallback: above the bare floor
	}}
	f := testFunnel(backend)

	docs, err := f.Retrieve(context.Background(), "결제 실패 복구 방법", intent.Repair)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("docs = %+v", docs)
	}
	if docs[0].QualityTier != TierBasic {
		t.Errorf("QualityTier = %q, want Basic", docs[0].QualityTier)
	}
	if docs[0].Reason != "fallback" {
		t.Errorf("Reason = %q", docs[0].Reason)
	}
	if docs[0].FinalScore != 0.15 {
		t.Errorf("FinalScore = %v, want lexical score", docs[0].FinalScore)
	}
	if len(backend.requests) != 2 {
		t.Errorf("requests = %d, want 2", len(backend.requests))
	}
}

func TestRetrieveFallbackCap(t *testing.T) {
	var many []search.Hit
	for i := 0; i < 20; i++ {
		many = append(many, hit("x", "svc", 0.2, 0))
	}
	backend := &stubBackend{responses: [][]search.Hit{nil, many}}
	f := testFunnel(backend)

	docs, err := f.Retrieve(context.Background(), "결제 실패 복구 방법", intent.Repair)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(docs) != config.DefaultConfig().Retrieval.Fallback.MaxResults {
		t.Errorf("len = %d", len(docs))
	}
}
