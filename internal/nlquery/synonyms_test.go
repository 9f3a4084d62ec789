package nlquery

import (
	"strings"
	"testing"
)

func TestCanonicalizeSynonyms(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024년 장애 건수 알려줘", "2024년 건수 알려주세요"},
		{"몇건이야", "몇건"},
		{"장애가 얼마나 발생했는지", "장애가 몇 발생"},
		{"총합 알려줘", "전체 알려주세요"},
	}

	for _, tt := range tests {
		if got := CanonicalizeSynonyms(tt.in); got != tt.want {
			t.Errorf("CanonicalizeSynonyms(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Longer phrases must win over their substrings: 총합 folds to 전체,
// never to 전체합 via the shorter 총 entry.
func TestCanonicalizeSynonymsLongestFirst(t *testing.T) {
	got := CanonicalizeSynonyms("총합 건수")
	if strings.Contains(got, "전체합") {
		t.Errorf("총 replaced inside 총합: %q", got)
	}
}
