package nlquery

import "testing"

func TestExtractServiceName(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"PAY-GW 장애 건수 알려줘", "PAY-GW"},
		{"서비스 OrderAPI 장애 현황", "OrderAPI"},
		{"'billing2' 장애 복구 방법", "billing2"},
		{"billing/core 장애 내역", "billing/core"},
		{"VAS+IAP 장애 사례", "VAS+IAP"},
		{"시스템 장애 복구 방법", ""},
		{"장애 통계 알려줘", ""},
	}

	for _, tt := range tests {
		if got := ExtractServiceName(tt.query); got != tt.want {
			t.Errorf("ExtractServiceName(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestIsValidServiceName(t *testing.T) {
	valid := []string{
		"PAY-GW", "OrderAPI", "billing/core", "VAS+IAP",
		"mail2", "IAP (mobile)", "auth_svc",
	}
	for _, name := range valid {
		if !IsValidServiceName(name) {
			t.Errorf("IsValidServiceName(%q) = false, want true", name)
		}
	}

	invalid := []string{
		"ab",          // too short
		"1pay",        // must start with a letter
		"api",         // stoplist
		"service",     // stoplist
		"the",         // short plain word, no identifier evidence
		"pay//core",   // doubled separator
		"pay-",        // trailing separator
		"mail(box",    // unbalanced parens
		"결제GW",        // Hangul
	}
	for _, name := range invalid {
		if IsValidServiceName(name) {
			t.Errorf("IsValidServiceName(%q) = true, want false", name)
		}
	}
}
