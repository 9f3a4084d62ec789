package intent

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  Intent
	}{
		{"2024년 장애 건수 알려줘", Statistics},
		{"월별 장애 통계", Statistics},
		{"1등급 장애 내역 조회", Inquiry},
		{"결제 실패 어떻게 복구했어?", Repair},
		{"접속 불가 조치 방법", Repair},
		{"이 장애의 원인이 뭐야", Cause},
		{"비슷한 장애 사례 찾아줘", Similar},
		{"PAY-GW 문제", Default},
	}

	for _, tt := range tests {
		if got := Classify(tt.query); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

// Statistics outranks every other keyword class.
func TestClassifyStatisticsWins(t *testing.T) {
	if got := Classify("원인유형별 장애 건수"); got != Statistics {
		t.Errorf("Classify = %q, want statistics", got)
	}
	if got := Classify("복구 건수 통계"); got != Statistics {
		t.Errorf("Classify = %q, want statistics", got)
	}
}

func TestParse(t *testing.T) {
	for _, name := range []string{"statistics", "inquiry", "repair", "cause", "similar", "default"} {
		it, err := Parse(name)
		if err != nil {
			t.Errorf("Parse(%q): %v", name, err)
		}
		if string(it) != name {
			t.Errorf("Parse(%q) = %q", name, it)
		}
	}

	if _, err := Parse("unknown"); err == nil {
		t.Error("expected error for unknown intent")
	}
}
