package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ImportFailed, "failed to read CSV header", fmt.Errorf("unexpected EOF"))
	want := "[IMPORT_FAILED] failed to read CSV header: unexpected EOF"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := New(AuthDenied, "invalid token", nil)
	if bare.Error() != "[AUTH_DENIED] invalid token" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := New(StoreUnavailable, "failed to write batch", cause)
	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable through errors.Is")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(QueryInvalid, "empty query", nil)); got != QueryInvalid {
		t.Errorf("CodeOf = %v", got)
	}
	if got := CodeOf(fmt.Errorf("plain error")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v", got)
	}
}

func TestSuggestedFixes(t *testing.T) {
	err := New(ImportFailed, "bad file", nil)
	if len(err.SuggestedFixes) == 0 {
		t.Fatal("expected suggested fixes for ImportFailed")
	}
	if err.SuggestedFixes[0].Type != RunCommand || !err.SuggestedFixes[0].Safe {
		t.Errorf("fix = %+v", err.SuggestedFixes[0])
	}

	if fixes := GetSuggestedFixes(Timeout); fixes != nil {
		t.Errorf("unexpected fixes for Timeout: %+v", fixes)
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ConfigInvalid, "bad threshold", nil).WithDetails(map[string]interface{}{"field": "min_score"})
	details, ok := err.Details.(map[string]interface{})
	if !ok || details["field"] != "min_score" {
		t.Errorf("details = %+v", err.Details)
	}
}
