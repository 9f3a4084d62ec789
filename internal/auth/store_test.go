package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	ikberr "ikb/internal/errors"
	"ikb/internal/logging"
	"ikb/internal/stats"
)

func setupKeyStore(t *testing.T) *KeyStore {
	t.Helper()

	store, err := stats.Open(filepath.Join(t.TempDir(), "incidents.db"), logging.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ks := NewKeyStore(store.Conn(), logging.Nop())
	if err := ks.InitSchema(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return ks
}

func TestIssueAndAuthenticate(t *testing.T) {
	ks := setupKeyStore(t)
	ctx := context.Background()

	key, token, err := ks.Issue(ctx, "ci-import", ScopeWrite, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" || !IsValidTokenFormat(token) {
		t.Fatalf("raw token = %q", token)
	}
	if key.ExpiresAt != nil {
		t.Error("zero ttl must not set expiry")
	}

	got, err := ks.Authenticate(ctx, token, ScopeRead)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != key.ID || got.Name != "ci-import" {
		t.Errorf("authenticated key = %+v", got)
	}

	// write includes read but not admin
	if _, err := ks.Authenticate(ctx, token, ScopeAdmin); ikberr.CodeOf(err) != ikberr.AuthDenied {
		t.Errorf("scope escalation: err = %v", err)
	}
}

func TestAuthenticateRejectsUnknownToken(t *testing.T) {
	ks := setupKeyStore(t)
	ctx := context.Background()

	if _, _, err := ks.Issue(ctx, "real", ScopeRead, 0); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	fake, _, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ks.Authenticate(ctx, fake, ScopeRead); ikberr.CodeOf(err) != ikberr.AuthDenied {
		t.Errorf("unknown token: err = %v", err)
	}

	if _, err := ks.Authenticate(ctx, "not-a-token", ScopeRead); ikberr.CodeOf(err) != ikberr.AuthDenied {
		t.Errorf("malformed token: err = %v", err)
	}
}

func TestAuthenticateRejectsRevokedKey(t *testing.T) {
	ks := setupKeyStore(t)
	ctx := context.Background()

	key, token, err := ks.Issue(ctx, "to-revoke", ScopeAdmin, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := ks.Revoke(ctx, key.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if _, err := ks.Authenticate(ctx, token, ScopeRead); ikberr.CodeOf(err) != ikberr.AuthDenied {
		t.Errorf("revoked key: err = %v", err)
	}

	// Revoked keys stay listed for the audit trail.
	keys, err := ks.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 || !keys[0].Revoked {
		t.Errorf("keys = %+v", keys)
	}
}

func TestAuthenticateRejectsExpiredKey(t *testing.T) {
	ks := setupKeyStore(t)
	ctx := context.Background()

	_, token, err := ks.Issue(ctx, "short-lived", ScopeRead, time.Nanosecond)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := ks.Authenticate(ctx, token, ScopeRead); ikberr.CodeOf(err) != ikberr.AuthDenied {
		t.Errorf("expired key: err = %v", err)
	}
}

func TestRevokeUnknownKey(t *testing.T) {
	ks := setupKeyStore(t)
	err := ks.Revoke(context.Background(), "ikb_key_ffffffffffffffff")
	if ikberr.CodeOf(err) != ikberr.AuthDenied {
		t.Errorf("err = %v", err)
	}
}

func TestGetByID(t *testing.T) {
	ks := setupKeyStore(t)
	ctx := context.Background()

	key, _, err := ks.Issue(ctx, "lookup", ScopeRead, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := ks.GetByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "lookup" || got.Scope != ScopeRead {
		t.Errorf("key = %+v", got)
	}
	if got.ExpiresAt == nil {
		t.Error("ttl did not set expiry")
	}
}
