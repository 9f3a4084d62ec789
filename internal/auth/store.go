package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	ikberr "ikb/internal/errors"
	"ikb/internal/logging"
)

// KeyStore persists API keys in the incident database.
type KeyStore struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewKeyStore creates a key store over an open database connection.
func NewKeyStore(db *sql.DB, logger *logging.Logger) *KeyStore {
	return &KeyStore{db: db, logger: logger.WithComponent("auth")}
}

// InitSchema creates the auth tables if they do not exist.
func (s *KeyStore) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		token_hash TEXT NOT NULL,
		token_prefix TEXT NOT NULL,
		scope TEXT NOT NULL,
		created_at TEXT NOT NULL,
		last_used_at TEXT,
		expires_at TEXT,
		revoked INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_api_keys_prefix ON api_keys(token_prefix);

	CREATE TABLE IF NOT EXISTS auth_audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key_id TEXT,
		event TEXT NOT NULL,
		detail TEXT,
		created_at TEXT NOT NULL
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return ikberr.New(ikberr.StoreUnavailable, "failed to initialize auth schema", err)
	}
	return nil
}

// Save stores a new API key.
func (s *KeyStore) Save(ctx context.Context, key *APIKey) error {
	query := `
	INSERT INTO api_keys (id, name, token_hash, token_prefix, scope, created_at, last_used_at, expires_at, revoked)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		key.ID,
		key.Name,
		key.TokenHash,
		key.TokenPrefix,
		string(key.Scope),
		key.CreatedAt.UTC().Format(time.RFC3339),
		nullableTime(key.LastUsedAt),
		nullableTime(key.ExpiresAt),
		boolToInt(key.Revoked),
	)
	if err != nil {
		return ikberr.New(ikberr.StoreUnavailable, fmt.Sprintf("failed to save API key %s", key.ID), err)
	}

	s.logger.Info("api key created", map[string]interface{}{
		"key_id": key.ID,
		"name":   key.Name,
		"scope":  string(key.Scope),
	})
	return nil
}

// GetByID retrieves an API key by its ID.
func (s *KeyStore) GetByID(ctx context.Context, id string) (*APIKey, error) {
	query := `
	SELECT id, name, token_hash, token_prefix, scope, created_at, last_used_at, expires_at, revoked
	FROM api_keys WHERE id = ?
	`
	return s.scanKey(s.db.QueryRowContext(ctx, query, id))
}

// GetByTokenPrefix retrieves candidate keys by token prefix. Prefixes are
// not unique, so the caller verifies the hash against each candidate.
func (s *KeyStore) GetByTokenPrefix(ctx context.Context, prefix string) ([]*APIKey, error) {
	query := `
	SELECT id, name, token_hash, token_prefix, scope, created_at, last_used_at, expires_at, revoked
	FROM api_keys WHERE token_prefix = ?
	`
	rows, err := s.db.QueryContext(ctx, query, prefix)
	if err != nil {
		return nil, ikberr.New(ikberr.StoreUnavailable, "failed to query API keys", err)
	}
	defer rows.Close()
	return s.scanKeys(rows)
}

// List returns all API keys, newest first.
func (s *KeyStore) List(ctx context.Context) ([]*APIKey, error) {
	query := `
	SELECT id, name, token_hash, token_prefix, scope, created_at, last_used_at, expires_at, revoked
	FROM api_keys ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, ikberr.New(ikberr.StoreUnavailable, "failed to list API keys", err)
	}
	defer rows.Close()
	return s.scanKeys(rows)
}

// UpdateLastUsed records a successful authentication.
func (s *KeyStore) UpdateLastUsed(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return ikberr.New(ikberr.StoreUnavailable, fmt.Sprintf("failed to update API key %s", id), err)
	}
	return nil
}

// Revoke marks a key as revoked. Revoked keys are kept for the audit trail.
func (s *KeyStore) Revoke(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE api_keys SET revoked = 1 WHERE id = ?`, id)
	if err != nil {
		return ikberr.New(ikberr.StoreUnavailable, fmt.Sprintf("failed to revoke API key %s", id), err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ikberr.New(ikberr.AuthDenied, fmt.Sprintf("API key not found: %s", id), nil)
	}

	s.logger.Info("api key revoked", map[string]interface{}{"key_id": id})
	return s.LogAuditEvent(ctx, id, "revoke", "")
}

// LogAuditEvent appends an entry to the auth audit log.
func (s *KeyStore) LogAuditEvent(ctx context.Context, keyID, event, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_audit_log (key_id, event, detail, created_at) VALUES (?, ?, ?, ?)`,
		keyID, event, detail, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return ikberr.New(ikberr.StoreUnavailable, "failed to write audit log", err)
	}
	return nil
}

// Authenticate verifies a raw token and returns the matching key if it is
// usable and grants the required scope.
func (s *KeyStore) Authenticate(ctx context.Context, token string, required Scope) (*APIKey, error) {
	if !IsValidTokenFormat(token) {
		return nil, ikberr.New(ikberr.AuthDenied, "malformed token", nil)
	}

	candidates, err := s.GetByTokenPrefix(ctx, ExtractTokenPrefix(token))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, key := range candidates {
		if !VerifyToken(token, key.TokenHash) {
			continue
		}
		if !key.Usable(now) {
			_ = s.LogAuditEvent(ctx, key.ID, "denied", "key revoked or expired")
			return nil, ikberr.New(ikberr.AuthDenied, "token revoked or expired", nil)
		}
		if !key.Scope.Includes(required) {
			_ = s.LogAuditEvent(ctx, key.ID, "denied", fmt.Sprintf("scope %s does not include %s", key.Scope, required))
			return nil, ikberr.New(ikberr.AuthDenied, fmt.Sprintf("scope %s required", required), nil)
		}
		if err := s.UpdateLastUsed(ctx, key.ID, now); err != nil {
			s.logger.Warn("failed to record token use", map[string]interface{}{
				"key_id": key.ID,
				"error":  err.Error(),
			})
		}
		return key, nil
	}

	_ = s.LogAuditEvent(ctx, "", "denied", "no matching key")
	return nil, ikberr.New(ikberr.AuthDenied, "invalid token", nil)
}

// Issue creates and persists a new key, returning the key and the raw
// token. The raw token cannot be recovered later.
func (s *KeyStore) Issue(ctx context.Context, name string, scope Scope, ttl time.Duration) (*APIKey, string, error) {
	id, err := GenerateKeyID()
	if err != nil {
		return nil, "", ikberr.New(ikberr.InternalError, "failed to generate key ID", err)
	}
	token, prefix, err := GenerateToken()
	if err != nil {
		return nil, "", ikberr.New(ikberr.InternalError, "failed to generate token", err)
	}
	hash, err := HashToken(token)
	if err != nil {
		return nil, "", ikberr.New(ikberr.InternalError, "failed to hash token", err)
	}

	key := &APIKey{
		ID:          id,
		Name:        name,
		TokenHash:   hash,
		TokenPrefix: prefix,
		Scope:       scope,
		CreatedAt:   time.Now().UTC(),
	}
	if ttl > 0 {
		expires := key.CreatedAt.Add(ttl)
		key.ExpiresAt = &expires
	}

	if err := s.Save(ctx, key); err != nil {
		return nil, "", err
	}
	if err := s.LogAuditEvent(ctx, key.ID, "issue", string(scope)); err != nil {
		return nil, "", err
	}
	return key, token, nil
}

func (s *KeyStore) scanKey(row *sql.Row) (*APIKey, error) {
	var key APIKey
	var scope string
	var createdAt string
	var lastUsedAt, expiresAt sql.NullString
	var revoked int

	err := row.Scan(&key.ID, &key.Name, &key.TokenHash, &key.TokenPrefix,
		&scope, &createdAt, &lastUsedAt, &expiresAt, &revoked)
	if err == sql.ErrNoRows {
		return nil, ikberr.New(ikberr.AuthDenied, "API key not found", nil)
	}
	if err != nil {
		return nil, ikberr.New(ikberr.StoreUnavailable, "failed to read API key", err)
	}

	key.Scope = Scope(scope)
	key.Revoked = revoked != 0
	key.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if lastUsedAt.Valid {
		if t, err := time.Parse(time.RFC3339, lastUsedAt.String); err == nil {
			key.LastUsedAt = &t
		}
	}
	if expiresAt.Valid {
		if t, err := time.Parse(time.RFC3339, expiresAt.String); err == nil {
			key.ExpiresAt = &t
		}
	}
	return &key, nil
}

func (s *KeyStore) scanKeys(rows *sql.Rows) ([]*APIKey, error) {
	var keys []*APIKey
	for rows.Next() {
		var key APIKey
		var scope string
		var createdAt string
		var lastUsedAt, expiresAt sql.NullString
		var revoked int

		err := rows.Scan(&key.ID, &key.Name, &key.TokenHash, &key.TokenPrefix,
			&scope, &createdAt, &lastUsedAt, &expiresAt, &revoked)
		if err != nil {
			return nil, ikberr.New(ikberr.StoreUnavailable, "failed to read API key", err)
		}

		key.Scope = Scope(scope)
		key.Revoked = revoked != 0
		key.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if lastUsedAt.Valid {
			if t, err := time.Parse(time.RFC3339, lastUsedAt.String); err == nil {
				key.LastUsedAt = &t
			}
		}
		if expiresAt.Valid {
			if t, err := time.Parse(time.RFC3339, expiresAt.String); err == nil {
				key.ExpiresAt = &t
			}
		}
		keys = append(keys, &key)
	}
	return keys, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
