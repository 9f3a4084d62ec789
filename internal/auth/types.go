package auth

import "time"

// Scope represents a permission level for an API key.
type Scope string

const (
	// ScopeRead allows querying statistics and documents
	ScopeRead Scope = "read"

	// ScopeWrite allows imports and exports in addition to read
	ScopeWrite Scope = "write"

	// ScopeAdmin allows key management in addition to write
	ScopeAdmin Scope = "admin"
)

// Includes reports whether s grants the permissions of other.
func (s Scope) Includes(other Scope) bool {
	switch s {
	case ScopeAdmin:
		return true
	case ScopeWrite:
		return other == ScopeWrite || other == ScopeRead
	case ScopeRead:
		return other == ScopeRead
	}
	return false
}

// ValidScope reports whether name is a known scope.
func ValidScope(name string) bool {
	switch Scope(name) {
	case ScopeRead, ScopeWrite, ScopeAdmin:
		return true
	}
	return false
}

// APIKey is a stored credential. The raw token is only shown once at
// creation time; we keep the bcrypt hash and a short prefix for lookup.
type APIKey struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	TokenHash   string     `json:"-"`
	TokenPrefix string     `json:"token_prefix"`
	Scope       Scope      `json:"scope"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Revoked     bool       `json:"revoked"`
}

// Expired reports whether the key has passed its expiry, if any.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// Usable reports whether the key can authenticate a request right now.
func (k *APIKey) Usable(now time.Time) bool {
	return !k.Revoked && !k.Expired(now)
}
