package models

import (
	"strings"
	"time"
)

// Scope categorizes request classes for differentiated rate limiting.
// Scopes carry distinct key prefixes so their counters never collide.
type Scope string

const (
	// ScopeWrite: general mutating operations (50 req/min default)
	ScopeWrite Scope = "write"
	// ScopeAuth: authentication endpoints (10 req/min default)
	ScopeAuth Scope = "auth"
	// ScopeUpload: file uploads (10 req/min default)
	ScopeUpload Scope = "upload"
	// ScopeExport: report/export downloads (20 req/min default)
	ScopeExport Scope = "export"
)

// IsValid checks if the scope is one of the supported enum values.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeWrite, ScopeAuth, ScopeUpload, ScopeExport:
		return true
	}
	return false
}

// Result represents the outcome of a rate limit check. Limit exhaustion is a
// normal Allowed=false result, never an error.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// Key builds the scoped counter key for an identity. Delimiter characters in
// the identity are escaped so user-controlled values cannot collide with
// adjacent buckets.
func Key(scope Scope, identity string) string {
	return "rl:" + string(scope) + ":" + SanitizeKeySegment(identity)
}

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// to prevent key collision attacks where user-controlled identifiers
// containing ':' could manipulate adjacent rate limit buckets.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
