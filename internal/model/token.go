// Package model defines domain entities for the application.
package model

import "time"

// Token represents a bearer token credential issued to a user.
type Token struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	TokenHash   string     `json:"-"` // Never serialize
	TokenPrefix string     `json:"token_prefix"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsRevoked returns true if the token has been revoked.
func (t *Token) IsRevoked() bool {
	return t.RevokedAt != nil
}

// AuthContext holds the identity of an authenticated request.
// This is injected into the request context by the auth middleware.
type AuthContext struct {
	TokenID     string
	TokenPrefix string
	UserID      string
}
