package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the JWT payload issued by the local identity provider.
// The metadata map mirrors the provider-side identity metadata, including
// the role tag.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID         string         `json:"uid,omitempty"`
	Email       string         `json:"email,omitempty"`
	DisplayName string         `json:"name,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// UserID returns the user ID
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *SessionClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// claimsIdentity projects SessionClaims back into an Identity so restored
// sessions carry the same metadata snapshot they were issued with.
type claimsIdentity struct {
	claims *SessionClaims
}

func (c claimsIdentity) ID() string {
	return c.claims.UserID()
}

func (c claimsIdentity) Email() string {
	return c.claims.Email
}

func (c claimsIdentity) DisplayName() string {
	return c.claims.DisplayName
}

func (c claimsIdentity) Metadata() map[string]any {
	return c.claims.Metadata
}

var _ Identity = claimsIdentity{}
