package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an end user auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetEmail() string
	GetIssuedAt() *time.Time
	GetExpiration() *time.Time
	GetData() map[string]any
}

// Identity holds the attributes of an end user identity as resolved by the
// identity provider. The role tag travels inside Metadata under the "role"
// key; use EffectiveRole to read it with the buyer default applied.
type Identity interface {
	ID() string
	Email() string
	DisplayName() string
	Metadata() map[string]any
}

// ProviderSession is what the identity provider hands back after sign up,
// sign in, or session restoration.
type ProviderSession struct {
	AccessToken string
	Identity    Identity
	ExpiresAt   *time.Time
}

// SessionChangeType enumerates out-of-band provider session events.
type SessionChangeType string

const (
	SessionChangeSignedIn  SessionChangeType = "signed_in"
	SessionChangeSignedOut SessionChangeType = "signed_out"
	SessionChangeExpired   SessionChangeType = "expired"
)

// SessionChangeEvent notifies listeners that the provider side of a session
// changed without a local store operation, e.g. token expiry.
type SessionChangeEvent struct {
	Type    SessionChangeType
	Session *ProviderSession
}

// IdentityProvider is the external collaborator that owns identities. The
// session store never mutates identity metadata directly; it only calls
// these operations.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*ProviderSession, error)
	SignIn(ctx context.Context, email, password string) (*ProviderSession, error)
	SignOut(ctx context.Context, accessToken string) error
	SessionFromToken(ctx context.Context, accessToken string) (*ProviderSession, error)
	OnSessionChange(fn func(SessionChangeEvent)) (unsubscribe func())
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// CredentialStore is durable client-side storage for serialized credentials.
// Load reports ok=false when nothing is stored.
type CredentialStore interface {
	Load() (data []byte, ok bool, err error)
	Save(data []byte) error
	Clear() error
}

// Config holds auth options consumed by the token service and HTTP layer.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetAuthRoute() string
	GetAdminLoginRoute() string
	GetHomeRoute() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
