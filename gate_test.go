package auth_test

import (
	"context"
	"testing"

	auth "github.com/bpower/go-marketplace-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func signedInSessions(t *testing.T, identity auth.Identity) *auth.SessionStore {
	t.Helper()

	provider := &MockIdentityProvider{}
	provider.On("SignIn", mock.Anything, "user@example.com", "password-123").
		Return(&auth.ProviderSession{AccessToken: "token", Identity: identity}, nil).Once()

	sessions := auth.NewSessionStore(provider)
	sessions.Restore(context.Background())

	require.NoError(t, sessions.SignIn(context.Background(), "user@example.com", "password-123"))
	return sessions
}

func TestRoleGateDefersWhileLoading(t *testing.T) {
	sessions := auth.NewSessionStore(&MockIdentityProvider{})

	gate := auth.NewRoleGate(sessions, []auth.Role{auth.RoleSeller})

	decision := gate.Guard()
	assert.Equal(t, auth.DecisionDefer, decision.Outcome)
}

func TestRoleGateRedirectsAnonymousToAuth(t *testing.T) {
	sessions := auth.NewSessionStore(&MockIdentityProvider{})
	sessions.Restore(context.Background())

	gate := auth.NewRoleGate(sessions, []auth.Role{auth.RoleSeller})

	decision := gate.Guard()
	assert.Equal(t, auth.DecisionRedirect, decision.Outcome)
	assert.Equal(t, auth.DefaultAuthRoute, decision.RedirectTo)
}

func TestRoleGateRedirectsRoleMismatchHome(t *testing.T) {
	buyer := staticIdentity{id: "u1", metadata: map[string]any{"role": auth.RoleBuyer}}
	sessions := signedInSessions(t, buyer)

	gate := auth.NewRoleGate(sessions, []auth.Role{auth.RoleSeller})

	decision := gate.Guard()
	assert.Equal(t, auth.DecisionRedirect, decision.Outcome)
	assert.Equal(t, auth.DefaultHomeRoute, decision.RedirectTo)
}

func TestRoleGateAllowsMatchingRole(t *testing.T) {
	sessions := signedInSessions(t, sellerIdentity("u1"))

	gate := auth.NewRoleGate(sessions, []auth.Role{auth.RoleSeller})

	assert.Equal(t, auth.DecisionAllow, gate.Guard().Outcome)
}

func TestRoleGateMissingRoleReadsAsBuyer(t *testing.T) {
	noRole := staticIdentity{id: "u1", metadata: map[string]any{}}
	sessions := signedInSessions(t, noRole)

	sellerGate := auth.NewRoleGate(sessions, []auth.Role{auth.RoleSeller})
	buyerGate := auth.NewRoleGate(sessions, []auth.Role{auth.RoleBuyer})

	assert.Equal(t, auth.DecisionRedirect, sellerGate.Guard().Outcome)
	assert.Equal(t, auth.DecisionAllow, buyerGate.Guard().Outcome)
}

func TestRoleGateEmptyAllowListAdmitsAnyAuthenticated(t *testing.T) {
	sessions := signedInSessions(t, sellerIdentity("u1"))

	gate := auth.NewRoleGate(sessions, nil)

	assert.Equal(t, auth.DecisionAllow, gate.Guard().Outcome)
}

func TestRoleGateCustomRoutes(t *testing.T) {
	sessions := auth.NewSessionStore(&MockIdentityProvider{})
	sessions.Restore(context.Background())

	gate := auth.NewRoleGate(sessions, []auth.Role{auth.RoleSeller},
		auth.WithGateAuthRoute("/signin"),
		auth.WithGateHomeRoute("/landing"),
	)

	decision := gate.Guard()
	assert.Equal(t, "/signin", decision.RedirectTo)
}

func TestRoleGateIsPure(t *testing.T) {
	sessions := signedInSessions(t, sellerIdentity("u1"))

	gate := auth.NewRoleGate(sessions, []auth.Role{auth.RoleAdmin})

	first := gate.Guard()
	second := gate.Guard()
	assert.Equal(t, first, second)

	// Gate evaluation leaves the session untouched.
	_, ok := sessions.Identity()
	assert.True(t, ok)
}

func TestAdminGateRedirectsWithoutSession(t *testing.T) {
	admins := auth.NewAdminSessionStore(&MockAdminDirectory{})

	gate := auth.NewAdminGate(admins)

	decision := gate.Guard()
	assert.Equal(t, auth.DecisionRedirect, decision.Outcome)
	assert.Equal(t, auth.DefaultAdminLoginRoute, decision.RedirectTo)
}

func TestAdminGateIgnoresUserSession(t *testing.T) {
	// A signed in end user has no bearing on the admin surface.
	_ = signedInSessions(t, sellerIdentity("u1"))
	admins := auth.NewAdminSessionStore(&MockAdminDirectory{})

	gate := auth.NewAdminGate(admins)

	assert.Equal(t, auth.DecisionRedirect, gate.Guard().Outcome)
}

func TestAdminGateAllowsRestoredSession(t *testing.T) {
	storage := auth.NewMemoryCredentialStore()
	require.NoError(t, storage.Save([]byte(`{"id":"a1","email":"admin@example.com","full_name":"Admin","is_active":true}`)))

	admins := auth.NewAdminSessionStore(&MockAdminDirectory{}, auth.WithAdminSessionStorage(storage))

	gate := auth.NewAdminGate(admins)

	assert.Equal(t, auth.DecisionAllow, gate.Guard().Outcome)
}
