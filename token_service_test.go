package auth_test

import (
	"testing"

	auth "github.com/bpower/go-marketplace-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	ts := auth.NewTokenService([]byte("test-signing-key"), 24, "marketplace", []string{"web"}, nil)

	identity := sellerIdentity("3c646746-5986-4e79-9f5c-d9b8f9aee2b3")

	token, err := ts.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), claims.UserID())
	assert.Equal(t, identity.Email(), claims.Email)
	assert.Equal(t, "marketplace", claims.RegisteredClaims.Issuer)
	assert.Equal(t, "seller", claims.Metadata["role"])
}

func TestTokenServiceRejectsWrongKey(t *testing.T) {
	issuer := auth.NewTokenService([]byte("key-one"), 24, "marketplace", nil, nil)
	verifier := auth.NewTokenService([]byte("key-two"), 24, "marketplace", nil, nil)

	token, err := issuer.Generate(sellerIdentity("u1"))
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	ts := auth.NewTokenService([]byte("test-signing-key"), 24, "marketplace", nil, nil)

	_, err := ts.Validate("not.a.token")
	require.Error(t, err)
}

func TestTokenServiceRejectsNilIdentity(t *testing.T) {
	ts := auth.NewTokenService([]byte("test-signing-key"), 24, "marketplace", nil, nil)

	_, err := ts.Generate(nil)
	require.Error(t, err)
}

func TestTokenServiceFromConfigSessionView(t *testing.T) {
	ts := auth.NewTokenServiceFromConfig(auth.SimpleConfig{
		SigningKey: "test-signing-key",
		Issuer:     "marketplace",
	}, nil)

	identity := sellerIdentity("3c646746-5986-4e79-9f5c-d9b8f9aee2b3")

	token, err := ts.Generate(identity)
	require.NoError(t, err)

	session, err := ts.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), session.GetUserID())
	assert.Equal(t, identity.Email(), session.GetEmail())
	assert.Equal(t, "seller", session.GetData()["role"])

	id, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), id.String())

	require.NotNil(t, session.GetExpiration())
	assert.False(t, session.GetExpiration().IsZero())
}

func TestTokenServiceSessionFromBadToken(t *testing.T) {
	ts := auth.NewTokenService([]byte("test-signing-key"), 24, "marketplace", nil, nil)

	_, err := ts.SessionFromToken("not.a.token")
	require.Error(t, err)
}
