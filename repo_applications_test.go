package auth_test

import (
	"context"
	"database/sql"
	"testing"

	auth "github.com/bpower/go-marketplace-auth"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive for the test.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, model := range []any{
		(*auth.User)(nil),
		(*auth.AdminUser)(nil),
		(*auth.SellerApplication)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	return db
}

func testApplication(ownerID uuid.UUID) *auth.SellerApplication {
	return &auth.SellerApplication{
		UserID:            ownerID,
		BusinessName:      "Acme Exports",
		BusinessType:      "sole_proprietorship",
		BusinessAddress:   "42 Market Road, Pune",
		ContactPhone:      "+91 98765 43210",
		BankName:          "State Bank",
		BankAccountNumber: "123456789012",
		IFSCCode:          "SBIN0001234",
		AccountHolderName: "Acme Exports Pvt Ltd",
	}
}

func TestSellerApplicationsSubmitOncePerOwner(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := auth.NewSellerApplicationsRepository(db)

	ownerID := uuid.New()

	created, err := repo.Submit(ctx, testApplication(ownerID))
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, auth.StatusPending, created.Status)

	// Same owner again, in any status, is a distinguishable failure.
	_, err = repo.Submit(ctx, testApplication(ownerID))
	require.Error(t, err)
	assert.True(t, auth.IsDuplicateApplication(err))

	// The failed submit left no second record behind.
	found, err := repo.GetByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestSellerApplicationsGetByOwnerUnknown(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := auth.NewSellerApplicationsRepository(db)

	_, err := repo.GetByOwner(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestSellerApplicationsReviewLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := auth.NewSellerApplicationsRepository(db)

	ownerID := uuid.New()
	app, err := repo.Submit(ctx, testApplication(ownerID))
	require.NoError(t, err)

	reviewer := auth.ActorRef{ID: "admin-1", Type: "admin"}

	approved, err := repo.Approve(ctx, reviewer, app)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved())

	// The decision is persisted, not only in memory.
	stored, err := repo.GetByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusApproved, stored.Status)

	// Approved never moves again.
	_, err = repo.Reject(ctx, reviewer, stored)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrTerminalStatus)
}

func TestSellerApplicationsRejectPersistsNotes(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := auth.NewSellerApplicationsRepository(db)

	ownerID := uuid.New()
	app, err := repo.Submit(ctx, testApplication(ownerID))
	require.NoError(t, err)

	_, err = repo.Reject(ctx, auth.ActorRef{ID: "admin-1", Type: "admin"}, app,
		auth.WithTransitionNotes("missing GST registration"))
	require.NoError(t, err)

	stored, err := repo.GetByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, auth.StatusRejected, stored.Status)
	assert.Equal(t, "missing GST registration", stored.AdminNotes)
}

func TestAdminUsersCreateStartsActive(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := auth.NewAdminUsersRepository(db)

	hash, err := auth.HashPassword("correct horse battery")
	require.NoError(t, err)

	_, err = repo.Create(ctx, &auth.AdminUser{
		Email:        "Admin@Example.com",
		FullName:     "Admin Person",
		PasswordHash: hash,
	})
	require.NoError(t, err)

	stored, err := repo.FetchByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.Equal(t, "admin@example.com", stored.Email)

	require.NoError(t, repo.Deactivate(ctx, stored.ID))

	stored, err = repo.FetchByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestUsersRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := auth.NewUsersRepository(db)

	hash, err := auth.HashPassword("password-123")
	require.NoError(t, err)

	created, err := repo.Register(ctx, &auth.User{
		Email:        "Seller@Example.com",
		DisplayName:  "Seller",
		PasswordHash: hash,
		Metadata:     map[string]any{"role": auth.RoleSeller},
	})
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", created.Email)

	found, err := repo.GetByIdentifier(ctx, "seller@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, auth.RoleSeller, found.Role())
}
