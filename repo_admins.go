package auth

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AdminUsers is the persistence surface for administrator credential
// records. It also satisfies AdminDirectory for the admin session store.
type AdminUsers interface {
	repository.Repository[*AdminUser]

	FetchByEmail(ctx context.Context, email string) (*AdminUser, error)
	FetchByEmailTx(ctx context.Context, tx bun.IDB, email string) (*AdminUser, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	DeactivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type adminUsers struct {
	repository.Repository[*AdminUser]
	db *bun.DB
}

var (
	_ AdminUsers     = (*adminUsers)(nil)
	_ AdminDirectory = (*adminUsers)(nil)
)

// NewAdminUsersRepository creates the bun-backed AdminUsers repository.
func NewAdminUsersRepository(db *bun.DB) AdminUsers {
	repo := repository.NewRepository[*AdminUser](db, repository.ModelHandlers[*AdminUser]{
		NewRecord: func() *AdminUser { return &AdminUser{} },
		GetID: func(a *AdminUser) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *AdminUser, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &adminUsers{
		Repository: repo,
		db:         db,
	}
}

func (a *adminUsers) FetchByEmail(ctx context.Context, email string) (*AdminUser, error) {
	return a.FetchByEmailTx(ctx, a.db, email)
}

func (a *adminUsers) FetchByEmailTx(ctx context.Context, tx bun.IDB, email string) (*AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	record := &AdminUser{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *adminUsers) Deactivate(ctx context.Context, id uuid.UUID) error {
	return a.DeactivateTx(ctx, a.db, id)
}

func (a *adminUsers) DeactivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewUpdate().
		Model((*AdminUser)(nil)).
		Set("is_active = ?", false).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *adminUsers) Create(ctx context.Context, record *AdminUser, criteria ...repository.InsertCriteria) (*AdminUser, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *adminUsers) CreateTx(ctx context.Context, tx bun.IDB, record *AdminUser, criteria ...repository.InsertCriteria) (*AdminUser, error) {
	prepareAdminDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func prepareAdminDefaults(record *AdminUser) {
	if record == nil {
		return
	}

	record.Email = strings.ToLower(strings.TrimSpace(record.Email))

	// New admins start active; deactivation is an explicit operation.
	record.IsActive = true

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
