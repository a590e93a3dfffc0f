package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	AdminUsers() AdminUsers
	SellerApplications() SellerApplications
}

type mngr struct {
	db           *bun.DB
	users        Users
	admins       AdminUsers
	applications SellerApplications
}

// NewRepositoryManager wires all repositories over a shared database handle.
func NewRepositoryManager(db *bun.DB, appOpts ...SellerApplicationsOption) RepositoryManager {
	return &mngr{
		db:           db,
		users:        NewUsersRepository(db),
		admins:       NewAdminUsersRepository(db),
		applications: NewSellerApplicationsRepository(db, appOpts...),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.admins == nil {
		return errors.New("repository admins should be initialized")
	}

	if m.applications == nil {
		return errors.New("repository applications should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) AdminUsers() AdminUsers {
	return m.admins
}

func (m mngr) SellerApplications() SellerApplications {
	return m.applications
}
