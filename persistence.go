package auth

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

// SetupPersistence registers models and migrations, runs the migrations,
// and returns the ready database handle. The dialect decides which
// migration flavor applies.
func SetupPersistence(ctx context.Context, cfg persistence.Config, db *sql.DB, dialect schema.Dialect) (*bun.DB, error) {
	persistence.RegisterModel((*User)(nil))
	persistence.RegisterModel((*AdminUser)(nil))
	persistence.RegisterModel((*SellerApplication)(nil))

	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not initialize persistence client")
	}

	migrations, err := fs.Sub(GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not mount embedded migrations")
	}

	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "migration dialect validation failed")
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "migrations failed")
	}

	return client.DB(), nil
}

// OpenSQLite opens an sqlite-backed database and runs migrations. This is
// the zero-config path for local deployments.
func OpenSQLite(ctx context.Context, cfg persistence.Config, dsn string) (*bun.DB, error) {
	db, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not open sqlite database")
	}

	return SetupPersistence(ctx, cfg, db, sqlitedialect.New())
}
