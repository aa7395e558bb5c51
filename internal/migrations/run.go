package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

// Run applies all pending migrations to db.
func Run(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(Migrations)
	return goose.UpContext(ctx, db, ".")
}
