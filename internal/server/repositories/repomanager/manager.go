package repomanager

import (
	"context"
	"database/sql"

	"github.com/mkuzmin/blogd/internal/dbx"
	"github.com/mkuzmin/blogd/internal/server/repositories/accounts"
	"github.com/mkuzmin/blogd/internal/server/repositories/posts"
)

// RepositoryManager vends repository implementations bound to a DBTX, so
// services can run the same repository code on a plain connection or inside
// a transaction, and exposes a schema migration hook.
type RepositoryManager interface {
	Accounts(db dbx.DBTX) accounts.Repository
	Posts(db dbx.DBTX) posts.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
