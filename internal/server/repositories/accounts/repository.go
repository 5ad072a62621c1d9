// Package accounts persists account records (the credential store).
package accounts

import (
	"context"

	"github.com/mkuzmin/blogd/internal/server/models"
)

type Repository interface {
	// Create inserts a new account. A duplicate username yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// GetByUsername returns the account with the given username or
	// common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
}
