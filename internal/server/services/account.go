// Package services contains server-side business logic. This file implements
// AccountService, which handles registration, login, and issuing/verifying
// session JWTs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkuzmin/blogd/internal/common"
	"github.com/mkuzmin/blogd/internal/dbx"
	"github.com/mkuzmin/blogd/internal/server/auth"
	"github.com/mkuzmin/blogd/internal/server/config"
	"github.com/mkuzmin/blogd/internal/server/models"
	"github.com/mkuzmin/blogd/internal/server/repositories/repomanager"
)

// DefaultRole is assigned to every account created through Register.
const DefaultRole = "user"

// AccountService provides authentication-related operations:
// - Register: create accounts
// - Login: verify credentials
// - IssueToken / VerifyToken: session token lifecycle
type AccountService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewAccountService constructs an AccountService using repositories and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates a new account with the given username and password.
// Empty fields yield ErrorValidation; an existing username yields
// ErrorAlreadyExists. The existence check and insert run in one transaction
// so concurrent registrations of the same username cannot both succeed.
func (s *AccountService) Register(ctx context.Context, username, password string) (*models.Account, error) {
	if username == "" || password == "" {
		return nil, common.ErrorValidation
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	account := &models.Account{Username: username, PasswordHash: hash, Role: DefaultRole}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		_, err := repo.GetByUsername(ctx, username)
		if err == nil {
			return common.ErrorAlreadyExists
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		account, err = repo.Create(ctx, account)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	return account, nil
}

// Login verifies the credentials and returns the account. A missing account
// and a wrong password are indistinguishable to the caller: both yield
// ErrorUnauthorized. Existence is checked before any field is read.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.Account, error) {
	if username == "" || password == "" {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !auth.CheckPassword(account.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}

	return account, nil
}

// IssueToken mints a session token carrying the account's id, username and role.
func (s *AccountService) IssueToken(account *models.Account) (string, error) {
	return auth.GenerateToken(account.ID, account.Username, account.Role, s.jwtSecret, s.accessTokenValidityDuration)
}

// VerifyToken decodes and validates a session token. Failures mean
// "unauthenticated", never a fatal condition.
func (s *AccountService) VerifyToken(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.jwtSecret)
}
