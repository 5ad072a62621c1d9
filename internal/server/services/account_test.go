package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mkuzmin/blogd/internal/common"
	"github.com/mkuzmin/blogd/internal/dbx"
	"github.com/mkuzmin/blogd/internal/server/auth"
	"github.com/mkuzmin/blogd/internal/server/config"
	"github.com/mkuzmin/blogd/internal/server/models"
	accountsrepo "github.com/mkuzmin/blogd/internal/server/repositories/accounts"
	postsrepo "github.com/mkuzmin/blogd/internal/server/repositories/posts"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testServiceConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		DefaultPageSize:             10,
	}
}

type fakeAccountsRepo struct {
	createOut *models.Account
	createErr error

	getOut *models.Account
	getErr error
}

func (f *fakeAccountsRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *fakeAccountsRepo) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakePostsRepo struct {
	createOut *models.Post
	createErr error

	getOut *models.Post
	getErr error

	listOut []*models.Post
	listErr error
	// captured pagination
	gotFilter postsrepo.Filter
	gotOffset int
	gotLimit  int

	countOut int64
	countErr error

	updateOut *models.Post
	updateErr error

	deleteOut *models.Post
	deleteErr error
}

func (f *fakePostsRepo) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return p, nil
}

func (f *fakePostsRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakePostsRepo) List(ctx context.Context, filter postsrepo.Filter, offset, limit int) ([]*models.Post, error) {
	f.gotFilter, f.gotOffset, f.gotLimit = filter, offset, limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

func (f *fakePostsRepo) Count(ctx context.Context, filter postsrepo.Filter) (int64, error) {
	f.gotFilter = filter
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.countOut, nil
}

func (f *fakePostsRepo) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updateOut != nil {
		return f.updateOut, nil
	}
	return p, nil
}

func (f *fakePostsRepo) Delete(ctx context.Context, id string) (*models.Post, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return f.deleteOut, nil
}

type fakeRepoManager struct {
	a *fakeAccountsRepo
	p *fakePostsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository  { return m.a }
func (m *fakeRepoManager) Posts(db dbx.DBTX) postsrepo.Repository        { return m.p }

// --- tests ---

func TestRegister_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{a: &fakeAccountsRepo{
		getErr:    common.ErrorNotFound,
		createOut: &models.Account{ID: "acc-1", Username: "alice", Role: "user"},
	}}
	s := NewAccountService(db, rm, testServiceConfig())

	acc, err := s.Register(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if acc.ID != "acc-1" || acc.Role != "user" {
		t.Fatalf("unexpected account: %+v", acc)
	}
}

func TestRegister_EmptyFields(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := NewAccountService(db, &fakeRepoManager{a: &fakeAccountsRepo{}}, testServiceConfig())

	for _, pair := range [][2]string{{"", "pw"}, {"alice", ""}, {"", ""}} {
		_, err := s.Register(context.Background(), pair[0], pair[1])
		if !errors.Is(err, common.ErrorValidation) {
			t.Fatalf("expected common.ErrorValidation for %q/%q, got %v", pair[0], pair[1], err)
		}
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{a: &fakeAccountsRepo{
		getOut: &models.Account{ID: "acc-1", Username: "alice"},
	}}
	s := NewAccountService(db, rm, testServiceConfig())

	_, err := s.Register(context.Background(), "alice", "pw")
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("expected common.ErrorAlreadyExists, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, err := auth.HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	rm := &fakeRepoManager{a: &fakeAccountsRepo{
		getOut: &models.Account{ID: "acc-1", Username: "alice", PasswordHash: hash, Role: "user"},
	}}
	s := NewAccountService(db, rm, testServiceConfig())

	acc, err := s.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if acc.ID != "acc-1" {
		t.Fatalf("unexpected account: %+v", acc)
	}
}

func TestLogin_UnknownAccountDoesNotCrash(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{a: &fakeAccountsRepo{getErr: common.ErrorNotFound}}
	s := NewAccountService(db, rm, testServiceConfig())

	_, err := s.Login(context.Background(), "ghost", "pw")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected common.ErrorUnauthorized, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, err := auth.HashPassword("right")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	rm := &fakeRepoManager{a: &fakeAccountsRepo{
		getOut: &models.Account{ID: "acc-1", Username: "alice", PasswordHash: hash},
	}}
	s := NewAccountService(db, rm, testServiceConfig())

	_, err = s.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected common.ErrorUnauthorized, got %v", err)
	}
}

func TestLogin_EmptyFields(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := NewAccountService(db, &fakeRepoManager{a: &fakeAccountsRepo{}}, testServiceConfig())

	_, err := s.Login(context.Background(), "", "pw")
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("expected common.ErrorValidation, got %v", err)
	}
}

func TestIssueAndVerifyToken_RoundTrip(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := NewAccountService(db, &fakeRepoManager{a: &fakeAccountsRepo{}}, testServiceConfig())

	token, err := s.IssueToken(&models.Account{ID: "acc-1", Username: "alice", Role: "user"})
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	claims, err := s.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken error: %v", err)
	}
	if claims.AccountID != "acc-1" || claims.Username != "alice" || claims.Role != "user" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := NewAccountService(db, &fakeRepoManager{a: &fakeAccountsRepo{}}, testServiceConfig())

	if _, err := s.VerifyToken("garbage"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}
