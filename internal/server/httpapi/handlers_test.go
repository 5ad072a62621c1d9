package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mkuzmin/blogd/internal/dbx"
	"github.com/mkuzmin/blogd/internal/logging"
	"github.com/mkuzmin/blogd/internal/server/config"
	"github.com/mkuzmin/blogd/internal/server/models"
	accountsrepo "github.com/mkuzmin/blogd/internal/server/repositories/accounts"
	postsrepo "github.com/mkuzmin/blogd/internal/server/repositories/posts"
	"github.com/mkuzmin/blogd/internal/server/services"
)

const (
	testPostID   = "6a9c1c3e-0b5d-4a3e-9f11-2f1af8c9d101"
	testAuthorID = "0f2b6a44-7c88-4e6f-93b4-d5a1c2e3f406"
)

// --- fakes ---

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
	createErr error

	getOut *models.Post
	getErr error

	listOut   []*models.Post
	listErr   error
	gotFilter postsrepo.Filter
	gotOffset int
	gotLimit  int

	countOut int64

	updateErr error

	deleteOut *models.Post
	deleteErr error
}

func (f *fakePostsRepo) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p.ID = testPostID
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
	return f.countOut, nil
}

func (f *fakePostsRepo) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
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

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository { return m.a }
func (m *fakeRepoManager) Posts(db dbx.DBTX) postsrepo.Repository      { return m.p }

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// --- server under test ---

type testServer struct {
	*HTTPServer
	handler  http.Handler
	accounts *fakeAccountsRepo
	posts    *fakePostsRepo
	uploader *fakeUploader
	mock     sqlmock.Sqlmock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		EndpointAddrHTTP:            ":0",
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: time.Hour,
		ClientOrigin:                "http://client.local",
		StaticDir:                   t.TempDir(),
		RequestTimeout:              5 * time.Second,
		DefaultPageSize:             10,
	}

	ar := &fakeAccountsRepo{}
	pr := &fakePostsRepo{}
	up := &fakeUploader{url: "http://minio:9000/images/cover.png"}
	rm := &fakeRepoManager{a: ar, p: pr}

	as := services.NewAccountService(db, rm, cfg)
	ps := services.NewPostService(db, rm, up, cfg)

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv, err := NewHTTPServer(logger, as, ps, cfg)
	if err != nil {
		t.Fatalf("NewHTTPServer error: %v", err)
	}

	return &testServer{
		HTTPServer: srv,
		handler:    srv.routes(),
		accounts:   ar,
		posts:      pr,
		uploader:   up,
		mock:       mock,
	}
}

// sessionCookieFor mints a valid session cookie for the given account.
func (ts *testServer) sessionCookieFor(t *testing.T, account *models.Account) *http.Cookie {
	t.Helper()
	token, err := ts.HTTPServer.accounts.IssueToken(account)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	return &http.Cookie{Name: SessionCookieName, Value: token}
}

// multipartBody builds a multipart form with post fields and an optional file.
func multipartBody(t *testing.T, fields map[string]string, filename string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField error: %v", err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile error: %v", err)
		}
		if _, err := part.Write([]byte("image-bytes")); err != nil {
			t.Fatalf("part write error: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close error: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func sessionCookieFromResponse(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}
