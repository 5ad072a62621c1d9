package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mkuzmin/blogd/internal/common"
	"github.com/mkuzmin/blogd/internal/server/auth"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "accessToken"

// setSessionCookie delivers the session token to the browser. The cookie is
// HTTP-only and cross-site so the separately hosted client can send it.
func (s *HTTPServer) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (s *HTTPServer) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// sessionClaims reads and verifies the session cookie. An absent cookie and
// a bad token both mean the request is unauthenticated.
func (s *HTTPServer) sessionClaims(r *http.Request) (*auth.Claims, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	return s.accounts.VerifyToken(cookie.Value)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *HTTPServer) home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Home page"))
}

func (s *HTTPServer) verifyToken(w http.ResponseWriter, r *http.Request) {
	claims, err := s.sessionClaims(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data": map[string]string{
			"accountId": claims.AccountID,
			"username":  claims.Username,
			"role":      claims.Role,
		},
	})
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrorValidation)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	account, err := s.accounts.Register(ctx, req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.accounts.IssueToken(account)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	s.writeJSON(w, http.StatusOK, map[string]string{
		"username": account.Username,
		"userId":   account.ID,
	})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.ErrorValidation)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	account, err := s.accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.accounts.IssueToken(account)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	s.writeJSON(w, http.StatusOK, map[string]string{
		"username": account.Username,
		"userId":   account.ID,
		"role":     account.Role,
		"token":    token,
	})
}

func (s *HTTPServer) logout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
