package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mkuzmin/blogd/internal/common"
	"github.com/mkuzmin/blogd/internal/server/services"
)

// maxUploadSize bounds the in-memory part of multipart parsing.
const maxUploadSize = 10 << 20 // 10 MiB

// postForm extracts post fields and the optional image from a multipart
// request. The caller decides whether a missing image is an error.
func (s *HTTPServer) postForm(r *http.Request) (services.PostInput, *services.ImageFile, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return services.PostInput{}, nil, common.ErrorValidation
	}

	in := services.PostInput{
		Title:   r.FormValue("title"),
		Summary: r.FormValue("summary"),
		Content: r.FormValue("content"),
		Cover:   r.FormValue("cover"),
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, nil, nil
		}
		return services.PostInput{}, nil, common.ErrorValidation
	}

	image := &services.ImageFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	return in, image, nil
}

func (s *HTTPServer) createPost(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	in, image, err := s.postForm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	post, err := s.posts.Create(ctx, claims.AccountID, in, image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, post)
}

func (s *HTTPServer) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	posts, err := s.posts.List(ctx, q.Get("title"), page, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, posts)
}

func (s *HTTPServer) countPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	n, err := s.posts.Count(ctx, r.URL.Query().Get("title"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]int64{"result": n})
}

func (s *HTTPServer) getPost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	post, err := s.posts.GetByID(ctx, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, post)
}

func (s *HTTPServer) updatePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	in, image, err := s.postForm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	post, err := s.posts.Update(ctx, mux.Vars(r)["id"], claims.AccountID, in, image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, post)
}

func (s *HTTPServer) deletePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	post, err := s.posts.Delete(ctx, mux.Vars(r)["id"], claims.AccountID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, post)
}
