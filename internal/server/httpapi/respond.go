package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkuzmin/blogd/internal/common"
)

// errorBody is the structured error payload sent on every failure path.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels to HTTP statuses. Anything unrecognized
// is logged and surfaced as a generic 500 so no failure crashes the process.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var kind string

	switch {
	case errors.Is(err, common.ErrorValidation):
		status, kind = http.StatusBadRequest, "validation_error"
	case errors.Is(err, common.ErrorAlreadyExists):
		status, kind = http.StatusConflict, "conflict"
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		status, kind = http.StatusUnauthorized, "authentication_error"
	case errors.Is(err, common.ErrorForbidden):
		status, kind = http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrorNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, common.ErrorUploadFailed):
		status, kind = http.StatusInternalServerError, "upload_error"
	default:
		status, kind = http.StatusInternalServerError, "internal_error"
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	}

	msg := err.Error()
	if kind == "internal_error" {
		// do not leak internals to the client
		msg = "internal error"
	}

	s.writeJSON(w, status, errorBody{Kind: kind, Message: msg})
}
