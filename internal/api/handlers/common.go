package handlers

import (
	"net/http"
	"strconv"

	"github.com/baharkarakas/h2credits-backend/internal/api/httpx"
	"github.com/baharkarakas/h2credits-backend/internal/api/validate"
	"github.com/baharkarakas/h2credits-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// caller returns the authenticated user id, writing 401 when absent.
func caller(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return 0, false
	}
	return uid, true
}

// pathID parses the {id} URL parameter, writing 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ferr := validate.ID("id", chi.URLParam(r, "id"))
	if ferr != nil {
		badRequest(w, validate.Errs{*ferr})
		return 0, false
	}
	return id, true
}

func page(r *http.Request) (limit, offset int) {
	limit = defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func badRequest(w http.ResponseWriter, errs validate.Errs) {
	httpx.WriteError(w, http.StatusBadRequest, "validation_error", errs.Error(), errs)
}

func badBody(w http.ResponseWriter, err error) {
	httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
}
