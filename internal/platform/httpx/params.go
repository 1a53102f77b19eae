package httpx

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// PathID parses a positive int64 chi URL parameter.
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// QueryID parses an optional positive int64 query parameter. A missing value
// yields 0.
func QueryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, Invalid(name, "must be a positive integer")
	}
	return id, nil
}
