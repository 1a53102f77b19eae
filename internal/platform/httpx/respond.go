package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends an error body.
func Error(w http.ResponseWriter, status int, body ErrorBody) {
	JSON(w, status, body)
}

// Message sends {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Message: msg})
}

// DecodeJSON decodes a JSON request body into target, rejecting unknown
// fields, trailing data and oversized bodies.
func DecodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	if r.Body == nil {
		return Invalid("", "request body is required")
	}
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Invalid("", "request body must contain a single JSON object")
	}
	return nil
}

func decodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return Invalid("", "request body is required")
	case errors.As(err, &syntaxErr):
		return Invalid("", fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		return Invalid(typeErr.Field, "has the wrong type")
	case errors.As(err, &maxErr):
		return Invalid("", "request body too large")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return Invalid(name, "unknown field")
	default:
		return Invalid("", "malformed JSON")
	}
}
