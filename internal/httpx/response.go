// Package httpx holds the JSON helpers shared by the API handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/logger"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes payload with status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSONError writes an ErrorResponse with status.
func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Decode reads a single JSON object from r into dst. Unknown fields are
// rejected.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("body", decodeMessage(err))
	}
	if dec.More() {
		return apperr.Validation("body", "must contain a single JSON object")
	}
	return nil
}

func decodeMessage(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return "is empty"
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %s must be %s", typeErr.Field, typeErr.Type)
	default:
		return err.Error()
	}
}

// IDParam parses the chi URL parameter name as a positive id.
func IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(name, "must be a positive integer")
	}
	return id, nil
}

// Error writes err with the status that matches its kind. Unexpected errors
// are logged and reported as 500 without detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *apperr.ValidationError
		nerr *apperr.NotFoundError
		cerr *apperr.ConfigurationError
	)
	switch {
	case errors.As(err, &verr):
		JSONError(w, http.StatusBadRequest, "validation_failed", verr.Fields)
	case errors.As(err, &nerr):
		JSONError(w, http.StatusNotFound, "not_found", nerr.Error())
	case errors.As(err, &cerr):
		JSONError(w, http.StatusUnprocessableEntity, "configuration_error", cerr.Msg)
	default:
		logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
		JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
