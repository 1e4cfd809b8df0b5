package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"schoolhub.org/internal/auth"
)

// Error codes carried in the response envelope.
const (
	codeValidation         = "VALIDATION_ERROR"
	codeInvalidArgument    = "INVALID_ARGUMENT"
	codeNotFound           = "NOT_FOUND"
	codeDuplicateIdentity  = "DUPLICATE_IDENTITY"
	codeConflict           = "CONFLICT"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeUnauthorized       = "UNAUTHORIZED"
	codeRateLimited        = "RATE_LIMITED"
	codeInternal           = "INTERNAL_ERROR"
)

// apiResponse is the envelope every endpoint answers with, success or not.
type apiResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, resp apiResponse) {
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
	resp.Path = r.URL.Path
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeSuccess(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	writeEnvelope(w, r, status, apiResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeEnvelope(w, r, status, apiResponse{
		Success:   false,
		Message:   message,
		ErrorCode: code,
	})
}

// decodeJSON is strict: unknown fields and trailing garbage are rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// handleServiceError maps domain errors onto envelope status/code pairs.
// Unexpected errors never leak detail to the client.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *auth.ValidationError
		notFoundErr   *auth.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, r, http.StatusBadRequest, codeValidation, trimErrPrefix(validationErr))
	case errors.As(err, &notFoundErr):
		writeError(w, r, http.StatusNotFound, codeNotFound, trimErrPrefix(notFoundErr))
	case errors.Is(err, auth.ErrDuplicateIdentity):
		writeError(w, r, http.StatusConflict, codeDuplicateIdentity, "an account with this email already exists")
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, codeConflict, "resource already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, codeInvalidCredentials, "invalid credentials")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, codeInvalidArgument, trimErrPrefix(err))
	default:
		writeError(w, r, http.StatusInternalServerError, codeInternal, "internal error")
	}
}

func trimErrPrefix(err error) string {
	msg := strings.TrimPrefix(err.Error(), "auth: invalid input: ")
	return strings.TrimPrefix(msg, "auth: ")
}
