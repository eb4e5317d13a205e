package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pranaynookala001/securedocs/internal/auth"
	"github.com/pranaynookala001/securedocs/internal/documents"
)

const maxBodyBytes = 1 << 20

// messageResponse is the uniform non-payload body.
type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, messageResponse{Message: message})
}

// respondFailure maps the session manager's failure kinds onto HTTP
// statuses. The Message is already caller-safe by construction.
func respondFailure(w http.ResponseWriter, fail *auth.Failure) {
	status := http.StatusInternalServerError
	switch fail.Kind {
	case auth.FailureUnauthorized:
		status = http.StatusUnauthorized
	case auth.FailureInvalidOperation:
		status = http.StatusBadRequest
	case auth.FailureNotFound:
		status = http.StatusNotFound
	}
	respondMessage(w, status, fail.Message)
}

// respondDocumentsError maps the documents service's sentinel errors.
// Unknown errors surface as opaque 500s; the handler logs the cause.
func respondDocumentsError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, documents.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "document not found")
	case errors.Is(err, documents.ErrAccessDenied):
		respondMessage(w, http.StatusForbidden, "access denied")
	case errors.Is(err, documents.ErrInvalid):
		respondMessage(w, http.StatusBadRequest, "invalid request")
	default:
		log.Error().Err(err).Msg("document operation failed")
		respondMessage(w, http.StatusInternalServerError, "an internal error occurred")
	}
}

// decodeJSON reads a bounded request body into dst, rejecting unknown
// fields and trailing garbage.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
