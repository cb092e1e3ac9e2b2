package server

import (
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"civic_horizon/domain"
)

type errorResp struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, details any) {
	writeJSON(w, status, errorResp{Error: message, Details: details})
}

// decode reads a JSON body no larger than the configured limit. It writes the
// error response itself and reports whether the handler may continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}

// fail maps the error taxonomy onto HTTP statuses. Validation is the
// caller's fault; everything else is reported as a server failure with the
// provider payload, when there is one, in details.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := chimiddleware.GetReqID(r.Context())

	var de *domain.Error
	if !errors.As(err, &de) {
		s.log.Error().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Msg("unexpected error")
		writeError(w, http.StatusInternalServerError, "Unexpected error", err.Error())
		return
	}

	switch de.Kind {
	case domain.KindValidation:
		writeError(w, http.StatusBadRequest, de.Message, de.Details)
	default:
		s.log.Error().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Str("kind", string(de.Kind)).Msg("request failed")
		details := de.Details
		if details == nil && de.Err != nil {
			details = de.Err.Error()
		}
		writeError(w, http.StatusInternalServerError, de.Message, details)
	}
}
