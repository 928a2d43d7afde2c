package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authapi/internal/common"
	"github.com/dmitrijs2005/authapi/internal/server/metrics"
	"github.com/dmitrijs2005/authapi/internal/server/models"
)

type passwordRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// decodeSecret reads a body that is either a bare JSON string or an object
// holding the string under key.
func decodeSecret(r *http.Request, key string) (string, error) {
	var raw json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		return "", err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", describeDecodeError(err)
		}
		return s, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return "", common.NewValidationError("", "request body must be a string or an object")
	}
	v, ok := obj[key]
	if !ok {
		return "", common.NewValidationError(key, "is required")
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", common.NewValidationError(key, "must be a string")
	}
	return s, nil
}

func (s *HTTPServer) apiKeyHandler(w http.ResponseWriter, r *http.Request) {
	key, err := decodeSecret(r, "apiKey")
	if err != nil {
		s.writeDecodeError(w, r, err)
		return
	}

	identity, err := s.verifier.VerifyAPIKey(r.Context(), key)
	s.respondWithSession(w, r, metrics.MethodAPIKey, identity, err)
}

func (s *HTTPServer) passwordHandler(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeDecodeError(w, r, err)
		return
	}

	identity, err := s.verifier.VerifyPassword(r.Context(), req.Name, req.Password)
	s.respondWithSession(w, r, metrics.MethodPassword, identity, err)
}

func (s *HTTPServer) renewTokenHandler(w http.ResponseWriter, r *http.Request) {
	token, err := decodeSecret(r, "renewalToken")
	if err != nil {
		s.writeDecodeError(w, r, err)
		return
	}

	pair, err := s.sessions.Renew(r.Context(), token)
	if err != nil {
		s.recordAuth(metrics.MethodRenewal, err)
		s.writeServiceError(w, r, err)
		return
	}

	s.recordAuth(metrics.MethodRenewal, nil)
	s.recordIssued()
	writeJSON(w, http.StatusOK, pair)
}

// respondWithSession issues a token pair for a verified identity, or answers
// the verification error.
func (s *HTTPServer) respondWithSession(w http.ResponseWriter, r *http.Request, method string,
	identity models.Identity, verifyErr error) {
	if verifyErr != nil {
		s.recordAuth(method, verifyErr)
		s.writeServiceError(w, r, verifyErr)
		return
	}

	pair, err := s.sessions.Issue(r.Context(), identity)
	if err != nil {
		s.recordAuth(method, err)
		s.writeServiceError(w, r, err)
		return
	}

	s.recordAuth(method, nil)
	s.recordIssued()
	s.logger.Info(r.Context(), "session issued", "account_id", identity.AccountID, "method", method)
	writeJSON(w, http.StatusOK, pair)
}

func (s *HTTPServer) recordAuth(method string, err error) {
	if s.metrics == nil {
		return
	}
	result := metrics.ResultSuccess
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrorForbidden),
		errors.Is(err, common.ErrRenewalTokenExpired):
		result = metrics.ResultRejected
	default:
		result = metrics.ResultError
	}
	s.metrics.AuthAttemptsTotal.WithLabelValues(method, result).Inc()
}

func (s *HTTPServer) recordIssued() {
	if s.metrics != nil {
		s.metrics.TokensIssuedTotal.Inc()
	}
}
