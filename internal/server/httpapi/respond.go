package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authapi/internal/common"
)

// apiError is one entry of the error response body:
//
//	[{"error": "must not be empty", "field": "name"}]
type apiError struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, field string) {
	writeJSON(w, status, []apiError{{Error: msg, Field: field}})
}

// writeServiceError maps a service error to its status code. Unexpected
// errors are logged and answered with a generic 500.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message, ve.Field)
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, common.ErrRenewalTokenExpired):
		writeError(w, http.StatusForbidden, "renewal token expired", "")
	case errors.Is(err, common.ErrTokenExpired):
		writeError(w, http.StatusForbidden, "token expired", "")
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrorForbidden),
		errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusForbidden, "forbidden", "")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found", "")
	case errors.Is(err, common.ErrorConflict):
		writeError(w, http.StatusConflict, "already exists", "name")
	default:
		s.logger.Error(r.Context(), "request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}

// errBodyTooLarge is returned by decodeJSON when the body exceeds the limit.
var errBodyTooLarge = errors.New("request body too large")

// decodeJSON decodes exactly one JSON value from the request body into dst.
// Malformed input yields a ValidationError describing what is wrong.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		return describeDecodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return common.NewValidationError("", "request body must contain a single JSON value")
	}
	return nil
}

func describeDecodeError(err error) error {
	var (
		syntaxErr    *json.SyntaxError
		typeErr      *json.UnmarshalTypeError
		tooLarge     *http.MaxBytesError
		validationEr *common.ValidationError
	)
	switch {
	case errors.As(err, &tooLarge):
		return errBodyTooLarge
	case errors.As(err, &validationEr):
		return err
	case errors.Is(err, io.EOF):
		return common.NewValidationError("", "request body must not be empty")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return common.NewValidationError("", "request body contains badly-formed JSON")
	case errors.As(err, &syntaxErr):
		return common.NewValidationError("", fmt.Sprintf("request body contains badly-formed JSON (at position %d)", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return common.NewValidationError(typeErr.Field, fmt.Sprintf("must be %s", jsonKind(typeErr.Type.Kind().String())))
		}
		return common.NewValidationError("", fmt.Sprintf("request body must be %s", jsonKind(typeErr.Type.Kind().String())))
	default:
		return common.NewValidationError("", "request body is not valid JSON: "+err.Error())
	}
}

func jsonKind(goKind string) string {
	switch {
	case goKind == "string":
		return "a string"
	case goKind == "struct" || goKind == "map":
		return "an object"
	case goKind == "slice" || goKind == "array":
		return "a list"
	case goKind == "bool":
		return "a boolean"
	case strings.HasPrefix(goKind, "int"), strings.HasPrefix(goKind, "uint"), strings.HasPrefix(goKind, "float"):
		return "a number"
	default:
		return "a valid value"
	}
}

// writeDecodeError answers a failed decodeJSON.
func (s *HTTPServer) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error(), "")
		return
	}
	s.writeServiceError(w, r, err)
}
