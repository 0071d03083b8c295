package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/netdiagram/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps err to a status by its code.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, ErrorResponse{
		Status:  status,
		Code:    string(code),
		Message: errors.UserMessage(err),
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, errors.New(errors.ErrCodeInvalidInput, "%s", message))
}

func statusFor(err error) int {
	if stderrors.Is(err, errLoopStopped) {
		return http.StatusServiceUnavailable
	}
	if errors.IsNotFound(err) {
		return http.StatusNotFound
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidName, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
