package api

import (
	"encoding/json"
	"net/http"

	"stb/internal/errors"
)

// ErrorResponse represents an HTTP error response. Success is always
// false here; it mirrors the success flag of /parse payloads so
// clients can branch on one field.
type ErrorResponse struct {
	Success        bool               `json:"success"`
	Error          string             `json:"error"`
	Code           string             `json:"code"`
	Details        interface{}        `json:"details,omitempty"`
	SuggestedFixes []errors.FixAction `json:"suggestedFixes,omitempty"`
	Drilldowns     []errors.Drilldown `json:"drilldowns,omitempty"`
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := ErrorResponse{
		Error: err.Error(),
	}

	// If it's a StbError, include additional information
	if stbErr, ok := err.(*errors.StbError); ok {
		resp.Code = string(stbErr.Code)
		resp.Details = stbErr.Details
		resp.SuggestedFixes = stbErr.SuggestedFixes
		resp.Drilldowns = stbErr.Drilldowns
	} else {
		resp.Code = "INTERNAL_ERROR"
	}

	json.NewEncoder(w).Encode(resp)
}

// WriteStbError writes a StbError with automatic status code mapping
func WriteStbError(w http.ResponseWriter, err *errors.StbError) {
	status := MapStbErrorToStatus(err.Code)
	WriteError(w, err, status)
}

// MapStbErrorToStatus maps STB error codes to HTTP status codes
func MapStbErrorToStatus(code errors.ErrorCode) int {
	switch code {
	case errors.InvalidRequest:
		return http.StatusBadRequest // 400
	case errors.SourceTooLarge:
		return http.StatusRequestEntityTooLarge // 413
	case errors.Unauthorized:
		return http.StatusUnauthorized // 401
	case errors.NotFound:
		return http.StatusNotFound // 404
	case errors.HistoryDisabled:
		return http.StatusConflict // 409
	case errors.ManifestInvalid:
		return http.StatusUnprocessableEntity // 422
	case errors.SuiteInvalid:
		return http.StatusUnprocessableEntity // 422
	case errors.StorageUnavailable:
		return http.StatusServiceUnavailable // 503
	case errors.InternalError:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// BadRequest writes a 400 Bad Request error
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, &errors.StbError{
		Code:    errors.InvalidRequest,
		Message: message,
	}, http.StatusBadRequest)
}

// NotFound writes a 404 Not Found error
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, &errors.StbError{
		Code:    errors.NotFound,
		Message: message,
	}, http.StatusNotFound)
}

// InternalError writes a 500 Internal Server Error
func InternalError(w http.ResponseWriter, message string, err error) {
	WriteError(w, &errors.StbError{
		Code:    errors.InternalError,
		Message: message,
	}, http.StatusInternalServerError)
}
