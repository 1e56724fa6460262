package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/rewardroster/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeInvalidName       = "INVALID_NAME"
	CodeMalformedSnapshot = "MALFORMED_SNAPSHOT"
	CodePlayerNotFound    = "PLAYER_NOT_FOUND"
	CodeItemNotFound      = "ITEM_NOT_FOUND"
	CodeHistoryNotFound   = "HISTORY_NOT_FOUND"
	CodeDuplicatePlayer   = "DUPLICATE_PLAYER"
	CodeInternalError     = "INTERNAL_ERROR"
)

// sentinels maps error codes back to the model errors they came from
var sentinels = map[string]error{
	CodeInvalidName:       model.ErrInvalidPlayerName,
	CodeMalformedSnapshot: model.ErrMalformedSnapshot,
	CodePlayerNotFound:    model.ErrPlayerNotFound,
	CodeItemNotFound:      model.ErrItemNotFound,
	CodeHistoryNotFound:   model.ErrHistoryNotFound,
	CodeDuplicatePlayer:   model.ErrDuplicatePlayer,
}

// Sentinel returns the model error for code, or nil
func Sentinel(code string) error {
	return sentinels[code]
}

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrItemNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeItemNotFound, "Item not found"}}
	case errors.Is(err, model.ErrHistoryNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeHistoryNotFound, "History entry not found"}}
	case errors.Is(err, model.ErrDuplicatePlayer):
		return &httpError{http.StatusConflict, APIError{CodeDuplicatePlayer, "Player already exists"}}
	case errors.Is(err, model.ErrInvalidPlayerName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidName, "Player name must not be blank"}}
	case errors.Is(err, model.ErrMalformedSnapshot):
		return &httpError{http.StatusBadRequest, APIError{CodeMalformedSnapshot, err.Error()}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
