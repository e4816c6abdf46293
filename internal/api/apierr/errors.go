// Package apierr maps the domain error taxonomy onto wire error codes. The
// same mapping serves the REST endpoints (as HTTP status + JSON body) and
// the websocket rejection frames (as code + message).
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkarppi/sketchparty/internal/model"
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
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeRoomFull            = "ROOM_FULL"
	CodeRoomNotFound        = "ROOM_NOT_FOUND"
	CodeRoomClosed          = "ROOM_CLOSED"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeVariantInUse        = "VARIANT_IN_USE"
	CodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	CodeNotDrawer           = "NOT_DRAWER"
	CodeDrawerCannotGuess   = "DRAWER_CANNOT_GUESS"
	CodeNotYourTurn         = "NOT_YOUR_TURN"
	CodeCellOccupied        = "CELL_OCCUPIED"
	CodeInvalidPhase        = "INVALID_PHASE"
	CodeStaleAction         = "STALE_ACTION"
	CodeInternalError       = "INTERNAL_ERROR"
)

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

// Classify returns the wire error for a domain error, for callers that
// deliver it over a channel other than an HTTP response
func Classify(err error) APIError {
	return toHTTPError(err).apiError
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrRoomFull):
		return &httpError{http.StatusConflict, APIError{CodeRoomFull, "Room is full"}}
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrRoomClosed):
		return &httpError{http.StatusGone, APIError{CodeRoomClosed, "Room has been closed"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrVariantInUse):
		return &httpError{http.StatusConflict, APIError{CodeVariantInUse, "Room exists with a different variant"}}

	// Specific phase errors before the general class
	case errors.Is(err, model.ErrInsufficientPlayers):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientPlayers, "Not enough players to start"}}
	case errors.Is(err, model.ErrNotDrawer):
		return &httpError{http.StatusForbidden, APIError{CodeNotDrawer, "Only the drawer can draw"}}
	case errors.Is(err, model.ErrDrawerCannotGuess):
		return &httpError{http.StatusForbidden, APIError{CodeDrawerCannotGuess, "The drawer cannot guess"}}
	case errors.Is(err, model.ErrNotPlayerTurn):
		return &httpError{http.StatusForbidden, APIError{CodeNotYourTurn, "Not your turn"}}
	case errors.Is(err, model.ErrCellOccupied):
		return &httpError{http.StatusConflict, APIError{CodeCellOccupied, "Cell is already occupied"}}
	case errors.Is(err, model.ErrInvalidPhaseAction):
		return &httpError{http.StatusConflict, APIError{CodeInvalidPhase, "Action not valid in the current phase"}}

	case errors.Is(err, model.ErrStaleAction):
		return &httpError{http.StatusConflict, APIError{CodeStaleAction, "Action arrived after the round moved on"}}
	case errors.Is(err, model.ErrValidation):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}

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
