package model

import (
	"errors"
	"fmt"
)

// Error taxonomy. The top-level sentinels classify every rejection; specific
// causes wrap them so callers can match either the class or the cause with
// errors.Is. All of these are recoverable: they are reported to the
// originating session only and leave room state unchanged.
var (
	ErrRoomFull       = errors.New("room is full")
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found in room")

	// ErrInvalidPhaseAction covers actions that are well-formed but not
	// legal in the room's current state
	ErrInvalidPhaseAction  = errors.New("action not valid in current phase")
	ErrInsufficientPlayers = fmt.Errorf("not enough players: %w", ErrInvalidPhaseAction)
	ErrNotDrawer           = fmt.Errorf("player is not the drawer: %w", ErrInvalidPhaseAction)
	ErrDrawerCannotGuess   = fmt.Errorf("drawer cannot guess: %w", ErrInvalidPhaseAction)
	ErrNotPlayerTurn       = fmt.Errorf("not this player's turn: %w", ErrInvalidPhaseAction)
	ErrCellOccupied        = fmt.Errorf("cell is already occupied: %w", ErrInvalidPhaseAction)

	// ErrStaleAction covers actions referencing a round or timer generation
	// already superseded (e.g. a guess racing the round timer)
	ErrStaleAction = errors.New("action references a superseded round")

	// ErrValidation covers malformed payloads
	ErrValidation     = errors.New("invalid payload")
	ErrEmptyRoomID    = fmt.Errorf("room id must not be empty: %w", ErrValidation)
	ErrEmptyGuess     = fmt.Errorf("guess must not be empty: %w", ErrValidation)
	ErrContentTooLong = fmt.Errorf("message exceeds length limit: %w", ErrValidation)
	ErrInvalidCell    = fmt.Errorf("cell index out of range: %w", ErrValidation)
	ErrBadVariant     = fmt.Errorf("unknown game variant: %w", ErrValidation)
	ErrVariantInUse   = fmt.Errorf("room exists with a different variant: %w", ErrValidation)

	// Word provider errors
	ErrWordsNotLoaded = errors.New("word list not loaded")

	// ErrRoomClosed is returned for actions against a room already destroyed
	ErrRoomClosed = errors.New("room has been closed")
)
