package server

import "errors"

var (
	ErrGameNotFound        = errors.New("game not found")
	ErrRoomNotFound        = errors.New("room not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrInvalidPhase        = errors.New("invalid phase")
	ErrGameFull            = errors.New("game is full")
	ErrAlreadyJoined       = errors.New("already in this game")
	ErrNotEnoughPlayers    = errors.New("need at least 2 players")
	ErrNotAllReady         = errors.New("not all players are ready")
	ErrNotHost             = errors.New("only the host can start the game")
	ErrInvalidSuspect      = errors.New("invalid suspect")
	ErrGenerationFailed    = errors.New("failed to generate mystery")
	ErrEmptyMessage        = errors.New("message is empty")
)

// errPhaseChanged signals that a timed or racing writer lost; the game moved
// on and the closure must not apply its transition.
var errPhaseChanged = errors.New("phase changed")
