package arena

import (
	"errors"
	"net/http"

	"ai-arena/internal/game"
)

var (
	ErrSessionNotFound   = errors.New("session_not_found")
	ErrSessionExists     = errors.New("session_exists")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrNotHumanSeat      = errors.New("not_human_seat")
	ErrInvalidPlayers    = errors.New("invalid_players")
	ErrInvalidSpeed      = errors.New("invalid_speed")
	ErrInvalidViewer     = errors.New("invalid_viewer")
	ErrUnsupportedRecord = errors.New("unsupported_record_version")
)

// MapError turns a command error into an HTTP status and a stable error code.
func MapError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, ErrSessionExists):
		return http.StatusConflict, "session_exists"
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, game.ErrNotYourTurn):
		return http.StatusConflict, "not_your_turn"
	case errors.Is(err, game.ErrGameOver):
		return http.StatusConflict, "game_over"
	case errors.Is(err, ErrNotHumanSeat):
		return http.StatusForbidden, "not_human_seat"
	case errors.Is(err, game.ErrUnknownSeat):
		return http.StatusNotFound, "unknown_seat"
	case errors.Is(err, game.ErrUnknownKind):
		return http.StatusBadRequest, "unknown_game_type"
	case errors.Is(err, game.ErrInvalidAction):
		return http.StatusBadRequest, "invalid_action"
	case errors.Is(err, game.ErrInvalidState):
		return http.StatusBadRequest, "invalid_state"
	case errors.Is(err, ErrInvalidPlayers):
		return http.StatusBadRequest, "invalid_players"
	case errors.Is(err, ErrInvalidSpeed):
		return http.StatusBadRequest, "invalid_speed"
	case errors.Is(err, ErrInvalidViewer):
		return http.StatusBadRequest, "invalid_viewer"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
