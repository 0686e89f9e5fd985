// Package errors holds the flat sentinel error taxonomy every registry and
// the chat server return through, so no panic ever escapes a registry
// boundary. Callers should compare with errors.Is.
package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrValidation      = fmt.Errorf("validation_failed")
	ErrTeamExists      = fmt.Errorf("team_exists")
	ErrTeamNotFound    = fmt.Errorf("team_not_found")
	ErrParticipantDup  = fmt.Errorf("participant_duplicate")
	ErrProjectExists   = fmt.Errorf("project_exists")
	ErrProjectNotFound = fmt.Errorf("project_not_found")
	ErrInvalidState    = fmt.Errorf("invalid_state")
	ErrInvalidCategory = fmt.Errorf("invalid_category")
	ErrMentorNotFound  = fmt.Errorf("mentor_not_found")
	ErrRoomExists      = fmt.Errorf("room_exists")
	ErrRoomNotFound    = fmt.Errorf("room_not_found")
	ErrChatUnavailable = fmt.Errorf("chat_unavailable")
	ErrTimeout         = fmt.Errorf("timeout")
	ErrUnavailable     = fmt.Errorf("unavailable")
	ErrUnknownCommand  = fmt.Errorf("unknown_command")
)
