package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room code does not resolve to a live room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a join would exceed the room's capacity.
	ErrRoomFull = errors.New("room is full")
	// ErrRoomNotJoinable is returned when the room has already left the lobby.
	ErrRoomNotJoinable = errors.New("game already started")
	// ErrNoActiveQuestion is returned for answers submitted outside a question window.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrInvalidOption is returned when a submitted answer is not one of A-D.
	ErrInvalidOption = errors.New("invalid option label")
	// ErrParticipantNotFound is returned when a user tries to act before joining.
	ErrParticipantNotFound = errors.New("participant not found in room")
)
