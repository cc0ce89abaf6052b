package domain

import "errors"

var (
	// ErrRoomNotFound is returned when no room matches a code or ID, or its live session is gone.
	ErrRoomNotFound = errors.New("room not found")
	// ErrPlayerNotFound is returned when a player record does not exist.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrNotHost is returned when a non-host attempts a host-only action.
	ErrNotHost = errors.New("not authorized")
	// ErrGameInProgress is returned when joining or starting a room that is already playing.
	ErrGameInProgress = errors.New("game already in progress")
	// ErrAlreadyJoined is returned when a connection that already owns a player tries to join again.
	ErrAlreadyJoined = errors.New("already joined a room")
	// ErrSessionExists is returned when a live session is created twice for the same room.
	ErrSessionExists = errors.New("room session already exists")
	// ErrRoomCodeTaken is returned by stores when a generated room code collides.
	ErrRoomCodeTaken = errors.New("room code already taken")
	// ErrQuestionsUnavailable wraps any failure to obtain a playable question queue.
	ErrQuestionsUnavailable = errors.New("failed to generate questions")
	// ErrNoValidQuestions is returned when a batch yields no question that passes validation.
	ErrNoValidQuestions = errors.New("no valid questions")
	// ErrInternal is returned when a handler recovered from an unexpected failure.
	ErrInternal = errors.New("internal error")
)
