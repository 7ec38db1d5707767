package services

import "errors"

// Typed failures surfaced by the room state machine and its store. Handlers
// translate these to HTTP statuses; nothing below this layer retries them
// except ErrVersionConflict, which the room service absorbs with a bounded
// re-read.
var (
	ErrDuplicateName       = errors.New("room name already exists")
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrAlreadyJoined       = errors.New("user already in room")
	ErrForbidden           = errors.New("operation not permitted")
	ErrInsufficientPlayers = errors.New("at least 2 players are required")
	ErrNotAllReady         = errors.New("all players must be ready")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrVersionConflict     = errors.New("room was modified concurrently")
	ErrRoomNotJoinable     = errors.New("room is not accepting players")
)

var (
	ErrSessionNotFound  = errors.New("game session not found")
	ErrSessionCompleted = errors.New("game session already completed")
	ErrQuestionLimit    = errors.New("question limit reached")
	ErrHintAlreadyUsed  = errors.New("hint already requested for this session")
	ErrUnknownSubject   = errors.New("unsupported subject")
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
