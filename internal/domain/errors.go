package domain

import "errors"

// Error taxonomy shared by the service and repository layers. Handlers map
// these onto HTTP status codes; no operation leaves a partial mutation behind.
var (
	ErrNotFound             = errors.New("session not found")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrInvalidState         = errors.New("operation not allowed in current status")
	ErrSessionFull          = errors.New("session is full")
	ErrDuplicateParticipant = errors.New("participant already in this session")
	ErrNotAParticipant      = errors.New("participant not in this session")
	ErrOutOfTurn            = errors.New("not this participant's turn")
	ErrInvalidGameKind      = errors.New("unsupported game kind")
	ErrDuplicateIdentity    = errors.New("username or email already taken")
)
