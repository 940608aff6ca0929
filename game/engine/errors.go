package engine

import (
	"errors"
	"fmt"
)

// Client error codes. These travel to the offending client unchanged.
const (
	CodeWrongTurn    = "E_WRONG_TURN"
	CodeWrongTeam    = "E_WRONG_TEAM"
	CodeNotStarted   = "E_NOT_STARTED"
	CodeGameOver     = "E_GAME_OVER"
	CodeBatchTooBig  = "E_BATCH_TOO_BIG"
	CodeInvalidSetup = "E_INVALID_SETUP"
)

var (
	ErrAlreadyStarted = errors.New("first turn already produced")
	ErrInvalidMap     = errors.New("invalid map")
	ErrInvalidTeams   = errors.New("invalid teams")
)

// ClientError is a rejection attributable to the client. Returning one never
// leaves engine state modified.
type ClientError struct {
	Code    string
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

func clientErrorf(code, format string, args ...any) *ClientError {
	return &ClientError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InvariantViolation signals corrupted engine bookkeeping. It is raised with
// panic and must not be recovered: it indicates an engine bug.
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Message
}

func violation(format string, args ...any) {
	panic(&InvariantViolation{Message: fmt.Sprintf(format, args...)})
}

// Reason classifies why a single action was rejected.
type Reason int

const (
	ReasonNoSuchEntity Reason = iota
	ReasonWrongTeam
	ReasonOnCooldown
	ReasonHeld
	ReasonCannotAct
	ReasonOutOfBounds
	ReasonOccupied
	ReasonTooFar
	ReasonInvalidTarget
	ReasonAlreadyHolding
	ReasonNotHolding
	ReasonBadDirection
	ReasonNoRoom
	ReasonMalformed
	ReasonUnknownAction
)

var reasonNames = map[Reason]string{
	ReasonNoSuchEntity:   "no such entity",
	ReasonWrongTeam:      "wrong team",
	ReasonOnCooldown:     "on cooldown",
	ReasonHeld:           "entity is held",
	ReasonCannotAct:      "entity cannot act",
	ReasonOutOfBounds:    "location out of bounds",
	ReasonOccupied:       "location occupied",
	ReasonTooFar:         "distance too far",
	ReasonInvalidTarget:  "invalid target",
	ReasonAlreadyHolding: "already holding",
	ReasonNotHolding:     "not holding anything",
	ReasonBadDirection:   "invalid direction",
	ReasonNoRoom:         "no room to throw",
	ReasonMalformed:      "malformed action",
	ReasonUnknownAction:  "unknown action",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Rejection is the failure half of an action result. A nil *Rejection means
// the action succeeded.
type Rejection struct {
	Reason Reason
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return r.Reason.String()
	}
	return r.Reason.String() + ": " + r.Detail
}

func reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
