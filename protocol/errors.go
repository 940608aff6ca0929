package protocol

import (
	"errors"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
)

// Error codes. Engine codes are re-exported so every client-visible code is
// listed in one place.
const (
	CodeMalformed   = "E_MALFORMED"
	CodeSchema      = "E_SCHEMA"
	CodeUnknownGame = "E_UNKNOWN_GAME"
	CodeUnknownMap  = "E_UNKNOWN_MAP"
	CodeNotPlayer   = "E_NOT_PLAYER"
	CodeBadKey      = "E_BAD_KEY"
	CodeLobbyFull   = "E_LOBBY_FULL"
	CodeLoggedIn    = "E_ALREADY_LOGGED_IN"
	CodeNotFinished = "E_NOT_FINISHED"
	CodeInternal    = "E_INTERNAL"

	CodeWrongTurn    = engine.CodeWrongTurn
	CodeWrongTeam    = engine.CodeWrongTeam
	CodeNotStarted   = engine.CodeNotStarted
	CodeGameOver     = engine.CodeGameOver
	CodeBatchTooBig  = engine.CodeBatchTooBig
	CodeInvalidSetup = engine.CodeInvalidSetup
)

// AsError converts err into an outbound error, keeping codes of protocol and
// engine client errors. Anything else becomes fallback.
func AsError(err error, fallback string) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	var ce *engine.ClientError
	if errors.As(err, &ce) {
		return NewError(ce.Code, "%s", ce.Message)
	}
	return NewError(fallback, "%s", err.Error())
}
