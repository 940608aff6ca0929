package service

import "github.com/battlecode/battlecode-hackathon-sub000/protocol"

// Sentinel errors shared by the session, config and transport layers. They are
// protocol errors so transports can send them back unchanged.
var (
	ErrGameNotFound    = protocol.NewError(protocol.CodeUnknownGame, "game not found")
	ErrMapNotFound     = protocol.NewError(protocol.CodeUnknownMap, "map not found")
	ErrNotPlayer       = protocol.NewError(protocol.CodeNotPlayer, "not a player of this game")
	ErrBadKey          = protocol.NewError(protocol.CodeBadKey, "no team slot with that key")
	ErrLobbyFull       = protocol.NewError(protocol.CodeLobbyFull, "no free team slot")
	ErrAlreadyLoggedIn = protocol.NewError(protocol.CodeLoggedIn, "already logged in")
	ErrNotStarted      = protocol.NewError(protocol.CodeNotStarted, "game hasn't started yet")
	ErrNotFinished     = protocol.NewError(protocol.CodeNotFinished, "game isn't finished")
	ErrGameClosed      = protocol.NewError(protocol.CodeUnknownGame, "game closed")
)
