// Package protocol defines the logical command set spoken between clients and
// the server.
//
// Both wire encodings carry the same JSON documents: the byte-stream socket
// frames one document per line, the websocket sends one document per message.
// Every inbound document is validated against an embedded JSON schema before
// it is decoded into a typed command.
//
// Inbound commands:
//   - login: join a game (or the pickup lobby) as a player
//   - make_turn: submit the logged in team's batch of actions
//   - create_game: open a lobby on a named map
//   - spectate: receive a game's broadcasts
//   - keyframe_request: fetch a full snapshot
//   - list_maps_request: list the available maps
//
// Outbound commands are login_confirm, start, next_turn, keyframe,
// missed_turn, game_status, game_replay, list_maps_response and error.
package protocol
