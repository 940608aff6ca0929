// Package api exposes hosted games and maps over HTTP.
//
// Endpoints:
//
// Games:
//   - POST /api/games - Open a lobby ({map, teams, timeoutMS, maxTurns, debug})
//   - GET /api/games - List games (?status=running&limit=10)
//   - GET /api/games/{id} - Get one game
//   - DELETE /api/games/{id} - Close a game
//   - GET /api/games/{id}/keyframe - Full state of a running or finished game
//   - GET /api/games/{id}/replay - Encoded match data of a finished game
//
// Maps:
//   - GET /api/maps - List map files
//   - GET /api/maps/{name} - Get a map
//   - POST /api/maps?name=x - Validate and store a map
//
// Other:
//   - GET /api/health - Liveness and game counts
//   - /ws - Websocket upgrade speaking the game protocol
//
// Errors are returned as {"code": "...", "error": "..."} with the protocol
// error code mapped to an HTTP status.
package api
