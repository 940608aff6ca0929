// Package mcp exposes game administration and spectating as Model Context
// Protocol tools.
//
// The Client is a thin proxy: every tool calls the REST API of a running
// server and formats the answer as text. Tools:
//   - list_maps, create_game, list_games, game_status
//   - keyframe: ASCII rendering of the board
//   - describe_location: tile, sector and entity at one cell
//   - game_rules: rules and protocol summary
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
