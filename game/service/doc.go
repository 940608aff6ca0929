// Package service provides the business logic layer of the game server.
//
// GameService is the facade every transport talks to: the TCP and websocket
// routers for players and spectators, the REST API and the MCP tools for
// administration. It resolves maps through a MapManager, hosts games through
// a SessionManager, and reports failures as protocol errors so a transport
// can send them back to the client unchanged.
//
// Usage:
//
//	sessions := session.NewManager()
//	maps, _ := config.NewManager("maps")
//	svc := service.NewGameService(sessions, maps, service.MatchOptions{Timeout: time.Second})
//
//	info, err := svc.CreateGame(ctx, service.CreateGameRequest{Map: "default"})
//	confirm, err := svc.Login(ctx, client, &protocol.Login{Name: "red", GameID: info.ID})
//
// A login without a game id joins the pickup lobby, which is created on the
// default map on demand and replaced once it fills.
package service
