// Package websocket serves the game protocol to browsers and viewers.
//
// Each text frame carries exactly one protocol command, in both directions.
// Inbound frames are dispatched through a transport.Router, so a websocket
// client can log in, play and spectate exactly like a TCP client.
//
// The Hub owns the set of live connections and runs a single event loop
// for registration and broadcasts:
//
//	hub := websocket.NewHub(router)
//	go hub.Run(ctx)
//	mux.HandleFunc("/ws", hub.ServeWS)
//
// Every connection has a read pump and a write pump. A client whose send
// buffer fills up is disconnected rather than allowed to stall a game.
package websocket
