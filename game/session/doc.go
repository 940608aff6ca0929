// Package session hosts games for the server.
//
// Manager stores games by a short random id (looked up case-insensitively)
// and keeps the pickup lobby that players join when they log in without a
// game id. It implements service.SessionManager.
//
// Each Game owns one worker goroutine. Lobby bookkeeping, engine calls,
// timers and broadcasts all run on that goroutine, so the engine needs no
// locking and every client observes diffs in turn order. Other goroutines
// talk to a game through its job queue.
//
// Lifecycle:
//
//	lobby ──(all slots filled)──▶ running ──(winner)──▶ finished
//	  │                             │
//	  └───────(setup error)──────── └──(player left)──▶ cancelled
//
// A running game arms a per-turn timer when a turn timeout is configured.
// When it fires the expected team is sent missed_turn and an empty batch is
// played in its place. Finished games keep answering keyframe and replay
// requests until CleanupFinished removes them.
//
// Invariant violations raised by the engine are not recovered; they abort
// the process.
package session
