package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
	"github.com/battlecode/battlecode-hackathon-sub000/game/service"
	"github.com/battlecode/battlecode-hackathon-sub000/protocol"
	"github.com/battlecode/battlecode-hackathon-sub000/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil when websocket clients
// are not served.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Games
	api.HandleFunc("/games", s.handleCreateGame).Methods("POST")
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleDeleteGame).Methods("DELETE")
	api.HandleFunc("/games/{id}/keyframe", s.handleKeyframe).Methods("GET")
	api.HandleFunc("/games/{id}/replay", s.handleReplay).Methods("GET")

	// Maps
	api.HandleFunc("/maps", s.handleListMaps).Methods("GET")
	api.HandleFunc("/maps", s.handleSaveMap).Methods("POST")
	api.HandleFunc("/maps/{name}", s.handleGetMap).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeWS)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"code": code, "error": message})
}

// respondFailure maps a service error to its HTTP status.
func respondFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrInvalidMap) {
		respondError(w, http.StatusBadRequest, protocol.CodeSchema, err.Error())
		return
	}
	pe := protocol.AsError(err, protocol.CodeInternal)
	respondError(w, statusFor(pe.Code), pe.Code, pe.Reason)
	if pe.Code == protocol.CodeInternal {
		log.Printf("[API] internal error: %v", err)
	}
}

func statusFor(code string) int {
	switch code {
	case protocol.CodeUnknownGame, protocol.CodeUnknownMap:
		return http.StatusNotFound
	case protocol.CodeMalformed, protocol.CodeSchema, protocol.CodeInvalidSetup, protocol.CodeBatchTooBig:
		return http.StatusBadRequest
	case protocol.CodeNotFinished, protocol.CodeNotStarted, protocol.CodeGameOver,
		protocol.CodeLobbyFull, protocol.CodeLoggedIn:
		return http.StatusConflict
	case protocol.CodeNotPlayer, protocol.CodeBadKey, protocol.CodeWrongTeam, protocol.CodeWrongTurn:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Game Handlers

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req service.CreateGameRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, protocol.CodeMalformed, "Invalid request body")
			return
		}
	}

	info, err := s.service.CreateGame(r.Context(), req)
	if err != nil {
		respondFailure(w, err)
		return
	}

	// Announce the lobby to websocket viewers
	if s.hub != nil {
		s.hub.Broadcast(&protocol.GameStatus{
			Command: protocol.CmdGameStatus,
			GameID:  info.ID,
			Status:  info.Status,
		})
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}

	query := r.URL.Query()
	if status := query.Get("status"); status != "" {
		games = slices.DeleteFunc(games, func(g *service.GameInfo) bool {
			return g.Status != status
		})
	}

	total := len(games)
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(games) {
			games = games[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"total": total,
		"games": games,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	if err := s.service.DeleteGame(r.Context(), gameID); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Game %s deleted", gameID),
	})
}

func (s *Server) handleKeyframe(w http.ResponseWriter, r *http.Request) {
	keyframe, err := s.service.Keyframe(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, keyframe)
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	replay, err := s.service.Replay(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, replay)
}

// Map Handlers

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := s.service.ListMaps(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, maps)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	world, err := s.service.LoadMap(r.Context(), name)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, world)
}

func (s *Server) handleSaveMap(w http.ResponseWriter, r *http.Request) {
	var world engine.MapFile
	if err := json.NewDecoder(r.Body).Decode(&world); err != nil {
		respondError(w, http.StatusBadRequest, protocol.CodeMalformed, "Invalid request body")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = world.Name
	}

	if err := s.service.SaveMap(r.Context(), name, &world); err != nil {
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Map saved successfully",
		"name":    strings.TrimSuffix(name, ".json"),
	})
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	running := 0
	for _, g := range games {
		if g.Status == protocol.StatusRunning {
			running++
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"games":   len(games),
		"running": running,
	})
}
