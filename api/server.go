package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/lootcity/gameserver/game/model"
	"github.com/lootcity/gameserver/game/player"
	"github.com/lootcity/gameserver/game/service"
	"github.com/lootcity/gameserver/transport/websocket"
)

// Stable error codes of the JSON error body.
const (
	codeInvalidArgument = "invalidArgument"
	codeMapNotFound     = "mapNotFound"
	codeInvalidToken    = "invalidToken"
	codeUnknownToken    = "unknownToken"
	codeInvalidMethod   = "invalidMethod"
	codeBadRequest      = "badRequest"
)

// recordsMaxItems caps one leaderboard page.
const recordsMaxItems = 100

// Server is the REST API server.
type Server struct {
	service *service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	log     *zap.Logger
}

// NewServer creates the API server. wwwRoot is the directory the game
// client is served from; hub may be nil when the state stream is off.
func NewServer(gameService *service.GameService, hub *websocket.Hub, wwwRoot string, log *zap.Logger) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		log:     log,
	}

	s.setupRoutes(wwwRoot)
	return s
}

// setupRoutes configures all API routes. Every path gets a trailing
// catch-all handler so a wrong method answers 405 with an Allow header
// instead of falling through to the static file server.
func (s *Server) setupRoutes(wwwRoot string) {
	s.router.Use(s.recoverMiddleware)
	s.router.Use(s.loggingMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/maps", s.handleListMaps).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/maps", s.methodNotAllowed("GET, HEAD"))
	api.HandleFunc("/maps/{id}", s.handleGetMap).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/maps/{id}", s.methodNotAllowed("GET, HEAD"))

	api.HandleFunc("/game/join", s.handleJoin).Methods(http.MethodPost)
	api.HandleFunc("/game/join", s.methodNotAllowed("POST"))

	api.HandleFunc("/game/players", s.withAuth(s.handlePlayers)).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/game/players", s.methodNotAllowed("GET, HEAD"))

	api.HandleFunc("/game/state", s.withAuth(s.handleState)).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/game/state", s.methodNotAllowed("GET, HEAD"))

	api.HandleFunc("/game/player/action", s.withAuth(s.handleAction)).Methods(http.MethodPost)
	api.HandleFunc("/game/player/action", s.methodNotAllowed("POST"))

	api.HandleFunc("/game/tick", s.handleTick).Methods(http.MethodPost)
	api.HandleFunc("/game/tick", s.methodNotAllowed("POST"))

	api.HandleFunc("/game/records", s.handleRecords).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/game/records", s.methodNotAllowed("GET, HEAD"))

	s.router.HandleFunc("/ws", s.withAuth(s.handleWebSocket)).Methods(http.MethodGet)

	if wwwRoot != "" {
		s.router.PathPrefix("/").
			Methods(http.MethodGet, http.MethodHead).
			Handler(http.FileServer(http.Dir(wwwRoot)))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers. API responses must never be cached: the world moves
// every tick.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

func (s *Server) methodNotAllowed(allow string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		respondError(w, http.StatusMethodNotAllowed, codeInvalidMethod, "Invalid method")
	}
}

// withAuth resolves the bearer token before calling next. A missing or
// malformed token is invalidToken; a well-formed token nobody owns is
// unknownToken.
func (s *Server) withAuth(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok || !player.IsValidToken(token) {
			respondError(w, http.StatusUnauthorized, codeInvalidToken, "Authorization header is missing")
			return
		}
		next(w, r, token)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}

// requireJSON enforces a JSON content type on mutating endpoints.
func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid content type")
		return false
	}
	return true
}

// Map handlers

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.MapSummaries())
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.MapByID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, codeMapNotFound, "Map not found")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Game handlers

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}

	var req struct {
		UserName string `json:"userName"`
		MapID    string `json:"mapId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Join game request parse error")
		return
	}

	result, err := s.service.Join(req.UserName, req.MapID)
	switch {
	case errors.Is(err, service.ErrInvalidName):
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid name")
	case errors.Is(err, model.ErrMapNotFound):
		respondError(w, http.StatusNotFound, codeMapNotFound, "Map not found")
	case err != nil:
		respondError(w, http.StatusInternalServerError, codeBadRequest, "Join failed")
	default:
		respondJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request, token string) {
	players, err := s.service.Players(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, codeUnknownToken, "Player token has not been found")
		return
	}

	response := make(map[string]map[string]string, len(players))
	for id, name := range players {
		response[id] = map[string]string{"name": name}
	}
	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, token string) {
	state, err := s.service.State(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, codeUnknownToken, "Player token has not been found")
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, token string) {
	if !requireJSON(w, r) {
		return
	}

	var req struct {
		Move *string `json:"move"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Move == nil {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
		return
	}

	err := s.service.Move(token, *req.Move)
	switch {
	case errors.Is(err, service.ErrUnknownToken):
		respondError(w, http.StatusUnauthorized, codeUnknownToken, "Player token has not been found")
	case errors.Is(err, service.ErrInvalidMove):
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
	case err != nil:
		respondError(w, http.StatusInternalServerError, codeBadRequest, "Action failed")
	default:
		respondJSON(w, http.StatusOK, struct{}{})
	}
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}

	var req struct {
		TimeDelta *int64 `json:"timeDelta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TimeDelta == nil || *req.TimeDelta <= 0 {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse tick request JSON")
		return
	}

	if err := s.service.Tick(r.Context(), *req.TimeDelta); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid endpoint")
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	start := 0
	if v := query.Get("start"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid start")
			return
		}
		start = n
	}

	maxItems := recordsMaxItems
	if v := query.Get("maxItems"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid maxItems")
			return
		}
		maxItems = n
	}
	if maxItems > recordsMaxItems {
		respondError(w, http.StatusBadRequest, codeBadRequest, "maxItems must not exceed 100")
		return
	}

	records, err := s.service.Records(r.Context(), start, maxItems)
	if err != nil {
		s.log.Error("failed to read records", zap.Error(err))
		respondError(w, http.StatusInternalServerError, codeBadRequest, "Failed to read records")
		return
	}
	if records == nil {
		records = []service.RecordEntry{}
	}
	respondJSON(w, http.StatusOK, records)
}

// WebSocket handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, token string) {
	if s.hub == nil {
		respondError(w, http.StatusNotFound, codeBadRequest, "State stream is disabled")
		return
	}

	sessionID, err := s.service.SessionID(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, codeUnknownToken, "Player token has not been found")
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}
