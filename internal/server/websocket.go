package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client is one live connection. userID/username are set by authenticate,
// gameID by a successful join-game. gorilla allows a single concurrent
// writer, so every send goes through writeMu.
type client struct {
	conn     *websocket.Conn
	writeMu  sync.Mutex
	userID   string
	username string
	gameID   string
}

func (c *client) send(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) sendError(message string) {
	c.send(map[string]any{"type": "error", "message": message})
}

type wsHub struct {
	mu    sync.Mutex
	games map[string]map[*client]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{games: make(map[string]map[*client]struct{})}
}

func (h *wsHub) Add(gameID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.games[gameID]
	if group == nil {
		group = make(map[*client]struct{})
		h.games[gameID] = group
	}
	group[c] = struct{}{}
}

// Remove deregisters the connection only. The game and its participants
// survive in the store; disconnecting is not leaving.
func (h *wsHub) Remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.games[c.gameID]
	if group == nil {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.games, c.gameID)
	}
}

func (h *wsHub) Broadcast(gameID string, payload any) {
	h.mu.Lock()
	group := h.games[gameID]
	conns := make([]*client, 0, len(group))
	for c := range group {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		c.send(payload)
	}
}

func (s *Server) broadcastGameUpdate(state GameState) {
	if s.ws == nil {
		return
	}
	s.ws.Broadcast(state.ID, map[string]any{
		"type":      "game-state-updated",
		"gameState": state,
	})
}

type inboundMessage struct {
	Type       string `json:"type"`
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	RoomCode   string `json:"roomCode"`
	IsReady    bool   `json:"isReady"`
	Difficulty string `json:"difficulty"`
	RoomID     string `json:"roomId"`
	Message    string `json:"message"`
	SuspectID  string `json:"suspectId"`
}

func (s *Server) handleWebsocket(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.logger.Info("ws connected", zap.String("remote", c.Request.RemoteAddr))
	go s.readClient(&client{conn: conn})
}

func (s *Server) readClient(c *client) {
	defer func() {
		s.ws.Remove(c)
		_ = c.conn.Close()
		s.logger.Info("ws disconnected",
			zap.String("user_id", c.userID),
			zap.String("game_id", c.gameID),
		)
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("Invalid message format")
			continue
		}
		s.dispatch(c, msg)
	}
}

// dispatch routes one inbound action. Orchestrator errors become unicast
// error messages to the sender; they are never broadcast and never tear
// down the connection.
func (s *Server) dispatch(c *client, msg inboundMessage) {
	switch msg.Type {
	case "authenticate":
		s.handleAuthenticate(c, msg)
	case "join-game":
		s.handleJoin(c, msg)
	case "set-ready":
		s.handleSetReady(c, msg)
	case "start-game":
		s.handleStart(c, msg)
	case "explore-room":
		s.handleExplore(c, msg)
	case "send-message":
		s.handleSendMessage(c, msg)
	case "cast-vote":
		s.handleCastVote(c, msg)
	default:
		c.sendError("Unknown message type")
	}
}

func (s *Server) handleAuthenticate(c *client, msg inboundMessage) {
	username, err := validateUsername(msg.Username)
	if err != nil || msg.UserID == "" {
		c.send(map[string]any{"type": "authenticated", "success": false})
		return
	}
	c.userID = msg.UserID
	c.username = username
	c.send(map[string]any{"type": "authenticated", "success": true})
}

func (s *Server) handleJoin(c *client, msg inboundMessage) {
	if c.userID == "" {
		c.sendError("Not authenticated")
		return
	}
	state, err := s.JoinGame(msg.RoomCode, c.userID, c.username)
	if err != nil {
		// The creator is already a participant; joining their own game
		// just attaches the connection.
		if gameID, ok := s.store.FindIDByRoomCode(msg.RoomCode); ok && errors.Is(err, ErrAlreadyJoined) {
			if existing, found := s.store.GameState(gameID); found {
				state = existing
				err = nil
			}
		}
		if err != nil {
			c.sendError(err.Error())
			return
		}
	}
	c.gameID = state.ID
	s.ws.Add(state.ID, c)
	s.broadcastGameUpdate(state)
}

func (s *Server) handleSetReady(c *client, msg inboundMessage) {
	if !s.requireGame(c) {
		return
	}
	state, err := s.SetReady(c.gameID, c.userID, msg.IsReady)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	s.broadcastGameUpdate(state)
}

func (s *Server) handleStart(c *client, msg inboundMessage) {
	if !s.requireGame(c) {
		return
	}
	state, err := s.StartGame(context.Background(), c.gameID, c.userID, msg.Difficulty)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	s.ws.Broadcast(state.ID, map[string]any{
		"type":      "game-started",
		"gameState": state,
	})
}

func (s *Server) handleExplore(c *client, msg inboundMessage) {
	if !s.requireGame(c) {
		return
	}
	result, err := s.ExploreRoom(context.Background(), c.gameID, c.userID, msg.RoomID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	// Narration goes only to the requester.
	c.send(map[string]any{
		"type":        "room-explored",
		"roomId":      result.RoomID,
		"description": result.Narration,
		"evidence":    result.Evidence,
	})
	if result.Evidence != nil {
		s.ws.Broadcast(c.gameID, map[string]any{
			"type":         "evidence-discovered",
			"evidence":     result.Evidence,
			"discoveredBy": c.username,
			"gameState":    result.State,
		})
	}
}

func (s *Server) handleSendMessage(c *client, msg inboundMessage) {
	if !s.requireGame(c) {
		return
	}
	state, err := s.SendMessage(c.gameID, c.userID, c.username, msg.Message)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	s.ws.Broadcast(state.ID, map[string]any{
		"type":      "message-sent",
		"gameState": state,
	})
}

func (s *Server) handleCastVote(c *client, msg inboundMessage) {
	if !s.requireGame(c) {
		return
	}
	state, err := s.CastVote(c.gameID, c.userID, msg.SuspectID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	s.ws.Broadcast(state.ID, map[string]any{
		"type":      "vote-cast",
		"gameState": state,
	})
}

func (s *Server) requireGame(c *client) bool {
	if c.userID == "" {
		c.sendError("Not authenticated")
		return false
	}
	if c.gameID == "" {
		c.sendError("Not in game")
		return false
	}
	return true
}
