package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createGameRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Username string `json:"username" binding:"required"`
}

// Handler builds the HTTP surface: the out-of-band game creation endpoint,
// two read endpoints, and the websocket upgrade. Everything stateful flows
// through the websocket.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger), corsMiddleware())

	router.POST("/api/games", s.handleCreateGame)
	router.GET("/api/games/:id", s.handleGetGame)
	router.GET("/api/games/room/:code", s.handleGetGameByRoomCode)
	router.GET("/ws", s.handleWebsocket)
	return router
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "userId and username required"})
		return
	}
	username, err := validateUsername(req.Username)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	state := s.CreateGame(req.UserID, username)
	c.JSON(http.StatusOK, state)
}

func (s *Server) handleGetGame(c *gin.Context) {
	state, ok := s.store.GameState(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Game not found"})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) handleGetGameByRoomCode(c *gin.Context) {
	gameID, ok := s.store.FindIDByRoomCode(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Game not found"})
		return
	}
	state, ok := s.store.GameState(gameID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Game not found"})
		return
	}
	c.JSON(http.StatusOK, state)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
