package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkaryagin/voxquest/internal/gamestate"
	"github.com/mkaryagin/voxquest/internal/models"
	"github.com/mkaryagin/voxquest/internal/recognizer"
)

// HTTPServer exposes the REST API: command recognition plus game-state
// CRUD, and the WebSocket command stream.
type HTTPServer struct {
	srv        *http.Server
	recognizer *recognizer.Recognizer
	sessions   *gamestate.Manager
	timeout    time.Duration
	log        *zap.Logger
}

func NewHTTPServer(addr string, rec *recognizer.Recognizer, sessions *gamestate.Manager, timeout time.Duration, debug bool, log *zap.Logger) *HTTPServer {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &HTTPServer{
		recognizer: rec,
		sessions:   sessions,
		timeout:    timeout,
		log:        log,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	api := engine.Group("/api")
	api.POST("/commands/recognize", s.recognizeCommand)
	api.GET("/health", s.health)

	game := api.Group("/game/state/:session_id")
	game.GET("", s.getState)
	game.POST("/update-position", s.updatePosition)
	game.POST("/add-object", s.addObject)
	game.POST("/remove-object/:object_id", s.removeObject)
	game.POST("/add-npc", s.addNPC)
	game.POST("/remove-npc/:npc_id", s.removeNPC)
	game.POST("/clear", s.clearState)

	ws := NewWSHandler(rec, sessions, timeout, log)
	engine.GET("/ws/commands/:client_id", ws.Handle)

	s.srv = &http.Server{Addr: addr, Handler: engine}
	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *HTTPServer) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *HTTPServer) recognizeCommand(c *gin.Context) {
	var req models.RecognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	snap := resolveSnapshot(ctx, s.sessions, &req, s.log)
	result := s.recognizer.Recognize(ctx, req.Text, snap)
	c.JSON(http.StatusOK, result)
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *HTTPServer) getState(c *gin.Context) {
	state, err := s.sessions.State(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (s *HTTPServer) updatePosition(c *gin.Context) {
	var pos gamestate.Position
	if err := c.ShouldBindJSON(&pos); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position"})
		return
	}
	state, err := s.sessions.UpdatePosition(c.Request.Context(), c.Param("session_id"), pos)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (s *HTTPServer) addObject(c *gin.Context) {
	var obj gamestate.Object
	if err := c.ShouldBindJSON(&obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid object"})
		return
	}
	state, err := s.sessions.AddObject(c.Request.Context(), c.Param("session_id"), obj)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (s *HTTPServer) removeObject(c *gin.Context) {
	state, err := s.sessions.RemoveObject(c.Request.Context(), c.Param("session_id"), c.Param("object_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (s *HTTPServer) addNPC(c *gin.Context) {
	var npc gamestate.NPC
	if err := c.ShouldBindJSON(&npc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid npc"})
		return
	}
	state, err := s.sessions.AddNPC(c.Request.Context(), c.Param("session_id"), npc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (s *HTTPServer) removeNPC(c *gin.Context) {
	state, err := s.sessions.RemoveNPC(c.Request.Context(), c.Param("session_id"), c.Param("npc_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (s *HTTPServer) clearState(c *gin.Context) {
	if err := s.sessions.Clear(c.Request.Context(), c.Param("session_id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Game state cleared"})
}
