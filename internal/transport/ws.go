package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mkaryagin/voxquest/internal/gamestate"
	"github.com/mkaryagin/voxquest/internal/models"
	"github.com/mkaryagin/voxquest/internal/recognizer"
)

// WSHandler streams recognition over a WebSocket: the client sends text
// frames with transcribed speech, the server replies with one recognition
// result per frame. The path client_id doubles as the session ID, so the
// stream picks up the session's game state automatically.
type WSHandler struct {
	upgrader   websocket.Upgrader
	recognizer *recognizer.Recognizer
	sessions   *gamestate.Manager
	timeout    time.Duration
	log        *zap.Logger
}

func NewWSHandler(rec *recognizer.Recognizer, sessions *gamestate.Manager, timeout time.Duration, log *zap.Logger) *WSHandler {
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		recognizer: rec,
		sessions:   sessions,
		timeout:    timeout,
		log:        log,
	}
}

func (h *WSHandler) Handle(c *gin.Context) {
	clientID := c.Param("client_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.log.Info("websocket client connected", zap.String("client_id", clientID))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", zap.String("client_id", clientID), zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		result := h.recognize(c.Request.Context(), clientID, string(data))
		if err := conn.WriteJSON(result); err != nil {
			h.log.Warn("websocket write failed", zap.String("client_id", clientID), zap.Error(err))
			return
		}
	}
}

func (h *WSHandler) recognize(parent context.Context, sessionID, text string) *models.RecognitionResult {
	ctx, cancel := context.WithTimeout(parent, h.timeout)
	defer cancel()

	req := models.RecognizeRequest{SessionID: sessionID, Text: text}
	snap := resolveSnapshot(ctx, h.sessions, &req, h.log)
	return h.recognizer.Recognize(ctx, text, snap)
}
