package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/metrics"
	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
)

// RealtimeHandler upgrades authenticated clients to a WebSocket that
// receives every notification pushed to their user
type RealtimeHandler struct {
	hub      *service.NotificationHub
	auth     *middleware.Auth
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewRealtimeHandler creates a realtime handler. An empty origin list accepts any origin.
func NewRealtimeHandler(hub *service.NotificationHub, auth *middleware.Auth, allowedOrigins []string, m *metrics.Metrics, logger *zap.Logger) *RealtimeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &RealtimeHandler{
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
		metrics: m,
		logger:  logger,
	}
}

// Connect handles GET /api/ws?token=
func (h *RealtimeHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token, _ = c.Cookie(middleware.TokenCookie)
	}
	user, _, problem := h.auth.Authenticate(c.Request.Context(), token)
	if problem != nil {
		WriteError(c, problem)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	subscriberID := uuid.New().String()
	sub := h.hub.Subscribe(user.ID, subscriberID)
	h.metrics.WebsocketOpened()
	h.logger.Debug("websocket connected", zap.String("user_id", user.ID), zap.String("subscriber_id", subscriberID))

	sub.Messages <- &service.Message{
		Type: service.MessageConnected,
		Data: gin.H{"userId": user.ID, "subscriberId": subscriberID},
	}

	go h.writePump(conn, sub)
	h.readPump(conn)

	h.hub.Unsubscribe(user.ID, subscriberID)
	h.metrics.WebsocketClosed()
}

// readPump discards client frames and returns once the connection dies
func (h *RealtimeHandler) readPump(conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read", zap.Error(err))
			}
			return
		}
	}
}

func (h *RealtimeHandler) writePump(conn *websocket.Conn, sub *service.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-sub.Messages:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			frame, err := msg.Encode()
			if err != nil {
				h.logger.Warn("encoding realtime message", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sub.Done:
			return
		}
	}
}
