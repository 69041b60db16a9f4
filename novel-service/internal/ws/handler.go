package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"inkwell-server/shared/authutils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Десктопное приложение ходит с file:// или локального origin
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler обрабатывает запросы на установку WebSocket соединения.
type Handler struct {
	hub      *Hub
	sessions *authutils.SessionManager
	logger   *zap.Logger
}

// NewHandler создает новый обработчик WebSocket.
func NewHandler(hub *Hub, sessions *authutils.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		sessions: sessions,
		logger:   logger.Named("WSHandler"),
	}
}

// ServeWS апгрейдит HTTP-запрос до WebSocket. Токен сессии передаётся
// query-параметром token: заголовки при ws-апгрейде из браузера недоступны.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		h.logger.Warn("Missing 'token' query parameter")
		http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.sessions.VerifyToken(r.Context(), tokenString)
	if err != nil {
		h.logger.Warn("Invalid session token", zap.Error(err))
		http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader уже записал ответ
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	h.logger.Info("WebSocket connection established", zap.String("sessionID", claims.SessionID))
	client := &Client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	h.hub.register(client)

	clientLogger := h.logger.With(zap.String("sessionID", claims.SessionID))
	go client.writePump(clientLogger)
	go client.readPump(h.hub, clientLogger)
}
