package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Отправлять пинги клиенту с этим периодом. Должно быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер сообщения, разрешенный от клиента.
	maxMessageSize = 512

	sendBufferSize = 256
)

// clientCommand — управляющее сообщение от клиента.
type clientCommand struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Client представляет собой одно WebSocket соединение.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// readPump читает управляющие сообщения клиента (подписки) и следит за pong.
func (c *Client) readPump(hub *Hub, logger *zap.Logger) {
	defer func() {
		hub.unregister(c)
		_ = c.conn.Close()
		logger.Debug("readPump finished")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}

		var cmd clientCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			logger.Warn("Malformed client command ignored", zap.ByteString("message", message))
			continue
		}
		switch cmd.Action {
		case "subscribe":
			hub.subscribe(c, cmd.Topic)
		case "unsubscribe":
			hub.unsubscribe(c, cmd.Topic)
		default:
			logger.Warn("Unknown client command ignored", zap.String("action", cmd.Action))
		}
	}
}

// writePump откачивает сообщения из канала send в соединение.
func (c *Client) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		logger.Debug("writePump finished")
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("Failed to write message", zap.Error(err))
				return
			}

			// Дописываем накопившуюся очередь отдельными фреймами
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					logger.Warn("Failed to write queued message", zap.Error(err))
					return
				}
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
