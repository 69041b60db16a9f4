// Package ws — websocket-хаб для доставки обновлений клиенту: статусы
// генераций иллюстраций и чанки потоковой текстовой генерации. Клиент
// подписывается на топики сообщениями {"action":"subscribe","topic":"..."}.
package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"inkwell-server/shared/interfaces"
)

// Envelope — обёртка всех исходящих сообщений хаба.
type Envelope struct {
	Type    string `json:"type"`
	Topic   string `json:"topic"`
	Payload any    `json:"payload,omitempty"`
}

// Hub хранит активные соединения и их подписки на топики.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	topics  map[string]map[*Client]bool
	logger  *zap.Logger
}

var _ interfaces.ClientNotifier = (*Hub)(nil)

// NewHub создает новый хаб соединений.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		topics:  make(map[string]map[*Client]bool),
		logger:  logger.Named("WSHub"),
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	h.logger.Info("Client connected", zap.Int("clients", len(h.clients)))
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	for topic, subscribers := range h.topics {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.topics, topic)
		}
	}
	// Закрытие под тем же мьютексом, что и broadcast: отправка в закрытый
	// канал исключена.
	close(client.send)
	h.logger.Info("Client disconnected", zap.Int("clients", len(h.clients)))
}

func (h *Hub) subscribe(client *Client, topic string) {
	if topic == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	subscribers, ok := h.topics[topic]
	if !ok {
		subscribers = make(map[*Client]bool)
		h.topics[topic] = subscribers
	}
	subscribers[client] = true
	h.logger.Debug("Client subscribed", zap.String("topic", topic), zap.Int("subscribers", len(subscribers)))
}

func (h *Hub) unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subscribers, ok := h.topics[topic]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Broadcast публикует сообщение всем подписчикам топика. Отправка
// неблокирующая: медленный клиент теряет сообщение, а не тормозит хаб.
func (h *Hub) Broadcast(topic string, messageType string, payload any) {
	message, err := json.Marshal(Envelope{Type: messageType, Topic: topic, Payload: payload})
	if err != nil {
		h.logger.Error("Failed to marshal ws message", zap.String("topic", topic), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	subscribers := h.topics[topic]
	if len(subscribers) == 0 {
		return
	}
	for client := range subscribers {
		select {
		case client.send <- message:
		default:
			h.logger.Warn("Client send buffer full, message dropped", zap.String("topic", topic))
		}
	}
}
