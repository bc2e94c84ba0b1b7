// Package ws рассылает открытым вкладкам владельца уведомления об изменении портфолио.
// Доставка не гарантируется: не более одного раза, без порядка и повторов.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/workfolio-backend/internal/logger"
)

// EventContentUpdated: тип сообщения после сохранения документа.
const EventContentUpdated = "content-updated"

// Message: конверт сообщения для клиента.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ContentUpdate: данные события content-updated.
type ContentUpdate struct {
	Version   int       `json:"version"`
	Section   string    `json:"section"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub хранит подключения, сгруппированные по владельцу.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	now        func() time.Time
}

type message struct {
	ownerID uuid.UUID
	payload []byte
}

// NewHub создаёт хаб. Цикл запускается через Run.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 64),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Run обрабатывает регистрацию и рассылку до отмены ctx.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.ownerID, msg.payload)
		}
	}
}

// Register добавляет клиента. После остановки хаба вызов ничего не делает.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ContentUpdated рассылает content-updated подключениям владельца. Не блокируется:
// при переполненной очереди сообщение отбрасывается.
func (h *Hub) ContentUpdated(ownerID uuid.UUID, version int, section string) {
	h.Publish(ownerID, EventContentUpdated, ContentUpdate{
		Version:   version,
		Section:   section,
		Timestamp: h.now().UTC(),
	})
}

// Publish ставит произвольное событие в очередь рассылки владельцу.
func (h *Hub) Publish(ownerID uuid.UUID, event string, data interface{}) {
	raw, err := json.Marshal(Message{Type: event, Data: data})
	if err != nil {
		logger.L().WithError(err).Warn("ws: не удалось сериализовать сообщение")
		return
	}

	select {
	case h.broadcast <- message{ownerID: ownerID, payload: raw}:
	default:
		logger.L().WithFields(logrus.Fields{
			"user_id": ownerID,
			"event":   event,
		}).Debug("ws: очередь рассылки заполнена, сообщение отброшено")
	}
}

// Connections возвращает число открытых подключений владельца.
func (h *Hub) Connections(ownerID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[ownerID])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ownerID]; !ok {
		h.clients[client.ownerID] = make(map[*Client]struct{})
	}
	h.clients[client.ownerID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.ownerID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
		}
		if len(clients) == 0 {
			delete(h.clients, client.ownerID)
		}
	}
}

func (h *Hub) send(ownerID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[ownerID] {
		select {
		case client.send <- payload:
		default:
			// Медленный клиент пропускает сообщение.
		}
	}
}
