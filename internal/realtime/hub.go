// Package realtime はWebSocketのライブ更新配信を提供する。
// 配信はfire-and-forgetで、受信できないクライアントがいても
// チャット操作や通知操作の成否には影響しない。
package realtime

import (
	"context"
	"log/slog"
	"sync"
)

// Event はクライアントに配信するイベント。
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Hub は接続中の全クライアントへのイベント配信を管理する。
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	mu         sync.RWMutex
	logger     *slog.Logger
}

// NewHub はハブを生成する。Run を呼ぶまで配信は始まらない。
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 64),
		logger:     logger,
	}
}

// Run はcontextがキャンセルされるまでイベントループを回す。
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("websocket client registered", "stakeholder_id", client.stakeholderID, "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("websocket client unregistered", "stakeholder_id", client.stakeholderID, "total", total)

		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

// Emit は全接続クライアントへのイベント配信をキューに積む。
// キューが詰まっている場合はイベントを破棄する（ブロックしない）。
func (h *Hub) Emit(event string, payload any) {
	select {
	case h.broadcast <- Event{Event: event, Payload: payload}:
	default:
		h.logger.Warn("realtime broadcast queue full, event dropped", "event", event)
	}
}

// ClientCount は接続中のクライアント数を返す。
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// deliver は送信チャネルが詰まっているクライアントをスキップして配信する。
func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- ev:
		default:
			h.logger.Warn("websocket client too slow, event skipped",
				"stakeholder_id", client.stakeholderID, "event", ev.Event)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
