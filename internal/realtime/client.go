package realtime

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// originの検証はCORSミドルウェア側の設定に委ねる
		return true
	},
}

// Client はハブに接続された1つのWebSocket接続を表す。
type Client struct {
	stakeholderID string
	conn          *websocket.Conn
	send          chan Event
	hub           *Hub
	logger        *slog.Logger
}

// ServeWS はHTTP接続をWebSocketにアップグレードしてハブに登録する。
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, stakeholderID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocketアップグレードに失敗しました", "error", err)
		return
	}

	client := &Client{
		stakeholderID: stakeholderID,
		conn:          conn,
		send:          make(chan Event, 16),
		hub:           h,
		logger:        h.logger,
	}
	h.register <- client

	go client.readPump()
	go client.writePump()
}

// readPump はクライアントからの受信を待つ。
// 配信専用のハブなので内容は読み捨て、切断の検知だけに使う。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			c.logger.Warn("websocket write failed", "stakeholder_id", c.stakeholderID, "error", err)
			return
		}
	}
}
