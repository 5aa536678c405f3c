package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ecamli/borsa/pkg/book"
	"github.com/ecamli/borsa/pkg/proto"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled by the HTTP server
	},
}

// Hub fans executed trades out to every connected WebSocket client.
type Hub struct {
	clients    map[*wsClient]bool
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
	}
}

// Run owns the client set; all membership changes and sends go through this
// loop so no lock is needed.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			log.Printf("[ws] client connected (total: %d)", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				log.Printf("[ws] client disconnected (total: %d)", len(h.clients))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Send buffer full, drop the client.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

type tradeEvent struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
	Time     string `json:"time"`
}

// TradeExecuted implements the engine's trade sink: every execution is
// pushed to the feed. Client identities stay private to the TCP sessions.
func (h *Hub) TradeExecuted(t book.Trade) {
	msg, err := json.Marshal(tradeEvent{
		Type:     "trade",
		ID:       t.ID,
		Symbol:   t.Symbol,
		Price:    proto.FormatPrice(t.Price),
		Quantity: t.Quantity,
		Time:     t.Time.Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("[ws] marshal error: %v", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("[ws] broadcast buffer full, trade %s dropped from feed", t.ID)
	}
}

// ServeWS upgrades an HTTP request into a feed subscription.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, 64)}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump discards inbound frames; the feed is one-way. It exists to notice
// the close handshake and deregister.
func (c *wsClient) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
