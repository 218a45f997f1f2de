// Package coupons — WebSocket hub for real-time ledger event broadcasting.
package coupons

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/recoup/coupon-engine/internal/ledger"
	"github.com/recoup/coupon-engine/internal/metrics"
	"github.com/recoup/coupon-engine/internal/model"
)

// WSMessage is a JSON event sent to WebSocket clients after every ledger
// mutation. Monetary fields are fixed two-decimal strings.
type WSMessage struct {
	ID        string `json:"id"` // event id, unique per broadcast
	Type      string `json:"type"`
	CouponID  int64  `json:"coupon_id,omitempty"`
	Result    string `json:"result,omitempty"`
	Budget    string `json:"budget"`
	Balance   string `json:"balance"`
	NetProfit string `json:"net_profit"`
	Phase     string `json:"phase"`
}

// publish broadcasts a ledger event with the post-mutation snapshot.
// Callers hold s.mu, so s.target is stable here.
func (s *Service) publish(typ string, couponID int64, coupons []model.Coupon) {
	if s.wsHub == nil {
		return
	}

	snap := ledger.Status(coupons, s.target)
	msg := WSMessage{
		ID:        uuid.New().String(),
		Type:      typ,
		CouponID:  couponID,
		Budget:    snap.Budget.StringFixed(2),
		Balance:   snap.Balance.StringFixed(2),
		NetProfit: snap.NetProfit.StringFixed(2),
		Phase:     string(ledger.PhaseOf(snap.Balance)),
	}
	if i := findCoupon(coupons, couponID); i >= 0 {
		msg.Result = string(coupons[i].Result)
	}
	s.wsHub.Broadcast(msg)
}

// WSHub manages WebSocket connections and broadcasts ledger events to all
// connected clients.
type WSHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run starts the hub's main event loop. Must be called in a goroutine.
func (h *WSHub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))
			slog.Info("ws client connected", "total", total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Drop if buffer full to avoid blocking ledger mutations.
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // Allow all origins during development.
	},
}

// HandleWS handles WebSocket upgrade requests at GET /api/v1/ws.
func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	h.register <- conn

	// Read pump: keep connection alive and detect disconnects.
	go func() {
		defer func() { h.unregister <- conn }()
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	// Ping ticker to keep connection alive through proxies.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			h.mu.RLock()
			_, ok := h.clients[conn]
			h.mu.RUnlock()
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()
}
