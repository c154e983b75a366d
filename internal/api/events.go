package api

import (
	"net/http"
	"sync"

	"familyquestboard/internal/service"
	"familyquestboard/pkg/auth"
	"familyquestboard/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// subscriber wraps one connection with its write lock. gorilla allows a
// single concurrent writer per connection, and Publish runs on whatever
// goroutine settles the quest.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// EventHub broadcasts settlement events to every connected dashboard of a
// family. It implements service.EventPublisher; publishing never blocks the
// settling request.
type EventHub struct {
	mu   sync.RWMutex
	subs map[*websocket.Conn]*subscriber
}

func NewEventHub() *EventHub {
	return &EventHub{
		subs: make(map[*websocket.Conn]*subscriber),
	}
}

func (h *EventHub) Publish(event service.Event) {
	log := logger.Logger()

	data, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.write(data); err != nil {
			log.Info("dropping dead event subscriber", zap.Error(err))
			h.remove(sub.conn)
		}
	}
}

func (h *EventHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.subs[conn] = &subscriber{conn: conn}
	h.mu.Unlock()
}

func (h *EventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.subs, conn)
	h.mu.Unlock()
	conn.Close()
}

type eventRoutes struct {
	hub *EventHub
	a   *auth.FamilyAuth
}

func NewEventRoutes(handler *gin.RouterGroup, hub *EventHub, a *auth.FamilyAuth) {
	r := &eventRoutes{hub: hub, a: a}
	h := handler.Group("/ws")
	h.Use(a.FamilyAuthMiddleware())

	h.GET("", r.handleWebSocket)
}

func (r *eventRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	r.hub.add(conn)
	go r.readLoop(conn)
}

// readLoop drains client frames so pings are answered and closes are seen.
// The feed is one-way; inbound payloads are ignored.
func (r *eventRoutes) readLoop(conn *websocket.Conn) {
	log := logger.Logger()

	defer r.hub.remove(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Info("websocket unexpected close", zap.Error(err))
			}
			return
		}
	}
}
