package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"flower-casino-backend/internal/models"
	"flower-casino-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler pushes live events to connected players: public seed
// rotations and roll-history entries, private balance updates. It implements
// services.Broadcaster.
type WebSocketHandler struct {
	redisService *services.RedisService
	log          *zap.Logger
	hub          *WebSocketHub
}

type WebSocketHub struct {
	clients    map[int64]*websocket.Conn
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	log        *zap.Logger
}

type Client struct {
	UserID int64
	Conn   *websocket.Conn
}

type Message struct {
	Type   string      `json:"type"`
	UserID int64       `json:"user_id,omitempty"`
	Data   interface{} `json:"data"`
}

func NewWebSocketHandler(redisService *services.RedisService, log *zap.Logger) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[int64]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
		log:        log,
	}

	go hub.run()

	return &WebSocketHandler{
		redisService: redisService,
		log:          log,
		hub:          hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("failed to upgrade to websocket", zap.Error(err))
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendBalance(client)

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error", zap.Int64("user", userID), zap.Error(err))
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case "PING":
		h.sendPong(client)
	}
}

func (h *WebSocketHandler) sendBalance(client *Client) {
	wallet, err := h.redisService.GetWallet(client.UserID)
	if err != nil {
		h.log.Warn("failed to get wallet for websocket", zap.Int64("user", client.UserID), zap.Error(err))
		return
	}

	msg := Message{
		Type: "BALANCE_UPDATE",
		Data: gin.H{
			"balance":       wallet.Balance,
			"total_wagered": wallet.TotalWagered,
			"total_won":     wallet.TotalWon,
		},
	}

	client.Conn.WriteJSON(msg)
}

func (h *WebSocketHandler) sendPong(client *Client) {
	msg := Message{
		Type: "PONG",
		Data: gin.H{
			"timestamp": time.Now().Unix(),
		},
	}

	client.Conn.WriteJSON(msg)
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.UserID] = client.Conn
			hub.log.Debug("websocket client registered", zap.Int64("user", client.UserID))

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.UserID]; ok {
				delete(hub.clients, client.UserID)
				hub.log.Debug("websocket client unregistered", zap.Int64("user", client.UserID))
			}

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)
		}
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	if message.UserID != 0 {
		if conn, ok := hub.clients[message.UserID]; ok {
			conn.WriteJSON(message)
		}
	} else {
		for _, conn := range hub.clients {
			conn.WriteJSON(message)
		}
	}
}

// BroadcastRotation announces a rotation to everyone: the revealed seed of
// the superseded epoch plus the new commitment to verify future rolls
// against.
func (h *WebSocketHandler) BroadcastRotation(revealed *models.Epoch, current models.Commitment) {
	msg := &Message{
		Type: "SEED_ROTATION",
		Data: gin.H{
			"revealed_epoch_id":   revealed.ID,
			"revealed_seed":       revealed.ServerSeed,
			"revealed_seed_hash":  revealed.ServerSeedHash,
			"new_epoch_id":        current.EpochID,
			"new_server_seed_hash": current.ServerSeedHash,
			"timestamp":           time.Now().Unix(),
		},
	}

	h.hub.broadcast <- msg
}

// BroadcastRoll publishes one roll-history record to everyone.
func (h *WebSocketHandler) BroadcastRoll(record *models.RollRecord) {
	msg := &Message{
		Type: "ROLL",
		Data: record,
	}

	h.hub.broadcast <- msg
}

// BroadcastBalance notifies a single player of their new balance.
func (h *WebSocketHandler) BroadcastBalance(userID, balance int64) {
	msg := &Message{
		Type:   "BALANCE_UPDATE",
		UserID: userID,
		Data: gin.H{
			"balance":   balance,
			"timestamp": time.Now().Unix(),
		},
	}

	h.hub.broadcast <- msg
}
