package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/localbase/localbase-backend/internal/app/service"
	"github.com/localbase/localbase-backend/internal/middleware"
	ws "github.com/localbase/localbase-backend/internal/websocket"
)

const clientSendBuffer = 256

type WSController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWSController(hub *ws.Hub, allowedOrigins []string) *WSController {
	return &WSController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
	}
}

// Connect upgrades to a websocket subscribed to the comma-separated topics.
// Guests may follow the feed and business topics; signed-in wallets may also
// follow their own address topic.
// GET /ws?topics=feed,business:<id>,address:<wallet>
func (ctrl *WSController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	address := viewer(c)

	topics := []string{}
	for _, t := range strings.Split(c.Query("topics"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	if len(topics) == 0 {
		topics = append(topics, service.TopicFeed)
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, address, topics, clientSendBuffer)
	client.Allow = func(topic string) bool {
		return service.TopicAllowed(topic, address)
	}

	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"address": address,
		"topics":  topics,
	})
}
