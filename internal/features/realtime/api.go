package realtime

import (
	"go-lms/internal/common/api"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WebSocketApi struct {
	Gateway *Gateway
}

func NewWebSocketApi(gateway *Gateway) api.Route {
	return &WebSocketApi{
		Gateway: gateway,
	}
}

func (h *WebSocketApi) Setup(app *fiber.App) {
	app.Get("/api/ws", websocket.New(h.Gateway.HandleConnection))
}
