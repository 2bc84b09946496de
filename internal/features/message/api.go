package message

import (
	"go-lms/internal/common/api"
	"go-lms/internal/config"
	"go-lms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MessageApi struct {
	controller *MessageController
	config     *config.Config
}

func NewMessageApi(controller *MessageController, config *config.Config) api.Route {
	return &MessageApi{
		controller: controller,
		config:     config,
	}
}

func (h *MessageApi) Setup(app *fiber.App) {
	group := app.Group("/api/groups/:id/messages", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.List)
	group.Post("/", h.controller.Post)
}
