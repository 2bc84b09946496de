package news

import (
	"go-lms/internal/common/api"
	"go-lms/internal/config"
	"go-lms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type NewsApi struct {
	controller *NewsController
	config     *config.Config
}

func NewNewsApi(controller *NewsController, config *config.Config) api.Route {
	return &NewsApi{
		controller: controller,
		config:     config,
	}
}

func (h *NewsApi) Setup(app *fiber.App) {
	group := app.Group("/api/news", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.List)
	group.Post("/", middleware.AdminMiddleware(), h.controller.Post)
}
