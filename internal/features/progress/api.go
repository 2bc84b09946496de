package progress

import (
	"go-lms/internal/common/api"
	"go-lms/internal/config"
	"go-lms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ProgressApi struct {
	controller *ProgressController
	config     *config.Config
}

func NewProgressApi(controller *ProgressController, config *config.Config) api.Route {
	return &ProgressApi{
		controller: controller,
		config:     config,
	}
}

func (h *ProgressApi) Setup(app *fiber.App) {
	group := app.Group("/api/progress", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/me", h.controller.GetMe)
	group.Put("/me", h.controller.ApplyUpdate)
	group.Post("/me/quiz", h.controller.RecordQuiz)
	group.Post("/me/final-quiz", h.controller.RecordFinalQuiz)
}
