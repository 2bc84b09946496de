package user

import (
	"go-lms/internal/common/api"
	"go-lms/internal/config"
	"go-lms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	config     *config.Config
}

func NewUserApi(controller *UserController, config *config.Config) api.Route {
	return &UserApi{
		controller: controller,
		config:     config,
	}
}

func (h *UserApi) Setup(app *fiber.App) {
	group := app.Group("/api/users", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/me", h.controller.GetMe)
	group.Put("/me/learning-path", h.controller.SetLearningPath)
}
