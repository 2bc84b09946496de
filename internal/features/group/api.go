package group

import (
	"go-lms/internal/common/api"
	"go-lms/internal/config"
	"go-lms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type GroupApi struct {
	controller *GroupController
	config     *config.Config
}

func NewGroupApi(controller *GroupController, config *config.Config) api.Route {
	return &GroupApi{
		controller: controller,
		config:     config,
	}
}

func (h *GroupApi) Setup(app *fiber.App) {
	groups := app.Group("/api/groups", middleware.AuthMiddleware(h.config.SkipAuth))

	groups.Post("/", middleware.AdminMiddleware(), h.controller.CreateGroup)
	groups.Get("/", h.controller.GetAllGroups)
	groups.Get("/:id", h.controller.GetGroup)
	groups.Put("/:id", middleware.AdminMiddleware(), h.controller.UpdateGroup)

	// Member management
	groups.Post("/:id/members", h.controller.AddMember)
	groups.Delete("/:id/members/:userId", h.controller.RemoveMember)
}
