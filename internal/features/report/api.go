package report

import (
	"go-lms/internal/common/api"
	"go-lms/internal/config"
	"go-lms/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	controller *ReportController
	config     *config.Config
}

func NewReportApi(controller *ReportController, config *config.Config) api.Route {
	return &ReportApi{
		controller: controller,
		config:     config,
	}
}

func (h *ReportApi) Setup(app *fiber.App) {
	group := app.Group("/api/reports", middleware.AuthMiddleware(h.config.SkipAuth), middleware.AdminMiddleware())

	group.Get("/groups/:id/progress.xlsx", h.controller.ExportGroupProgress)
}
