package report

import (
	"errors"

	"go-lms/internal/features/group"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReportController struct {
	Service ReportService
}

func NewReportController(service ReportService) *ReportController {
	return &ReportController{Service: service}
}

func (c *ReportController) ExportGroupProgress(ctx *fiber.Ctx) error {
	groupID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	data, filename, err := c.Service.GroupProgressWorkbook(ctx.UserContext(), groupID)
	if err != nil {
		if errors.Is(err, group.ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return ctx.Send(data)
}
