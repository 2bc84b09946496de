package news

import (
	"go-lms/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NewsController struct {
	Service NewsService
}

func NewNewsController(service NewsService) *NewsController {
	return &NewsController{Service: service}
}

func (c *NewsController) Post(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	createdBy, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Kind  string `json:"kind"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	item, err := c.Service.Post(ctx.UserContext(), createdBy, body.Title, body.Body, body.Kind)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(item)
}

func (c *NewsController) List(ctx *fiber.Ctx) error {
	items, err := c.Service.List(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(items)
}
