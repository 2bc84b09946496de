package message

import (
	"errors"

	"go-lms/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageController struct {
	Service MessageService
}

func NewMessageController(service MessageService) *MessageController {
	return &MessageController{Service: service}
}

func (c *MessageController) Post(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	authorID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var body struct {
		Body string `json:"body"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	message, err := c.Service.Post(ctx.UserContext(), authorID, groupID, body.Body, claims.IsAdmin())
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAMember):
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ErrEmptyBody):
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return ctx.Status(fiber.StatusCreated).JSON(message)
}

func (c *MessageController) List(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	callerID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	messages, err := c.Service.List(ctx.UserContext(), callerID, groupID, claims.IsAdmin())
	if err != nil {
		if errors.Is(err, ErrNotAMember) {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(messages)
}
