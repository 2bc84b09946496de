package group

import (
	"errors"

	"go-lms/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Broadcaster is the slice of the realtime gateway the group facade needs.
type Broadcaster interface {
	BroadcastToGroup(groupID, event string, payload any)
}

type GroupController struct {
	Service     GroupService
	Broadcaster Broadcaster
}

func NewGroupController(service GroupService, broadcaster Broadcaster) *GroupController {
	return &GroupController{Service: service, Broadcaster: broadcaster}
}

func (c *GroupController) CreateGroup(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body struct {
		Name  string `json:"name"`
		Type  string `json:"type"`
		Level string `json:"level"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	creatorID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	group := &Group{
		Name:      body.Name,
		Type:      body.Type,
		Level:     body.Level,
		CreatedBy: creatorID,
	}

	if err := c.Service.CreateGroup(ctx.UserContext(), group); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(group)
}

func (c *GroupController) GetAllGroups(ctx *fiber.Ctx) error {
	groups, err := c.Service.GetAllGroups(ctx.UserContext())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(groups)
}

func (c *GroupController) GetGroup(ctx *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	group, err := c.Service.GetGroupByID(ctx.UserContext(), id)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
	}

	return ctx.JSON(group)
}

func (c *GroupController) UpdateGroup(ctx *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	var body struct {
		Name  string `json:"name"`
		Level string `json:"level"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.Service.UpdateGroup(ctx.UserContext(), id, body.Name, body.Level); err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, ErrNotFound) {
			status = fiber.StatusNotFound
		}
		return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	c.broadcastGroup(ctx, id)

	return ctx.JSON(fiber.Map{"message": "Group updated successfully"})
}

// AddMember assigns a user to the group. Admins may assign anyone; everyone
// else may only join themselves.
func (c *GroupController) AddMember(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if body.UserID == "" {
		body.UserID = claims.UserID
	}

	if body.UserID != claims.UserID && !claims.IsAdmin() {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only admins can assign other users"})
	}

	userID, err := primitive.ObjectIDFromHex(body.UserID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	// The flag describes the user being assigned, not the caller: an admin
	// assigning a student must still take the student path.
	isAdmin := claims.IsAdmin() && body.UserID == claims.UserID

	if err := c.Service.Assign(ctx.UserContext(), userID, groupID, isAdmin); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ErrAlreadyAssigned), errors.Is(err, ErrGroupFull):
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	c.broadcastGroup(ctx, groupID)

	return ctx.JSON(fiber.Map{"message": "Member added successfully"})
}

func (c *GroupController) RemoveMember(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	rawUserID := ctx.Params("userId")
	if rawUserID != claims.UserID && !claims.IsAdmin() {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only admins can remove other users"})
	}

	userID, err := primitive.ObjectIDFromHex(rawUserID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := c.Service.Remove(ctx.UserContext(), userID, groupID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.broadcastGroup(ctx, groupID)

	return ctx.JSON(fiber.Map{"message": "Member removed successfully"})
}

// broadcastGroup pushes the fresh group document to its room. Delivery is
// best effort and never fails the request.
func (c *GroupController) broadcastGroup(ctx *fiber.Ctx, groupID primitive.ObjectID) {
	group, err := c.Service.GetGroupByID(ctx.UserContext(), groupID)
	if err != nil {
		return
	}
	c.Broadcaster.BroadcastToGroup(groupID.Hex(), "group-updated", group)
}
