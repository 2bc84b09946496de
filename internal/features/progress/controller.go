package progress

import (
	"bytes"
	"encoding/json"
	"errors"

	"go-lms/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProgressController struct {
	Service ProgressService
}

func NewProgressController(service ProgressService) *ProgressController {
	return &ProgressController{Service: service}
}

func callerID(ctx *fiber.Ctx) (primitive.ObjectID, error) {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return primitive.NilObjectID, errors.New("unauthorized")
	}
	return primitive.ObjectIDFromHex(claims.UserID)
}

func (c *ProgressController) GetMe(ctx *fiber.Ctx) error {
	userID, err := callerID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	snapshot, err := c.Service.GetSnapshot(ctx.UserContext(), userID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	next, hasNext := NextUnlockable(snapshot)
	resp := fiber.Map{
		"snapshot":         snapshot,
		"highest_unlocked": HighestUnlocked(snapshot),
	}
	if hasNext {
		resp["next_unlockable"] = next
	}
	return ctx.JSON(resp)
}

// ApplyUpdate takes a proposed change to the unlocked set and/or the module
// scores. The body is parsed strictly: unknown fields are rejected instead
// of being passed through.
func (c *ProgressController) ApplyUpdate(ctx *fiber.Ctx) error {
	userID, err := callerID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var upd Update
	dec := json.NewDecoder(bytes.NewReader(ctx.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&upd); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body: " + err.Error()})
	}

	snapshot, err := c.Service.ApplyUpdate(ctx.UserContext(), userID, &upd)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": verr.Reasons})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(snapshot)
}

func (c *ProgressController) RecordQuiz(ctx *fiber.Ctx) error {
	userID, err := callerID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body struct {
		ModuleID int      `json:"module_id"`
		Score    *float64 `json:"score"`
		MaxScore *float64 `json:"max_score"`
		ExamID   string   `json:"exam_id"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if body.Score == nil || body.MaxScore == nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "score and max_score are required"})
	}

	snapshot, err := c.Service.RecordQuizScore(ctx.UserContext(), userID, body.ModuleID, *body.Score, *body.MaxScore, body.ExamID)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": verr.Reasons})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(snapshot)
}

func (c *ProgressController) RecordFinalQuiz(ctx *fiber.Ctx) error {
	userID, err := callerID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var body struct {
		Score    *float64 `json:"score"`
		MaxScore *float64 `json:"max_score"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if body.Score == nil || body.MaxScore == nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "score and max_score are required"})
	}

	snapshot, err := c.Service.RecordFinalQuiz(ctx.UserContext(), userID, *body.Score, *body.MaxScore)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": verr.Reasons})
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(snapshot)
}
