package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avoronova/fieldpulse-api/internal/database"
	"github.com/avoronova/fieldpulse-api/internal/models"
)

// The questionnaire, product list and teamlead roster are all admin-ordered
// lists with a uuid id and a position column. The helpers below work on any
// of them through the shared column shape.

type orderedRow struct {
	ID       uuid.UUID
	Position int
}

func nextPosition(model interface{}) int {
	var n int
	database.DB.Model(model).Select("COALESCE(MAX(position) + 1, 0)").Scan(&n)
	return n
}

func deleteOrdered(c *fiber.Ctx, model interface{}, label string) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid " + label + " ID",
		})
	}

	result := database.DB.Delete(model, id)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete " + label,
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": label + " not found",
		})
	}
	return c.JSON(fiber.Map{
		"message": label + " deleted",
	})
}

// moveOrdered swaps the row with its neighbor in the requested direction.
// Moving past either end is a no-op.
func moveOrdered(c *fiber.Ctx, model interface{}, label string) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid " + label + " ID",
		})
	}

	var req models.MoveRequest
	if err := c.BodyParser(&req); err != nil || (req.Direction != "up" && req.Direction != "down") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Direction must be up or down",
		})
	}

	var current orderedRow
	err = database.DB.Model(model).Select("id, position").Where("id = ?", id).Take(&current).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": label + " not found",
		})
	}

	neighborQuery := database.DB.Model(model).Select("id, position")
	if req.Direction == "up" {
		neighborQuery = neighborQuery.Where("position < ?", current.Position).Order("position DESC")
	} else {
		neighborQuery = neighborQuery.Where("position > ?", current.Position).Order("position ASC")
	}
	var neighbor orderedRow
	if err := neighborQuery.Limit(1).Take(&neighbor).Error; err != nil {
		// already at the edge
		return c.JSON(fiber.Map{
			"message": label + " not moved",
		})
	}

	// both sides of the swap or neither, so no two rows share a position
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(model).Where("id = ?", current.ID).
			Update("position", neighbor.Position).Error; err != nil {
			return err
		}
		return tx.Model(model).Where("id = ?", neighbor.ID).
			Update("position", current.Position).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to move " + label,
		})
	}

	return c.JSON(fiber.Map{
		"message": label + " moved",
	})
}
