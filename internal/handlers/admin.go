package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/avoronova/fieldpulse-api/internal/database"
	"github.com/avoronova/fieldpulse-api/internal/middleware"
	"github.com/avoronova/fieldpulse-api/internal/models"
)

// --- questionnaire editor ---

func ListQuestions(c *fiber.Ctx) error {
	return c.JSON(loadQuestions())
}

func CreateQuestion(c *fiber.Ctx) error {
	var req models.QuestionRequest
	if err := c.BodyParser(&req); err != nil || req.Key == "" || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Key and text are required",
		})
	}

	question := models.Question{
		Key:      req.Key,
		Text:     req.Text,
		Position: nextPosition(&models.Question{}),
	}
	if err := database.DB.Create(&question).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Question key already exists",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

// UpdateQuestion edits the display text. The key is immutable so stored
// payloads and goal metrics keep resolving.
func UpdateQuestion(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid question ID",
		})
	}
	var question models.Question
	if err := database.DB.First(&question, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Question not found",
		})
	}

	var req models.QuestionRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	question.Text = req.Text
	if err := database.DB.Save(&question).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update question",
		})
	}
	return c.JSON(question)
}

func DeleteQuestion(c *fiber.Ctx) error {
	return deleteOrdered(c, &models.Question{}, "Question")
}

func MoveQuestion(c *fiber.Ctx) error {
	return moveOrdered(c, &models.Question{}, "Question")
}

// --- product list editor ---

func ListProducts(c *fiber.Ctx) error {
	return c.JSON(loadProducts())
}

func CreateProduct(c *fiber.Ctx) error {
	var req models.NameRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	product := models.ProductOption{
		Name:     req.Name,
		Position: nextPosition(&models.ProductOption{}),
	}
	if err := database.DB.Create(&product).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Product already exists",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func DeleteProduct(c *fiber.Ctx) error {
	return deleteOrdered(c, &models.ProductOption{}, "Product")
}

func MoveProduct(c *fiber.Ctx) error {
	return moveOrdered(c, &models.ProductOption{}, "Product")
}

// --- teamlead roster editor ---

func ListTeamLeads(c *fiber.Ctx) error {
	var leads []models.TeamLead
	database.DB.Order("position ASC").Find(&leads)
	return c.JSON(leads)
}

func CreateTeamLead(c *fiber.Ctx) error {
	var req models.NameRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	lead := models.TeamLead{
		Name:     req.Name,
		Position: nextPosition(&models.TeamLead{}),
	}
	if err := database.DB.Create(&lead).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Teamlead already on the roster",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(lead)
}

// RenameTeamLead renames a roster entry and cascades the new name to agent
// links, the teamlead's account, saved team summaries and team goals, so
// history follows the person.
func RenameTeamLead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid teamlead ID",
		})
	}
	var lead models.TeamLead
	if err := database.DB.First(&lead, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Teamlead not found",
		})
	}

	var req models.NameRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}
	oldName := lead.Name
	if req.Name == oldName {
		return c.JSON(lead)
	}

	// Roster row and cascades commit together; a half-renamed team would
	// detach agents, summaries and goals from both names.
	lead.Name = req.Name
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&lead).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("manager_name = ?", oldName).
			Update("manager_name", req.Name).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("role = ? AND name = ?", models.RoleTeamLead, oldName).
			Update("name", req.Name).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.TeamSummary{}).Where("owner_name = ?", oldName).
			Update("owner_name", req.Name).Error; err != nil {
			return err
		}
		return tx.Model(&models.Goal{}).Where("owner_name = ?", oldName).
			Update("owner_name", req.Name).Error
	})
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Failed to rename teamlead",
		})
	}

	return c.JSON(lead)
}

func DeleteTeamLead(c *fiber.Ctx) error {
	return deleteOrdered(c, &models.TeamLead{}, "Teamlead")
}

func MoveTeamLead(c *fiber.Ctx) error {
	return moveOrdered(c, &models.TeamLead{}, "Teamlead")
}

// --- employees ---

// ListEmployees lists agent accounts, optionally one team's via ?manager=.
func ListEmployees(c *fiber.Ctx) error {
	q := database.DB.Where("role = ?", models.RoleAgent)
	if manager := c.Query("manager"); manager != "" {
		q = q.Where("manager_name = ?", manager)
	}

	var agents []models.User
	if err := q.Order("name ASC").Find(&agents).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load employees",
		})
	}
	return c.JSON(agents)
}

// ReassignEmployee moves an agent to another team, or unbinds them when
// managerName is null.
func ReassignEmployee(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid employee ID",
		})
	}
	var agent models.User
	if err := database.DB.Where("role = ?", models.RoleAgent).First(&agent, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Employee not found",
		})
	}

	var req models.ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.ManagerName == nil || *req.ManagerName == "" {
		agent.ManagerName = nil
	} else {
		var lead models.TeamLead
		if err := database.DB.Where("name = ?", *req.ManagerName).First(&lead).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown teamlead",
			})
		}
		agent.ManagerName = req.ManagerName
	}

	if err := database.DB.Save(&agent).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reassign employee",
		})
	}
	return c.JSON(agent)
}

func DeleteEmployee(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid employee ID",
		})
	}
	result := database.DB.Where("role = ?", models.RoleAgent).Delete(&models.User{}, id)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete employee",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Employee not found",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Employee deleted",
	})
}

// --- passwords ---

// SetTeamLeadPassword rotates the shared teamlead password and bumps the
// generation counter, which invalidates every outstanding teamlead token.
func SetTeamLeadPassword(c *fiber.Ctx) error {
	var req models.PasswordRequest
	if err := c.BodyParser(&req); err != nil || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Password is required",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}
	if err := database.SetSetting(models.SettingTeamLeadPasswordHash, string(hash)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store password",
		})
	}

	gen := middleware.TeamLeadPasswordGen() + 1
	if err := database.SetSetting(models.SettingTeamLeadPasswordGen, strconv.Itoa(gen)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to rotate sessions",
		})
	}

	return c.JSON(fiber.Map{
		"message":     "Teamlead password updated",
		"passwordGen": gen,
	})
}

// SetAdminPassword replaces the admin/manager password.
func SetAdminPassword(c *fiber.Ctx) error {
	var req models.PasswordRequest
	if err := c.BodyParser(&req); err != nil || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Password is required",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}
	if err := database.SetSetting(models.SettingAdminPasswordHash, string(hash)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store password",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Admin password updated",
	})
}
