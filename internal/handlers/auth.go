package handlers

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/avoronova/fieldpulse-api/internal/database"
	"github.com/avoronova/fieldpulse-api/internal/middleware"
	"github.com/avoronova/fieldpulse-api/internal/models"
)

// Register creates an agent account. Teamleads, managers and admins enter
// through Login with the shared role password instead.
func Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	user := models.User{
		Role: models.RoleAgent,
		Name: req.Name,
	}

	if req.ManagerName != "" {
		var lead models.TeamLead
		if err := database.DB.Where("name = ?", req.ManagerName).First(&lead).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown teamlead",
			})
		}
		user.ManagerName = &req.ManagerName
	}

	if err := database.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	token, err := middleware.GenerateToken(user.ID, user.Role, 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(models.AuthResponse{
		Token: token,
		User:  user,
	})
}

// Login authenticates by role. Agents log in by name alone; teamleads need
// the teamlead password (rotated by admins); managers and admins need the
// admin password.
func Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	switch req.Role {
	case models.RoleAgent:
		return loginAgent(c, req)
	case models.RoleTeamLead:
		return loginTeamLead(c, req)
	case models.RoleManager, models.RoleAdmin:
		return loginWithAdminPassword(c, req)
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Unknown role",
	})
}

func loginAgent(c *fiber.Ctx, req models.LoginRequest) error {
	var user models.User
	if err := database.DB.Where("role = ? AND name = ?", models.RoleAgent, req.Name).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unknown agent, register first",
		})
	}
	return issueToken(c, user, 0)
}

func loginTeamLead(c *fiber.Ctx, req models.LoginRequest) error {
	// Teamlead password defaults to the admin password until set separately.
	hash := database.GetSetting(models.SettingTeamLeadPasswordHash,
		database.GetSetting(models.SettingAdminPasswordHash, ""))
	if !checkPassword(hash, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	var lead models.TeamLead
	if err := database.DB.Where("name = ?", req.Name).First(&lead).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Name is not on the teamlead roster",
		})
	}

	gen := middleware.TeamLeadPasswordGen()
	user, err := findOrCreateUser(models.RoleTeamLead, req.Name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}
	if user.PasswordGen != gen {
		database.DB.Model(&user).Update("password_gen", gen)
	}
	return issueToken(c, user, gen)
}

func loginWithAdminPassword(c *fiber.Ctx, req models.LoginRequest) error {
	hash := database.GetSetting(models.SettingAdminPasswordHash, "")
	if !checkPassword(hash, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	user, err := findOrCreateUser(req.Role, req.Name)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}
	return issueToken(c, user, 0)
}

func checkPassword(hash, plaintext string) bool {
	if hash == "" || plaintext == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

func findOrCreateUser(role, name string) (models.User, error) {
	var user models.User
	err := database.DB.Where("role = ? AND name = ?", role, name).First(&user).Error
	if err == nil {
		return user, nil
	}
	user = models.User{Role: role, Name: name}
	if err := database.DB.Create(&user).Error; err != nil {
		return user, err
	}
	return user, nil
}

func issueToken(c *fiber.Ctx, user models.User, passwordGen int) error {
	token, err := middleware.GenerateToken(user.ID, user.Role, passwordGen)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}
	return c.JSON(models.AuthResponse{
		Token: token,
		User:  user,
	})
}

func GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(user)
}

// UpdateProfile renames the caller or re-links an agent to another teamlead.
func UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name != nil && *req.Name != "" {
		user.Name = *req.Name
	}
	if req.ManagerName != nil {
		if *req.ManagerName == "" {
			user.ManagerName = nil
		} else {
			var lead models.TeamLead
			if err := database.DB.Where("name = ?", *req.ManagerName).First(&lead).Error; err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Unknown teamlead",
				})
			}
			user.ManagerName = req.ManagerName
		}
	}
	if req.FCMToken != nil {
		user.FCMToken = *req.FCMToken
	}

	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}

	return c.JSON(user)
}
