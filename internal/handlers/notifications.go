package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/avoronova/fieldpulse-api/internal/database"
	"github.com/avoronova/fieldpulse-api/internal/middleware"
	"github.com/avoronova/fieldpulse-api/internal/models"
	"github.com/avoronova/fieldpulse-api/internal/services"
)

// GetNotifications returns the caller's notification feed, newest first.
// ?unread=true narrows to unread ones; limit/offset page through the rest.
func GetNotifications(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	q := database.DB.Where("user_id = ?", userID)
	if c.QueryBool("unread") {
		q = q.Where("read = ?", false)
	}

	var items []models.Notification
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load notifications",
		})
	}

	return c.JSON(fiber.Map{
		"items":  items,
		"unread": unreadCount(userID),
		"limit":  limit,
		"offset": offset,
	})
}

// MarkNotificationRead marks one notification read and reports how many
// remain unread, so clients refresh their badge in the same round trip.
func MarkNotificationRead(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid notification ID",
		})
	}

	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notifID, userID).
		Update("read", true)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update notification",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}

	return c.JSON(fiber.Map{"unread": unreadCount(userID)})
}

// MarkAllRead clears the caller's unread backlog.
func MarkAllRead(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	result := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update notifications",
		})
	}

	return c.JSON(fiber.Map{"marked": result.RowsAffected, "unread": 0})
}

// RegisterDeviceToken stores the caller's FCM token for push delivery.
func RegisterDeviceToken(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Token is required",
		})
	}

	err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("fcm_token", req.Token).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store device token",
		})
	}

	return c.JSON(fiber.Map{"message": "Device registered"})
}

func unreadCount(userID uuid.UUID) int64 {
	var unread int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).Count(&unread)
	return unread
}

// storeNotification persists an in-app notice for the feed above. Push
// delivery is the caller's concern, through the typed services.Push methods.
func storeNotification(userID uuid.UUID, notifType, title, body string, metadata map[string]string) {
	notice := models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
	}
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			s := string(raw)
			notice.Metadata = &s
		}
	}
	database.DB.Create(&notice)
}

// notifyManagers fans a published-rollup notice out to every manager
// account, in-app plus push.
func notifyManagers(owner, date string) {
	var managers []models.User
	database.DB.Where("role = ?", models.RoleManager).Find(&managers)

	for _, m := range managers {
		storeNotification(m.ID, "summary_saved", "Свод команды",
			owner+" сохранил объединённый отчёт за "+date,
			map[string]string{"owner": owner, "reportDate": date})
		services.Push.SummarySaved(m.ID, owner, date)
	}
}
