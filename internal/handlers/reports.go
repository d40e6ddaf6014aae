package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/clause"

	"github.com/avoronova/fieldpulse-api/internal/database"
	"github.com/avoronova/fieldpulse-api/internal/metrics"
	"github.com/avoronova/fieldpulse-api/internal/middleware"
	"github.com/avoronova/fieldpulse-api/internal/models"
	"github.com/avoronova/fieldpulse-api/internal/services"
)

func today() string {
	return time.Now().Format("2006-01-02")
}

// GetTodayReport returns the caller's report for today, with its rendered
// text form.
func GetTodayReport(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var report models.Report
	err := database.DB.Where("user_id = ? AND report_date = ?", userID, today()).First(&report).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No report for today",
		})
	}

	return c.JSON(fiber.Map{
		"report": report,
		"text":   renderReport(loadQuestions(), loadProducts(), report.Payload),
	})
}

// SubmitTodayReport upserts the caller's report for today. Answers are stored
// as the raw strings the agent typed; only keys from the current
// questionnaire and products from the configured list are kept. The caller's
// teamlead is stamped into the payload so later team rollups survive
// re-assignment.
func SubmitTodayReport(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var req models.SubmitReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	questions := loadQuestions()
	options := loadProducts()

	values := make(map[string]string, len(questions))
	for _, q := range questions {
		values[q.Key] = strings.TrimSpace(req.Values[q.Key])
	}

	allowed := make(map[string]bool, len(options))
	for _, opt := range options {
		allowed[opt.Name] = true
	}
	products := []string{}
	for _, name := range req.Products {
		if !allowed[name] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown product: " + name,
			})
		}
		products = append(products, name)
	}
	values["fckp_realized"] = metrics.FormatValue(float64(len(products)))

	payload := models.ReportPayload{
		Values:   values,
		Products: products,
	}
	if user.ManagerName != nil {
		payload.ManagerSnapshot = *user.ManagerName
	}

	report := models.Report{
		UserID:     userID,
		ReportDate: today(),
		Payload:    payload,
	}
	err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "report_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&report).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save report",
		})
	}

	return c.JSON(fiber.Map{
		"report": report,
		"text":   renderReport(questions, options, payload),
	})
}

// SendTodayReport notifies the caller's teamlead that today's report is
// ready: a notification row, a push if the teamlead has a device token, and
// a websocket event on the team room.
func SendTodayReport(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var report models.Report
	err := database.DB.Where("user_id = ? AND report_date = ?", userID, today()).First(&report).Error
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Submit a report before sending it",
		})
	}

	team := report.Payload.ManagerSnapshot
	if team == "" && user.ManagerName != nil {
		team = *user.ManagerName
	}
	if team == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No teamlead linked to this account",
		})
	}

	var lead models.User
	err = database.DB.Where("role = ? AND name = ?", models.RoleTeamLead, team).First(&lead).Error
	if err == nil {
		storeNotification(lead.ID, "report_sent", "Новый отчёт",
			user.Name+" отправил отчёт за "+report.ReportDate,
			map[string]string{
				"reportDate": report.ReportDate,
				"agentId":    user.ID.String(),
			})
		services.Push.ReportSent(lead.ID, user.Name, report.ReportDate)
	}

	WS.Broadcast(team, userID, WSEvent{
		Type:   EventReportSubmitted,
		Team:   team,
		UserID: userID.String(),
		Data:   fiber.Map{"date": report.ReportDate, "name": user.Name},
	})

	return c.JSON(fiber.Map{
		"message": "Report sent",
	})
}
