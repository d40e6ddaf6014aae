package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/clause"

	"github.com/avoronova/fieldpulse-api/internal/database"
	"github.com/avoronova/fieldpulse-api/internal/middleware"
	"github.com/avoronova/fieldpulse-api/internal/models"
)

// ownerParam decodes a teamlead name from the path. Names are Cyrillic, so
// they always arrive percent-encoded.
func ownerParam(raw string) string {
	if s, err := url.PathUnescape(raw); err == nil {
		return s
	}
	return raw
}

// dateQuery returns the ?date= query value, defaulting to today.
func dateQuery(c *fiber.Ctx) string {
	if d := c.Query("date"); d != "" {
		return d
	}
	return today()
}

type teamReport struct {
	User   models.User
	Report models.Report
}

// teamReportsOn collects a team's reports for one day. A report belongs to
// the team when its stored teamlead snapshot matches; reports without a
// snapshot fall back to the agent's current teamlead link.
func teamReportsOn(owner, date string) ([]teamReport, error) {
	var reports []models.Report
	if err := database.DB.Where("report_date = ?", date).Find(&reports).Error; err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, nil
	}

	var out []teamReport
	for _, r := range reports {
		var user models.User
		if err := database.DB.First(&user, r.UserID).Error; err != nil {
			continue
		}
		team := r.Payload.ManagerSnapshot
		if team == "" && user.ManagerName != nil {
			team = *user.ManagerName
		}
		if team == owner {
			out = append(out, teamReport{User: user, Report: r})
		}
	}
	return out, nil
}

func callerUser(c *fiber.Ctx) (models.User, error) {
	var user models.User
	err := database.DB.First(&user, middleware.GetUserID(c)).Error
	return user, err
}

// TeamReportStatus lists the caller's team members and whether each has
// submitted today's report.
func TeamReportStatus(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	date := dateQuery(c)

	var members []models.User
	if err := database.DB.Where("role = ? AND manager_name = ?", models.RoleAgent, user.Name).
		Order("name ASC").Find(&members).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load team",
		})
	}

	reports, err := teamReportsOn(user.Name, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load reports",
		})
	}
	submitted := make(map[string]bool, len(reports))
	for _, tr := range reports {
		submitted[tr.User.ID.String()] = true
	}

	statuses := make([]fiber.Map, len(members))
	for i, m := range members {
		statuses[i] = fiber.Map{
			"userId":    m.ID,
			"name":      m.Name,
			"submitted": submitted[m.ID.String()],
		}
	}

	return c.JSON(fiber.Map{
		"date":     date,
		"statuses": statuses,
	})
}

// TeamReportsDetailed renders every team report for the day in full.
func TeamReportsDetailed(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	date := dateQuery(c)

	reports, err := teamReportsOn(user.Name, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load reports",
		})
	}

	questions := loadQuestions()
	options := loadProducts()

	items := make([]fiber.Map, len(reports))
	for i, tr := range reports {
		items[i] = fiber.Map{
			"userId": tr.User.ID,
			"name":   tr.User.Name,
			"report": tr.Report,
			"text":   renderReport(questions, options, tr.Report.Payload),
		}
	}

	return c.JSON(fiber.Map{
		"date":    date,
		"reports": items,
	})
}

// TeamSummaryPreview combines today's team reports without saving, so the
// teamlead can review the rollup before publishing it to management.
func TeamSummaryPreview(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	date := dateQuery(c)

	reports, err := teamReportsOn(user.Name, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load reports",
		})
	}
	if len(reports) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No reports for " + date,
		})
	}

	payloads := make([]models.ReportPayload, len(reports))
	for i, tr := range reports {
		payloads[i] = tr.Report.Payload
	}
	combined := combinePayloads(payloads)

	return c.JSON(fiber.Map{
		"date":    date,
		"count":   len(reports),
		"payload": combined,
		"text":    renderReport(loadQuestions(), loadProducts(), combined) + "\n\n" + operationalDefectsBlock,
	})
}

// SaveTeamSummary combines today's team reports and publishes the rollup for
// managers. Saving again the same day overwrites the earlier rollup.
func SaveTeamSummary(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	date := dateQuery(c)

	reports, err := teamReportsOn(user.Name, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load reports",
		})
	}
	if len(reports) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No reports to combine for " + date,
		})
	}

	payloads := make([]models.ReportPayload, len(reports))
	for i, tr := range reports {
		payloads[i] = tr.Report.Payload
	}

	summary := models.TeamSummary{
		OwnerName:  user.Name,
		ReportDate: date,
		Payload:    combinePayloads(payloads),
	}
	err = database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_name"}, {Name: "report_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&summary).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save summary",
		})
	}

	notifyManagers(user.Name, date)

	WS.Broadcast(user.Name, user.ID, WSEvent{
		Type:   EventSummarySaved,
		Team:   user.Name,
		UserID: user.ID.String(),
		Data:   fiber.Map{"date": date},
	})

	return c.JSON(fiber.Map{
		"summary": summary,
	})
}

// SummaryStatuses tells managers which roster teams have published a rollup
// for the day.
func SummaryStatuses(c *fiber.Ctx) error {
	date := dateQuery(c)

	var leads []models.TeamLead
	if err := database.DB.Order("position ASC").Find(&leads).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load roster",
		})
	}

	var summaries []models.TeamSummary
	if err := database.DB.Where("report_date = ?", date).Find(&summaries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load summaries",
		})
	}
	saved := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		saved[s.OwnerName] = true
	}

	statuses := make([]fiber.Map, len(leads))
	for i, lead := range leads {
		statuses[i] = fiber.Map{
			"owner": lead.Name,
			"saved": saved[lead.Name],
		}
	}

	return c.JSON(fiber.Map{
		"date":     date,
		"statuses": statuses,
	})
}

// GetTeamSummary returns one team's published rollup for the day.
func GetTeamSummary(c *fiber.Ctx) error {
	owner := ownerParam(c.Params("owner"))
	date := dateQuery(c)

	var summary models.TeamSummary
	err := database.DB.Where("owner_name = ? AND report_date = ?", owner, date).First(&summary).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No summary for " + owner + " on " + date,
		})
	}

	return c.JSON(fiber.Map{
		"summary": summary,
		"text":    renderReport(loadQuestions(), loadProducts(), summary.Payload) + "\n\n" + operationalDefectsBlock,
	})
}

// GlobalSummary combines every published team rollup for the day into one
// org-wide report.
func GlobalSummary(c *fiber.Ctx) error {
	date := dateQuery(c)

	var summaries []models.TeamSummary
	if err := database.DB.Where("report_date = ?", date).Order("owner_name ASC").Find(&summaries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load summaries",
		})
	}
	if len(summaries) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No summaries for " + date,
		})
	}

	payloads := make([]models.ReportPayload, len(summaries))
	owners := make([]string, len(summaries))
	for i, s := range summaries {
		payloads[i] = s.Payload
		owners[i] = s.OwnerName
	}
	combined := combinePayloads(payloads)

	return c.JSON(fiber.Map{
		"date":    date,
		"owners":  owners,
		"payload": combined,
		"text":    renderReport(loadQuestions(), loadProducts(), combined),
	})
}
