package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronova/fieldpulse-api/internal/database"
	"github.com/avoronova/fieldpulse-api/internal/models"
)

func TestRenameTeamLeadCascades(t *testing.T) {
	setupHandlerDB(t)

	oldName, newName := "Иванов", "Сидоров"

	roster := models.TeamLead{Name: oldName, Position: 0}
	require.NoError(t, database.DB.Create(&roster).Error)

	leadUser := models.User{Role: models.RoleTeamLead, Name: oldName}
	require.NoError(t, database.DB.Create(&leadUser).Error)

	agent := models.User{Role: models.RoleAgent, Name: "Анна", ManagerName: &oldName}
	require.NoError(t, database.DB.Create(&agent).Error)

	summary := models.TeamSummary{OwnerName: oldName, ReportDate: "2026-08-10"}
	require.NoError(t, database.DB.Create(&summary).Error)

	goal := models.Goal{
		Scope:      models.ScopeTeam,
		OwnerName:  &oldName,
		Title:      "Встречи",
		MetricType: "question",
		MetricKey:  "meetings",
		DateFrom:   "2026-08-01",
		DateTo:     "2099-12-31",
	}
	require.NoError(t, database.DB.Create(&goal).Error)

	admin := models.User{Role: models.RoleAdmin, Name: "Админ"}
	require.NoError(t, database.DB.Create(&admin).Error)

	app := appAs(admin, models.RoleAdmin)
	app.Put("/teamleads/:id", RenameTeamLead)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"name": newName}))
	req := httptest.NewRequest("PUT", "/teamleads/"+roster.ID.String(), &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var storedRoster models.TeamLead
	require.NoError(t, database.DB.First(&storedRoster, roster.ID).Error)
	assert.Equal(t, newName, storedRoster.Name)

	var storedAgent models.User
	require.NoError(t, database.DB.First(&storedAgent, agent.ID).Error)
	require.NotNil(t, storedAgent.ManagerName)
	assert.Equal(t, newName, *storedAgent.ManagerName)

	var storedLead models.User
	require.NoError(t, database.DB.First(&storedLead, leadUser.ID).Error)
	assert.Equal(t, newName, storedLead.Name)

	var storedSummary models.TeamSummary
	require.NoError(t, database.DB.First(&storedSummary, summary.ID).Error)
	assert.Equal(t, newName, storedSummary.OwnerName)

	var storedGoal models.Goal
	require.NoError(t, database.DB.First(&storedGoal, goal.ID).Error)
	require.NotNil(t, storedGoal.OwnerName)
	assert.Equal(t, newName, *storedGoal.OwnerName)

	// nothing left under the old name
	var stale int64
	database.DB.Model(&models.User{}).Where("manager_name = ?", oldName).Count(&stale)
	assert.Equal(t, int64(0), stale)
}

func TestRenameTeamLeadToTakenNameKeepsLinks(t *testing.T) {
	setupHandlerDB(t)

	name := "Иванов"
	roster := models.TeamLead{Name: name, Position: 0}
	require.NoError(t, database.DB.Create(&roster).Error)
	require.NoError(t, database.DB.Create(&models.TeamLead{Name: "Петров", Position: 1}).Error)

	agent := models.User{Role: models.RoleAgent, Name: "Анна", ManagerName: &name}
	require.NoError(t, database.DB.Create(&agent).Error)

	admin := models.User{Role: models.RoleAdmin, Name: "Админ"}
	require.NoError(t, database.DB.Create(&admin).Error)

	app := appAs(admin, models.RoleAdmin)
	app.Put("/teamleads/:id", RenameTeamLead)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"name": "Петров"}))
	req := httptest.NewRequest("PUT", "/teamleads/"+roster.ID.String(), &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// the failed rename leaves roster and agent links untouched
	var storedRoster models.TeamLead
	require.NoError(t, database.DB.First(&storedRoster, roster.ID).Error)
	assert.Equal(t, name, storedRoster.Name)

	var storedAgent models.User
	require.NoError(t, database.DB.First(&storedAgent, agent.ID).Error)
	require.NotNil(t, storedAgent.ManagerName)
	assert.Equal(t, name, *storedAgent.ManagerName)
}

func TestMoveQuestionSwapsPositions(t *testing.T) {
	setupHandlerDB(t)

	first := models.Question{Key: "meetings", Text: "1. Встречи - (шт):", Position: 0}
	second := models.Question{Key: "calls", Text: "2. Звонки - (шт):", Position: 1}
	require.NoError(t, database.DB.Create(&first).Error)
	require.NoError(t, database.DB.Create(&second).Error)

	admin := models.User{Role: models.RoleAdmin, Name: "Админ"}
	require.NoError(t, database.DB.Create(&admin).Error)

	app := appAs(admin, models.RoleAdmin)
	app.Post("/questions/:id/move", MoveQuestion)

	move := func(id, direction string) int {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"direction": direction}))
		req := httptest.NewRequest("POST", "/questions/"+id+"/move", &buf)
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, fiber.StatusOK, move(first.ID.String(), "down"))

	positions := func() map[string]int {
		var questions []models.Question
		require.NoError(t, database.DB.Find(&questions).Error)
		out := make(map[string]int, len(questions))
		for _, q := range questions {
			out[q.Key] = q.Position
		}
		return out
	}

	got := positions()
	assert.Equal(t, 1, got["meetings"])
	assert.Equal(t, 0, got["calls"])

	// moving past the edge changes nothing
	require.Equal(t, fiber.StatusOK, move(first.ID.String(), "down"))
	assert.Equal(t, got, positions())

	require.Equal(t, fiber.StatusOK, move(first.ID.String(), "up"))
	got = positions()
	assert.Equal(t, 0, got["meetings"])
	assert.Equal(t, 1, got["calls"])

	assert.Equal(t, fiber.StatusBadRequest, move(first.ID.String(), "sideways"))
}

func TestNotificationFeed(t *testing.T) {
	setupHandlerDB(t)

	user := models.User{Role: models.RoleTeamLead, Name: "Иванов"}
	require.NoError(t, database.DB.Create(&user).Error)

	storeNotification(user.ID, "report_sent", "Новый отчёт", "Анна отправила отчёт",
		map[string]string{"reportDate": "2026-08-10"})
	storeNotification(user.ID, "report_sent", "Новый отчёт", "Борис отправил отчёт", nil)

	app := appAs(user, models.RoleTeamLead)
	app.Get("/notifications", GetNotifications)
	app.Put("/notifications/:id/read", MarkNotificationRead)
	app.Post("/notifications/read-all", MarkAllRead)

	resp, err := app.Test(httptest.NewRequest("GET", "/notifications", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var feed struct {
		Items  []models.Notification `json:"items"`
		Unread int64                 `json:"unread"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&feed))
	require.Len(t, feed.Items, 2)
	assert.Equal(t, int64(2), feed.Unread)

	// metadata round-trips as a JSON string on the notice that carried it
	for _, item := range feed.Items {
		if item.Body == "Анна отправила отчёт" {
			require.NotNil(t, item.Metadata)
			assert.Contains(t, *item.Metadata, "2026-08-10")
		}
	}

	req := httptest.NewRequest("PUT", "/notifications/"+feed.Items[0].ID.String()+"/read", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var after struct {
		Unread int64 `json:"unread"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&after))
	assert.Equal(t, int64(1), after.Unread)

	resp, err = app.Test(httptest.NewRequest("POST", "/notifications/read-all", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), unreadCount(user.ID))
}
