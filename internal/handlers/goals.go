package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/avoronova/fieldpulse-api/internal/database"
	"github.com/avoronova/fieldpulse-api/internal/metrics"
	"github.com/avoronova/fieldpulse-api/internal/middleware"
	"github.com/avoronova/fieldpulse-api/internal/models"
	"github.com/avoronova/fieldpulse-api/internal/progress"
)

// maxLeaderboardTopN caps how many entries a leaderboard may show.
const maxLeaderboardTopN = 50

func calc() *progress.Calculator {
	return progress.NewCalculator(database.Reports{})
}

func validDate(s string) bool {
	if len(s) != 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// cleanupExpiredGoals drops goals whose window ended before today. Runs on
// every listing so stale goals disappear without a background job.
func cleanupExpiredGoals() {
	database.DB.Where("date_to < ?", today()).Delete(&models.Goal{})
}

// canManageGoal: managers and admins manage any goal, teamleads only their
// own team's.
func canManageGoal(role, callerName string, goal models.Goal) bool {
	if role == models.RoleManager || role == models.RoleAdmin {
		return true
	}
	if role == models.RoleTeamLead && goal.Scope == models.ScopeTeam {
		return goal.OwnerName != nil && *goal.OwnerName == callerName
	}
	return false
}

// loadGoal resolves the :id param. On failure the response is already
// written and ok is false.
func loadGoal(c *fiber.Ctx) (goal models.Goal, ok bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
		return goal, false
	}
	if err := database.DB.First(&goal, id).Error; err != nil {
		c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
		return goal, false
	}
	return goal, true
}

func goalView(cl *progress.Calculator, goal models.Goal, asOf string) fiber.Map {
	achieved := cl.Achieved(goal, asOf)
	remaining := goal.TargetValue - achieved
	if remaining < 0 {
		remaining = 0
	}
	view := fiber.Map{
		"goal":      goal,
		"achieved":  achieved,
		"remaining": remaining,
		"progress":  metrics.Percent(achieved, goal.TargetValue),
	}
	if goal.LeaderboardTopN > 0 {
		entries := cl.Leaderboard(goal, goal.LeaderboardTopN, asOf)
		view["leaderboard"] = entries
		view["leaderboardLines"] = leaderboardLines(entries)
	}
	return view
}

// ListGoals returns active goals visible to the caller: org goals for
// everyone, team goals only for that team's lead and for managers/admins.
func ListGoals(c *fiber.Ctx) error {
	cleanupExpiredGoals()

	user, err := callerUser(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	role := middleware.GetRole(c)

	var goals []models.Goal
	q := database.DB.Order("date_to ASC, created_at ASC")
	if scope := c.Query("scope"); scope != "" {
		q = q.Where("scope = ?", scope)
	}
	if owner := c.Query("owner"); owner != "" {
		q = q.Where("owner_name = ?", owner)
	}
	switch role {
	case models.RoleManager, models.RoleAdmin:
		err = q.Find(&goals).Error
	case models.RoleTeamLead:
		err = q.Where("scope = ? OR owner_name = ?", models.ScopeOrg, user.Name).Find(&goals).Error
	default:
		team := ""
		if user.ManagerName != nil {
			team = *user.ManagerName
		}
		err = q.Where("scope = ? OR owner_name = ?", models.ScopeOrg, team).Find(&goals).Error
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load goals",
		})
	}

	cl := calc()
	asOf := today()
	views := make([]fiber.Map, len(goals))
	for i, g := range goals {
		views[i] = goalView(cl, g, asOf)
	}

	return c.JSON(fiber.Map{
		"goals": views,
	})
}

// CreateGoal creates a team or org goal. Teamleads always create goals for
// their own team; managers and admins name the team explicitly or create org
// goals.
func CreateGoal(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	role := middleware.GetRole(c)

	var req models.CreateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Scope != models.ScopeTeam && req.Scope != models.ScopeOrg {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Scope must be team or org",
		})
	}
	desc := metrics.Descriptor{Type: req.MetricType, Key: req.MetricKey}
	if !desc.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid metric",
		})
	}
	if !validDate(req.DateFrom) || !validDate(req.DateTo) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dates must be YYYY-MM-DD",
		})
	}
	if req.DateTo < req.DateFrom {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "End date must not precede start date",
		})
	}
	if req.TargetValue < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Target must not be negative",
		})
	}

	goal := models.Goal{
		Scope:       req.Scope,
		Title:       req.Title,
		MetricType:  req.MetricType,
		MetricKey:   req.MetricKey,
		TargetValue: req.TargetValue,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
	}

	if req.Scope == models.ScopeTeam {
		switch role {
		case models.RoleTeamLead:
			name := user.Name
			goal.OwnerName = &name
		default:
			if req.OwnerName == nil || *req.OwnerName == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Team goals need an owner",
				})
			}
			var lead models.TeamLead
			if err := database.DB.Where("name = ?", *req.OwnerName).First(&lead).Error; err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Unknown teamlead",
				})
			}
			goal.OwnerName = req.OwnerName
		}
	} else if role == models.RoleTeamLead {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Teamleads cannot create org goals",
		})
	}

	if err := database.DB.Create(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create goal",
		})
	}

	broadcastGoal(goal, user.ID, EventGoalUpdated)
	return c.Status(fiber.StatusCreated).JSON(goal)
}

// GetGoal returns one goal with its current progress.
func GetGoal(c *fiber.Ctx) error {
	goal, ok := loadGoal(c)
	if !ok {
		return nil
	}
	return c.JSON(goalView(calc(), goal, today()))
}

// UpdateGoal edits goal fields. Date edits are re-checked against the window
// invariant in their final combination.
func UpdateGoal(c *fiber.Ctx) error {
	goal, ok := loadGoal(c)
	if !ok {
		return nil
	}
	user, uerr := callerUser(c)
	if uerr != nil || !canManageGoal(middleware.GetRole(c), user.Name, goal) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not your goal",
		})
	}

	var req models.UpdateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil {
		goal.Title = *req.Title
	}
	if req.MetricType != nil {
		goal.MetricType = *req.MetricType
	}
	if req.MetricKey != nil {
		goal.MetricKey = *req.MetricKey
	}
	desc := metrics.Descriptor{Type: goal.MetricType, Key: goal.MetricKey}
	if !desc.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid metric",
		})
	}
	if req.TargetValue != nil {
		if *req.TargetValue < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Target must not be negative",
			})
		}
		goal.TargetValue = *req.TargetValue
	}
	if req.DateFrom != nil {
		if !validDate(*req.DateFrom) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Dates must be YYYY-MM-DD",
			})
		}
		goal.DateFrom = *req.DateFrom
	}
	if req.DateTo != nil {
		if !validDate(*req.DateTo) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Dates must be YYYY-MM-DD",
			})
		}
		goal.DateTo = *req.DateTo
	}
	if goal.DateTo < goal.DateFrom {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "End date must not precede start date",
		})
	}

	if err := database.DB.Save(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update goal",
		})
	}

	broadcastGoal(goal, user.ID, EventGoalUpdated)
	return c.JSON(goal)
}

// DeleteGoal removes a goal.
func DeleteGoal(c *fiber.Ctx) error {
	goal, ok := loadGoal(c)
	if !ok {
		return nil
	}
	user, uerr := callerUser(c)
	if uerr != nil || !canManageGoal(middleware.GetRole(c), user.Name, goal) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not your goal",
		})
	}

	if err := database.DB.Delete(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete goal",
		})
	}

	broadcastGoal(goal, user.ID, EventGoalDeleted)
	return c.JSON(fiber.Map{
		"message": "Goal deleted",
	})
}

// GoalProgress returns achievement and the ranked leaderboard for one goal.
func GoalProgress(c *fiber.Ctx) error {
	goal, ok := loadGoal(c)
	if !ok {
		return nil
	}

	asOf := today()
	if d := c.Query("asOf"); d != "" && validDate(d) {
		asOf = d
	}

	cl := calc()
	view := goalView(cl, goal, asOf)

	scores := cl.PerParticipant(goal, asOf)
	perParticipant := make(map[string]float64, len(scores))
	for id, v := range scores {
		perParticipant[id.String()] = v
	}
	view["perParticipant"] = perParticipant

	return c.JSON(view)
}

// ConfigureLeaderboard sets the goal's leaderboard size, up to 50 entries.
func ConfigureLeaderboard(c *fiber.Ctx) error {
	goal, ok := loadGoal(c)
	if !ok {
		return nil
	}
	user, uerr := callerUser(c)
	if uerr != nil || !canManageGoal(middleware.GetRole(c), user.Name, goal) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not your goal",
		})
	}

	var req models.LeaderboardConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	// 0 disables, same as DELETE
	if req.TopN < 0 || req.TopN > maxLeaderboardTopN {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "topN must be between 0 and 50",
		})
	}

	goal.LeaderboardTopN = req.TopN
	if err := database.DB.Save(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update leaderboard",
		})
	}

	broadcastGoal(goal, user.ID, EventGoalUpdated)
	return c.JSON(goal)
}

// DisableLeaderboard turns the goal's leaderboard off.
func DisableLeaderboard(c *fiber.Ctx) error {
	goal, ok := loadGoal(c)
	if !ok {
		return nil
	}
	user, uerr := callerUser(c)
	if uerr != nil || !canManageGoal(middleware.GetRole(c), user.Name, goal) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not your goal",
		})
	}

	goal.LeaderboardTopN = 0
	if err := database.DB.Save(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update leaderboard",
		})
	}

	broadcastGoal(goal, user.ID, EventGoalUpdated)
	return c.JSON(goal)
}

// Overview returns the motivational block agents see: up to three org goals
// and up to three goals of the caller's team, each with progress and
// leaderboard lines.
func Overview(c *fiber.Ctx) error {
	cleanupExpiredGoals()

	user, err := callerUser(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	team := ""
	switch middleware.GetRole(c) {
	case models.RoleTeamLead:
		team = user.Name
	default:
		if user.ManagerName != nil {
			team = *user.ManagerName
		}
	}

	cl := calc()
	asOf := today()

	var orgGoals []models.Goal
	database.DB.Where("scope = ?", models.ScopeOrg).Order("date_to ASC").Limit(3).Find(&orgGoals)
	org := make([]fiber.Map, len(orgGoals))
	for i, g := range orgGoals {
		org[i] = goalView(cl, g, asOf)
	}

	teamViews := []fiber.Map{}
	if team != "" {
		var teamGoals []models.Goal
		database.DB.Where("scope = ? AND owner_name = ?", models.ScopeTeam, team).
			Order("date_to ASC").Limit(3).Find(&teamGoals)
		for _, g := range teamGoals {
			teamViews = append(teamViews, goalView(cl, g, asOf))
		}
	}

	return c.JSON(fiber.Map{
		"org":  org,
		"team": teamViews,
	})
}

func broadcastGoal(goal models.Goal, actor uuid.UUID, event string) {
	team := ""
	if goal.Scope == models.ScopeTeam && goal.OwnerName != nil {
		team = *goal.OwnerName
	}
	WS.Broadcast(team, actor, WSEvent{
		Type:   event,
		Team:   team,
		UserID: actor.String(),
		Data:   fiber.Map{"goalId": goal.ID},
	})
}
