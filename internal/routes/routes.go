package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/avoronova/fieldpulse-api/internal/handlers"
	"github.com/avoronova/fieldpulse-api/internal/middleware"
	"github.com/avoronova/fieldpulse-api/internal/models"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Put("/me", handlers.UpdateProfile)

	// Daily reports (agents)
	reports := protected.Group("/reports")
	reports.Get("/today", handlers.GetTodayReport)
	reports.Put("/today", handlers.SubmitTodayReport)
	reports.Post("/today/send", handlers.SendTodayReport)

	// Team views (teamleads)
	team := protected.Group("/team", middleware.RequireRole(models.RoleTeamLead))
	team.Get("/reports", handlers.TeamReportStatus)
	team.Get("/reports/detailed", handlers.TeamReportsDetailed)
	team.Get("/summary/preview", handlers.TeamSummaryPreview)
	team.Post("/summary", handlers.SaveTeamSummary)

	// Published rollups (managers and admins)
	managers := middleware.RequireRole(models.RoleManager, models.RoleAdmin)
	summaries := protected.Group("/summaries", managers)
	summaries.Get("/status", handlers.SummaryStatuses)
	summaries.Get("/global", handlers.GlobalSummary)
	summaries.Get("/:owner", handlers.GetTeamSummary)

	export := protected.Group("/export", managers)
	export.Get("/summaries/global", handlers.ExportGlobalSummary)
	export.Get("/summaries/:owner", handlers.ExportTeamSummary)

	// Goals and leaderboards
	protected.Get("/overview", handlers.Overview)
	goals := protected.Group("/goals")
	goals.Get("/", handlers.ListGoals)
	goals.Get("/:id", handlers.GetGoal)
	goals.Get("/:id/progress", handlers.GoalProgress)

	goalAdmins := middleware.RequireRole(models.RoleTeamLead, models.RoleManager, models.RoleAdmin)
	goals.Post("/", goalAdmins, handlers.CreateGoal)
	goals.Patch("/:id", goalAdmins, handlers.UpdateGoal)
	goals.Delete("/:id", goalAdmins, handlers.DeleteGoal)
	goals.Put("/:id/leaderboard", goalAdmins, handlers.ConfigureLeaderboard)
	goals.Delete("/:id/leaderboard", goalAdmins, handlers.DisableLeaderboard)

	// Admin console
	admin := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))

	questions := admin.Group("/questions")
	questions.Get("/", handlers.ListQuestions)
	questions.Post("/", handlers.CreateQuestion)
	questions.Put("/:id", handlers.UpdateQuestion)
	questions.Delete("/:id", handlers.DeleteQuestion)
	questions.Post("/:id/move", handlers.MoveQuestion)

	products := admin.Group("/products")
	products.Get("/", handlers.ListProducts)
	products.Post("/", handlers.CreateProduct)
	products.Delete("/:id", handlers.DeleteProduct)
	products.Post("/:id/move", handlers.MoveProduct)

	teamleads := admin.Group("/teamleads")
	teamleads.Get("/", handlers.ListTeamLeads)
	teamleads.Post("/", handlers.CreateTeamLead)
	teamleads.Put("/:id", handlers.RenameTeamLead)
	teamleads.Delete("/:id", handlers.DeleteTeamLead)
	teamleads.Post("/:id/move", handlers.MoveTeamLead)

	employees := admin.Group("/employees")
	employees.Get("/", handlers.ListEmployees)
	employees.Put("/:id/reassign", handlers.ReassignEmployee)
	employees.Delete("/:id", handlers.DeleteEmployee)

	admin.Put("/teamlead-password", handlers.SetTeamLeadPassword)
	admin.Put("/password", handlers.SetAdminPassword)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/:id/read", handlers.MarkNotificationRead)
	notifications.Post("/read-all", handlers.MarkAllRead)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)

	// WebSocket for real-time team updates
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws/teams/:owner", websocket.New(handlers.HandleWebSocket))
}
