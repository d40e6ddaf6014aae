package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/avoronova/fieldpulse-api/internal/config"
	"github.com/avoronova/fieldpulse-api/internal/database"
	"github.com/avoronova/fieldpulse-api/internal/routes"
	"github.com/avoronova/fieldpulse-api/internal/services"
)

func main() {
	// .env is optional; real deployments configure via the environment
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.Seed(cfg); err != nil {
		log.Fatalf("Failed to seed defaults: %v", err)
	}

	if err := services.InitPush(cfg.FCMServiceAccount); err != nil {
		log.Printf("Push notifications unavailable: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName: "fieldpulse-api",
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes.Setup(app)

	log.Printf("Listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
