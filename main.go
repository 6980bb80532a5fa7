package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/brahimcontact64-ctrl/E-vizza/config"
	"github.com/brahimcontact64-ctrl/E-vizza/controllers"
	"github.com/brahimcontact64-ctrl/E-vizza/middleware"
	"github.com/brahimcontact64-ctrl/E-vizza/repositories"
	"github.com/brahimcontact64-ctrl/E-vizza/routes"
	"github.com/brahimcontact64-ctrl/E-vizza/services"
	"github.com/brahimcontact64-ctrl/E-vizza/utils"
	"github.com/brahimcontact64-ctrl/E-vizza/websocket"
	"github.com/brahimcontact64-ctrl/E-vizza/workflow"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Initialize Firebase. Push notifications and cloud document
	// storage degrade gracefully when it is unavailable.
	firebaseApp, err := config.InitFirebase()
	if err != nil {
		log.Printf("Warning: Firebase unavailable, push and cloud storage disabled: %v", err)
	}

	// Connect to Redis (remember-me sessions)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Document blob storage. Firebase bucket when configured, local
	// uploads directory otherwise.
	var storage services.BlobStorage
	if firebaseApp != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		firebaseStorage, err := services.NewFirebaseStorage(ctx, firebaseApp)
		cancel()
		if err != nil {
			log.Printf("Warning: Firebase storage unavailable, using local uploads: %v", err)
			storage = services.NewLocalStorage()
		} else {
			storage = firebaseStorage
		}
	} else {
		storage = services.NewLocalStorage()
	}

	// Workflow engine over the Mongo-backed store and counter
	repo := repositories.NewApplicationRepository(client)
	counters := repositories.NewCounterRepository(client)
	engine := workflow.NewEngine(repo, counters)

	// WebSocket hub for live status updates
	hub := websocket.NewHub()
	go hub.Run()

	// Notify applicants on every committed status change
	notifier := services.NewNotifier(client, firebaseApp, hub)
	engine.Subscribe(notifier)

	e := echo.New()
	e.Validator = utils.NewValidator()

	rateLimiter := middleware.NewRateLimiter()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(middleware.SecurityHeaders())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "E-Vizza Backend is running",
			"version": "1.0",
		})
	})
	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Serve locally stored documents
	e.Static("/uploads", "uploads")

	// Expired blacklist entries are purged hourly
	go middleware.CleanupBlacklist()

	authController := controllers.NewAuthController(client, redisClient)
	routes.SetupRoutes(e, client, hub, repo, engine, storage, authController)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Fatal(e.Start(":" + port))
}
