package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/brahimcontact64-ctrl/E-vizza/controllers"
	"github.com/brahimcontact64-ctrl/E-vizza/middleware"
	"github.com/brahimcontact64-ctrl/E-vizza/repositories"
	"github.com/brahimcontact64-ctrl/E-vizza/services"
	"github.com/brahimcontact64-ctrl/E-vizza/workflow"
)

// RegisterApplicationRoutes sets up the applicant-facing application
// routes. Every route is scoped to the authenticated user; other
// users' applications come back as 404.
func RegisterApplicationRoutes(e *echo.Echo, db *mongo.Client, repo *repositories.ApplicationRepository, engine *workflow.Engine, storage services.BlobStorage) {
	applicationController := controllers.NewApplicationController(db, repo, engine, storage)

	r := e.Group("/api/applications")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.ActivityTracker(db))

	r.POST("", applicationController.SubmitApplication)
	r.GET("", applicationController.ListMyApplications)
	r.GET("/:id", applicationController.GetMyApplication)
	r.GET("/:id/readiness", applicationController.GetReadiness)
	r.GET("/:id/qr", applicationController.GetApplicationQR)
	r.POST("/:id/documents/:requirementId", applicationController.ReuploadDocument)
}
