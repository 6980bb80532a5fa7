package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/brahimcontact64-ctrl/E-vizza/controllers"
	"github.com/brahimcontact64-ctrl/E-vizza/middleware"
	"github.com/brahimcontact64-ctrl/E-vizza/models"
	"github.com/brahimcontact64-ctrl/E-vizza/repositories"
	"github.com/brahimcontact64-ctrl/E-vizza/workflow"
)

// RegisterAdminRoutes sets up the review queue and staff management
// routes. Admin routes accept both admin and super admin tokens;
// account management is super admin only.
func RegisterAdminRoutes(e *echo.Echo, db *mongo.Client, repo *repositories.ApplicationRepository, engine *workflow.Engine) {
	adminController := controllers.NewAdminApplicationController(db, repo, engine)
	userController := controllers.NewAdminUserController(db)

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.ActivityTracker(db))
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	// Review queue
	admin.GET("/applications", adminController.ListApplications)
	admin.GET("/applications/:id", adminController.GetApplication)
	admin.PUT("/applications/:id/status", adminController.UpdateStatus)
	admin.POST("/applications/:id/confirm-payment", adminController.ConfirmPayment)
	admin.PUT("/documents/:id/verify", adminController.VerifyDocument)
	admin.GET("/stats", adminController.GetStats)

	// Staff account management
	superAdmin := e.Group("/api/admin")
	superAdmin.Use(middleware.JWTMiddleware())
	superAdmin.Use(middleware.ActivityTracker(db))
	superAdmin.Use(middleware.RequireRole(models.RoleSuperAdmin))
	superAdmin.POST("/register", userController.CreateAdmin)
	superAdmin.GET("/users", userController.ListUsers)
	superAdmin.PUT("/users/:id/active", userController.SetUserActive)
}
