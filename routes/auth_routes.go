package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/brahimcontact64-ctrl/E-vizza/controllers"
	"github.com/brahimcontact64-ctrl/E-vizza/middleware"
)

// RegisterAuthRoutes sets up authentication and profile routes
func RegisterAuthRoutes(e *echo.Echo, db *mongo.Client, authController *controllers.AuthController) {
	// Public authentication routes
	e.POST("/api/auth/signup", authController.Signup)
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/remember-me/login", authController.LoginWithRememberToken)

	// Authenticated session and profile routes
	auth := e.Group("/api/auth")
	auth.Use(middleware.JWTMiddleware())
	auth.Use(middleware.ActivityTracker(db))
	auth.POST("/logout", authController.Logout)
	auth.GET("/validate", authController.ValidateSession)

	profile := e.Group("/api/users")
	profile.Use(middleware.JWTMiddleware())
	profile.Use(middleware.ActivityTracker(db))
	profile.GET("/profile", authController.GetProfile)
	profile.PUT("/profile", authController.UpdateProfile)
}
