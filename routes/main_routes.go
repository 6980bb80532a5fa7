package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/brahimcontact64-ctrl/E-vizza/controllers"
	"github.com/brahimcontact64-ctrl/E-vizza/repositories"
	"github.com/brahimcontact64-ctrl/E-vizza/services"
	"github.com/brahimcontact64-ctrl/E-vizza/websocket"
	"github.com/brahimcontact64-ctrl/E-vizza/workflow"
)

// SetupRoutes configures all API routes by calling individual route
// registration functions
func SetupRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub, repo *repositories.ApplicationRepository, engine *workflow.Engine, storage services.BlobStorage, authController *controllers.AuthController) {
	RegisterAuthRoutes(e, db, authController)
	RegisterReferenceRoutes(e, db)
	RegisterApplicationRoutes(e, db, repo, engine, storage)
	RegisterNotificationRoutes(e, db, hub)
	RegisterAdminRoutes(e, db, repo, engine)
}
