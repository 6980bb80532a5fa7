package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/brahimcontact64-ctrl/E-vizza/controllers"
	"github.com/brahimcontact64-ctrl/E-vizza/middleware"
	"github.com/brahimcontact64-ctrl/E-vizza/models"
)

// RegisterReferenceRoutes sets up the country, visa type and document
// requirement routes. Applicants read the catalog; admins maintain it.
func RegisterReferenceRoutes(e *echo.Echo, db *mongo.Client) {
	countryController := controllers.NewCountryController(db)
	visaTypeController := controllers.NewVisaTypeController(db)
	requirementController := controllers.NewDocumentRequirementController(db)

	// Catalog reads for the submission wizard
	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())
	r.Use(middleware.ActivityTracker(db))
	r.GET("/countries", countryController.ListCountries)
	r.GET("/countries/:id", countryController.GetCountry)
	r.GET("/countries/:id/visa-types", visaTypeController.ListForCountry)
	r.GET("/visa-types/:id", visaTypeController.GetVisaType)
	r.GET("/visa-types/:id/requirements", visaTypeController.ListRequirements)

	// Catalog management. Countries and visa types are deactivated,
	// never deleted, so existing applications keep their references.
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.ActivityTracker(db))
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.POST("/countries", countryController.CreateCountry)
	admin.PUT("/countries/:id", countryController.UpdateCountry)
	admin.DELETE("/countries/:id", countryController.DeactivateCountry)
	admin.POST("/visa-types", visaTypeController.CreateVisaType)
	admin.PUT("/visa-types/:id", visaTypeController.UpdateVisaType)
	admin.DELETE("/visa-types/:id", visaTypeController.DeactivateVisaType)
	admin.POST("/requirements", requirementController.CreateRequirement)
	admin.PUT("/requirements/:id", requirementController.UpdateRequirement)
	admin.DELETE("/requirements/:id", requirementController.DeleteRequirement)
}
