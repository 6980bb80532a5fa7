// controllers/country_controller.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brahimcontact64-ctrl/E-vizza/config"
	"github.com/brahimcontact64-ctrl/E-vizza/models"
	"github.com/brahimcontact64-ctrl/E-vizza/utils"
)

// CountryController manages destination countries
type CountryController struct {
	DB *mongo.Client
}

func NewCountryController(db *mongo.Client) *CountryController {
	return &CountryController{DB: db}
}

// ListCountries returns destinations for the public catalog. Admins
// pass ?all=true to include deactivated countries.
func (cc *CountryController) ListCountries(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"is_active": true}
	if c.QueryParam("all") == "true" {
		filter = bson.M{}
	}

	cursor, err := config.GetCollection(cc.DB, "countries").Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "name_en", Value: 1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load countries",
		})
	}
	var countries []models.Country
	if err := cursor.All(ctx, &countries); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode countries",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Countries retrieved",
		Data:    countries,
	})
}

// GetCountry returns one country with its active visa types.
func (cc *CountryController) GetCountry(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	countryID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid country id",
		})
	}

	var country models.Country
	err = config.GetCollection(cc.DB, "countries").FindOne(ctx, bson.M{"_id": countryID}).Decode(&country)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Country not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load country",
		})
	}

	cursor, err := config.GetCollection(cc.DB, "visaTypes").Find(ctx,
		bson.M{"country_id": countryID, "is_active": true},
		options.Find().SetSort(bson.D{{Key: "name_en", Value: 1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load visa types",
		})
	}
	var visaTypes []models.VisaType
	if err := cursor.All(ctx, &visaTypes); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode visa types",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Country retrieved",
		Data: map[string]interface{}{
			"country":    country,
			"visa_types": visaTypes,
		},
	})
}

// CreateCountry adds a destination (admin only).
func (cc *CountryController) CreateCountry(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CountryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	now := time.Now()
	country := models.Country{
		ID:                  primitive.NewObjectID(),
		Code:                strings.ToUpper(req.Code),
		NameEn:              utils.SanitizeInput(req.NameEn),
		NameFr:              utils.SanitizeInput(req.NameFr),
		NameAr:              utils.SanitizeInput(req.NameAr),
		FlagEmoji:           req.FlagEmoji,
		IsActive:            isActive,
		ProcessingTimeDays:  req.ProcessingTimeDays,
		PortalLink:          req.PortalLink,
		AdminInstructionsEn: req.AdminInstructionsEn,
		AdminInstructionsFr: req.AdminInstructionsFr,
		AdminInstructionsAr: req.AdminInstructionsAr,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if _, err := config.GetCollection(cc.DB, "countries").InsertOne(ctx, country); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "A country with this code already exists",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create country",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Country created",
		Data:    country,
	})
}

// UpdateCountry updates a destination (admin only).
func (cc *CountryController) UpdateCountry(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	countryID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid country id",
		})
	}

	var req models.CountryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	set := bson.M{
		"code":                  strings.ToUpper(req.Code),
		"name_en":               utils.SanitizeInput(req.NameEn),
		"name_fr":               utils.SanitizeInput(req.NameFr),
		"name_ar":               utils.SanitizeInput(req.NameAr),
		"flag_emoji":            req.FlagEmoji,
		"processing_time_days":  req.ProcessingTimeDays,
		"portal_link":           req.PortalLink,
		"admin_instructions_en": req.AdminInstructionsEn,
		"admin_instructions_fr": req.AdminInstructionsFr,
		"admin_instructions_ar": req.AdminInstructionsAr,
		"updatedAt":             time.Now(),
	}
	if req.IsActive != nil {
		set["is_active"] = *req.IsActive
	}

	result, err := config.GetCollection(cc.DB, "countries").UpdateOne(ctx,
		bson.M{"_id": countryID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "A country with this code already exists",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update country",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Country not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Country updated",
	})
}

// DeactivateCountry hides a destination from the public catalog.
// Countries are never deleted so existing applications keep their
// references.
func (cc *CountryController) DeactivateCountry(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	countryID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid country id",
		})
	}

	result, err := config.GetCollection(cc.DB, "countries").UpdateOne(ctx,
		bson.M{"_id": countryID},
		bson.M{"$set": bson.M{"is_active": false, "updatedAt": time.Now()}})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to deactivate country",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Country not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Country deactivated",
	})
}
