// controllers/visa_type_controller.go
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
	"github.com/brahimcontact64-ctrl/E-vizza/workflow"
)

// VisaTypeController manages visa products and their status flows
type VisaTypeController struct {
	DB *mongo.Client
}

func NewVisaTypeController(db *mongo.Client) *VisaTypeController {
	return &VisaTypeController{DB: db}
}

// GetVisaType returns a visa type with its document requirements, the
// payload the wizard builds its steps from.
func (vc *VisaTypeController) GetVisaType(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	visaTypeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid visa type id",
		})
	}

	var visaType models.VisaType
	err = config.GetCollection(vc.DB, "visaTypes").FindOne(ctx, bson.M{"_id": visaTypeID}).Decode(&visaType)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Visa type not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load visa type",
		})
	}

	cursor, err := config.GetCollection(vc.DB, "documentRequirements").Find(ctx,
		bson.M{"visa_type_id": visaTypeID},
		options.Find().SetSort(bson.D{{Key: "order_index", Value: 1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load requirements",
		})
	}
	var requirements []models.DocumentRequirement
	if err := cursor.All(ctx, &requirements); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode requirements",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Visa type retrieved",
		Data: map[string]interface{}{
			"visa_type":    visaType,
			"requirements": requirements,
		},
	})
}

// ListForCountry returns the active visa types of a country, the
// list the wizard offers after the country is picked.
func (vc *VisaTypeController) ListForCountry(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	countryID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid country id",
		})
	}

	filter := bson.M{"country_id": countryID, "is_active": true}
	if c.QueryParam("all") == "true" {
		delete(filter, "is_active")
	}
	cursor, err := config.GetCollection(vc.DB, "visaTypes").Find(ctx, filter,
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
		Message: "Visa types retrieved",
		Data:    visaTypes,
	})
}

// ListRequirements returns a visa type's document requirements in
// declared order.
func (vc *VisaTypeController) ListRequirements(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	visaTypeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid visa type id",
		})
	}

	cursor, err := config.GetCollection(vc.DB, "documentRequirements").Find(ctx,
		bson.M{"visa_type_id": visaTypeID},
		options.Find().SetSort(bson.D{{Key: "order_index", Value: 1}}))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load requirements",
		})
	}
	var requirements []models.DocumentRequirement
	if err := cursor.All(ctx, &requirements); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode requirements",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Requirements retrieved",
		Data:    requirements,
	})
}

// CreateVisaType adds a visa product (admin only). The declared
// status flow is validated before anything is written; a visa type
// with a broken flow would strand its applications.
func (vc *VisaTypeController) CreateVisaType(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.VisaTypeRequest
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
	if err := workflow.ValidateFlow(req.StatusFlow); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	countryID, err := primitive.ObjectIDFromHex(req.CountryID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid country id",
		})
	}
	count, err := config.GetCollection(vc.DB, "countries").CountDocuments(ctx, bson.M{"_id": countryID})
	if err != nil || count == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Country not found",
		})
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	now := time.Now()
	visaType := models.VisaType{
		ID:                 primitive.NewObjectID(),
		CountryID:          countryID,
		Code:               strings.ToLower(req.Code),
		NameEn:             utils.SanitizeInput(req.NameEn),
		NameFr:             utils.SanitizeInput(req.NameFr),
		NameAr:             utils.SanitizeInput(req.NameAr),
		DescriptionEn:      req.DescriptionEn,
		DescriptionFr:      req.DescriptionFr,
		DescriptionAr:      req.DescriptionAr,
		BaseFee:            req.BaseFee,
		ProcessingTimeDays: req.ProcessingTimeDays,
		IsActive:           isActive,
		SubmissionSteps:    req.SubmissionSteps,
		StatusFlow:         req.StatusFlow,
		SchemaVersion:      1,
		HelperNotesEn:      req.HelperNotesEn,
		HelperNotesFr:      req.HelperNotesFr,
		HelperNotesAr:      req.HelperNotesAr,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if _, err := config.GetCollection(vc.DB, "visaTypes").InsertOne(ctx, visaType); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "A visa type with this code already exists for the country",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create visa type",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Visa type created",
		Data:    visaType,
	})
}

// UpdateVisaType updates a visa product (admin only). The status flow
// is re-validated on every save.
func (vc *VisaTypeController) UpdateVisaType(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	visaTypeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid visa type id",
		})
	}

	var req models.VisaTypeRequest
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
	if err := workflow.ValidateFlow(req.StatusFlow); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	set := bson.M{
		"code":                 strings.ToLower(req.Code),
		"name_en":              utils.SanitizeInput(req.NameEn),
		"name_fr":              utils.SanitizeInput(req.NameFr),
		"name_ar":              utils.SanitizeInput(req.NameAr),
		"description_en":       req.DescriptionEn,
		"description_fr":       req.DescriptionFr,
		"description_ar":       req.DescriptionAr,
		"base_fee":             req.BaseFee,
		"processing_time_days": req.ProcessingTimeDays,
		"submission_steps":     req.SubmissionSteps,
		"status_flow":          req.StatusFlow,
		"helper_notes_en":      req.HelperNotesEn,
		"helper_notes_fr":      req.HelperNotesFr,
		"helper_notes_ar":      req.HelperNotesAr,
		"updatedAt":            time.Now(),
	}
	if req.IsActive != nil {
		set["is_active"] = *req.IsActive
	}

	result, err := config.GetCollection(vc.DB, "visaTypes").UpdateOne(ctx,
		bson.M{"_id": visaTypeID},
		bson.M{"$set": set, "$inc": bson.M{"schema_version": 1}})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update visa type",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Visa type not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Visa type updated",
	})
}

// DeactivateVisaType hides a visa product from the wizard without
// touching in-flight applications.
func (vc *VisaTypeController) DeactivateVisaType(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	visaTypeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid visa type id",
		})
	}

	result, err := config.GetCollection(vc.DB, "visaTypes").UpdateOne(ctx,
		bson.M{"_id": visaTypeID},
		bson.M{"$set": bson.M{"is_active": false, "updatedAt": time.Now()}})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to deactivate visa type",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Visa type not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Visa type deactivated",
	})
}
