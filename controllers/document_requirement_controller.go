// controllers/document_requirement_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/brahimcontact64-ctrl/E-vizza/config"
	"github.com/brahimcontact64-ctrl/E-vizza/models"
	"github.com/brahimcontact64-ctrl/E-vizza/utils"
)

// DocumentRequirementController manages per-visa-type document
// requirements (admin only; applicants read them through the visa
// type endpoint).
type DocumentRequirementController struct {
	DB *mongo.Client
}

func NewDocumentRequirementController(db *mongo.Client) *DocumentRequirementController {
	return &DocumentRequirementController{DB: db}
}

// CreateRequirement adds a document requirement to a visa type.
func (dc *DocumentRequirementController) CreateRequirement(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.DocumentRequirementRequest
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

	visaTypeID, err := primitive.ObjectIDFromHex(req.VisaTypeID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid visa type id",
		})
	}
	count, err := config.GetCollection(dc.DB, "visaTypes").CountDocuments(ctx, bson.M{"_id": visaTypeID})
	if err != nil || count == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Visa type not found",
		})
	}

	isRequired := true
	if req.IsRequired != nil {
		isRequired = *req.IsRequired
	}
	now := time.Now()
	requirement := models.DocumentRequirement{
		ID:            primitive.NewObjectID(),
		VisaTypeID:    visaTypeID,
		DocumentType:  req.DocumentType,
		NameEn:        utils.SanitizeInput(req.NameEn),
		NameFr:        utils.SanitizeInput(req.NameFr),
		NameAr:        utils.SanitizeInput(req.NameAr),
		DescriptionEn: req.DescriptionEn,
		DescriptionFr: req.DescriptionFr,
		DescriptionAr: req.DescriptionAr,
		IsRequired:    isRequired,
		OrderIndex:    req.OrderIndex,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := config.GetCollection(dc.DB, "documentRequirements").InsertOne(ctx, requirement); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "A requirement with this order index already exists for the visa type",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create requirement",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Requirement created",
		Data:    requirement,
	})
}

// UpdateRequirement updates one document requirement.
func (dc *DocumentRequirementController) UpdateRequirement(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	requirementID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid requirement id",
		})
	}

	var req models.DocumentRequirementRequest
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
		"document_type":  req.DocumentType,
		"name_en":        utils.SanitizeInput(req.NameEn),
		"name_fr":        utils.SanitizeInput(req.NameFr),
		"name_ar":        utils.SanitizeInput(req.NameAr),
		"description_en": req.DescriptionEn,
		"description_fr": req.DescriptionFr,
		"description_ar": req.DescriptionAr,
		"order_index":    req.OrderIndex,
		"updatedAt":      time.Now(),
	}
	if req.IsRequired != nil {
		set["is_required"] = *req.IsRequired
	}

	result, err := config.GetCollection(dc.DB, "documentRequirements").UpdateOne(ctx,
		bson.M{"_id": requirementID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "A requirement with this order index already exists for the visa type",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update requirement",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Requirement not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Requirement updated",
	})
}

// DeleteRequirement removes a requirement that no longer applies.
// Existing documents keep their requirement reference for the audit
// trail; readiness simply stops asking for it.
func (dc *DocumentRequirementController) DeleteRequirement(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	requirementID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid requirement id",
		})
	}

	result, err := config.GetCollection(dc.DB, "documentRequirements").DeleteOne(ctx, bson.M{"_id": requirementID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete requirement",
		})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Requirement not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Requirement deleted",
	})
}
