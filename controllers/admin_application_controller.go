// controllers/admin_application_controller.go
package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/brahimcontact64-ctrl/E-vizza/middleware"
	"github.com/brahimcontact64-ctrl/E-vizza/models"
	"github.com/brahimcontact64-ctrl/E-vizza/repositories"
	"github.com/brahimcontact64-ctrl/E-vizza/workflow"
)

// AdminApplicationController is the review side: listing the queue,
// moving applications through their flow, confirming payments and
// verifying documents.
type AdminApplicationController struct {
	DB     *mongo.Client
	Repo   *repositories.ApplicationRepository
	Engine *workflow.Engine
}

func NewAdminApplicationController(db *mongo.Client, repo *repositories.ApplicationRepository, engine *workflow.Engine) *AdminApplicationController {
	return &AdminApplicationController{DB: db, Repo: repo, Engine: engine}
}

// ListApplications returns the review queue, urgent first, with
// status/country/urgency filters and pagination.
func (ac *AdminApplicationController) ListApplications(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := repositories.AdminListFilter{
		Status: c.QueryParam("status"),
	}
	if countryHex := c.QueryParam("country_id"); countryHex != "" {
		countryID, err := primitive.ObjectIDFromHex(countryHex)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid country id",
			})
		}
		filter.CountryID = countryID
	}
	if urgentStr := c.QueryParam("urgent"); urgentStr != "" {
		urgent := urgentStr == "true"
		filter.IsUrgent = &urgent
	}
	if page, err := strconv.ParseInt(c.QueryParam("page"), 10, 64); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.ParseInt(c.QueryParam("limit"), 10, 64); err == nil {
		filter.Limit = limit
	}

	apps, total, err := ac.Repo.ListForAdmin(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load applications",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Applications retrieved",
		Data: map[string]interface{}{
			"applications": apps,
			"total":        total,
		},
	})
}

// GetApplication returns the full review view of one application.
func (ac *AdminApplicationController) GetApplication(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	appID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid application id",
		})
	}
	app, err := ac.Repo.GetApplication(ctx, appID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Application not found",
		})
	}

	docs, err := ac.Repo.GetDocuments(ctx, app.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load documents",
		})
	}
	logs, err := ac.Repo.GetStatusLogs(ctx, app.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load status history",
		})
	}
	payments, err := ac.Repo.GetPayments(ctx, app.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load payments",
		})
	}
	reqs, err := ac.Repo.GetRequirements(ctx, app.VisaTypeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load requirements",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Application retrieved",
		Data: map[string]interface{}{
			"application":    app,
			"documents":      docs,
			"status_history": logs,
			"payments":       payments,
			"requirements":   reqs,
			"readiness":      workflow.CheckReadiness(reqs, docs),
		},
	})
}

// UpdateStatus moves an application through its status flow. The
// request carries the version the admin read; a mismatch comes back
// as a conflict. Backward moves honor the override flag only for
// super admins.
func (ac *AdminApplicationController) UpdateStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	adminID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}
	appID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid application id",
		})
	}

	var req models.UpdateStatusRequest
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
	if req.Status == workflow.StatusRejected && req.RejectionReason == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "A rejection reason is required",
		})
	}

	override := req.Override && middleware.IsSuperAdmin(c)

	app, err := ac.Engine.Transition(ctx, workflow.TransitionRequest{
		ApplicationID:   appID,
		ExpectedVersion: req.Version,
		NewStatus:       req.Status,
		ChangedBy:       adminID,
		Notes:           req.Notes,
		RejectionReason: req.RejectionReason,
		Override:        override,
	})
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Status updated",
		Data:    app,
	})
}

// ConfirmPayment records the payment and advances the application in
// one transaction. The amount defaults to the visa type's base fee;
// only super admins may override it.
func (ac *AdminApplicationController) ConfirmPayment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	adminID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}
	appID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid application id",
		})
	}

	var req models.ConfirmPaymentRequest
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
	if req.Amount != 0 && !middleware.IsSuperAdmin(c) {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Only a super admin may override the payment amount",
		})
	}

	app, payment, err := ac.Engine.ConfirmPayment(ctx, workflow.ConfirmPaymentCommand{
		ApplicationID:    appID,
		ExpectedVersion:  req.Version,
		Amount:           req.Amount,
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
		ConfirmedBy:      adminID,
		Notes:            req.Notes,
	})
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment confirmed",
		Data: map[string]interface{}{
			"application": app,
			"payment":     payment,
		},
	})
}

// VerifyDocument records the reviewer's verdict on one uploaded
// document.
func (ac *AdminApplicationController) VerifyDocument(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adminID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}
	docID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid document id",
		})
	}

	var req models.VerifyDocumentRequest
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

	doc, err := ac.Repo.VerifyDocument(ctx, docID, adminID, req, time.Now())
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Document verified",
		Data:    doc,
	})
}

// GetStats returns application counts per status for the dashboard.
func (ac *AdminApplicationController) GetStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	counts, err := ac.Repo.CountByStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to compute statistics",
		})
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Statistics computed",
		Data: map[string]interface{}{
			"by_status": counts,
			"total":     total,
		},
	})
}
