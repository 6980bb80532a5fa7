// controllers/application_controller.go
package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/brahimcontact64-ctrl/E-vizza/models"
	"github.com/brahimcontact64-ctrl/E-vizza/repositories"
	"github.com/brahimcontact64-ctrl/E-vizza/services"
	"github.com/brahimcontact64-ctrl/E-vizza/utils"
	"github.com/brahimcontact64-ctrl/E-vizza/workflow"
)

// ApplicationController handles the applicant side: the wizard
// submission and everything a user can see or do on their own
// applications.
type ApplicationController struct {
	DB      *mongo.Client
	Repo    *repositories.ApplicationRepository
	Engine  *workflow.Engine
	Storage services.BlobStorage
}

func NewApplicationController(db *mongo.Client, repo *repositories.ApplicationRepository, engine *workflow.Engine, storage services.BlobStorage) *ApplicationController {
	return &ApplicationController{DB: db, Repo: repo, Engine: engine, Storage: storage}
}

// workflowErrorResponse maps engine errors onto the API's error
// contract.
func workflowErrorResponse(c echo.Context, err error) error {
	var incomplete *workflow.DocumentsIncompleteError
	switch {
	case errors.As(err, &incomplete):
		return c.JSON(http.StatusUnprocessableEntity, models.Response{
			Status:  http.StatusUnprocessableEntity,
			Message: "Required documents are missing",
			Data: map[string]interface{}{
				"error":                   "documents_incomplete",
				"missing_requirement_ids": incomplete.MissingIDs(),
			},
		})
	case errors.Is(err, workflow.ErrStaleWrite):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "The application changed since you loaded it, refresh and try again",
			Data:    map[string]interface{}{"error": "stale_write"},
		})
	case errors.Is(err, workflow.ErrUnknownStatus):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "The requested status is not part of this visa type's flow",
			Data:    map[string]interface{}{"error": "unknown_status"},
		})
	case errors.Is(err, workflow.ErrInvalidTransition):
		return c.JSON(http.StatusUnprocessableEntity, models.Response{
			Status:  http.StatusUnprocessableEntity,
			Message: "Backward status moves require an override",
			Data:    map[string]interface{}{"error": "invalid_transition"},
		})
	case errors.Is(err, workflow.ErrTerminalState):
		return c.JSON(http.StatusUnprocessableEntity, models.Response{
			Status:  http.StatusUnprocessableEntity,
			Message: "The application is in a final state and cannot change",
			Data:    map[string]interface{}{"error": "terminal_state"},
		})
	case errors.Is(err, workflow.ErrUploadFailure):
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: err.Error(),
			Data:    map[string]interface{}{"error": "upload_failure"},
		})
	case errors.Is(err, workflow.ErrDuplicateNumber):
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Could not reserve an application number, please retry",
			Data:    map[string]interface{}{"error": "duplicate_application_number"},
		})
	default:
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: err.Error(),
		})
	}
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

// SubmitApplication accepts the completed wizard as one multipart
// request: an "application" JSON part plus one file part per document
// requirement, named "document_<requirement_id>". Blobs are stored
// first; if the database transaction then fails, they are rolled
// back.
func (ac *ApplicationController) SubmitApplication(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	userID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	payload := c.FormValue("application")
	if payload == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Missing application payload",
		})
	}
	var req models.SubmitApplicationRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid application payload",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	countryID, err := primitive.ObjectIDFromHex(req.CountryID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid country id",
		})
	}
	visaTypeID, err := primitive.ObjectIDFromHex(req.VisaTypeID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid visa type id",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid multipart form",
		})
	}

	// Collect and validate file parts before touching storage.
	type pendingDoc struct {
		requirementID primitive.ObjectID
		fileName      string
		data          []byte
		thumb         []byte
		mimeType      string
	}
	var pending []pendingDoc
	for field, headers := range form.File {
		const prefix = "document_"
		if len(field) <= len(prefix) || field[:len(prefix)] != prefix || len(headers) == 0 {
			continue
		}
		requirementID, err := primitive.ObjectIDFromHex(field[len(prefix):])
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid requirement id in field " + field,
			})
		}
		fh := headers[0]
		if err := services.ValidateDocumentFile(fh.Filename, fh.Size); err != nil {
			return workflowErrorResponse(c, err)
		}
		data, err := readMultipartFile(fh)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Failed to read uploaded file " + fh.Filename,
			})
		}
		mimeType := fh.Header.Get("Content-Type")
		thumb, err := services.Thumbnail(data, mimeType)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Uploaded image could not be processed: " + fh.Filename,
			})
		}
		pending = append(pending, pendingDoc{
			requirementID: requirementID,
			fileName:      fh.Filename,
			data:          data,
			thumb:         thumb,
			mimeType:      mimeType,
		})
	}

	// Store all blobs as one batch keyed by a submission id; the
	// application number does not exist yet.
	batchID := primitive.NewObjectID().Hex()
	blobs := make(map[string][]byte, len(pending)*2)
	contentTypes := make(map[string]string, len(pending)*2)
	paths := make(map[primitive.ObjectID]struct{ file, thumb string }, len(pending))
	for _, doc := range pending {
		filePath := services.DocumentPath(batchID, doc.requirementID.Hex(), doc.fileName)
		blobs[filePath] = doc.data
		contentTypes[filePath] = doc.mimeType
		entry := struct{ file, thumb string }{file: filePath}
		if doc.thumb != nil {
			thumbPath := filePath + ".thumb.jpg"
			blobs[thumbPath] = doc.thumb
			contentTypes[thumbPath] = "image/jpeg"
			entry.thumb = thumbPath
		}
		paths[doc.requirementID] = entry
	}

	stored, err := services.StoreBatch(ctx, ac.Storage, blobs, contentTypes)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	cmd := workflow.SubmitCommand{
		UserID:     userID,
		CountryID:  countryID,
		VisaTypeID: visaTypeID,
		Applicant:  req.ApplicantData,
		Travel:     req.TravelData,
		IsUrgent:   req.IsUrgent,
	}
	for _, doc := range pending {
		p := paths[doc.requirementID]
		cmd.Documents = append(cmd.Documents, workflow.DocumentInput{
			RequirementID: doc.requirementID,
			FileName:      services.CleanFilename(doc.fileName),
			FilePath:      p.file,
			ThumbnailPath: p.thumb,
			FileSize:      int64(len(doc.data)),
			MimeType:      doc.mimeType,
		})
	}

	app, err := ac.Engine.Submit(ctx, cmd)
	if err != nil {
		// The blobs are orphans now; remove them before reporting.
		services.RollbackBlobs(ctx, ac.Storage, stored)
		return workflowErrorResponse(c, err)
	}

	qrCode, err := utils.GenerateApplicationQR(app.ApplicationNumber)
	if err != nil {
		qrCode = ""
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Application submitted",
		Data: map[string]interface{}{
			"application": app,
			"qr_code":     qrCode,
		},
	})
}

// ListMyApplications returns the authenticated user's applications.
func (ac *ApplicationController) ListMyApplications(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	apps, err := ac.Repo.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load applications",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Applications retrieved",
		Data:    apps,
	})
}

// loadOwnedApplication fetches the application and checks it belongs
// to the requester.
func (ac *ApplicationController) loadOwnedApplication(ctx context.Context, c echo.Context) (*models.Application, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	appID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid application id")
	}
	app, err := ac.Repo.GetApplication(ctx, appID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Application not found")
	}
	if app.UserID != userID {
		// Hide existence from other users
		return nil, echo.NewHTTPError(http.StatusNotFound, "Application not found")
	}
	return app, nil
}

// GetMyApplication returns one application with its documents, status
// history, payments and readiness report.
func (ac *ApplicationController) GetMyApplication(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := ac.loadOwnedApplication(ctx, c)
	if err != nil {
		return err
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
			"readiness":      workflow.CheckReadiness(reqs, docs),
		},
	})
}

// ReuploadDocument replaces one document on an application, e.g.
// after an admin marked it reupload_required. Verification resets to
// pending.
func (ac *ApplicationController) ReuploadDocument(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	app, err := ac.loadOwnedApplication(ctx, c)
	if err != nil {
		return err
	}
	if workflow.IsTerminalStatus(app.Status) {
		return workflowErrorResponse(c, workflow.ErrTerminalState)
	}

	requirementID, err := primitive.ObjectIDFromHex(c.Param("requirementId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid requirement id",
		})
	}

	fh, err := c.FormFile("document")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Missing document file",
		})
	}
	if err := services.ValidateDocumentFile(fh.Filename, fh.Size); err != nil {
		return workflowErrorResponse(c, err)
	}
	data, err := readMultipartFile(fh)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Failed to read uploaded file",
		})
	}
	mimeType := fh.Header.Get("Content-Type")
	thumb, err := services.Thumbnail(data, mimeType)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Uploaded image could not be processed",
		})
	}

	filePath := services.DocumentPath(app.ApplicationNumber, requirementID.Hex(), fh.Filename)
	blobs := map[string][]byte{filePath: data}
	contentTypes := map[string]string{filePath: mimeType}
	thumbPath := ""
	if thumb != nil {
		thumbPath = filePath + ".thumb.jpg"
		blobs[thumbPath] = thumb
		contentTypes[thumbPath] = "image/jpeg"
	}
	stored, err := services.StoreBatch(ctx, ac.Storage, blobs, contentTypes)
	if err != nil {
		return workflowErrorResponse(c, err)
	}

	doc := &models.Document{
		ApplicationID:         app.ID,
		DocumentRequirementID: requirementID,
		FileName:              services.CleanFilename(fh.Filename),
		FilePath:              filePath,
		ThumbnailPath:         thumbPath,
		FileSize:              int64(len(data)),
		MimeType:              mimeType,
		UploadedBy:            app.UserID,
		UpdatedAt:             time.Now(),
	}
	replaced, err := ac.Repo.ReplaceDocument(ctx, doc)
	if err != nil {
		services.RollbackBlobs(ctx, ac.Storage, stored)
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Document replaced, verification pending",
		Data:    replaced,
	})
}

// GetApplicationQR streams the tracking QR code for one application
// as a PNG.
func (ac *ApplicationController) GetApplicationQR(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := ac.loadOwnedApplication(ctx, c)
	if err != nil {
		return err
	}

	pngBytes, err := utils.GenerateApplicationQRPNG(app.ApplicationNumber)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}
	return c.Blob(http.StatusOK, "image/png", pngBytes)
}

// GetReadiness reports whether the application can pass the
// processing gate and which requirements still block it.
func (ac *ApplicationController) GetReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app, err := ac.loadOwnedApplication(ctx, c)
	if err != nil {
		return err
	}

	reqs, err := ac.Repo.GetRequirements(ctx, app.VisaTypeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load requirements",
		})
	}
	docs, err := ac.Repo.GetDocuments(ctx, app.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load documents",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Readiness computed",
		Data:    workflow.CheckReadiness(reqs, docs),
	})
}
