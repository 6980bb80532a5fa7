package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brahimcontact64-ctrl/E-vizza/config"
	"github.com/brahimcontact64-ctrl/E-vizza/models"
	"github.com/brahimcontact64-ctrl/E-vizza/workflow"
)

// ApplicationRepository is the Mongo-backed workflow.Store. All writes
// inside WithTransaction run on one session so the engine's atomic
// groups hold.
type ApplicationRepository struct {
	client       *mongo.Client
	applications *mongo.Collection
	visaTypes    *mongo.Collection
	requirements *mongo.Collection
	documents    *mongo.Collection
	payments     *mongo.Collection
	statusLogs   *mongo.Collection
}

func NewApplicationRepository(client *mongo.Client) *ApplicationRepository {
	return &ApplicationRepository{
		client:       client,
		applications: config.GetCollection(client, "applications"),
		visaTypes:    config.GetCollection(client, "visaTypes"),
		requirements: config.GetCollection(client, "documentRequirements"),
		documents:    config.GetCollection(client, "documents"),
		payments:     config.GetCollection(client, "payments"),
		statusLogs:   config.GetCollection(client, "statusLogs"),
	}
}

// WithTransaction runs fn inside a Mongo session transaction. The
// session is carried in the context, so the collection operations the
// engine issues through fn all join it.
func (r *ApplicationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *ApplicationRepository) GetApplication(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	var app models.Application
	err := r.applications.FindOne(ctx, bson.M{"_id": id}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("application %s not found", id.Hex())
		}
		return nil, err
	}
	return &app, nil
}

// GetApplicationByNumber resolves an application from its public
// number, used by the lookup endpoint behind the QR code.
func (r *ApplicationRepository) GetApplicationByNumber(ctx context.Context, number string) (*models.Application, error) {
	var app models.Application
	err := r.applications.FindOne(ctx, bson.M{"application_number": number}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("application %s not found", number)
		}
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepository) GetVisaType(ctx context.Context, id primitive.ObjectID) (*models.VisaType, error) {
	var vt models.VisaType
	err := r.visaTypes.FindOne(ctx, bson.M{"_id": id}).Decode(&vt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("visa type %s not found", id.Hex())
		}
		return nil, err
	}
	return &vt, nil
}

func (r *ApplicationRepository) GetRequirements(ctx context.Context, visaTypeID primitive.ObjectID) ([]models.DocumentRequirement, error) {
	cursor, err := r.requirements.Find(ctx, bson.M{"visa_type_id": visaTypeID},
		options.Find().SetSort(bson.D{{Key: "order_index", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var reqs []models.DocumentRequirement
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *ApplicationRepository) GetDocuments(ctx context.Context, applicationID primitive.ObjectID) ([]models.Document, error) {
	cursor, err := r.documents.Find(ctx, bson.M{"application_id": applicationID})
	if err != nil {
		return nil, err
	}
	var docs []models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *ApplicationRepository) CreateApplication(ctx context.Context, app *models.Application) error {
	_, err := r.applications.InsertOne(ctx, app)
	if mongo.IsDuplicateKeyError(err) {
		return workflow.ErrDuplicateNumber
	}
	return err
}

func (r *ApplicationRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	_, err := r.documents.InsertOne(ctx, doc)
	return err
}

func (r *ApplicationRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	_, err := r.payments.InsertOne(ctx, payment)
	return err
}

// UpdateApplicationStatus applies the version-checked write. The
// filter pins the version the caller read; a matched count of zero on
// an existing application means someone wrote in between.
func (r *ApplicationRepository) UpdateApplicationStatus(ctx context.Context, upd workflow.StatusUpdate) error {
	set := bson.M{
		"status":    upd.NewStatus,
		"updatedAt": upd.Now,
	}
	if upd.AdminNotes != "" {
		set["admin_notes"] = upd.AdminNotes
	}
	if upd.RejectionReason != "" {
		set["rejection_reason"] = upd.RejectionReason
	}
	if upd.PaymentConfirmedAt != nil {
		set["payment_confirmed_at"] = upd.PaymentConfirmedAt
	}
	if upd.CompletedAt != nil {
		set["completed_at"] = upd.CompletedAt
	}

	res, err := r.applications.UpdateOne(ctx,
		bson.M{"_id": upd.ApplicationID, "version": upd.ExpectedVersion},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return workflow.ErrStaleWrite
	}
	return nil
}

func (r *ApplicationRepository) AppendStatusLog(ctx context.Context, entry *models.StatusLog) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := r.statusLogs.InsertOne(ctx, entry)
	return err
}

// ListByUser returns a user's applications, newest first.
func (r *ApplicationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Application, error) {
	cursor, err := r.applications.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var apps []models.Application
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// AdminListFilter narrows the admin application listing.
type AdminListFilter struct {
	Status    string
	CountryID primitive.ObjectID
	IsUrgent  *bool
	Page      int64
	Limit     int64
}

// ListForAdmin returns a filtered, paginated page of applications
// plus the total match count.
func (r *ApplicationRepository) ListForAdmin(ctx context.Context, f AdminListFilter) ([]models.Application, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if !f.CountryID.IsZero() {
		filter["country_id"] = f.CountryID
	}
	if f.IsUrgent != nil {
		filter["is_urgent"] = *f.IsUrgent
	}

	total, err := r.applications.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Page < 1 {
		f.Page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "is_urgent", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip((f.Page - 1) * f.Limit).
		SetLimit(f.Limit)

	cursor, err := r.applications.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var apps []models.Application
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// GetStatusLogs returns the audit trail of one application in
// chronological order.
func (r *ApplicationRepository) GetStatusLogs(ctx context.Context, applicationID primitive.ObjectID) ([]models.StatusLog, error) {
	cursor, err := r.statusLogs.Find(ctx, bson.M{"application_id": applicationID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var logs []models.StatusLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// GetPayments returns all payments recorded against an application.
func (r *ApplicationRepository) GetPayments(ctx context.Context, applicationID primitive.ObjectID) ([]models.Payment, error) {
	cursor, err := r.payments.Find(ctx, bson.M{"application_id": applicationID})
	if err != nil {
		return nil, err
	}
	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// CountByStatus aggregates application counts per status for the
// admin dashboard.
func (r *ApplicationRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cursor, err := r.applications.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ReplaceDocument swaps the stored file for an (application,
// requirement) pair and resets verification to pending.
func (r *ApplicationRepository) ReplaceDocument(ctx context.Context, doc *models.Document) (*models.Document, error) {
	filter := bson.M{
		"application_id":          doc.ApplicationID,
		"document_requirement_id": doc.DocumentRequirementID,
	}
	update := bson.M{"$set": bson.M{
		"file_name":      doc.FileName,
		"file_path":      doc.FilePath,
		"thumbnail_path": doc.ThumbnailPath,
		"file_size":      doc.FileSize,
		"mime_type":      doc.MimeType,
		"status":         models.DocumentStatusPending,
		"admin_notes":    "",
		"verified_by":    nil,
		"verified_at":    nil,
		"uploaded_by":    doc.UploadedBy,
		"updatedAt":      doc.UpdatedAt,
	}}

	var replaced models.Document
	err := r.documents.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&replaced)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("no document for requirement %s on application %s",
				doc.DocumentRequirementID.Hex(), doc.ApplicationID.Hex())
		}
		return nil, err
	}
	return &replaced, nil
}

// VerifyDocument records an admin's verdict on one document.
func (r *ApplicationRepository) VerifyDocument(ctx context.Context, docID, verifier primitive.ObjectID, verdict models.VerifyDocumentRequest, now time.Time) (*models.Document, error) {
	update := bson.M{"$set": bson.M{
		"status":      verdict.Status,
		"admin_notes": verdict.AdminNotes,
		"verified_by": verifier,
		"verified_at": now,
		"updatedAt":   now,
	}}
	var doc models.Document
	err := r.documents.FindOneAndUpdate(ctx, bson.M{"_id": docID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("document %s not found", docID.Hex())
		}
		return nil, err
	}
	return &doc, nil
}
