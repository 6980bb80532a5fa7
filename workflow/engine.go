// workflow/engine.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brahimcontact64-ctrl/E-vizza/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the persistence surface the engine needs. The Mongo
// implementation lives in repositories; tests use an in-memory fake.
// WithTransaction must run fn atomically: either every write inside fn
// commits or none does.
type Store interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	GetApplication(ctx context.Context, id primitive.ObjectID) (*models.Application, error)
	GetVisaType(ctx context.Context, id primitive.ObjectID) (*models.VisaType, error)
	GetRequirements(ctx context.Context, visaTypeID primitive.ObjectID) ([]models.DocumentRequirement, error)
	GetDocuments(ctx context.Context, applicationID primitive.ObjectID) ([]models.Document, error)

	// CreateApplication returns ErrDuplicateNumber when the application
	// number is already taken.
	CreateApplication(ctx context.Context, app *models.Application) error
	CreateDocument(ctx context.Context, doc *models.Document) error
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// UpdateApplicationStatus applies upd only when the stored version
	// still equals upd.ExpectedVersion, returning ErrStaleWrite
	// otherwise. On success the stored version is ExpectedVersion+1.
	UpdateApplicationStatus(ctx context.Context, upd StatusUpdate) error
	AppendStatusLog(ctx context.Context, entry *models.StatusLog) error
}

// StatusUpdate is the version-checked write the engine hands the store
// for one transition.
type StatusUpdate struct {
	ApplicationID   primitive.ObjectID
	ExpectedVersion int64
	NewStatus       string
	AdminNotes      string
	RejectionReason string
	// Timestamp fields set only when crossing the matching checkpoint.
	PaymentConfirmedAt *time.Time
	CompletedAt        *time.Time
	Now                time.Time
}

// Engine drives application submissions and status transitions. All
// writes for one operation happen inside a single store transaction;
// subscribers hear about the change only after it commits.
type Engine struct {
	store Store
	seq   Sequencer
	subs  []Subscriber
	now   func() time.Time
}

// NewEngine builds an engine over store, drawing application numbers
// from seq.
func NewEngine(store Store, seq Sequencer) *Engine {
	return &Engine{store: store, seq: seq, now: time.Now}
}

// Subscribe registers a subscriber for committed status changes.
// Not safe to call concurrently with Transition; wire subscribers at
// startup.
func (e *Engine) Subscribe(s Subscriber) {
	e.subs = append(e.subs, s)
}

func (e *Engine) publish(ev StatusChanged) {
	for _, s := range e.subs {
		go func(s Subscriber) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			s.HandleStatusChanged(ctx, ev)
		}(s)
	}
}

// TransitionRequest asks the engine to move one application to a new
// status. ExpectedVersion is the version the caller read; Override
// permits backward moves and is honored only for super admins by the
// HTTP layer.
type TransitionRequest struct {
	ApplicationID   primitive.ObjectID
	ExpectedVersion int64
	NewStatus       string
	ChangedBy       primitive.ObjectID
	Notes           string
	RejectionReason string
	Override        bool
}

// Transition validates and applies one status change atomically:
// version check, flow validation, readiness gate, status write and
// audit log all commit or roll back together.
func (e *Engine) Transition(ctx context.Context, req TransitionRequest) (*models.Application, error) {
	var (
		app *models.Application
		ev  StatusChanged
	)
	err := e.store.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		app, ev, err = e.transitionTx(txCtx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.publish(ev)
	return app, nil
}

// transitionTx performs the transition inside an already-open
// transaction and returns the updated application plus the event to
// publish after commit.
func (e *Engine) transitionTx(ctx context.Context, req TransitionRequest) (*models.Application, StatusChanged, error) {
	app, err := e.store.GetApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, StatusChanged{}, err
	}
	if app.Version != req.ExpectedVersion {
		return nil, StatusChanged{}, ErrStaleWrite
	}

	visaType, err := e.store.GetVisaType(ctx, app.VisaTypeID)
	if err != nil {
		return nil, StatusChanged{}, err
	}
	flow, err := NewFlow(visaType.StatusFlow)
	if err != nil {
		return nil, StatusChanged{}, fmt.Errorf("visa type %s: %w", visaType.ID.Hex(), err)
	}
	if err := flow.ValidateTransition(app.Status, req.NewStatus, req.Override); err != nil {
		return nil, StatusChanged{}, err
	}

	if flow.RequiresReadiness(req.NewStatus) {
		reqs, err := e.store.GetRequirements(ctx, app.VisaTypeID)
		if err != nil {
			return nil, StatusChanged{}, err
		}
		docs, err := e.store.GetDocuments(ctx, app.ID)
		if err != nil {
			return nil, StatusChanged{}, err
		}
		if err := CheckReadiness(reqs, docs).Err(); err != nil {
			return nil, StatusChanged{}, err
		}
	}

	now := e.now().UTC()
	upd := StatusUpdate{
		ApplicationID:   app.ID,
		ExpectedVersion: app.Version,
		NewStatus:       req.NewStatus,
		AdminNotes:      req.Notes,
		RejectionReason: req.RejectionReason,
		Now:             now,
	}
	if req.NewStatus == StatusPaymentConfirmed && app.PaymentConfirmedAt == nil {
		upd.PaymentConfirmedAt = &now
	}
	if IsTerminalStatus(req.NewStatus) && app.CompletedAt == nil {
		upd.CompletedAt = &now
	}
	if err := e.store.UpdateApplicationStatus(ctx, upd); err != nil {
		return nil, StatusChanged{}, err
	}
	if err := e.store.AppendStatusLog(ctx, &models.StatusLog{
		ApplicationID: app.ID,
		OldStatus:     app.Status,
		NewStatus:     req.NewStatus,
		ChangedBy:     req.ChangedBy,
		Notes:         req.Notes,
		CreatedAt:     now,
	}); err != nil {
		return nil, StatusChanged{}, err
	}

	ev := StatusChanged{
		ApplicationID:     app.ID,
		ApplicationNumber: app.ApplicationNumber,
		UserID:            app.UserID,
		VisaTypeID:        app.VisaTypeID,
		OldStatus:         app.Status,
		NewStatus:         req.NewStatus,
		ChangedBy:         req.ChangedBy,
		Notes:             req.Notes,
		OccurredAt:        now,
	}

	updated := *app
	updated.Status = req.NewStatus
	updated.Version = app.Version + 1
	if req.Notes != "" {
		updated.AdminNotes = req.Notes
	}
	if req.RejectionReason != "" {
		updated.RejectionReason = req.RejectionReason
	}
	updated.PaymentConfirmedAt = coalesceTime(app.PaymentConfirmedAt, upd.PaymentConfirmedAt)
	updated.CompletedAt = coalesceTime(app.CompletedAt, upd.CompletedAt)
	updated.UpdatedAt = now
	return &updated, ev, nil
}

func coalesceTime(existing, fresh *time.Time) *time.Time {
	if existing != nil {
		return existing
	}
	return fresh
}

// ConfirmPaymentCommand confirms payment for an application. A zero
// Amount means the visa type's base fee; the HTTP layer only forwards
// a non-zero override for super admins.
type ConfirmPaymentCommand struct {
	ApplicationID    primitive.ObjectID
	ExpectedVersion  int64
	Amount           int64
	Currency         string
	PaymentMethod    string
	PaymentReference string
	ConfirmedBy      primitive.ObjectID
	Notes            string
}

// ConfirmPayment writes the payment record and advances the
// application to payment_confirmed in one transaction. A partial state
// where one exists without the other is impossible.
func (e *Engine) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (*models.Application, *models.Payment, error) {
	var (
		app     *models.Application
		payment *models.Payment
		ev      StatusChanged
	)
	err := e.store.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := e.store.GetApplication(txCtx, cmd.ApplicationID)
		if err != nil {
			return err
		}
		visaType, err := e.store.GetVisaType(txCtx, current.VisaTypeID)
		if err != nil {
			return err
		}

		amount := cmd.Amount
		if amount == 0 {
			amount = visaType.BaseFee
		}
		currency := cmd.Currency
		if currency == "" {
			currency = "USD"
		}
		now := e.now().UTC()
		payment = &models.Payment{
			ID:               primitive.NewObjectID(),
			ApplicationID:    cmd.ApplicationID,
			Amount:           amount,
			Currency:         currency,
			PaymentMethod:    cmd.PaymentMethod,
			PaymentReference: cmd.PaymentReference,
			Status:           models.PaymentStatusConfirmed,
			ConfirmedBy:      &cmd.ConfirmedBy,
			ConfirmedAt:      &now,
			Notes:            cmd.Notes,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := e.store.CreatePayment(txCtx, payment); err != nil {
			return err
		}

		app, ev, err = e.transitionTx(txCtx, TransitionRequest{
			ApplicationID:   cmd.ApplicationID,
			ExpectedVersion: cmd.ExpectedVersion,
			NewStatus:       StatusPaymentConfirmed,
			ChangedBy:       cmd.ConfirmedBy,
			Notes:           cmd.Notes,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	e.publish(ev)
	return app, payment, nil
}

// DocumentInput is one already-uploaded file in a submission batch.
type DocumentInput struct {
	RequirementID primitive.ObjectID
	FileName      string
	FilePath      string
	ThumbnailPath string
	FileSize      int64
	MimeType      string
}

// SubmitCommand creates a new application from the completed wizard.
// Documents must already sit in blob storage; the caller rolls the
// blobs back if Submit fails.
type SubmitCommand struct {
	UserID     primitive.ObjectID
	CountryID  primitive.ObjectID
	VisaTypeID primitive.ObjectID
	Applicant  models.ApplicantData
	Travel     models.TravelData
	IsUrgent   bool
	Documents  []DocumentInput
}

// maxNumberAttempts bounds the retry loop around duplicate
// application numbers. Each retry draws a fresh sequence value, so a
// second collision means the counter itself is broken.
const maxNumberAttempts = 3

// Submit creates the application, its documents and the initial
// status log atomically, with a unique application number drawn from
// the sequencer. Every required requirement must be covered by a
// document in the batch.
func (e *Engine) Submit(ctx context.Context, cmd SubmitCommand) (*models.Application, error) {
	visaType, err := e.store.GetVisaType(ctx, cmd.VisaTypeID)
	if err != nil {
		return nil, err
	}
	if !visaType.IsActive || visaType.CountryID != cmd.CountryID {
		return nil, fmt.Errorf("visa type %s is not available for this country", cmd.VisaTypeID.Hex())
	}
	flow, err := NewFlow(visaType.StatusFlow)
	if err != nil {
		return nil, fmt.Errorf("visa type %s: %w", visaType.ID.Hex(), err)
	}

	reqs, err := e.store.GetRequirements(ctx, cmd.VisaTypeID)
	if err != nil {
		return nil, err
	}
	byRequirement := make(map[primitive.ObjectID]DocumentInput, len(cmd.Documents))
	known := make(map[primitive.ObjectID]bool, len(reqs))
	for _, req := range reqs {
		known[req.ID] = true
	}
	for _, doc := range cmd.Documents {
		if !known[doc.RequirementID] {
			return nil, fmt.Errorf("document targets unknown requirement %s", doc.RequirementID.Hex())
		}
		byRequirement[doc.RequirementID] = doc
	}
	var missing []primitive.ObjectID
	for _, req := range reqs {
		if req.IsRequired {
			if _, ok := byRequirement[req.ID]; !ok {
				missing = append(missing, req.ID)
			}
		}
	}
	if len(missing) > 0 {
		return nil, &DocumentsIncompleteError{Missing: missing}
	}

	var app *models.Application
	var ev StatusChanged
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		now := e.now().UTC()
		seq, err := e.seq.Next(ctx, now.Year())
		if err != nil {
			return nil, fmt.Errorf("reserving application number: %w", err)
		}
		number := FormatNumber(now.Year(), seq)

		app = &models.Application{
			ID:                primitive.NewObjectID(),
			UserID:            cmd.UserID,
			CountryID:         cmd.CountryID,
			VisaTypeID:        cmd.VisaTypeID,
			ApplicationNumber: number,
			Status:            flow.First(),
			Version:           1,
			ApplicantData:     cmd.Applicant,
			TravelData:        cmd.Travel,
			IsUrgent:          cmd.IsUrgent,
			SubmittedAt:       &now,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		err = e.store.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := e.store.CreateApplication(txCtx, app); err != nil {
				return err
			}
			for _, in := range cmd.Documents {
				doc := &models.Document{
					ID:                    primitive.NewObjectID(),
					ApplicationID:         app.ID,
					DocumentRequirementID: in.RequirementID,
					FileName:              in.FileName,
					FilePath:              in.FilePath,
					ThumbnailPath:         in.ThumbnailPath,
					FileSize:              in.FileSize,
					MimeType:              in.MimeType,
					Status:                models.DocumentStatusPending,
					UploadedBy:            cmd.UserID,
					CreatedAt:             now,
					UpdatedAt:             now,
				}
				if err := e.store.CreateDocument(txCtx, doc); err != nil {
					return err
				}
			}
			return e.store.AppendStatusLog(txCtx, &models.StatusLog{
				ApplicationID: app.ID,
				NewStatus:     app.Status,
				ChangedBy:     cmd.UserID,
				CreatedAt:     now,
			})
		})
		if err == nil {
			ev = StatusChanged{
				ApplicationID:     app.ID,
				ApplicationNumber: app.ApplicationNumber,
				UserID:            app.UserID,
				VisaTypeID:        app.VisaTypeID,
				NewStatus:         app.Status,
				ChangedBy:         cmd.UserID,
				OccurredAt:        now,
			}
			e.publish(ev)
			return app, nil
		}
		if !errors.Is(err, ErrDuplicateNumber) {
			return nil, err
		}
	}
	return nil, ErrDuplicateNumber
}
