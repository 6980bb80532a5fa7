// workflow/engine_test.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brahimcontact64-ctrl/E-vizza/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore is an in-memory Store whose WithTransaction snapshots all
// state and restores it when fn fails, matching the all-or-nothing
// contract of a Mongo session.
type fakeStore struct {
	mu        sync.Mutex
	apps      map[primitive.ObjectID]models.Application
	visaTypes map[primitive.ObjectID]models.VisaType
	reqs      map[primitive.ObjectID][]models.DocumentRequirement
	docs      []models.Document
	payments  []models.Payment
	logs      []models.StatusLog

	numbers map[string]bool

	// failAppendLog makes the next AppendStatusLog call fail, to probe
	// transaction rollback.
	failAppendLog bool
	// rejectNumbers forces CreateApplication to report a duplicate for
	// the listed numbers.
	rejectNumbers map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		apps:      make(map[primitive.ObjectID]models.Application),
		visaTypes: make(map[primitive.ObjectID]models.VisaType),
		reqs:      make(map[primitive.ObjectID][]models.DocumentRequirement),
		numbers:   make(map[string]bool),
	}
}

func (s *fakeStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snapApps := make(map[primitive.ObjectID]models.Application, len(s.apps))
	for k, v := range s.apps {
		snapApps[k] = v
	}
	snapNumbers := make(map[string]bool, len(s.numbers))
	for k, v := range s.numbers {
		snapNumbers[k] = v
	}
	snapDocs := append([]models.Document(nil), s.docs...)
	snapPayments := append([]models.Payment(nil), s.payments...)
	snapLogs := append([]models.StatusLog(nil), s.logs...)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.apps = snapApps
		s.numbers = snapNumbers
		s.docs = snapDocs
		s.payments = snapPayments
		s.logs = snapLogs
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *fakeStore) GetApplication(_ context.Context, id primitive.ObjectID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, fmt.Errorf("application %s not found", id.Hex())
	}
	return &app, nil
}

func (s *fakeStore) GetVisaType(_ context.Context, id primitive.ObjectID) (*models.VisaType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vt, ok := s.visaTypes[id]
	if !ok {
		return nil, fmt.Errorf("visa type %s not found", id.Hex())
	}
	return &vt, nil
}

func (s *fakeStore) GetRequirements(_ context.Context, visaTypeID primitive.ObjectID) ([]models.DocumentRequirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DocumentRequirement(nil), s.reqs[visaTypeID]...), nil
}

func (s *fakeStore) GetDocuments(_ context.Context, applicationID primitive.ObjectID) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Document
	for _, d := range s.docs {
		if d.ApplicationID == applicationID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateApplication(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.numbers[app.ApplicationNumber] || s.rejectNumbers[app.ApplicationNumber] {
		return ErrDuplicateNumber
	}
	s.numbers[app.ApplicationNumber] = true
	s.apps[app.ID] = *app
	return nil
}

func (s *fakeStore) CreateDocument(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, *doc)
	return nil
}

func (s *fakeStore) CreatePayment(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, *payment)
	return nil
}

func (s *fakeStore) UpdateApplicationStatus(_ context.Context, upd StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[upd.ApplicationID]
	if !ok {
		return fmt.Errorf("application %s not found", upd.ApplicationID.Hex())
	}
	if app.Version != upd.ExpectedVersion {
		return ErrStaleWrite
	}
	app.Status = upd.NewStatus
	app.Version++
	if upd.AdminNotes != "" {
		app.AdminNotes = upd.AdminNotes
	}
	if upd.RejectionReason != "" {
		app.RejectionReason = upd.RejectionReason
	}
	if upd.PaymentConfirmedAt != nil {
		app.PaymentConfirmedAt = upd.PaymentConfirmedAt
	}
	if upd.CompletedAt != nil {
		app.CompletedAt = upd.CompletedAt
	}
	app.UpdatedAt = upd.Now
	s.apps[upd.ApplicationID] = app
	return nil
}

func (s *fakeStore) AppendStatusLog(_ context.Context, entry *models.StatusLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppendLog {
		s.failAppendLog = false
		return errors.New("status log write failed")
	}
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *fakeStore) logsFor(id primitive.ObjectID) []models.StatusLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StatusLog
	for _, l := range s.logs {
		if l.ApplicationID == id {
			out = append(out, l)
		}
	}
	return out
}

// fixture seeds a store with one active visa type carrying the
// standard flow and two required plus one optional requirement, and an
// application already in the given status.
type fixture struct {
	store     *fakeStore
	engine    *Engine
	visaType  models.VisaType
	app       models.Application
	passport  primitive.ObjectID
	photo     primitive.ObjectID
	itinerary primitive.ObjectID
	admin     primitive.ObjectID
}

func newFixture(t *testing.T, status string) *fixture {
	t.Helper()
	store := newFakeStore()

	vt := models.VisaType{
		ID:         primitive.NewObjectID(),
		CountryID:  primitive.NewObjectID(),
		Code:       "evisa",
		NameEn:     "eVisa",
		BaseFee:    5000,
		IsActive:   true,
		StatusFlow: standardFlow(),
	}
	store.visaTypes[vt.ID] = vt

	f := &fixture{
		store:     store,
		visaType:  vt,
		passport:  primitive.NewObjectID(),
		photo:     primitive.NewObjectID(),
		itinerary: primitive.NewObjectID(),
		admin:     primitive.NewObjectID(),
	}
	store.reqs[vt.ID] = []models.DocumentRequirement{
		{ID: f.passport, VisaTypeID: vt.ID, DocumentType: "passport", IsRequired: true},
		{ID: f.photo, VisaTypeID: vt.ID, DocumentType: "photo", IsRequired: true},
		{ID: f.itinerary, VisaTypeID: vt.ID, DocumentType: "itinerary", IsRequired: false},
	}

	app := models.Application{
		ID:                primitive.NewObjectID(),
		UserID:            primitive.NewObjectID(),
		CountryID:         vt.CountryID,
		VisaTypeID:        vt.ID,
		ApplicationNumber: "VF26000001",
		Status:            status,
		Version:           1,
	}
	store.apps[app.ID] = app
	store.numbers[app.ApplicationNumber] = true
	f.app = app

	f.engine = NewEngine(store, newMemorySequencer())
	f.engine.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return f
}

func (f *fixture) uploadAll() {
	for _, reqID := range []primitive.ObjectID{f.passport, f.photo} {
		f.store.docs = append(f.store.docs, models.Document{
			ID:                    primitive.NewObjectID(),
			ApplicationID:         f.app.ID,
			DocumentRequirementID: reqID,
			Status:                models.DocumentStatusPending,
		})
	}
}

func TestTransitionAppendsExactlyOneLog(t *testing.T) {
	f := newFixture(t, StatusSubmitted)

	app, err := f.engine.Transition(context.Background(), TransitionRequest{
		ApplicationID:   f.app.ID,
		ExpectedVersion: 1,
		NewStatus:       StatusAwaitingPayment,
		ChangedBy:       f.admin,
		Notes:           "fee notice sent",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusAwaitingPayment, app.Status)
	assert.Equal(t, int64(2), app.Version)

	logs := f.store.logsFor(f.app.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, StatusSubmitted, logs[0].OldStatus)
	assert.Equal(t, StatusAwaitingPayment, logs[0].NewStatus)
	assert.Equal(t, f.admin, logs[0].ChangedBy)
	assert.Equal(t, "fee notice sent", logs[0].Notes)
}

func TestTransitionStaleVersionRejected(t *testing.T) {
	f := newFixture(t, StatusSubmitted)

	_, err := f.engine.Transition(context.Background(), TransitionRequest{
		ApplicationID:   f.app.ID,
		ExpectedVersion: 7,
		NewStatus:       StatusAwaitingPayment,
		ChangedBy:       f.admin,
	})
	assert.ErrorIs(t, err, ErrStaleWrite)

	stored, err := f.store.GetApplication(context.Background(), f.app.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, stored.Status)
	assert.Empty(t, f.store.logsFor(f.app.ID))
}

func TestTransitionProcessingGateBlocksMissingDocuments(t *testing.T) {
	f := newFixture(t, StatusPaymentConfirmed)

	_, err := f.engine.Transition(context.Background(), TransitionRequest{
		ApplicationID:   f.app.ID,
		ExpectedVersion: 1,
		NewStatus:       StatusProcessing,
		ChangedBy:       f.admin,
	})
	var incomplete *DocumentsIncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.ElementsMatch(t, []primitive.ObjectID{f.passport, f.photo}, incomplete.Missing)

	// Nothing moved, nothing was logged.
	stored, _ := f.store.GetApplication(context.Background(), f.app.ID)
	assert.Equal(t, StatusPaymentConfirmed, stored.Status)
	assert.Equal(t, int64(1), stored.Version)
	assert.Empty(t, f.store.logsFor(f.app.ID))
}

func TestTransitionProcessingGatePassesWithDocuments(t *testing.T) {
	f := newFixture(t, StatusPaymentConfirmed)
	f.uploadAll()

	app, err := f.engine.Transition(context.Background(), TransitionRequest{
		ApplicationID:   f.app.ID,
		ExpectedVersion: 1,
		NewStatus:       StatusProcessing,
		ChangedBy:       f.admin,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, app.Status)
}

func TestTransitionRejectionRecordsReason(t *testing.T) {
	f := newFixture(t, StatusProcessing)

	app, err := f.engine.Transition(context.Background(), TransitionRequest{
		ApplicationID:   f.app.ID,
		ExpectedVersion: 1,
		NewStatus:       StatusRejected,
		ChangedBy:       f.admin,
		RejectionReason: "passport expires within six months",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, app.Status)
	assert.Equal(t, "passport expires within six months", app.RejectionReason)
	require.NotNil(t, app.CompletedAt)
}

func TestTransitionRollbackWhenLogWriteFails(t *testing.T) {
	f := newFixture(t, StatusSubmitted)
	f.store.failAppendLog = true

	_, err := f.engine.Transition(context.Background(), TransitionRequest{
		ApplicationID:   f.app.ID,
		ExpectedVersion: 1,
		NewStatus:       StatusAwaitingPayment,
		ChangedBy:       f.admin,
	})
	require.Error(t, err)

	stored, _ := f.store.GetApplication(context.Background(), f.app.ID)
	assert.Equal(t, StatusSubmitted, stored.Status)
	assert.Equal(t, int64(1), stored.Version)
	assert.Empty(t, f.store.logsFor(f.app.ID))
}

func TestTransitionPublishesAfterCommit(t *testing.T) {
	f := newFixture(t, StatusSubmitted)

	events := make(chan StatusChanged, 1)
	f.engine.Subscribe(SubscriberFunc(func(_ context.Context, ev StatusChanged) {
		events <- ev
	}))

	_, err := f.engine.Transition(context.Background(), TransitionRequest{
		ApplicationID:   f.app.ID,
		ExpectedVersion: 1,
		NewStatus:       StatusAwaitingPayment,
		ChangedBy:       f.admin,
	})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, f.app.ID, ev.ApplicationID)
		assert.Equal(t, StatusSubmitted, ev.OldStatus)
		assert.Equal(t, StatusAwaitingPayment, ev.NewStatus)
		assert.Equal(t, f.app.ApplicationNumber, ev.ApplicationNumber)
	case <-time.After(2 * time.Second):
		t.Fatal("no status change event delivered")
	}
}

func TestTransitionNoEventOnFailure(t *testing.T) {
	f := newFixture(t, StatusSubmitted)

	events := make(chan StatusChanged, 1)
	f.engine.Subscribe(SubscriberFunc(func(_ context.Context, ev StatusChanged) {
		events <- ev
	}))

	_, err := f.engine.Transition(context.Background(), TransitionRequest{
		ApplicationID:   f.app.ID,
		ExpectedVersion: 99,
		NewStatus:       StatusAwaitingPayment,
		ChangedBy:       f.admin,
	})
	require.ErrorIs(t, err, ErrStaleWrite)

	select {
	case <-events:
		t.Fatal("event published for a failed transition")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestConfirmPaymentWritesPaymentAndStatusTogether(t *testing.T) {
	f := newFixture(t, StatusAwaitingPayment)

	app, payment, err := f.engine.ConfirmPayment(context.Background(), ConfirmPaymentCommand{
		ApplicationID:   f.app.ID,
		ExpectedVersion: 1,
		PaymentMethod:   "bank_transfer",
		ConfirmedBy:     f.admin,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPaymentConfirmed, app.Status)
	require.NotNil(t, app.PaymentConfirmedAt)
	// Zero amount falls back to the visa type base fee.
	assert.Equal(t, f.visaType.BaseFee, payment.Amount)
	assert.Equal(t, models.PaymentStatusConfirmed, payment.Status)
	require.Len(t, f.store.payments, 1)
	require.Len(t, f.store.logsFor(f.app.ID), 1)
}

func TestConfirmPaymentRollsBackPaymentOnFailure(t *testing.T) {
	f := newFixture(t, StatusAwaitingPayment)
	f.store.failAppendLog = true

	_, _, err := f.engine.ConfirmPayment(context.Background(), ConfirmPaymentCommand{
		ApplicationID:   f.app.ID,
		ExpectedVersion: 1,
		ConfirmedBy:     f.admin,
	})
	require.Error(t, err)

	// The payment insert happened before the failure but must not
	// survive the rollback.
	assert.Empty(t, f.store.payments)
	stored, _ := f.store.GetApplication(context.Background(), f.app.ID)
	assert.Equal(t, StatusAwaitingPayment, stored.Status)
}

func TestConfirmPaymentStaleVersionLeavesNoPayment(t *testing.T) {
	f := newFixture(t, StatusAwaitingPayment)

	_, _, err := f.engine.ConfirmPayment(context.Background(), ConfirmPaymentCommand{
		ApplicationID:   f.app.ID,
		ExpectedVersion: 5,
		ConfirmedBy:     f.admin,
	})
	require.ErrorIs(t, err, ErrStaleWrite)
	assert.Empty(t, f.store.payments)
}

func submitCommand(f *fixture) SubmitCommand {
	return SubmitCommand{
		UserID:     primitive.NewObjectID(),
		CountryID:  f.visaType.CountryID,
		VisaTypeID: f.visaType.ID,
		Applicant: models.ApplicantData{
			FirstName:      "Rania",
			LastName:       "Haddad",
			PassportNumber: "LB1234567",
			Nationality:    "Lebanese",
			DateOfBirth:    "1993-05-12",
			Gender:         "female",
			Phone:          "+9613123456",
			Email:          "rania@example.com",
			Address:        "Beirut",
		},
		Travel: models.TravelData{Departure: "2026-06-01", Return: "2026-06-20"},
		Documents: []DocumentInput{
			{RequirementID: f.passport, FileName: "passport.pdf", FilePath: "apps/passport.pdf", FileSize: 1024, MimeType: "application/pdf"},
			{RequirementID: f.photo, FileName: "photo.jpg", FilePath: "apps/photo.jpg", FileSize: 2048, MimeType: "image/jpeg"},
		},
	}
}

func TestSubmitCreatesApplicationDocumentsAndLog(t *testing.T) {
	f := newFixture(t, StatusSubmitted)

	app, err := f.engine.Submit(context.Background(), submitCommand(f))
	require.NoError(t, err)

	assert.Equal(t, StatusSubmitted, app.Status)
	assert.Equal(t, int64(1), app.Version)
	assert.True(t, IsApplicationNumber(app.ApplicationNumber), app.ApplicationNumber)
	assert.Equal(t, "VF26", app.ApplicationNumber[:4])
	require.NotNil(t, app.SubmittedAt)

	docs, err := f.store.GetDocuments(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	for _, d := range docs {
		assert.Equal(t, models.DocumentStatusPending, d.Status)
	}

	logs := f.store.logsFor(app.ID)
	require.Len(t, logs, 1)
	assert.Empty(t, logs[0].OldStatus)
	assert.Equal(t, StatusSubmitted, logs[0].NewStatus)
}

func TestSubmitRejectsMissingRequiredDocument(t *testing.T) {
	f := newFixture(t, StatusSubmitted)

	cmd := submitCommand(f)
	cmd.Documents = cmd.Documents[:1] // photo missing

	_, err := f.engine.Submit(context.Background(), cmd)
	var incomplete *DocumentsIncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, []primitive.ObjectID{f.photo}, incomplete.Missing)
}

func TestSubmitRejectsUnknownRequirement(t *testing.T) {
	f := newFixture(t, StatusSubmitted)

	cmd := submitCommand(f)
	cmd.Documents = append(cmd.Documents, DocumentInput{
		RequirementID: primitive.NewObjectID(),
		FileName:      "extra.pdf",
	})

	_, err := f.engine.Submit(context.Background(), cmd)
	require.Error(t, err)
}

func TestSubmitRejectsInactiveVisaType(t *testing.T) {
	f := newFixture(t, StatusSubmitted)
	vt := f.store.visaTypes[f.visaType.ID]
	vt.IsActive = false
	f.store.visaTypes[f.visaType.ID] = vt

	_, err := f.engine.Submit(context.Background(), submitCommand(f))
	require.Error(t, err)
}

func TestSubmitRetriesOnDuplicateNumber(t *testing.T) {
	f := newFixture(t, StatusSubmitted)
	// First draw for 2026 formats to VF26000001 which the fixture
	// application already holds, so the loop must retry with the next
	// sequence value.
	app, err := f.engine.Submit(context.Background(), submitCommand(f))
	require.NoError(t, err)
	assert.Equal(t, "VF26000002", app.ApplicationNumber)
}

func TestSubmitGivesUpAfterRepeatedDuplicates(t *testing.T) {
	f := newFixture(t, StatusSubmitted)
	f.store.rejectNumbers = map[string]bool{
		"VF26000002": true,
		"VF26000003": true,
		"VF26000004": true,
	}

	_, err := f.engine.Submit(context.Background(), submitCommand(f))
	require.ErrorIs(t, err, ErrDuplicateNumber)
}

// TestFullLifecycle walks one application through the complete flow:
// submit, request payment, confirm, process, approve.
func TestFullLifecycle(t *testing.T) {
	f := newFixture(t, StatusSubmitted)
	ctx := context.Background()

	app, err := f.engine.Submit(ctx, submitCommand(f))
	require.NoError(t, err)

	app, err = f.engine.Transition(ctx, TransitionRequest{
		ApplicationID:   app.ID,
		ExpectedVersion: app.Version,
		NewStatus:       StatusAwaitingPayment,
		ChangedBy:       f.admin,
	})
	require.NoError(t, err)

	app, _, err = f.engine.ConfirmPayment(ctx, ConfirmPaymentCommand{
		ApplicationID:   app.ID,
		ExpectedVersion: app.Version,
		ConfirmedBy:     f.admin,
	})
	require.NoError(t, err)

	app, err = f.engine.Transition(ctx, TransitionRequest{
		ApplicationID:   app.ID,
		ExpectedVersion: app.Version,
		NewStatus:       StatusProcessing,
		ChangedBy:       f.admin,
	})
	require.NoError(t, err)

	app, err = f.engine.Transition(ctx, TransitionRequest{
		ApplicationID:   app.ID,
		ExpectedVersion: app.Version,
		NewStatus:       StatusApproved,
		ChangedBy:       f.admin,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, app.Status)
	assert.Equal(t, int64(5), app.Version)
	require.NotNil(t, app.PaymentConfirmedAt)
	require.NotNil(t, app.CompletedAt)

	logs := f.store.logsFor(app.ID)
	require.Len(t, logs, 5)
	assert.Equal(t, StatusSubmitted, logs[0].NewStatus)
	assert.Equal(t, StatusApproved, logs[len(logs)-1].NewStatus)

	// Approved is terminal.
	_, err = f.engine.Transition(ctx, TransitionRequest{
		ApplicationID:   app.ID,
		ExpectedVersion: app.Version,
		NewStatus:       StatusProcessing,
		ChangedBy:       f.admin,
		Override:        true,
	})
	assert.ErrorIs(t, err, ErrTerminalState)
}
