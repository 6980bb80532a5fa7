// models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplicantData is the data captured once by the wizard; it is frozen
// when the application is submitted.
type ApplicantData struct {
	FirstName      string `json:"firstName" bson:"firstName" validate:"required"`
	LastName       string `json:"lastName" bson:"lastName" validate:"required"`
	PassportNumber string `json:"passportNumber" bson:"passportNumber" validate:"required"`
	Nationality    string `json:"nationality" bson:"nationality" validate:"required"`
	DateOfBirth    string `json:"dateOfBirth" bson:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Gender         string `json:"gender" bson:"gender" validate:"required,oneof=male female"`
	Phone          string `json:"phone" bson:"phone" validate:"required"`
	Email          string `json:"email" bson:"email" validate:"required,email"`
	Address        string `json:"address" bson:"address" validate:"required"`
}

// TravelData holds the trip dates entered in the wizard.
type TravelData struct {
	Departure string `json:"departure" bson:"departure" validate:"required,datetime=2006-01-02"`
	Return    string `json:"return" bson:"return" validate:"required,datetime=2006-01-02"`
}

// Application is one user's in-flight visa request. The (country,
// visa type) pair is fixed at creation; status must be one of the
// visa type's declared status flow codes. Version increments on every
// write and backs the optimistic-concurrency check on admin updates.
type Application struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID             primitive.ObjectID `json:"user_id" bson:"user_id"`
	CountryID          primitive.ObjectID `json:"country_id" bson:"country_id"`
	VisaTypeID         primitive.ObjectID `json:"visa_type_id" bson:"visa_type_id"`
	ApplicationNumber  string             `json:"application_number" bson:"application_number"`
	Status             string             `json:"status" bson:"status"`
	Version            int64              `json:"version" bson:"version"`
	ApplicantData      ApplicantData      `json:"applicant_data" bson:"applicant_data"`
	TravelData         TravelData         `json:"travel_data" bson:"travel_data"`
	IsUrgent           bool               `json:"is_urgent" bson:"is_urgent"`
	AdminNotes         string             `json:"admin_notes,omitempty" bson:"admin_notes,omitempty"`
	RejectionReason    string             `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	SubmittedAt        *time.Time         `json:"submitted_at,omitempty" bson:"submitted_at,omitempty"`
	PaymentConfirmedAt *time.Time         `json:"payment_confirmed_at,omitempty" bson:"payment_confirmed_at,omitempty"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// SubmitApplicationRequest is the JSON part of the multipart wizard
// submission; the uploaded files ride alongside keyed by requirement id.
type SubmitApplicationRequest struct {
	CountryID     string        `json:"country_id" validate:"required"`
	VisaTypeID    string        `json:"visa_type_id" validate:"required"`
	ApplicantData ApplicantData `json:"applicant_data" validate:"required"`
	TravelData    TravelData    `json:"travel_data" validate:"required"`
	IsUrgent      bool          `json:"is_urgent,omitempty"`
}

// UpdateStatusRequest is the admin payload for moving an application
// through its status flow. Version is the version observed at read
// time; a mismatch at write time is rejected as a stale write.
type UpdateStatusRequest struct {
	Status          string `json:"status" validate:"required"`
	Version         int64  `json:"version" validate:"required,min=1"`
	Notes           string `json:"notes,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	Override        bool   `json:"override,omitempty"`
}

// ConfirmPaymentRequest is the admin payload for confirming payment.
// Amount overrides the visa type base fee only for super admins.
type ConfirmPaymentRequest struct {
	Version          int64  `json:"version" validate:"required,min=1"`
	Amount           int64  `json:"amount,omitempty" validate:"omitempty,min=0"`
	PaymentMethod    string `json:"payment_method,omitempty"`
	PaymentReference string `json:"payment_reference,omitempty"`
	Notes            string `json:"notes,omitempty"`
}
