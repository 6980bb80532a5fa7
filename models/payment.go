// models/payment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusRefunded  = "refunded"
)

// Payment records one payment against an application. A confirmed
// payment is only ever written in the same transaction as the
// application's advance to payment_confirmed.
type Payment struct {
	ID               primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	ApplicationID    primitive.ObjectID  `json:"application_id" bson:"application_id"`
	Amount           int64               `json:"amount" bson:"amount"`
	Currency         string              `json:"currency" bson:"currency"`
	PaymentMethod    string              `json:"payment_method,omitempty" bson:"payment_method,omitempty"`
	PaymentReference string              `json:"payment_reference,omitempty" bson:"payment_reference,omitempty"`
	Status           string              `json:"status" bson:"status"`
	ConfirmedBy      *primitive.ObjectID `json:"confirmed_by,omitempty" bson:"confirmed_by,omitempty"`
	ConfirmedAt      *time.Time          `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
	Notes            string              `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt        time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt" bson:"updatedAt"`
}
