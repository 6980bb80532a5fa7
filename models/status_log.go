// models/status_log.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusLog is one append-only audit entry for an application status
// change. Entries are never updated or deleted; the collection is the
// authoritative history of an application's lifecycle.
type StatusLog struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ApplicationID primitive.ObjectID `json:"application_id" bson:"application_id"`
	OldStatus     string             `json:"old_status,omitempty" bson:"old_status,omitempty"`
	NewStatus     string             `json:"new_status" bson:"new_status"`
	ChangedBy     primitive.ObjectID `json:"changed_by" bson:"changed_by"`
	Notes         string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}
