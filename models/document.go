// models/document.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document verification statuses
const (
	DocumentStatusPending          = "pending"
	DocumentStatusApproved         = "approved"
	DocumentStatusRejected         = "rejected"
	DocumentStatusReuploadRequired = "reupload_required"
)

// Document is one uploaded file linked to an application and a
// document requirement. The (application, requirement) pair is unique;
// a re-upload replaces the existing document and resets verification.
type Document struct {
	ID                    primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ApplicationID         primitive.ObjectID `json:"application_id" bson:"application_id"`
	DocumentRequirementID primitive.ObjectID `json:"document_requirement_id" bson:"document_requirement_id"`
	FileName              string             `json:"file_name" bson:"file_name"`
	FilePath              string             `json:"file_path" bson:"file_path"`
	ThumbnailPath         string             `json:"thumbnail_path,omitempty" bson:"thumbnail_path,omitempty"`
	FileSize              int64              `json:"file_size" bson:"file_size"`
	MimeType              string             `json:"mime_type" bson:"mime_type"`
	Status                string             `json:"status" bson:"status"`
	AdminNotes            string             `json:"admin_notes,omitempty" bson:"admin_notes,omitempty"`
	UploadedBy            primitive.ObjectID `json:"uploaded_by" bson:"uploaded_by"`
	VerifiedBy            *primitive.ObjectID `json:"verified_by,omitempty" bson:"verified_by,omitempty"`
	VerifiedAt            *time.Time          `json:"verified_at,omitempty" bson:"verified_at,omitempty"`
	CreatedAt             time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// VerifyDocumentRequest is the admin payload for reviewing a document
type VerifyDocumentRequest struct {
	Status     string `json:"status" validate:"required,oneof=approved rejected reupload_required"`
	AdminNotes string `json:"admin_notes,omitempty"`
}
