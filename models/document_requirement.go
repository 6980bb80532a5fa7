// models/document_requirement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentRequirement names one document a visa type demands from
// applicants. OrderIndex is unique within a visa type and controls
// display order in the wizard.
type DocumentRequirement struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	VisaTypeID      primitive.ObjectID `json:"visa_type_id" bson:"visa_type_id"`
	DocumentType    string             `json:"document_type" bson:"document_type"`
	NameEn          string             `json:"name_en" bson:"name_en"`
	NameFr          string             `json:"name_fr" bson:"name_fr"`
	NameAr          string             `json:"name_ar" bson:"name_ar"`
	DescriptionEn   string             `json:"description_en,omitempty" bson:"description_en,omitempty"`
	DescriptionFr   string             `json:"description_fr,omitempty" bson:"description_fr,omitempty"`
	DescriptionAr   string             `json:"description_ar,omitempty" bson:"description_ar,omitempty"`
	IsRequired      bool               `json:"is_required" bson:"is_required"`
	ValidationRules bson.M             `json:"validation_rules,omitempty" bson:"validation_rules,omitempty"`
	OrderIndex      int                `json:"order_index" bson:"order_index"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// DocumentRequirementRequest is the payload for creating or updating a
// document requirement
type DocumentRequirementRequest struct {
	VisaTypeID    string `json:"visa_type_id" validate:"required"`
	DocumentType  string `json:"document_type" validate:"required"`
	NameEn        string `json:"name_en" validate:"required"`
	NameFr        string `json:"name_fr" validate:"required"`
	NameAr        string `json:"name_ar" validate:"required"`
	DescriptionEn string `json:"description_en,omitempty"`
	DescriptionFr string `json:"description_fr,omitempty"`
	DescriptionAr string `json:"description_ar,omitempty"`
	IsRequired    *bool  `json:"is_required,omitempty"`
	OrderIndex    int    `json:"order_index" validate:"required,min=1"`
}
