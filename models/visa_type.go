// models/visa_type.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubmissionStep is one entry of the staff checklist attached to a visa
// type. Steps are guidance for the reviewing admin, not machine-enforced.
type SubmissionStep struct {
	StepNumber    int    `json:"step_number" bson:"step_number"`
	TitleEn       string `json:"title_en" bson:"title_en"`
	TitleFr       string `json:"title_fr" bson:"title_fr"`
	TitleAr       string `json:"title_ar" bson:"title_ar"`
	DescriptionEn string `json:"description_en" bson:"description_en"`
	DescriptionFr string `json:"description_fr" bson:"description_fr"`
	DescriptionAr string `json:"description_ar" bson:"description_ar"`
}

// StatusFlowStep declares one legal status for applications of a visa
// type, with its display order. The full set forms the status flow the
// workflow engine validates transitions against.
type StatusFlowStep struct {
	Status string `json:"status" bson:"status"`
	NameEn string `json:"name_en" bson:"name_en"`
	NameFr string `json:"name_fr" bson:"name_fr"`
	NameAr string `json:"name_ar" bson:"name_ar"`
	Order  int    `json:"order" bson:"order"`
}

// VisaType is a country-scoped visa product definition.
type VisaType struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	CountryID          primitive.ObjectID `json:"country_id" bson:"country_id"`
	Code               string             `json:"code" bson:"code"`
	NameEn             string             `json:"name_en" bson:"name_en"`
	NameFr             string             `json:"name_fr" bson:"name_fr"`
	NameAr             string             `json:"name_ar" bson:"name_ar"`
	DescriptionEn      string             `json:"description_en,omitempty" bson:"description_en,omitempty"`
	DescriptionFr      string             `json:"description_fr,omitempty" bson:"description_fr,omitempty"`
	DescriptionAr      string             `json:"description_ar,omitempty" bson:"description_ar,omitempty"`
	BaseFee            int64              `json:"base_fee" bson:"base_fee"`
	ProcessingTimeDays int                `json:"processing_time_days" bson:"processing_time_days"`
	IsActive           bool               `json:"is_active" bson:"is_active"`
	SubmissionSteps    []SubmissionStep   `json:"submission_steps" bson:"submission_steps"`
	StatusFlow         []StatusFlowStep   `json:"status_flow" bson:"status_flow"`
	// Requirements and ValidationRules are opaque, schema-tagged blobs
	// kept for forward compatibility with per-category validation.
	Requirements    bson.M    `json:"requirements,omitempty" bson:"requirements,omitempty"`
	ValidationRules bson.M    `json:"validation_rules,omitempty" bson:"validation_rules,omitempty"`
	SchemaVersion   int       `json:"schema_version" bson:"schema_version"`
	HelperNotesEn   string    `json:"helper_notes_en,omitempty" bson:"helper_notes_en,omitempty"`
	HelperNotesFr   string    `json:"helper_notes_fr,omitempty" bson:"helper_notes_fr,omitempty"`
	HelperNotesAr   string    `json:"helper_notes_ar,omitempty" bson:"helper_notes_ar,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// VisaTypeRequest is the payload for creating or updating a visa type
type VisaTypeRequest struct {
	CountryID          string           `json:"country_id" validate:"required"`
	Code               string           `json:"code" validate:"required,lowercase"`
	NameEn             string           `json:"name_en" validate:"required"`
	NameFr             string           `json:"name_fr" validate:"required"`
	NameAr             string           `json:"name_ar" validate:"required"`
	DescriptionEn      string           `json:"description_en,omitempty"`
	DescriptionFr      string           `json:"description_fr,omitempty"`
	DescriptionAr      string           `json:"description_ar,omitempty"`
	BaseFee            int64            `json:"base_fee" validate:"required,min=0"`
	ProcessingTimeDays int              `json:"processing_time_days" validate:"required,min=1"`
	IsActive           *bool            `json:"is_active,omitempty"`
	SubmissionSteps    []SubmissionStep `json:"submission_steps,omitempty"`
	StatusFlow         []StatusFlowStep `json:"status_flow" validate:"required,min=1"`
	HelperNotesEn      string           `json:"helper_notes_en,omitempty"`
	HelperNotesFr      string           `json:"helper_notes_fr,omitempty"`
	HelperNotesAr      string           `json:"helper_notes_ar,omitempty"`
}

// LocalizedName returns the visa type name for the given language,
// falling back to English.
func (v *VisaType) LocalizedName(lang string) string {
	switch lang {
	case "fr":
		if v.NameFr != "" {
			return v.NameFr
		}
	case "ar":
		if v.NameAr != "" {
			return v.NameAr
		}
	}
	return v.NameEn
}
