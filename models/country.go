// models/country.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Country is a destination definition. Countries are never deleted;
// deactivating keeps references from existing applications valid.
type Country struct {
	ID                  primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Code                string             `json:"code" bson:"code"`
	NameEn              string             `json:"name_en" bson:"name_en"`
	NameFr              string             `json:"name_fr" bson:"name_fr"`
	NameAr              string             `json:"name_ar" bson:"name_ar"`
	FlagEmoji           string             `json:"flag_emoji,omitempty" bson:"flag_emoji,omitempty"`
	IsActive            bool               `json:"is_active" bson:"is_active"`
	ProcessingTimeDays  int                `json:"processing_time_days" bson:"processing_time_days"`
	PortalLink          string             `json:"portal_link,omitempty" bson:"portal_link,omitempty"`
	AdminInstructionsEn string             `json:"admin_instructions_en,omitempty" bson:"admin_instructions_en,omitempty"`
	AdminInstructionsFr string             `json:"admin_instructions_fr,omitempty" bson:"admin_instructions_fr,omitempty"`
	AdminInstructionsAr string             `json:"admin_instructions_ar,omitempty" bson:"admin_instructions_ar,omitempty"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CountryRequest is the payload for creating or updating a country
type CountryRequest struct {
	Code                string `json:"code" validate:"required,uppercase,len=2"`
	NameEn              string `json:"name_en" validate:"required"`
	NameFr              string `json:"name_fr" validate:"required"`
	NameAr              string `json:"name_ar" validate:"required"`
	FlagEmoji           string `json:"flag_emoji,omitempty"`
	IsActive            *bool  `json:"is_active,omitempty"`
	ProcessingTimeDays  int    `json:"processing_time_days" validate:"required,min=1"`
	PortalLink          string `json:"portal_link,omitempty" validate:"omitempty,url"`
	AdminInstructionsEn string `json:"admin_instructions_en,omitempty"`
	AdminInstructionsFr string `json:"admin_instructions_fr,omitempty"`
	AdminInstructionsAr string `json:"admin_instructions_ar,omitempty"`
}

// LocalizedName returns the country name for the given language,
// falling back to English.
func (c *Country) LocalizedName(lang string) string {
	switch lang {
	case "fr":
		if c.NameFr != "" {
			return c.NameFr
		}
	case "ar":
		if c.NameAr != "" {
			return c.NameAr
		}
	}
	return c.NameEn
}
