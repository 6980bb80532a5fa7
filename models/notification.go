// models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an in-app message for a user, typically produced by
// a status change on one of their applications.
type Notification struct {
	ID                   primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID               primitive.ObjectID  `json:"user_id" bson:"user_id"`
	TitleEn              string              `json:"title_en" bson:"title_en"`
	TitleFr              string              `json:"title_fr,omitempty" bson:"title_fr,omitempty"`
	TitleAr              string              `json:"title_ar,omitempty" bson:"title_ar,omitempty"`
	MessageEn            string              `json:"message_en" bson:"message_en"`
	MessageFr            string              `json:"message_fr,omitempty" bson:"message_fr,omitempty"`
	MessageAr            string              `json:"message_ar,omitempty" bson:"message_ar,omitempty"`
	Type                 string              `json:"type" bson:"type"`
	RelatedApplicationID *primitive.ObjectID `json:"related_application_id,omitempty" bson:"related_application_id,omitempty"`
	IsRead               bool                `json:"is_read" bson:"is_read"`
	CreatedAt            time.Time           `json:"createdAt" bson:"createdAt"`
}
