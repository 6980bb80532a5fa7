// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User model. One document per account in the "users" collection;
// doubles as the applicant profile shown to reviewing admins.
type User struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email             string             `json:"email" bson:"email"`
	Password          string             `json:"-" bson:"password"`
	FullName          string             `json:"fullName" bson:"fullName"`
	Role              string             `json:"role" bson:"role"` // "user", "admin", "super_admin"
	Phone             string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Nationality       string             `json:"nationality,omitempty" bson:"nationality,omitempty"`
	PreferredLanguage string             `json:"preferredLanguage" bson:"preferredLanguage"` // "en", "fr", "ar"
	IsActive          bool               `json:"isActive" bson:"isActive"`
	FCMToken          string             `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	LastActivityAt    time.Time          `json:"lastActivityAt" bson:"lastActivityAt"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// SignupRequest is the payload for account creation
type SignupRequest struct {
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8"`
	FullName          string `json:"fullName" validate:"required"`
	Phone             string `json:"phone,omitempty"`
	Nationality       string `json:"nationality,omitempty"`
	PreferredLanguage string `json:"preferredLanguage,omitempty" validate:"omitempty,oneof=en fr ar"`
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe,omitempty"`
}

type UpdateProfileRequest struct {
	FullName          string `json:"fullName,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Nationality       string `json:"nationality,omitempty"`
	PreferredLanguage string `json:"preferredLanguage,omitempty" validate:"omitempty,oneof=en fr ar"`
	FCMToken          string `json:"fcmToken,omitempty"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
