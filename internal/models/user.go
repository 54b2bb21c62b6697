package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`
	Password        string     `gorm:"not null" json:"-"`
	FirstName       string     `gorm:"not null" json:"first_name"`
	LastName        string     `gorm:"not null" json:"last_name"`
	Phone           string     `json:"phone,omitempty"`
	AvatarURL       string     `json:"avatar_url,omitempty"`
	Role            string     `gorm:"default:'user'" json:"role"`
	KYCStatus       KYCStatus  `gorm:"type:varchar(20);default:'pending'" json:"kyc_status"`
	TermsAccepted   bool       `gorm:"default:false" json:"terms_accepted"`
	TermsAcceptedAt *time.Time `json:"terms_accepted_at,omitempty"`
	TokenVersion    int        `gorm:"default:1" json:"-"`
}

// CreateUserInput is the registration payload.
type CreateUserInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// UpdateProfileInput holds the fields a user may edit on their own profile.
type UpdateProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
}
