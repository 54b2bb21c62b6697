package models

import (
	"time"

	"gorm.io/gorm"
)

// KYCStatus is the aggregate verification state on a user's profile.
// It is the only field gating transaction creation; per-document statuses
// are tracked for the admin review queue.
type KYCStatus string

const (
	KYCPending     KYCStatus = "pending"
	KYCUnderReview KYCStatus = "under_review"
	KYCVerified    KYCStatus = "verified"
	KYCRejected    KYCStatus = "rejected"
)

// Valid reports whether s is a known aggregate KYC state.
func (s KYCStatus) Valid() bool {
	switch s {
	case KYCPending, KYCUnderReview, KYCVerified, KYCRejected:
		return true
	}
	return false
}

// CanSubmit reports whether a user in state s may (re)submit documents.
// A rejected user restarts the flow; verified users have nothing to submit.
func (s KYCStatus) CanSubmit() bool {
	return s == KYCPending || s == KYCRejected
}

// DocumentType identifies one KYC document kind.
type DocumentType string

const (
	DocumentID          DocumentType = "id"
	DocumentPassport    DocumentType = "passport"
	DocumentUtilityBill DocumentType = "utility_bill"
	DocumentFacePhoto   DocumentType = "face_photo"
)

// Valid reports whether t is an accepted document kind.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentID, DocumentPassport, DocumentUtilityBill, DocumentFacePhoto:
		return true
	}
	return false
}

// Document statuses, independent per document.
const (
	DocumentStatusPending     = "pending"
	DocumentStatusUnderReview = "under_review"
	DocumentStatusApproved    = "approved"
	DocumentStatusRejected    = "rejected"
)

type KYCDocument struct {
	gorm.Model
	UserID       uint         `gorm:"not null;index" json:"user_id"`
	DocumentType DocumentType `gorm:"type:varchar(20);not null" json:"document_type"`
	FileURL      string       `gorm:"not null" json:"file_url"`
	Status       string       `gorm:"type:varchar(20);default:'under_review'" json:"status"`
	AdminNotes   string       `json:"admin_notes,omitempty"`
	ReviewedBy   *uint        `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time   `json:"reviewed_at,omitempty"`
}
