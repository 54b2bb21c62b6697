package repositories

import (
	"bridgepay/internal/models"

	"gorm.io/gorm"
)

// KYCRepository defines KYC document persistence operations. Both mutations
// pair a document write with the profile's aggregate status inside one
// database transaction, so the two can never disagree.
type KYCRepository interface {
	// CreateSubmission inserts a document batch and moves the profile
	// to under_review atomically.
	CreateSubmission(userID uint, docs []models.KYCDocument) error

	// GetByUser returns all documents for a user, newest submission first
	GetByUser(userID uint) ([]models.KYCDocument, error)

	// DecideForUser sets the status on all of a user's open documents and
	// mirrors the decision onto the profile, recording the reviewing admin
	// and optional notes. It returns the number of documents updated; when
	// zero, the profile is left untouched.
	DecideForUser(userID uint, docStatus string, adminID uint, notes string, profileStatus models.KYCStatus) (int64, error)
}

type kycRepository struct {
	db *gorm.DB
}

// NewKYCRepository creates a new KYCRepository.
func NewKYCRepository(db *gorm.DB) KYCRepository {
	return &kycRepository{db: db}
}

func (r *kycRepository) CreateSubmission(userID uint, docs []models.KYCDocument) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&docs).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("kyc_status", models.KYCUnderReview).Error
	})
}

func (r *kycRepository) GetByUser(userID uint) ([]models.KYCDocument, error) {
	var docs []models.KYCDocument
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *kycRepository) DecideForUser(userID uint, docStatus string, adminID uint, notes string, profileStatus models.KYCStatus) (int64, error) {
	var updated int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.KYCDocument{}).
			Where("user_id = ? AND status IN ?", userID, []string{models.DocumentStatusPending, models.DocumentStatusUnderReview}).
			Updates(map[string]interface{}{
				"status":      docStatus,
				"admin_notes": notes,
				"reviewed_by": adminID,
				"reviewed_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		updated = result.RowsAffected
		if updated == 0 {
			return nil
		}
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("kyc_status", profileStatus).Error
	})
	return updated, err
}
