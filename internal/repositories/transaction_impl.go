package repositories

import (
	"context"
	"log"
	"strings"
	"time"

	"bridgepay/internal/models"
	"bridgepay/internal/repositories/cache"

	"gorm.io/gorm"
)

type transactionRepository struct {
	db    *gorm.DB
	cache *cache.CacheService
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *gorm.DB, cache *cache.CacheService) TransactionRepository {
	return &transactionRepository{db: db, cache: cache}
}

func (r *transactionRepository) Create(txn *models.Transaction) error {
	if err := r.db.Create(txn).Error; err != nil {
		if strings.Contains(err.Error(), "payment_reference") {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

func (r *transactionRepository) GetByPublicID(publicID string) (*models.Transaction, error) {
	if txn, err := r.cache.GetTransaction(context.Background(), publicID); err == nil {
		return txn, nil
	}

	var txn models.Transaction
	if err := r.db.Where("public_id = ?", publicID).First(&txn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if err := r.cache.CacheTransaction(context.Background(), &txn); err != nil {
		log.Printf("Failed to cache transaction %s: %v", txn.PublicID, err)
	}

	return &txn, nil
}

func (r *transactionRepository) ListByUser(userID uint, offset, limit int) ([]models.Transaction, int64, error) {
	var txns []models.Transaction
	var total int64

	q := r.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&txns).Error
	return txns, total, err
}

func (r *transactionRepository) List(status models.TransactionStatus, offset, limit int) ([]models.Transaction, int64, error) {
	var txns []models.Transaction
	var total int64

	q := r.db.Model(&models.Transaction{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&txns).Error
	return txns, total, err
}

// TransitionStatus performs the optimistic compare-and-swap at the heart of
// the lifecycle: the UPDATE matches on both id and the expected current
// status, so two admins racing on the same row cannot both succeed.
func (r *transactionRepository) TransitionStatus(id uint, from, to models.TransactionStatus, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	updates["updated_at"] = time.Now()

	result := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a lost race from a missing row.
		var count int64
		if err := r.db.Model(&models.Transaction{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrTransactionNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

func (r *transactionRepository) ListOverduePending(limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.Where("status = ? AND payment_deadline < ?", models.StatusPending, time.Now()).
		Order("payment_deadline ASC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

func (r *transactionRepository) CountByStatus() (StatusCounts, error) {
	type row struct {
		Status models.TransactionStatus
		Count  int64
	}
	var rows []row

	err := r.db.Model(&models.Transaction{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(StatusCounts, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *transactionRepository) CompletedVolume() (float64, error) {
	var volume float64
	err := r.db.Model(&models.Transaction{}).
		Where("status = ?", models.StatusCompleted).
		Select("COALESCE(SUM(gbp_amount), 0)").
		Row().Scan(&volume)
	return volume, err
}
