package repositories

import (
	"context"
	"log"
	"strings"

	"bridgepay/internal/models"
	"bridgepay/internal/repositories/cache"

	"gorm.io/gorm"
)

type userRepository struct {
	db    *gorm.DB
	cache *cache.CacheService
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB, cache *cache.CacheService) UserRepository {
	return &userRepository{
		db:    db,
		cache: cache,
	}
}

func (r *userRepository) Create(user *models.User) error {
	result := r.db.Create(user)
	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "uni_users_email") ||
			strings.Contains(result.Error.Error(), "duplicate key") {
			return ErrEmailTaken
		}
		return ErrDatabaseOperation
	}
	return nil
}

func (r *userRepository) GetByID(id uint) (*models.User, error) {
	key := r.cache.GenerateKey("user", "id", id)
	if user, err := r.cache.GetUser(context.Background(), key); err == nil {
		return user, nil
	}

	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := r.cache.CacheUser(context.Background(), &user); err != nil {
		log.Printf("Failed to cache user %d: %v", user.ID, err)
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	result := r.db.Where("email = ?", email).First(&user)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, ErrDatabaseOperation
	}
	return &user, nil
}

func (r *userRepository) Update(user *models.User) error {
	if err := r.db.Save(user).Error; err != nil {
		return ErrDatabaseOperation
	}
	r.invalidate(user.ID, user.Email)
	return nil
}

func (r *userRepository) UpdateKYCStatus(userID uint, status models.KYCStatus) error {
	result := r.db.Model(&models.User{}).Where("id = ?", userID).Update("kyc_status", status)
	if result.Error != nil {
		return ErrDatabaseOperation
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	r.invalidate(userID, "")
	return nil
}

func (r *userRepository) UpdateRole(userID uint, role string) error {
	result := r.db.Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if result.Error != nil {
		return ErrDatabaseOperation
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	r.invalidate(userID, "")
	return nil
}

func (r *userRepository) IncrementTokenVersion(userID uint) error {
	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrUserNotFound
		}
		return err
	}

	user.TokenVersion++
	if err := r.db.Save(&user).Error; err != nil {
		return ErrDatabaseOperation
	}
	r.invalidate(user.ID, user.Email)
	return nil
}

func (r *userRepository) List(offset, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	if err := r.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *userRepository) ListByKYCStatus(status models.KYCStatus, offset, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	q := r.db.Model(&models.User{}).Where("kyc_status = ?", status)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("updated_at ASC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *userRepository) DeleteCascade(userID uint) error {
	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrUserNotFound
		}
		return err
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		// Unscoped so document rows (and their file URLs) are removed for
		// real, not soft-deleted behind the hard-deleted user.
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.KYCDocument{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return err
	}

	r.invalidate(user.ID, user.Email)
	return nil
}

func (r *userRepository) invalidate(userID uint, email string) {
	if err := r.cache.InvalidateUser(context.Background(), userID, email); err != nil {
		log.Printf("Failed to invalidate user cache %d: %v", userID, err)
	}
}
