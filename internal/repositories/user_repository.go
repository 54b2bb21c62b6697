package repositories

import (
	"errors"

	"bridgepay/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already taken")
	ErrDatabaseOperation = errors.New("database operation failed")
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	// Create creates a new user in the database
	Create(user *models.User) error

	// GetByID retrieves a user by their ID
	GetByID(id uint) (*models.User, error)

	// GetByEmail retrieves a user by their email address
	GetByEmail(email string) (*models.User, error)

	// Update updates an existing user's information
	Update(user *models.User) error

	// UpdateKYCStatus sets the aggregate verification state on a profile
	UpdateKYCStatus(userID uint, status models.KYCStatus) error

	// UpdateRole sets the user's role
	UpdateRole(userID uint, role string) error

	// IncrementTokenVersion increments the user's token version
	IncrementTokenVersion(userID uint) error

	// List retrieves users with pagination
	List(offset, limit int) ([]models.User, int64, error)

	// ListByKYCStatus retrieves users in a given aggregate KYC state
	ListByKYCStatus(status models.KYCStatus, offset, limit int) ([]models.User, int64, error)

	// DeleteCascade hard-deletes a user together with their transactions
	// and KYC documents in one database transaction. Irreversible.
	DeleteCascade(userID uint) error
}
