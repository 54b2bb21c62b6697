package repositories

import (
	"errors"

	"bridgepay/internal/models"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrStatusConflict is returned when a status transition loses the
	// compare-and-swap: the row's status changed since it was read.
	ErrStatusConflict     = errors.New("transaction status changed concurrently")
	ErrDuplicateReference = errors.New("payment reference already in use")
)

// StatusCounts is the per-status breakdown used by the admin dashboard.
type StatusCounts map[models.TransactionStatus]int64

// TransactionRepository defines transaction persistence operations.
type TransactionRepository interface {
	// Create inserts a new transaction; returns ErrDuplicateReference
	// when the generated payment reference collides.
	Create(txn *models.Transaction) error

	// GetByPublicID retrieves a transaction by its opaque public id
	GetByPublicID(publicID string) (*models.Transaction, error)

	// ListByUser retrieves one user's transactions, newest first
	ListByUser(userID uint, offset, limit int) ([]models.Transaction, int64, error)

	// List retrieves all transactions, optionally filtered by status
	List(status models.TransactionStatus, offset, limit int) ([]models.Transaction, int64, error)

	// TransitionStatus atomically moves a transaction from one status to
	// another, applying extra column updates in the same write. It fails
	// with ErrStatusConflict if the row is no longer in the from status.
	TransitionStatus(id uint, from, to models.TransactionStatus, updates map[string]interface{}) error

	// ListOverduePending returns pending transactions whose payment
	// deadline has passed.
	ListOverduePending(limit int) ([]models.Transaction, error)

	// CountByStatus returns transaction counts per lifecycle state
	CountByStatus() (StatusCounts, error)

	// CompletedVolume returns the summed GBP amount of completed transactions
	CompletedVolume() (float64, error)
}
