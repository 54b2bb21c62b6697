package transaction

import (
	"context"
	"time"

	"bridgepay/internal/models"
)

// Config holds lifecycle configuration for the transaction service.
type Config struct {
	MinAmountGBP  float64
	MaxAmountGBP  float64
	PaymentWindow time.Duration
}

// DefaultConfig returns the stock limits and payment window.
func DefaultConfig() Config {
	return Config{
		MinAmountGBP:  DefaultMinAmountGBP,
		MaxAmountGBP:  DefaultMaxAmountGBP,
		PaymentWindow: DefaultPaymentWindow,
	}
}

// CreateRequest is a user's conversion request.
type CreateRequest struct {
	GBPAmount     float64 `json:"gbp_amount"`
	WalletAddress string  `json:"wallet_address"`
}

// Service drives the transaction lifecycle: creation with all server-side
// gates, owner-scoped reads, and admin transitions guarded by an optimistic
// compare-and-swap on status.
type Service interface {
	Create(ctx context.Context, userID uint, req CreateRequest) (*models.Transaction, error)
	Get(ctx context.Context, publicID string, requesterID uint, isAdmin bool) (*models.Transaction, error)
	ListForUser(ctx context.Context, userID uint, offset, limit int) ([]models.Transaction, int64, error)
	List(ctx context.Context, status models.TransactionStatus, offset, limit int) ([]models.Transaction, int64, error)

	// Admin transitions
	MarkPaymentReceived(ctx context.Context, publicID string, adminID uint) (*models.Transaction, error)
	MarkUSDTSent(ctx context.Context, publicID string, adminID uint, transactionHash string) (*models.Transaction, error)
	Complete(ctx context.Context, publicID string, adminID uint) (*models.Transaction, error)
	Reject(ctx context.Context, publicID string, adminID uint, reason string) (*models.Transaction, error)

	// ExpireOverdue fails pending transactions past their payment deadline.
	ExpireOverdue(ctx context.Context) (int, error)
}
