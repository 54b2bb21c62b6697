// Package transaction implements the conversion lifecycle. A request is
// created in pending status with a frozen rate, fee breakdown, payment
// reference and deadline; administrators then drive it through
// payment_received, usdt_sent and completed, or fail it. Every transition
// is validated against the status machine and applied with an optimistic
// compare-and-swap so concurrent admin actions cannot double-process a row.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bridgepay/internal/models"
	"bridgepay/internal/repositories"
	"bridgepay/internal/repositories/cache"
	"bridgepay/internal/services/fees"
	"bridgepay/internal/services/rates"
	"bridgepay/internal/validation"

	"github.com/google/uuid"
)

type service struct {
	txnRepo  repositories.TransactionRepository
	userRepo repositories.UserRepository
	rates    rates.Service
	calc     *fees.Calculator
	cache    *cache.CacheService
	config   Config
}

// NewService creates a new transaction service.
func NewService(
	txnRepo repositories.TransactionRepository,
	userRepo repositories.UserRepository,
	rateSvc rates.Service,
	calc *fees.Calculator,
	cacheSvc *cache.CacheService,
	cfg Config,
) Service {
	if txnRepo == nil {
		panic("transaction repository is required")
	}
	if userRepo == nil {
		panic("user repository is required")
	}
	if rateSvc == nil {
		panic("rates service is required")
	}
	if calc == nil {
		calc = fees.NewCalculator()
	}
	if cfg.MinAmountGBP <= 0 {
		cfg.MinAmountGBP = DefaultMinAmountGBP
	}
	if cfg.MaxAmountGBP <= 0 {
		cfg.MaxAmountGBP = DefaultMaxAmountGBP
	}
	if cfg.PaymentWindow <= 0 {
		cfg.PaymentWindow = DefaultPaymentWindow
	}

	return &service{
		txnRepo:  txnRepo,
		userRepo: userRepo,
		rates:    rateSvc,
		calc:     calc,
		cache:    cacheSvc,
		config:   cfg,
	}
}

func (s *service) Create(ctx context.Context, userID uint, req CreateRequest) (*models.Transaction, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.KYCStatus != models.KYCVerified {
		return nil, ErrKYCNotVerified
	}
	if !user.TermsAccepted {
		return nil, ErrTermsNotAccepted
	}
	if req.GBPAmount < s.config.MinAmountGBP || req.GBPAmount > s.config.MaxAmountGBP {
		return nil, ErrAmountOutOfRange
	}
	if !validation.IsWalletAddress(req.WalletAddress) {
		return nil, ErrInvalidWalletAddress
	}

	sample, err := s.rates.CurrentRate(ctx)
	if err != nil {
		if errors.Is(err, rates.ErrNoRate) {
			return nil, ErrNoExchangeRate
		}
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	usdtAmount, err := s.calc.Conversion(req.GBPAmount, sample.Rate)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.calc.Fees(req.GBPAmount)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	txn := &models.Transaction{
		PublicID:        uuid.NewString(),
		UserID:          userID,
		GBPAmount:       fees.Round2(req.GBPAmount),
		USDTAmount:      usdtAmount,
		ExchangeRate:    sample.Rate,
		BridgePayFee:    breakdown.BridgePayFee,
		NetworkFee:      breakdown.NetworkFee,
		TotalFees:       breakdown.TotalFees,
		WalletAddress:   req.WalletAddress,
		Status:          models.StatusPending,
		PaymentDeadline: now.Add(s.config.PaymentWindow),
	}

	// References are random in a 36^8 space; the unique index is the
	// backstop, retrying on the off chance of a collision.
	for attempt := 0; attempt < referenceRetries; attempt++ {
		ref, err := fees.GeneratePaymentReference()
		if err != nil {
			return nil, fmt.Errorf("failed to generate payment reference: %w", err)
		}
		txn.PaymentReference = ref

		err = s.txnRepo.Create(txn)
		if err == nil {
			return txn, nil
		}
		if !errors.Is(err, repositories.ErrDuplicateReference) {
			return nil, fmt.Errorf("failed to create transaction: %w", err)
		}
		log.Printf("Payment reference collision on %s, regenerating", ref)
	}
	return nil, ErrReferenceExhausted
}

func (s *service) Get(ctx context.Context, publicID string, requesterID uint, isAdmin bool) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByPublicID(publicID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if !isAdmin && txn.UserID != requesterID {
		// Owners see their own rows only; report not-found rather than
		// confirming the id exists.
		return nil, ErrTransactionNotFound
	}
	return txn, nil
}

func (s *service) ListForUser(ctx context.Context, userID uint, offset, limit int) ([]models.Transaction, int64, error) {
	return s.txnRepo.ListByUser(userID, offset, limit)
}

func (s *service) List(ctx context.Context, status models.TransactionStatus, offset, limit int) ([]models.Transaction, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("unknown status filter %q", status)
	}
	return s.txnRepo.List(status, offset, limit)
}

func (s *service) MarkPaymentReceived(ctx context.Context, publicID string, adminID uint) (*models.Transaction, error) {
	return s.transition(ctx, publicID, models.StatusPaymentReceived, map[string]interface{}{})
}

func (s *service) MarkUSDTSent(ctx context.Context, publicID string, adminID uint, transactionHash string) (*models.Transaction, error) {
	updates := map[string]interface{}{}
	if transactionHash != "" {
		updates["transaction_hash"] = transactionHash
	}
	return s.transition(ctx, publicID, models.StatusUSDTSent, updates)
}

func (s *service) Complete(ctx context.Context, publicID string, adminID uint) (*models.Transaction, error) {
	return s.transition(ctx, publicID, models.StatusCompleted, map[string]interface{}{
		"completed_at": time.Now(),
	})
}

func (s *service) Reject(ctx context.Context, publicID string, adminID uint, reason string) (*models.Transaction, error) {
	updates := map[string]interface{}{}
	if reason != "" {
		updates["admin_notes"] = reason
	}
	return s.transition(ctx, publicID, models.StatusFailed, updates)
}

func (s *service) ExpireOverdue(ctx context.Context) (int, error) {
	overdue, err := s.txnRepo.ListOverduePending(100)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, txn := range overdue {
		err := s.txnRepo.TransitionStatus(txn.ID, models.StatusPending, models.StatusFailed, map[string]interface{}{
			"admin_notes": "payment deadline expired",
		})
		if err != nil {
			// A concurrent admin action moved the row, or a cascade
			// delete removed it; either way it is no longer ours.
			if errors.Is(err, repositories.ErrStatusConflict) ||
				errors.Is(err, repositories.ErrTransactionNotFound) {
				continue
			}
			return expired, err
		}
		s.invalidate(ctx, txn.PublicID)
		expired++
	}
	return expired, nil
}

// transition loads the transaction, validates the move against the status
// machine, and applies it with a compare-and-swap on the observed status.
func (s *service) transition(ctx context.Context, publicID string, to models.TransactionStatus, updates map[string]interface{}) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByPublicID(publicID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if txn.Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}
	if !txn.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, txn.Status, to)
	}

	err = s.txnRepo.TransitionStatus(txn.ID, txn.Status, to, updates)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrStatusConflict):
			return nil, ErrStatusConflict
		case errors.Is(err, repositories.ErrTransactionNotFound):
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	s.invalidate(ctx, publicID)

	return s.txnRepo.GetByPublicID(publicID)
}

func (s *service) invalidate(ctx context.Context, publicID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTransaction(ctx, publicID); err != nil {
		log.Printf("Failed to invalidate transaction cache %s: %v", publicID, err)
	}
}
