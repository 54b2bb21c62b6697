package transaction

import (
	"context"
	"strings"
	"testing"
	"time"

	"bridgepay/internal/models"
	"bridgepay/internal/repositories"
	"bridgepay/internal/services/rates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransactionRepo struct {
	mock.Mock
}

type MockUserRepo struct {
	mock.Mock
}

type MockRateService struct {
	mock.Mock
}

var validWallet = "0x" + strings.Repeat("ab12", 10)

func verifiedUser() *models.User {
	u := &models.User{
		Email:         "alice@example.com",
		KYCStatus:     models.KYCVerified,
		TermsAccepted: true,
	}
	u.ID = 1
	return u
}

func newTestService(txnRepo *MockTransactionRepo, userRepo *MockUserRepo, rateSvc *MockRateService) Service {
	return NewService(txnRepo, userRepo, rateSvc, nil, nil, DefaultConfig())
}

func TestService_Create(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		userRepo := new(MockUserRepo)
		rateSvc := new(MockRateService)

		userRepo.On("GetByID", uint(1)).Return(verifiedUser(), nil)
		rateSvc.On("CurrentRate", mock.Anything).Return(&models.ExchangeRate{Rate: 1.25, Source: "test"}, nil)
		txnRepo.On("Create", mock.AnythingOfType("*models.Transaction")).Return(nil)

		s := newTestService(txnRepo, userRepo, rateSvc)
		before := time.Now()
		txn, err := s.Create(context.Background(), 1, CreateRequest{GBPAmount: 100, WalletAddress: validWallet})
		require.NoError(t, err)

		assert.NotEmpty(t, txn.PublicID)
		assert.Equal(t, uint(1), txn.UserID)
		assert.Equal(t, 100.00, txn.GBPAmount)
		assert.Equal(t, 125.00, txn.USDTAmount)
		assert.Equal(t, 1.25, txn.ExchangeRate)
		assert.Equal(t, 2.50, txn.BridgePayFee)
		assert.Equal(t, 1.00, txn.NetworkFee)
		assert.Equal(t, 3.50, txn.TotalFees)
		assert.Equal(t, models.StatusPending, txn.Status)
		assert.Regexp(t, `^REF-[A-Z0-9]{8}$`, txn.PaymentReference)

		// Deadline lands two hours out, give or take test runtime.
		assert.WithinDuration(t, before.Add(DefaultPaymentWindow), txn.PaymentDeadline, 5*time.Second)

		txnRepo.AssertExpectations(t)
		userRepo.AssertExpectations(t)
		rateSvc.AssertExpectations(t)
	})

	t.Run("retries on reference collision", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		userRepo := new(MockUserRepo)
		rateSvc := new(MockRateService)

		userRepo.On("GetByID", uint(1)).Return(verifiedUser(), nil)
		rateSvc.On("CurrentRate", mock.Anything).Return(&models.ExchangeRate{Rate: 1.25}, nil)
		txnRepo.On("Create", mock.AnythingOfType("*models.Transaction")).Return(repositories.ErrDuplicateReference).Once()
		txnRepo.On("Create", mock.AnythingOfType("*models.Transaction")).Return(nil).Once()

		s := newTestService(txnRepo, userRepo, rateSvc)
		txn, err := s.Create(context.Background(), 1, CreateRequest{GBPAmount: 100, WalletAddress: validWallet})
		require.NoError(t, err)
		assert.Regexp(t, `^REF-[A-Z0-9]{8}$`, txn.PaymentReference)

		txnRepo.AssertExpectations(t)
	})

	tests := []struct {
		name      string
		setupUser func(u *models.User)
		amount    float64
		wallet    string
		rateErr   error
		wantErr   error
	}{
		{
			name:      "kyc not verified",
			setupUser: func(u *models.User) { u.KYCStatus = models.KYCUnderReview },
			amount:    100,
			wallet:    validWallet,
			wantErr:   ErrKYCNotVerified,
		},
		{
			name:      "terms not accepted",
			setupUser: func(u *models.User) { u.TermsAccepted = false },
			amount:    100,
			wallet:    validWallet,
			wantErr:   ErrTermsNotAccepted,
		},
		{
			name:    "amount below minimum",
			amount:  9.99,
			wallet:  validWallet,
			wantErr: ErrAmountOutOfRange,
		},
		{
			name:    "amount above maximum",
			amount:  10000.01,
			wallet:  validWallet,
			wantErr: ErrAmountOutOfRange,
		},
		{
			name:    "malformed wallet address",
			amount:  100,
			wallet:  "0xnothex",
			wantErr: ErrInvalidWalletAddress,
		},
		{
			name:    "no exchange rate",
			amount:  100,
			wallet:  validWallet,
			rateErr: repositories.ErrNoRateSample,
			wantErr: ErrNoExchangeRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txnRepo := new(MockTransactionRepo)
			userRepo := new(MockUserRepo)
			rateSvc := new(MockRateService)

			u := verifiedUser()
			if tt.setupUser != nil {
				tt.setupUser(u)
			}
			userRepo.On("GetByID", uint(1)).Return(u, nil)

			if tt.rateErr != nil {
				rateSvc.On("CurrentRate", mock.Anything).Return(nil, rates.ErrNoRate)
			} else {
				rateSvc.On("CurrentRate", mock.Anything).Return(&models.ExchangeRate{Rate: 1.25}, nil).Maybe()
			}

			s := newTestService(txnRepo, userRepo, rateSvc)
			_, err := s.Create(context.Background(), 1, CreateRequest{GBPAmount: tt.amount, WalletAddress: tt.wallet})
			assert.ErrorIs(t, err, tt.wantErr)

			// Gate failures must never reach the database.
			txnRepo.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}

func TestService_Get(t *testing.T) {
	stored := &models.Transaction{PublicID: "pub-1", UserID: 1, Status: models.StatusPending}
	stored.ID = 42

	t.Run("owner sees own transaction", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("GetByPublicID", "pub-1").Return(stored, nil)

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		txn, err := s.Get(context.Background(), "pub-1", 1, false)
		require.NoError(t, err)
		assert.Equal(t, stored, txn)
	})

	t.Run("non owner gets not found", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("GetByPublicID", "pub-1").Return(stored, nil)

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		_, err := s.Get(context.Background(), "pub-1", 2, false)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("admin sees any transaction", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("GetByPublicID", "pub-1").Return(stored, nil)

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		txn, err := s.Get(context.Background(), "pub-1", 99, true)
		require.NoError(t, err)
		assert.Equal(t, stored, txn)
	})

	t.Run("missing transaction", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("GetByPublicID", "gone").Return(nil, repositories.ErrTransactionNotFound)

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		_, err := s.Get(context.Background(), "gone", 1, false)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestService_Transitions(t *testing.T) {
	pendingTxn := func() *models.Transaction {
		txn := &models.Transaction{PublicID: "pub-1", UserID: 1, Status: models.StatusPending}
		txn.ID = 42
		return txn
	}

	t.Run("mark payment received", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("GetByPublicID", "pub-1").Return(pendingTxn(), nil).Once()
		txnRepo.On("TransitionStatus", uint(42), models.StatusPending, models.StatusPaymentReceived, mock.Anything).Return(nil)
		updated := pendingTxn()
		updated.Status = models.StatusPaymentReceived
		txnRepo.On("GetByPublicID", "pub-1").Return(updated, nil).Once()

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		txn, err := s.MarkPaymentReceived(context.Background(), "pub-1", 9)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPaymentReceived, txn.Status)
		txnRepo.AssertExpectations(t)
	})

	t.Run("usdt sent records hash", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("GetByPublicID", "pub-1").Return(pendingTxn(), nil).Once()
		txnRepo.On("TransitionStatus", uint(42), models.StatusPending, models.StatusUSDTSent,
			mock.MatchedBy(func(updates map[string]interface{}) bool {
				return updates["transaction_hash"] == "0xdeadbeef"
			})).Return(nil)
		updated := pendingTxn()
		updated.Status = models.StatusUSDTSent
		txnRepo.On("GetByPublicID", "pub-1").Return(updated, nil).Once()

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		_, err := s.MarkUSDTSent(context.Background(), "pub-1", 9, "0xdeadbeef")
		require.NoError(t, err)
		txnRepo.AssertExpectations(t)
	})

	t.Run("complete stamps completed_at", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("GetByPublicID", "pub-1").Return(pendingTxn(), nil).Once()
		txnRepo.On("TransitionStatus", uint(42), models.StatusPending, models.StatusCompleted,
			mock.MatchedBy(func(updates map[string]interface{}) bool {
				_, ok := updates["completed_at"].(time.Time)
				return ok
			})).Return(nil)
		completed := pendingTxn()
		completed.Status = models.StatusCompleted
		txnRepo.On("GetByPublicID", "pub-1").Return(completed, nil).Once()

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		_, err := s.Complete(context.Background(), "pub-1", 9)
		require.NoError(t, err)
		txnRepo.AssertExpectations(t)
	})

	t.Run("reject stores reason", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("GetByPublicID", "pub-1").Return(pendingTxn(), nil).Once()
		txnRepo.On("TransitionStatus", uint(42), models.StatusPending, models.StatusFailed,
			mock.MatchedBy(func(updates map[string]interface{}) bool {
				return updates["admin_notes"] == "no matching bank transfer"
			})).Return(nil)
		failed := pendingTxn()
		failed.Status = models.StatusFailed
		txnRepo.On("GetByPublicID", "pub-1").Return(failed, nil).Once()

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		_, err := s.Reject(context.Background(), "pub-1", 9, "no matching bank transfer")
		require.NoError(t, err)
		txnRepo.AssertExpectations(t)
	})

	t.Run("terminal transaction refuses any move", func(t *testing.T) {
		completed := pendingTxn()
		completed.Status = models.StatusCompleted

		txnRepo := new(MockTransactionRepo)
		txnRepo.On("GetByPublicID", "pub-1").Return(completed, nil)

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		_, err := s.Reject(context.Background(), "pub-1", 9, "too late")
		assert.ErrorIs(t, err, ErrAlreadyTerminal)
		txnRepo.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("backwards move rejected", func(t *testing.T) {
		sent := pendingTxn()
		sent.Status = models.StatusUSDTSent

		txnRepo := new(MockTransactionRepo)
		txnRepo.On("GetByPublicID", "pub-1").Return(sent, nil)

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		_, err := s.MarkPaymentReceived(context.Background(), "pub-1", 9)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("lost compare and swap surfaces conflict", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("GetByPublicID", "pub-1").Return(pendingTxn(), nil)
		txnRepo.On("TransitionStatus", uint(42), models.StatusPending, models.StatusPaymentReceived, mock.Anything).
			Return(repositories.ErrStatusConflict)

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		_, err := s.MarkPaymentReceived(context.Background(), "pub-1", 9)
		assert.ErrorIs(t, err, ErrStatusConflict)
	})
}

func TestService_ExpireOverdue(t *testing.T) {
	overdue := func(id uint, publicID string) models.Transaction {
		txn := models.Transaction{PublicID: publicID, Status: models.StatusPending}
		txn.ID = id
		return txn
	}

	t.Run("expires each overdue row", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("ListOverduePending", 100).Return([]models.Transaction{
			overdue(1, "pub-1"),
			overdue(2, "pub-2"),
		}, nil)
		txnRepo.On("TransitionStatus", uint(1), models.StatusPending, models.StatusFailed, mock.Anything).Return(nil)
		txnRepo.On("TransitionStatus", uint(2), models.StatusPending, models.StatusFailed, mock.Anything).Return(nil)

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		expired, err := s.ExpireOverdue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, expired)
		txnRepo.AssertExpectations(t)
	})

	t.Run("skips rows an admin already moved", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("ListOverduePending", 100).Return([]models.Transaction{
			overdue(1, "pub-1"),
			overdue(2, "pub-2"),
		}, nil)
		txnRepo.On("TransitionStatus", uint(1), models.StatusPending, models.StatusFailed, mock.Anything).
			Return(repositories.ErrStatusConflict)
		txnRepo.On("TransitionStatus", uint(2), models.StatusPending, models.StatusFailed, mock.Anything).Return(nil)

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		expired, err := s.ExpireOverdue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, expired)
	})

	t.Run("skips rows deleted mid sweep", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("ListOverduePending", 100).Return([]models.Transaction{
			overdue(1, "pub-1"),
			overdue(2, "pub-2"),
		}, nil)
		txnRepo.On("TransitionStatus", uint(1), models.StatusPending, models.StatusFailed, mock.Anything).
			Return(repositories.ErrTransactionNotFound)
		txnRepo.On("TransitionStatus", uint(2), models.StatusPending, models.StatusFailed, mock.Anything).Return(nil)

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		expired, err := s.ExpireOverdue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, expired)
		txnRepo.AssertExpectations(t)
	})

	t.Run("nothing overdue", func(t *testing.T) {
		txnRepo := new(MockTransactionRepo)
		txnRepo.On("ListOverduePending", 100).Return([]models.Transaction{}, nil)

		s := newTestService(txnRepo, new(MockUserRepo), new(MockRateService))
		expired, err := s.ExpireOverdue(context.Background())
		require.NoError(t, err)
		assert.Zero(t, expired)
	})
}

// Mock implementations

func (m *MockTransactionRepo) Create(txn *models.Transaction) error {
	args := m.Called(txn)
	return args.Error(0)
}

func (m *MockTransactionRepo) GetByPublicID(publicID string) (*models.Transaction, error) {
	args := m.Called(publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) ListByUser(userID uint, offset, limit int) ([]models.Transaction, int64, error) {
	args := m.Called(userID, offset, limit)
	return args.Get(0).([]models.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepo) List(status models.TransactionStatus, offset, limit int) ([]models.Transaction, int64, error) {
	args := m.Called(status, offset, limit)
	return args.Get(0).([]models.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepo) TransitionStatus(id uint, from, to models.TransactionStatus, updates map[string]interface{}) error {
	args := m.Called(id, from, to, updates)
	return args.Error(0)
}

func (m *MockTransactionRepo) ListOverduePending(limit int) ([]models.Transaction, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) CountByStatus() (repositories.StatusCounts, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repositories.StatusCounts), args.Error(1)
}

func (m *MockTransactionRepo) CompletedVolume() (float64, error) {
	args := m.Called()
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockUserRepo) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) UpdateKYCStatus(userID uint, status models.KYCStatus) error {
	args := m.Called(userID, status)
	return args.Error(0)
}

func (m *MockUserRepo) UpdateRole(userID uint, role string) error {
	args := m.Called(userID, role)
	return args.Error(0)
}

func (m *MockUserRepo) IncrementTokenVersion(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockUserRepo) List(offset, limit int) ([]models.User, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepo) ListByKYCStatus(status models.KYCStatus, offset, limit int) ([]models.User, int64, error) {
	args := m.Called(status, offset, limit)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepo) DeleteCascade(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockRateService) CurrentRate(ctx context.Context) (*models.ExchangeRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExchangeRate), args.Error(1)
}
